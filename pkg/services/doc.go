// Package services is the application layer. Each service wraps the
// domain entities with persistence, per-entity locking and event
// publication: operations load the entity, apply the domain method,
// save, and only then publish the events the entity raised.
package services
