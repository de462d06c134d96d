// Package domain contains the core entities of the s8r framework:
// components, composites, machines, their unified lifecycle states and
// the events they raise.
//
// The package has no dependencies on ports or adapters. Entities collect
// domain events while they mutate; the application layer drains and
// dispatches them after persistence.
package domain
