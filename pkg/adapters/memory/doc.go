// Package memory provides in-memory implementations of the framework ports.
//
// All adapters are safe for concurrent use and copy nothing across the
// boundary: entities are stored by reference, so callers share the same
// lifecycle state. The adapters suit embedded use, tests, and single
// process deployments. For multi-process persistence see the redis
// package.
package memory
