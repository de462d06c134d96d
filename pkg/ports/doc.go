// Package ports defines the boundary interfaces of the s8r framework.
//
// The domain and application layers depend only on these interfaces;
// infrastructure adapters (memory, redis, http, mcp) implement them. This is
// the seam that keeps the framework testable and lets deployments swap
// persistence and transport without touching the core.
package ports
