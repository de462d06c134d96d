/*
Package s8r is a component lifecycle framework for building systems out
of small, composable processing units with explicit state machines.

Components move through a unified lifecycle that combines developmental
phases (conception, initializing, configuring, specializing, developing
features) with operational states (ready, active, waiting, adapting,
transforming), maturity states and an ordered termination sequence.
Composites group components and connect them into processing topologies,
and machines orchestrate composites under their own coarser state
machine.

# Architecture

The domain model is isolated behind ports. Application services expose
the use cases, and adapters supply persistence (in-memory or Redis),
event dispatch and data flow. Hosts embed the framework through the
Framework facade and choose their own outer surface: HTTP, CLI or MCP.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/s8r-framework/s8r"
	)

	func main() {
		fw, err := s8r.New()
		if err != nil {
			log.Fatal(err)
		}
		defer fw.Close()

		ctx := context.Background()

		// Create a component. It runs through its developmental
		// phases and lands in the ready state.
		c, err := fw.Components().CreateComponent(ctx, "order processor")
		if err != nil {
			log.Fatal(err)
		}

		// Activate it.
		if err := fw.Components().ActivateComponent(ctx, c.ID()); err != nil {
			log.Fatal(err)
		}
	}

Legacy tube instances can be brought into the component model through
the pkg/migration package, which preserves their identity and maps
their status onto the unified lifecycle.
*/
package s8r
