package s8r_test

import (
	"context"
	"fmt"
	"log"

	"github.com/s8r-framework/s8r"
	"github.com/s8r-framework/s8r/pkg/domain"
)

// ExampleNew demonstrates creating a component and walking it through
// its lifecycle.
func ExampleNew() {
	fw, err := s8r.New()
	if err != nil {
		log.Fatal(err)
	}
	defer fw.Close()

	ctx := context.Background()

	c, err := fw.Components().CreateComponent(ctx, "greeter")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("state:", c.State())

	if err := fw.Components().ActivateComponent(ctx, c.ID()); err != nil {
		log.Fatal(err)
	}

	c, err = fw.Components().GetComponent(ctx, c.ID())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("state:", c.State())

	// Output:
	// state: ready
	// state: active
}

// ExampleFramework_Machines assembles a machine from a composite and
// runs it.
func ExampleFramework_Machines() {
	fw, err := s8r.New()
	if err != nil {
		log.Fatal(err)
	}
	defer fw.Close()

	ctx := context.Background()

	m, err := fw.Machines().CreateMachine(ctx, domain.MachineTypeDataProcessor, "ingest", "data intake", "1.0.0")
	if err != nil {
		log.Fatal(err)
	}

	pipeline, err := fw.Components().CreateComposite(ctx, "intake", domain.CompositePipeline)
	if err != nil {
		log.Fatal(err)
	}
	if err := fw.Machines().AddComposite(ctx, m.ID(), pipeline.ID()); err != nil {
		log.Fatal(err)
	}

	if err := fw.Machines().Initialize(ctx, m.ID()); err != nil {
		log.Fatal(err)
	}
	if err := fw.Machines().Start(ctx, m.ID()); err != nil {
		log.Fatal(err)
	}

	m, err = fw.Machines().GetMachine(ctx, m.ID())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("machine:", m.State())

	// Output:
	// machine: running
}
