// Package cli holds the shared plumbing for the s8r command line:
// framework construction from flags and tabular output helpers.
package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/s8r-framework/s8r"
	"github.com/s8r-framework/s8r/internal/config"
	"github.com/s8r-framework/s8r/pkg/domain"
)

// Setup loads the configuration file (if any) and builds the framework.
func Setup(configPath string) (*s8r.Framework, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return s8r.New(s8r.WithConfig(cfg))
}

// PrintComponents renders a component table.
func PrintComponents(w io.Writer, components []*domain.Component) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSTATE\tREASON")
	for _, c := range components {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID().ShortID(), c.Type(), c.State(), c.ID().Reason())
	}
	tw.Flush()
}

// PrintMachines renders a machine table.
func PrintMachines(w io.Writer, machines []*domain.Machine) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSTATE\tVERSION")
	for _, m := range machines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.ID().ShortID(), m.Name(), m.Type(), m.State(), m.Version())
	}
	tw.Flush()
}

// PrintComponent renders a detailed view of one component.
func PrintComponent(w io.Writer, c *domain.Component) {
	fmt.Fprintf(w, "ID:      %s\n", c.ID().String())
	fmt.Fprintf(w, "Type:    %s\n", c.Type())
	fmt.Fprintf(w, "State:   %s (%s)\n", c.State(), c.State().Category())
	fmt.Fprintf(w, "Reason:  %s\n", c.ID().Reason())
	fmt.Fprintf(w, "Created: %s\n", c.CreatedAt().Format("2006-01-02 15:04:05 MST"))
	if lineage := c.ID().Lineage(); len(lineage) > 0 {
		fmt.Fprintf(w, "Lineage: %s\n", strings.Join(lineage, " -> "))
	}
	if log := c.ActivityLog(); len(log) > 0 {
		fmt.Fprintln(w, "Activity:")
		for _, entry := range log {
			fmt.Fprintf(w, "  %s\n", entry)
		}
	}
}

// PrintMachine renders a detailed view of one machine.
func PrintMachine(w io.Writer, m *domain.Machine) {
	fmt.Fprintf(w, "ID:      %s\n", m.ID().String())
	fmt.Fprintf(w, "Name:    %s\n", m.Name())
	fmt.Fprintf(w, "Type:    %s\n", m.Type())
	fmt.Fprintf(w, "State:   %s\n", m.State())
	fmt.Fprintf(w, "Version: %s\n", m.Version())
	if desc := m.Description(); desc != "" {
		fmt.Fprintf(w, "About:   %s\n", desc)
	}
	composites := m.Composites()
	if len(composites) > 0 {
		fmt.Fprintln(w, "Composites:")
		for _, comp := range composites {
			fmt.Fprintf(w, "  %s  %s (%s, %d components)\n",
				comp.ID().ShortID(), comp.ID().Reason(), comp.CompositeType(), len(comp.Components()))
		}
	}
}

// PrintStateTable renders the lifecycle state reference.
func PrintStateTable(w io.Writer, states []domain.State) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATE\tCATEGORY\tANALOG\tNEXT")
	for _, st := range states {
		next := make([]string, 0, len(st.NextStates()))
		for _, n := range st.NextStates() {
			next = append(next, string(n))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", st, st.Category(), st.BiologicalAnalog(), strings.Join(next, ", "))
	}
	tw.Flush()
}
