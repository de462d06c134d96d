package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s8r-framework/s8r"
	"github.com/s8r-framework/s8r/internal/cli"
	"github.com/s8r-framework/s8r/internal/presentation/graph"
	"github.com/s8r-framework/s8r/pkg/domain"
)

var machineCmd = &cobra.Command{
	Use:   "machine",
	Short: "Manage machines",
}

var machineCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a machine",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withFramework(cmd, func(ctx context.Context, fw *s8r.Framework) error {
			machineType, _ := cmd.Flags().GetString("type")
			description, _ := cmd.Flags().GetString("description")
			version, _ := cmd.Flags().GetString("machine-version")

			m, err := fw.Machines().CreateMachine(ctx, domain.MachineType(machineType), args[0], description, version)
			if err != nil {
				return err
			}
			fmt.Printf("Created machine %s (%s)\n", m.ID().String(), m.State())
			return nil
		})
	},
}

var machineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List machines",
	Run: func(cmd *cobra.Command, args []string) {
		withFramework(cmd, func(ctx context.Context, fw *s8r.Framework) error {
			list, err := fw.Machines().ListMachines(ctx)
			if err != nil {
				return err
			}
			cli.PrintMachines(cmd.OutOrStdout(), list)
			return nil
		})
	},
}

var machineDescribeCmd = &cobra.Command{
	Use:   "describe <id>",
	Short: "Show a machine in detail",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withFramework(cmd, func(ctx context.Context, fw *s8r.Framework) error {
			id, err := domain.ParseComponentID(args[0], "")
			if err != nil {
				return err
			}
			m, err := fw.Machines().GetMachine(ctx, id)
			if err != nil {
				return err
			}
			cli.PrintMachine(cmd.OutOrStdout(), m)
			return nil
		})
	},
}

var machineGraphCmd = &cobra.Command{
	Use:   "graph <id>",
	Short: "Render a machine topology as a Mermaid diagram",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withFramework(cmd, func(ctx context.Context, fw *s8r.Framework) error {
			id, err := domain.ParseComponentID(args[0], "")
			if err != nil {
				return err
			}
			m, err := fw.Machines().GetMachine(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMachineMermaid(m))
			return nil
		})
	},
}

// machineOpCmd builds a command that runs a single machine operation.
func machineOpCmd(use, short string, op func(*s8r.Framework) func(context.Context, domain.ComponentID) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withFramework(cmd, func(ctx context.Context, fw *s8r.Framework) error {
				id, err := domain.ParseComponentID(args[0], "")
				if err != nil {
					return err
				}
				return op(fw)(ctx, id)
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(machineCmd)
	machineCmd.AddCommand(machineCreateCmd)
	machineCmd.AddCommand(machineListCmd)
	machineCmd.AddCommand(machineDescribeCmd)
	machineCmd.AddCommand(machineGraphCmd)
	machineCmd.AddCommand(machineOpCmd("init", "Initialize a machine", func(fw *s8r.Framework) func(context.Context, domain.ComponentID) error {
		return fw.Machines().Initialize
	}))
	machineCmd.AddCommand(machineOpCmd("start", "Start a machine", func(fw *s8r.Framework) func(context.Context, domain.ComponentID) error {
		return fw.Machines().Start
	}))
	machineCmd.AddCommand(machineOpCmd("stop", "Stop a machine", func(fw *s8r.Framework) func(context.Context, domain.ComponentID) error {
		return fw.Machines().Stop
	}))
	machineCmd.AddCommand(machineOpCmd("destroy", "Destroy a machine", func(fw *s8r.Framework) func(context.Context, domain.ComponentID) error {
		return fw.Machines().Destroy
	}))

	machineCreateCmd.Flags().String("type", string(domain.MachineTypeStandard), "Machine type")
	machineCreateCmd.Flags().String("description", "", "Machine description")
	machineCreateCmd.Flags().String("machine-version", "1.0.0", "Initial machine version")
}
