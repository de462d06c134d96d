package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/s8r-framework/s8r"
	"github.com/s8r-framework/s8r/internal/cli"
	"github.com/s8r-framework/s8r/pkg/domain"
)

var componentCmd = &cobra.Command{
	Use:   "component",
	Short: "Manage components",
}

var componentCreateCmd = &cobra.Command{
	Use:   "create <reason>",
	Short: "Create a component",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withFramework(cmd, func(ctx context.Context, fw *s8r.Framework) error {
			componentType, _ := cmd.Flags().GetString("type")
			c, err := fw.Components().CreateComponentOfType(ctx, args[0], componentType)
			if err != nil {
				return err
			}
			fmt.Printf("Created component %s (%s)\n", c.ID().String(), c.State())
			return nil
		})
	},
}

var componentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List components",
	Run: func(cmd *cobra.Command, args []string) {
		withFramework(cmd, func(ctx context.Context, fw *s8r.Framework) error {
			list, err := fw.Components().ListComponents(ctx)
			if err != nil {
				return err
			}
			cli.PrintComponents(cmd.OutOrStdout(), list)
			return nil
		})
	},
}

var componentDescribeCmd = &cobra.Command{
	Use:   "describe <id>",
	Short: "Show a component in detail",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withFramework(cmd, func(ctx context.Context, fw *s8r.Framework) error {
			id, err := domain.ParseComponentID(args[0], "")
			if err != nil {
				return err
			}
			c, err := fw.Components().GetComponent(ctx, id)
			if err != nil {
				return err
			}
			cli.PrintComponent(cmd.OutOrStdout(), c)
			return nil
		})
	},
}

var componentActivateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Activate a component",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withFramework(cmd, func(ctx context.Context, fw *s8r.Framework) error {
			id, err := domain.ParseComponentID(args[0], "")
			if err != nil {
				return err
			}
			return fw.Components().ActivateComponent(ctx, id)
		})
	},
}

var componentTerminateCmd = &cobra.Command{
	Use:   "terminate <id>",
	Short: "Terminate a component",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withFramework(cmd, func(ctx context.Context, fw *s8r.Framework) error {
			id, err := domain.ParseComponentID(args[0], "")
			if err != nil {
				return err
			}
			return fw.Components().TerminateComponent(ctx, id)
		})
	},
}

// withFramework builds the framework from the --config flag, runs fn and
// reports errors on stderr.
func withFramework(cmd *cobra.Command, fn func(context.Context, *s8r.Framework) error) {
	configPath, _ := cmd.Flags().GetString("config")
	fw, err := cli.Setup(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing s8r: %v\n", err)
		os.Exit(1)
	}
	defer fw.Close()

	if err := fn(cmd.Context(), fw); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(componentCmd)
	componentCmd.AddCommand(componentCreateCmd)
	componentCmd.AddCommand(componentListCmd)
	componentCmd.AddCommand(componentDescribeCmd)
	componentCmd.AddCommand(componentActivateCmd)
	componentCmd.AddCommand(componentTerminateCmd)

	componentCreateCmd.Flags().String("type", domain.TypeStandard, "Component type")
}
