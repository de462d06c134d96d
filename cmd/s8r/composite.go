package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s8r-framework/s8r"
	"github.com/s8r-framework/s8r/internal/presentation/graph"
	"github.com/s8r-framework/s8r/pkg/domain"
)

var compositeCmd = &cobra.Command{
	Use:   "composite",
	Short: "Manage composites",
}

var compositeCreateCmd = &cobra.Command{
	Use:   "create <reason>",
	Short: "Create a composite",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withFramework(cmd, func(ctx context.Context, fw *s8r.Framework) error {
			compositeType, _ := cmd.Flags().GetString("type")
			c, err := fw.Components().CreateComposite(ctx, args[0], domain.CompositeType(compositeType))
			if err != nil {
				return err
			}
			fmt.Printf("Created composite %s (%s)\n", c.ID().String(), c.CompositeType())
			return nil
		})
	},
}

var compositeGraphCmd = &cobra.Command{
	Use:   "graph <id>",
	Short: "Render a composite topology as a Mermaid diagram",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withFramework(cmd, func(ctx context.Context, fw *s8r.Framework) error {
			id, err := domain.ParseComponentID(args[0], "")
			if err != nil {
				return err
			}
			composite, err := fw.Components().GetComposite(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(composite))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(compositeCmd)
	compositeCmd.AddCommand(compositeCreateCmd)
	compositeCmd.AddCommand(compositeGraphCmd)

	compositeCreateCmd.Flags().String("type", string(domain.CompositePipeline), "Composite type")
}
