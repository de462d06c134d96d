package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/s8r-framework/s8r"
	"github.com/s8r-framework/s8r/pkg/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate legacy tubes into components",
}

var migrateTubeCmd = &cobra.Command{
	Use:   "tube <reason>",
	Short: "Create a legacy tube and wrap it as a component",
	Long: `Creates a legacy tube with the given creation reason, wraps it in a
component with a deterministic identity derived from the tube ID, and
persists the result. Migration findings are reported afterwards.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withFramework(cmd, func(ctx context.Context, fw *s8r.Framework) error {
			env, _ := cmd.Flags().GetStringToString("env")
			delay, _ := cmd.Flags().GetDuration("termination-delay")
			if !cmd.Flags().Changed("termination-delay") {
				delay = fw.Config().Migration.TerminationDelay
			}

			factory := migration.NewFactory(
				migration.WithRepository(fw.ComponentRepository()),
				migration.WithPublisher(fw.Dispatcher()),
				migration.WithLogger(fw.Logger()),
				migration.WithTerminationDelay(delay),
			)

			component, tube, err := factory.CreateTubeComponent(ctx, args[0], env)
			if err != nil {
				return err
			}

			fmt.Printf("Tube:      %s\n", tube.UniqueID())
			fmt.Printf("Component: %s (%s)\n", component.ID().String(), component.State())
			fmt.Println(factory.Issues().Summary())
			return nil
		})
	},
}

var migrateReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report components migrated from legacy tubes",
	Run: func(cmd *cobra.Command, args []string) {
		withFramework(cmd, func(ctx context.Context, fw *s8r.Framework) error {
			list, err := fw.Components().ListComponents(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "COMPONENT\tSTATE\tLEGACY TUBE ID")
			migrated := 0
			for _, c := range list {
				legacyID, ok := c.Property(migration.PropertyLegacyTubeID)
				if !ok {
					continue
				}
				migrated++
				fmt.Fprintf(tw, "%s\t%s\t%v\n", c.ID().ShortID(), c.State(), legacyID)
			}
			tw.Flush()
			fmt.Printf("\n%d of %d component(s) migrated from legacy tubes\n", migrated, len(list))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateTubeCmd)
	migrateCmd.AddCommand(migrateReportCmd)

	migrateTubeCmd.Flags().StringToString("env", nil, "Environment entries recorded in the tube identity (key=value)")
	migrateTubeCmd.Flags().Duration("termination-delay", 0, "Tube self-termination delay (overrides configuration)")
}
