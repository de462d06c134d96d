package main

import (
	"github.com/spf13/cobra"

	"github.com/s8r-framework/s8r/internal/cli"
	"github.com/s8r-framework/s8r/pkg/domain"
)

var statesCmd = &cobra.Command{
	Use:   "states",
	Short: "Print the lifecycle state reference",
	Long:  `Prints every component lifecycle state with its category, biological analog and legal transitions.`,
	Run: func(cmd *cobra.Command, args []string) {
		cli.PrintStateTable(cmd.OutOrStdout(), domain.AllStates())
	},
}

func init() {
	rootCmd.AddCommand(statesCmd)
}
