package main

import (
	"fmt"
	"strings"

	"github.com/s8r-framework/s8r"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of s8r",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("s8r version %s\n", strings.TrimSpace(s8r.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
