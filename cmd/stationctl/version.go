package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Overridden at build time with -ldflags.
var (
	version = "dev"
	commit  = "none"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stationctl %s (%s)\n", version, commit)
		},
	}
}
