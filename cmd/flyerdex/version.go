package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/flyerdex/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the flyerdex version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "flyerdex %s (commit %s, built %s)\n",
			version.Version, version.Commit, version.Date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
