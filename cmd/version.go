// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build metadata, overridden at link time. Version is also stamped into
// every health report.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the netcheck build information",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Print(versionString())
	},
}

func versionString() string {
	return fmt.Sprintf("netcheck %s\ncommit: %s\nbuilt: %s\ngo: %s\n",
		Version, Commit, Date, runtime.Version())
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
