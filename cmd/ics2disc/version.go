// ABOUTME: Version command for the ics2disc CLI
// ABOUTME: Reports the build version, plus commit and date when a release build stamped them

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set via ldflags at release build time; source builds stay "dev".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print the ics2disc version, with commit hash and build date when available.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(versionString())
	},
}

// versionString folds commit and build date into one line, leaving
// them out when the build did not stamp them
func versionString() string {
	s := "ics2disc " + Version
	if Commit == "unknown" {
		return s
	}
	s += " (" + Commit
	if BuildDate != "unknown" {
		s += ", built " + BuildDate
	}
	return s + ")"
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
