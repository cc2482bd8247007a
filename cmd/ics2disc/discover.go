// ABOUTME: Discover command for finding the ICS feed behind a website URL
// ABOUTME: Probes the URL directly, its HTML link elements, and common feed paths

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/ics2disc/internal/discover"
)

var discoverCmd = &cobra.Command{
	Use:   "discover <url>",
	Short: "Find the ICS feed behind a website",
	Long: `Probe a URL for an ICS calendar feed.

Tries the URL as a calendar itself, then any <link rel="alternate">
calendar references in its HTML, then common feed paths like
/calendar.ics and /?ical=1.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cal, err := discover.Discover(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()

		if cal.Name != "" {
			fmt.Printf("%s %s\n", green("v"), cal.Name)
		} else {
			fmt.Printf("%s calendar found\n", green("v"))
		}
		fmt.Printf("  %s\n", cal.URL)

		fmt.Println()
		fmt.Println(faint("Use it with:"))
		fmt.Printf("  ics2disc sync --feed %s\n", cal.URL)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}
