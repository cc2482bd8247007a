// ABOUTME: Sync command reconciling the calendar feed against the forum
// ABOUTME: Prints colored per-event progress and a summary, exiting non-zero when events fail

package main

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harper/ics2disc/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync calendar events to Discourse topics",
	Long: `Sync every event in the ICS feed to the Discourse forum.

Each event maps to one topic, found again on later runs by the hidden
UID marker in its first post. Existing topics are updated in place: the
body is rewritten when the event changed, and feed tags are merged with
whatever tags moderators added by hand. Titles and categories are never
touched after creation.

Use --dry-run to see the plan without writing anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyFlagOverrides(cmd)
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		runID := uuid.NewString()[:8]
		syncer, err := newSyncer(slog.Default().With("run_id", runID))
		if err != nil {
			return err
		}
		syncer.DryRun = dryRun

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()

		if dryRun {
			fmt.Printf("Syncing %s %s\n", cfg.GetFeedURL(), faint("(dry run)"))
		} else {
			fmt.Printf("Syncing %s\n", cfg.GetFeedURL())
		}

		syncer.Progress = func(res sync.Result) {
			switch res.Action {
			case sync.ActionCreated:
				fmt.Printf("  %s created   %s%s\n", green("v"), res.Title, topicRef(res))
			case sync.ActionUpdated:
				fmt.Printf("  %s updated   %s%s\n", green("v"), res.Title, topicRef(res))
			case sync.ActionUnchanged:
				fmt.Printf("  %s unchanged %s%s\n", faint("-"), res.Title, topicRef(res))
			case sync.ActionFailed:
				fmt.Printf("  %s failed    %s: %v\n", red("x"), res.Title, res.Err)
			}
		}

		report, err := syncer.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Printf("Summary: %d event(s) processed\n", len(report.Results))
		if report.Created > 0 {
			fmt.Printf("  %s %d created\n", green("v"), report.Created)
		}
		if report.Updated > 0 {
			fmt.Printf("  %s %d updated\n", green("v"), report.Updated)
		}
		if report.Unchanged > 0 {
			fmt.Printf("  %s %d unchanged\n", faint("-"), report.Unchanged)
		}
		if report.Failed > 0 {
			fmt.Printf("  %s %d failed\n", red("x"), report.Failed)
		}
		if report.Skipped > 0 {
			fmt.Printf("  %s %d malformed feed entries skipped\n", yellow("!"), report.Skipped)
		}
		if dryRun {
			fmt.Println(faint("Dry run: nothing was written"))
		}

		if report.HasFailures() {
			return fmt.Errorf("%d of %d events failed", report.Failed, len(report.Results))
		}
		return nil
	},
}

// topicRef formats the topic id suffix for a progress line. Dry-run
// creates have no topic yet and get nothing.
func topicRef(res sync.Result) string {
	if res.TopicID == 0 {
		return ""
	}
	return fmt.Sprintf(" (topic %d)", res.TopicID)
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolP("dry-run", "n", false, "plan changes without writing to the forum")
	addForumFlags(syncCmd)
}
