// ABOUTME: Events command for listing calendar entries with period filtering
// ABOUTME: Displays UID, title, start time, and recurrence using color formatting

package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/ics2disc/internal/ics"
	"github.com/harper/ics2disc/internal/models"
	"github.com/harper/ics2disc/internal/timeutil"
)

var eventsCmd = &cobra.Command{
	Use:     "events",
	Aliases: []string{"ls", "list"},
	Short:   "List events in the calendar feed",
	Long:    "List events from the ICS feed with optional filtering by period",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyFlagOverrides(cmd)
		today, _ := cmd.Flags().GetBool("today")
		week, _ := cmd.Flags().GetBool("week")
		month, _ := cmd.Flags().GetBool("month")
		limit, _ := cmd.Flags().GetInt("limit")

		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		events, skipped, err := loadFeedEvents(cmd.Context())
		if err != nil {
			return err
		}

		// Calculate the window based on smart view flags
		var window timeutil.Window
		switch {
		case today:
			window = timeutil.Today()
		case week:
			window = timeutil.ThisWeek()
		case month:
			window = timeutil.ThisMonth()
		}

		if !window.IsZero() {
			filtered := make([]models.Event, 0, len(events))
			for _, ev := range events {
				if ics.OccursWithin(ev, window.Start, window.End) {
					filtered = append(filtered, ev)
				}
			}
			events = filtered
		}

		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Start.Before(events[j].Start)
		})

		if limit > 0 && len(events) > limit {
			events = events[:limit]
		}

		if len(events) == 0 {
			fmt.Println("No events found")
			return nil
		}

		faint := color.New(color.Faint).SprintFunc()

		for _, ev := range events {
			// UID (truncated, faint) then title and start time
			fmt.Print(faint(fmt.Sprintf("%-14s", shortUID(ev.UID))))
			fmt.Print(" ")
			fmt.Print(ev.Title())
			fmt.Print(" ")
			fmt.Print(faint(formatStart(ev, loc)))

			if note := recurrenceNote(ev, loc, time.Now()); note != "" {
				fmt.Print(" ")
				fmt.Print(faint(note))
			}

			fmt.Println()
		}

		if skipped > 0 {
			fmt.Printf("\n%d malformed feed entries skipped\n", skipped)
		}

		return nil
	},
}

// shortUID truncates long calendar UIDs for display. Preview accepts
// the truncated form as a prefix.
func shortUID(uid string) string {
	if len(uid) > 14 {
		return uid[:14]
	}
	return uid
}

// formatStart renders the event start in the site timezone, date-only
// for all-day events
func formatStart(ev models.Event, loc *time.Location) string {
	if ev.AllDay {
		return ev.Start.Format("02 Jan 06") + " (all day)"
	}
	return ev.Start.In(loc).Format("02 Jan 06 15:04 MST")
}

// recurrenceNote renders the parenthetical suffix for a recurring
// event: the rule as text plus its next occurrence after now. One-off
// events get nothing; a series that has already ended keeps only the
// rule text.
func recurrenceNote(ev models.Event, loc *time.Location, now time.Time) string {
	if !ev.Recurs() {
		return ""
	}
	desc := ics.DescribeRecurrence(ev.RRule)
	if desc == "" {
		return ""
	}
	if next, ok := ics.NextOccurrence(ev.RRule, ev.Start, now); ok {
		desc += "; next " + next.In(loc).Format("02 Jan 06")
	}
	return "(" + desc + ")"
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().Bool("today", false, "show only events occurring today")
	eventsCmd.Flags().Bool("week", false, "show only this week's events")
	eventsCmd.Flags().Bool("month", false, "show only this month's events")
	eventsCmd.Flags().IntP("limit", "n", 0, "max events to show (0 = all)")
	eventsCmd.Flags().String("site-tz", "", "IANA timezone event times are rendered in (overrides config)")

	eventsCmd.MarkFlagsMutuallyExclusive("today", "week", "month")
}
