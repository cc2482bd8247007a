// ABOUTME: Preview command rendering the topic a calendar event would produce
// ABOUTME: Shows a formatted header plus the body via glamour, or the raw markdown payload

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/ics2disc/internal/models"
	"github.com/harper/ics2disc/internal/reconcile"
	"github.com/harper/ics2disc/internal/render"
)

var previewCmd = &cobra.Command{
	Use:   "preview [uid]",
	Short: "Preview the topic an event would produce",
	Long: `Render the Discourse topic for one event without touching the forum.

With no argument the first event in the feed is shown. Pass a UID or a
unique UID prefix to pick a specific event. The default output is
formatted for the terminal; --raw prints the exact markdown a sync
would post, including the hidden UID marker.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyFlagOverrides(cmd)
		raw, _ := cmd.Flags().GetBool("raw")

		events, _, err := loadFeedEvents(cmd.Context())
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return fmt.Errorf("feed has no events")
		}

		ev := events[0]
		if len(args) == 1 {
			ev, err = findEventByUID(events, args[0])
			if err != nil {
				return err
			}
		}

		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		// Plan against an absent topic to get exactly what a create would post
		plan := reconcile.Build(ev, nil, planParams(loc))
		create := plan.Create

		if raw {
			fmt.Println(create.Body)
			return nil
		}

		bold := color.New(color.Bold).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Println(strings.Repeat("─", 60))
		fmt.Printf("%s\n\n", bold(create.Title))
		fmt.Printf("%s %s\n", faint("UID:"), ev.UID)
		fmt.Printf("%s %s\n", faint("Starts:"), formatStart(ev, loc))
		if ev.Location != "" {
			fmt.Printf("%s %s\n", faint("Where:"), ev.Location)
		}
		if ev.URL != "" {
			fmt.Printf("%s %s\n", faint("Link:"), cyan(ev.URL))
		}
		if create.CategoryID > 0 {
			fmt.Printf("%s %d\n", faint("Category:"), create.CategoryID)
		}
		if len(create.Tags) > 0 {
			fmt.Printf("%s %s\n", faint("Tags:"), strings.Join(create.Tags, ", "))
		}
		fmt.Println(strings.Repeat("─", 60))

		// Render without the marker comment; --raw keeps it
		rendered, err := glamour.Render(render.StripMarker(create.Body), "dark")
		if err != nil {
			fmt.Printf("%s\n", faint("(markdown rendering unavailable, showing plain text)"))
			fmt.Printf("\n%s\n", create.Body)
		} else {
			fmt.Print(rendered)
		}

		return nil
	},
}

// findEventByUID matches an event by exact UID, then by unique prefix
func findEventByUID(events []models.Event, ref string) (models.Event, error) {
	for _, ev := range events {
		if ev.UID == ref {
			return ev, nil
		}
	}

	var matches []models.Event
	for _, ev := range events {
		if strings.HasPrefix(ev.UID, ref) {
			matches = append(matches, ev)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return models.Event{}, fmt.Errorf("event not found: %s", ref)
	default:
		return models.Event{}, fmt.Errorf("UID prefix %q matches %d events, be more specific", ref, len(matches))
	}
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().Bool("raw", false, "print the exact topic markdown instead of rendering it")
	addForumFlags(previewCmd)
}
