// ABOUTME: Event model representing a single calendar event parsed from an ICS feed
// ABOUTME: The UID is the idempotency key linking the event to its forum topic

package models

import "time"

// Event represents a single VEVENT from an ICS calendar feed
type Event struct {
	UID         string    // Idempotency key (required; events without one are skipped)
	Summary     string    // Event title (topic title at creation time)
	Start       time.Time // Event start, timezone-aware
	End         time.Time // Event end; zero when the feed omits DTEND
	AllDay      bool      // DTSTART carried VALUE=DATE (no time component)
	Location    string    // Optional venue text
	Description string    // Optional body text; may be HTML in the wild
	URL         string    // Optional event link
	RRule       string    // Raw RRULE value when the event recurs
}

// Title returns the topic title for the event, falling back to a
// placeholder when the feed omits SUMMARY
func (e *Event) Title() string {
	if e.Summary == "" {
		return "Untitled event"
	}
	return e.Summary
}

// HasEnd reports whether the feed supplied an end time
func (e *Event) HasEnd() bool {
	return !e.End.IsZero()
}

// Recurs reports whether the event carries a recurrence rule
func (e *Event) Recurs() bool {
	return e.RRule != ""
}
