// ABOUTME: Time window helpers for filtering calendar events by period
// ABOUTME: Provides today, this-week, and this-month ranges in local time

package timeutil

import "time"

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the window is unset
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// StartOfToday returns midnight (00:00:00) of the current day in local time
func StartOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// Today returns the window covering the current day
func Today() Window {
	start := StartOfToday()
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// ThisWeek returns the window from the most recent Sunday through the
// following Sunday
// Note: Week starts on Sunday
func ThisWeek() Window {
	today := StartOfToday()
	weekday := int(today.Weekday())
	start := today.AddDate(0, 0, -weekday)
	return Window{Start: start, End: start.AddDate(0, 0, 7)}
}

// ThisMonth returns the window covering the current calendar month
func ThisMonth() Window {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// ParsePeriod converts a period name to its window
// Supported values: "today", "week", "month"
func ParsePeriod(period string) (Window, bool) {
	switch period {
	case "today":
		return Today(), true
	case "week":
		return ThisWeek(), true
	case "month":
		return ThisMonth(), true
	default:
		return Window{}, false
	}
}
