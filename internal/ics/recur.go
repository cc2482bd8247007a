// ABOUTME: Recurrence rule helpers built on rrule-go
// ABOUTME: Renders RRULEs as deterministic human-readable text and computes next occurrences for display

package ics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/harper/ics2disc/internal/models"
)

var freqNouns = map[rrule.Frequency]string{
	rrule.YEARLY:   "year",
	rrule.MONTHLY:  "month",
	rrule.WEEKLY:   "week",
	rrule.DAILY:    "day",
	rrule.HOURLY:   "hour",
	rrule.MINUTELY: "minute",
	rrule.SECONDLY: "second",
}

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DescribeRecurrence renders an RRULE as human-readable text, e.g.
// "every 2 weeks on Monday, 10 times". The output is deterministic:
// the same rule always renders the same text. Rules that cannot be
// parsed are returned verbatim rather than dropped.
func DescribeRecurrence(rule string) string {
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return rule
	}

	noun, ok := freqNouns[opt.Freq]
	if !ok {
		return rule
	}

	var b strings.Builder
	if opt.Interval > 1 {
		fmt.Fprintf(&b, "every %d %ss", opt.Interval, noun)
	} else {
		b.WriteString("every " + noun)
	}

	if len(opt.Byweekday) > 0 {
		names := make([]string, 0, len(opt.Byweekday))
		for _, wd := range opt.Byweekday {
			names = append(names, weekdayName(wd))
		}
		b.WriteString(" on " + strings.Join(names, ", "))
	} else if len(opt.Bymonthday) > 0 {
		days := make([]string, 0, len(opt.Bymonthday))
		for _, d := range opt.Bymonthday {
			days = append(days, strconv.Itoa(d))
		}
		b.WriteString(" on day " + strings.Join(days, ", "))
	}

	if opt.Count == 1 {
		b.WriteString(", once")
	} else if opt.Count > 1 {
		fmt.Fprintf(&b, ", %d times", opt.Count)
	} else if !opt.Until.IsZero() {
		b.WriteString(", until " + opt.Until.Format("2006-01-02"))
	}

	return b.String()
}

func weekdayName(wd rrule.Weekday) string {
	name := weekdayNames[wd.Day()]
	switch n := wd.N(); {
	case n == 0:
		return name
	case n == 1:
		return "the first " + name
	case n == 2:
		return "the second " + name
	case n == 3:
		return "the third " + name
	case n == -1:
		return "the last " + name
	case n < 0:
		return fmt.Sprintf("the %dth-to-last %s", -n, name)
	default:
		return fmt.Sprintf("the %dth %s", n, name)
	}
}

// OccursWithin reports whether an event has an occurrence in the
// half-open range [start, end). Non-recurring events match on their
// start time alone; recurring events match when any occurrence lands
// inside the range. Unparseable rules never match outside the event's
// own start.
func OccursWithin(ev models.Event, start, end time.Time) bool {
	if !ev.Start.Before(start) && ev.Start.Before(end) {
		return true
	}
	if !ev.Recurs() {
		return false
	}

	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		return false
	}
	r.DTStart(ev.Start)

	next := r.After(start, true)
	return !next.IsZero() && next.Before(end)
}

// NextOccurrence returns the first occurrence of a recurring event
// after the given time. Display helper only: recurring events still
// map to a single topic keyed by their UID, so nothing here feeds the
// reconciler. ok is false when the rule cannot be parsed or the series
// has ended.
func NextOccurrence(rule string, dtstart, after time.Time) (time.Time, bool) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return time.Time{}, false
	}
	r.DTStart(dtstart)

	next := r.After(after, false)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}
