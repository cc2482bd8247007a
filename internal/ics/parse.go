// ABOUTME: Parses ICS payloads into Event models using golang-ical
// ABOUTME: Malformed VEVENTs are logged and skipped so one bad entry never sinks the whole feed

package ics

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	ical "github.com/arran4/golang-ical"

	"github.com/harper/ics2disc/internal/models"
)

// Parse parses an ICS payload into events. A payload that is not a
// valid VCALENDAR is an error. Individual VEVENTs that cannot be
// parsed (missing UID, unusable DTSTART) are logged and skipped;
// the skipped count is returned alongside the parsed events.
func Parse(data []byte) ([]models.Event, int, error) {
	if len(data) == 0 {
		return nil, 0, errors.New("empty calendar payload")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse calendar: %w", err)
	}

	events := make([]models.Event, 0)
	skipped := 0

	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			uid := ""
			if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
				uid = p.Value
			}
			slog.Warn("Skipping malformed calendar entry", "uid", uid, "error", perr)
			skipped++
			continue
		}
		events = append(events, ev)
	}

	return events, skipped, nil
}

// CalendarName extracts the display name of a raw ICS payload from its
// X-WR-CALNAME (or RFC 7986 NAME) property, or "" when absent.
func CalendarName(data []byte) string {
	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	for _, prop := range cal.CalendarProperties {
		switch prop.IANAToken {
		case "X-WR-CALNAME", "NAME":
			if prop.Value != "" {
				return unescapeText(prop.Value)
			}
		}
	}
	return ""
}

func parseVEvent(ve *ical.VEvent) (models.Event, error) {
	var ev models.Event

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return ev, errors.New("missing UID")
	}
	ev.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Summary = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Description = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = unescapeText(p.Value)
	}
	if p := ve.GetProperty("URL"); p != nil {
		ev.URL = p.Value
	}

	// The library handles TZID/VTIMEZONE logic for us
	start, err := ve.GetStartAt()
	if err != nil {
		return ev, fmt.Errorf("unusable DTSTART: %w", err)
	}
	ev.Start = start

	// Missing or malformed DTEND leaves End zero; rendering copes
	if end, err := ve.GetEndAt(); err == nil {
		ev.End = end
	}

	// All-day when DTSTART carries VALUE=DATE or has no time component
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if params := p.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				ev.AllDay = true
			}
		}
		if !strings.Contains(p.Value, "T") {
			ev.AllDay = true
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.RRule = p.Value
	}

	return ev, nil
}

// unescapeText reverses RFC 5545 TEXT escaping: \n becomes a newline,
// \\ \; \, become their literal characters
func unescapeText(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n', 'N':
				b.WriteByte('\n')
			case '\\', ';', ',':
				b.WriteByte(s[i])
			default:
				b.WriteByte('\\')
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
