// ABOUTME: Renders the Discourse topic body for a calendar event
// ABOUTME: Embeds the hidden UID marker that makes re-runs find their own topics

package render

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/harper/ics2disc/internal/ics"
	"github.com/harper/ics2disc/internal/models"
)

const (
	timeLayout = "2006-01-02 15:04"
	dateLayout = "2006-01-02"
)

var (
	markerExtractPattern = regexp.MustCompile(`(?i)<!--\s*ICSUID:(.+?)\s*-->`)
	markerStripPattern   = regexp.MustCompile(`(?i)<!--\s*ICSUID:.+?-->\s*`)
)

// Marker returns the hidden HTML comment embedding the event UID.
// It is placed at the top of the first post so later runs can find
// the topic by searching for the UID.
func Marker(uid string) string {
	return fmt.Sprintf("<!-- ICSUID:%s -->", uid)
}

// ExtractUID returns the UID embedded in a post body, or "" when the
// body carries no marker
func ExtractUID(raw string) string {
	m := markerExtractPattern.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return m[1]
}

// StripMarker removes the UID marker (and trailing whitespace) from a
// post body so bodies can be compared independent of marker placement
func StripMarker(raw string) string {
	return markerStripPattern.ReplaceAllString(raw, "")
}

// UIDTag returns the per-event tag derived from the UID. Raw UIDs are
// often too long for Discourse tag limits, so the tag carries a short
// stable hash instead.
func UIDTag(uid string) string {
	h := sha1.Sum([]byte(uid))
	return "ics-" + hex.EncodeToString(h[:])[:10]
}

// Body renders the complete first-post body for an event: the hidden
// marker followed by the [event] block. Rendering is deterministic, so
// equal events always produce byte-equal bodies.
func Body(ev models.Event, loc *time.Location) string {
	return Marker(ev.UID) + "\n" + EventBlock(ev, loc) + "\n"
}

// EventBlock renders the [event] wrapper understood by the Discourse
// calendar plugin, with location, link, recurrence, and description
// lines inside it
func EventBlock(ev models.Event, loc *time.Location) string {
	var open strings.Builder
	open.WriteString(`[event start="`)
	open.WriteString(formatLocal(ev.Start, ev.AllDay, loc))
	open.WriteString(`"`)
	if ev.HasEnd() {
		open.WriteString(` end="`)
		open.WriteString(formatLocal(ev.End, ev.AllDay, loc))
		open.WriteString(`"`)
	}
	open.WriteString(` status="public" name="`)
	open.WriteString(attr(ev.Title()))
	open.WriteString(`"`)
	if ev.Location != "" {
		open.WriteString(` location="`)
		open.WriteString(attr(ev.Location))
		open.WriteString(`"`)
	}
	open.WriteString(` timezone="`)
	open.WriteString(loc.String())
	open.WriteString(`"]`)

	lines := []string{open.String()}
	if ev.Location != "" {
		lines = append(lines, "**Location:** "+ev.Location)
	}
	if ev.URL != "" {
		lines = append(lines, "**Link:** "+ev.URL)
	}
	if ev.Recurs() {
		if repeats := ics.DescribeRecurrence(ev.RRule); repeats != "" {
			lines = append(lines, "**Repeats:** "+repeats)
		}
	}
	if desc := strings.TrimSpace(ev.Description); desc != "" {
		lines = append(lines, "", descriptionMarkdown(desc))
	}
	lines = append(lines, "[/event]")

	return strings.Join(lines, "\n")
}

// formatLocal renders a timestamp in the site timezone. All-day events
// keep their calendar date and render as local midnight rather than
// being shifted across timezone boundaries.
func formatLocal(t time.Time, allDay bool, loc *time.Location) string {
	if allDay {
		return t.Format(dateLayout) + " 00:00"
	}
	return t.In(loc).Format(timeLayout)
}

// attr sanitizes a value for use inside a double-quoted [event]
// attribute; a literal quote would terminate the attribute early
func attr(v string) string {
	return strings.ReplaceAll(v, `"`, "'")
}

// htmlishPattern spots the tags calendar exports actually emit; bare
// angle brackets in prose ("5 < 10") do not count
var htmlishPattern = regexp.MustCompile(`(?i)<(!doctype|html|p|div|span|a|br|img|h[1-6]|ul|ol|li|table|tr|td|th|strong|em|b|i|code|pre|blockquote)[\s>/]`)

// descriptionMarkdown converts an HTML event description to Markdown
// for clean forum display. Google Calendar and Outlook exports wrap
// descriptions in HTML; plain text passes through untouched, as does
// anything the converter cannot handle.
func descriptionMarkdown(desc string) string {
	if !htmlishPattern.MatchString(desc) {
		return desc
	}
	md, err := htmltomarkdown.ConvertString(desc)
	if err != nil {
		return desc
	}
	return strings.TrimSpace(md)
}
