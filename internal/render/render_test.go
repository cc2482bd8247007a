// ABOUTME: Test suite for topic body rendering, marker round-trips, and UID tags
// ABOUTME: Golden-body comparisons pin the exact format the Discourse calendar plugin consumes

package render

import (
	"strings"
	"testing"
	"time"

	"github.com/harper/ics2disc/internal/models"
)

func testEvent() models.Event {
	return models.Event{
		UID:         "meeting-1@example.com",
		Summary:     "Town Hall",
		Start:       time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		End:         time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC),
		Location:    "Main Hall",
		URL:         "https://example.com/town-hall",
		Description: "Budget review agenda",
	}
}

func TestBody_Golden(t *testing.T) {
	body := Body(testEvent(), time.UTC)

	want := `<!-- ICSUID:meeting-1@example.com -->
[event start="2026-03-14 10:00" end="2026-03-14 11:00" status="public" name="Town Hall" location="Main Hall" timezone="UTC"]
**Location:** Main Hall
**Link:** https://example.com/town-hall

Budget review agenda
[/event]
`
	if body != want {
		t.Errorf("Body() = %q, want %q", body, want)
	}
}

func TestBody_TimezoneConversion(t *testing.T) {
	loc := time.FixedZone("Asia/Seoul", 9*60*60)
	body := Body(testEvent(), loc)

	if !strings.Contains(body, `start="2026-03-14 19:00"`) {
		t.Errorf("Body() should render start in site timezone, got %q", body)
	}
	if !strings.Contains(body, `timezone="Asia/Seoul"`) {
		t.Errorf("Body() should carry the site timezone name, got %q", body)
	}
}

func TestBody_AllDay(t *testing.T) {
	ev := models.Event{
		UID:     "picnic-2@example.com",
		Summary: "Community Picnic",
		Start:   time.Date(2026, 6, 20, 0, 0, 0, 0, time.Local),
		AllDay:  true,
	}

	// All-day events keep their calendar date even in a far-away site timezone
	loc := time.FixedZone("Pacific/Auckland", 12*60*60)
	body := Body(ev, loc)

	if !strings.Contains(body, `start="2026-06-20 00:00"`) {
		t.Errorf("Body() should render all-day start as local midnight, got %q", body)
	}
	if strings.Contains(body, ` end="`) {
		t.Errorf("Body() should omit end attribute without DTEND, got %q", body)
	}
}

func TestBody_Recurring(t *testing.T) {
	ev := testEvent()
	ev.RRule = "FREQ=WEEKLY;BYDAY=MO"

	body := Body(ev, time.UTC)
	if !strings.Contains(body, "**Repeats:** every week on Monday") {
		t.Errorf("Body() should describe the recurrence, got %q", body)
	}
}

func TestBody_Deterministic(t *testing.T) {
	ev := testEvent()
	loc := time.UTC

	first := Body(ev, loc)
	for i := 0; i < 3; i++ {
		if got := Body(ev, loc); got != first {
			t.Fatal("Body() is not deterministic for equal events")
		}
	}
}

func TestEventBlock_QuoteSanitizing(t *testing.T) {
	ev := models.Event{
		UID:     "q@example.com",
		Summary: `The "Big" Meetup`,
		Start:   time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}

	block := EventBlock(ev, time.UTC)
	if !strings.Contains(block, `name="The 'Big' Meetup"`) {
		t.Errorf("EventBlock() should sanitize quotes in attributes, got %q", block)
	}
}

func TestEventBlock_UntitledFallback(t *testing.T) {
	ev := models.Event{
		UID:   "untitled@example.com",
		Start: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}

	block := EventBlock(ev, time.UTC)
	if !strings.Contains(block, `name="Untitled event"`) {
		t.Errorf("EventBlock() should fall back to a placeholder title, got %q", block)
	}
}

func TestEventBlock_HTMLDescription(t *testing.T) {
	ev := testEvent()
	ev.Description = `<p>Agenda: <strong>budget</strong></p>`

	block := EventBlock(ev, time.UTC)
	if !strings.Contains(block, "**budget**") {
		t.Errorf("EventBlock() should convert HTML descriptions, got %q", block)
	}
	if strings.Contains(block, "<p>") {
		t.Errorf("EventBlock() left raw HTML in place: %q", block)
	}
}

func TestDescriptionMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		desc     string
		contains []string
		excludes []string
	}{
		{
			name:     "plain text untouched",
			desc:     "Doors open at 19:00, talk at 19:30.",
			contains: []string{"Doors open at 19:00, talk at 19:30."},
		},
		{
			name:     "angle brackets in prose untouched",
			desc:     "5 < 10 and 10 > 5",
			contains: []string{"5 < 10 and 10 > 5"},
		},
		{
			name:     "paragraphs unwrapped",
			desc:     "<p>Doors open at 19:00.</p><p>Talk at 19:30.</p>",
			contains: []string{"Doors open at 19:00.", "Talk at 19:30."},
			excludes: []string{"<p>"},
		},
		{
			name:     "link becomes markdown",
			desc:     `RSVP <a href="https://example.com">here</a>.`,
			contains: []string{"[here]", "(https://example.com)"},
			excludes: []string{"<a"},
		},
		{
			name:     "bold becomes markdown",
			desc:     "<strong>Bring ID</strong>",
			contains: []string{"**Bring ID**"},
			excludes: []string{"<strong>"},
		},
		{
			name:     "list becomes markdown",
			desc:     "<ul><li>Snacks</li><li>Drinks</li></ul>",
			contains: []string{"Snacks", "Drinks"},
			excludes: []string{"<ul>", "<li>"},
		},
		{
			name:     "line breaks consumed",
			desc:     "Line one<br>Line two",
			contains: []string{"Line one", "Line two"},
			excludes: []string{"<br>"},
		},
		{
			name: "empty",
			desc: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := descriptionMarkdown(tt.desc)
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("descriptionMarkdown(%q) = %q, want %q present", tt.desc, got, s)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("descriptionMarkdown(%q) = %q, want %q absent", tt.desc, got, s)
				}
			}
		})
	}
}

func TestMarkerRoundTrip(t *testing.T) {
	uids := []string{
		"meeting-1@example.com",
		"7c39a3b2-0d8e-4f21-9a6b-5d3c2e1f0a9b",
		"uid with spaces",
		"UID-WITH-CAPS@Example.COM",
	}

	for _, uid := range uids {
		ev := models.Event{UID: uid, Summary: "X", Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
		if got := ExtractUID(Body(ev, time.UTC)); got != uid {
			t.Errorf("ExtractUID(Body()) = %q, want %q", got, uid)
		}
	}
}

func TestExtractUID_NoMarker(t *testing.T) {
	if got := ExtractUID("just a post body with no marker"); got != "" {
		t.Errorf("ExtractUID() = %q, want empty string", got)
	}
}

func TestStripMarker(t *testing.T) {
	body := Body(testEvent(), time.UTC)

	stripped := StripMarker(body)
	if strings.Contains(stripped, "ICSUID") {
		t.Errorf("StripMarker() left marker in place: %q", stripped)
	}
	if !strings.Contains(stripped, "[event start=") {
		t.Errorf("StripMarker() removed more than the marker: %q", stripped)
	}

	// Case-insensitive, and a no-op without a marker
	if got := StripMarker("<!-- icsuid:abc -->rest"); got != "rest" {
		t.Errorf("StripMarker() = %q, want %q", got, "rest")
	}
	if got := StripMarker("no marker here"); got != "no marker here" {
		t.Errorf("StripMarker() = %q, want input unchanged", got)
	}
}

func TestUIDTag(t *testing.T) {
	// sha1("meeting-1@example.com") starts with d3fc9c9947
	if got := UIDTag("meeting-1@example.com"); got != "ics-d3fc9c9947" {
		t.Errorf("UIDTag() = %q, want %q", got, "ics-d3fc9c9947")
	}

	// Stable and distinct
	if UIDTag("a@example.com") != UIDTag("a@example.com") {
		t.Error("UIDTag() is not stable for equal UIDs")
	}
	if UIDTag("a@example.com") == UIDTag("b@example.com") {
		t.Error("UIDTag() collided for distinct UIDs")
	}
}
