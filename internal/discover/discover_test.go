// ABOUTME: Unit tests for calendar discovery package
// ABOUTME: Tests direct calendars, HTML link extraction, and common path probing

package discover

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const testCalendar = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Example//Town Calendar//EN
X-WR-CALNAME:Town Events
BEGIN:VEVENT
UID:townhall-1@example.com
DTSTAMP:20260101T000000Z
DTSTART:20260314T100000Z
SUMMARY:Town Hall
END:VEVENT
END:VCALENDAR`

const testUnnamedCalendar = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Example//Anon//EN
BEGIN:VEVENT
UID:anon-1@example.com
DTSTAMP:20260101T000000Z
DTSTART:20260314T100000Z
SUMMARY:Anonymous Event
END:VEVENT
END:VCALENDAR`

const testHTMLWithCalendarLink = `<!DOCTYPE html>
<html>
<head>
  <title>Test Site</title>
  <link rel="alternate" type="text/calendar" title="Site Calendar" href="/calendar.ics">
  <link rel="alternate" type="application/rss+xml" title="RSS Feed" href="/feed.xml">
</head>
<body>
  <h1>Test Site</h1>
</body>
</html>`

const testHTMLWithRelativeCalendarLink = `<!DOCTYPE html>
<html>
<head>
  <title>Test Site</title>
  <link rel="alternate" type="text/calendar" href="events.ics">
</head>
<body></body>
</html>`

const testHTMLNoCalendarLinks = `<!DOCTYPE html>
<html>
<head>
  <title>Test Site</title>
  <link rel="alternate" type="application/rss+xml" href="/feed.xml">
</head>
<body>
  <h1>No calendars here</h1>
</body>
</html>`

func serveCalendar(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/calendar")
	w.Write([]byte(body))
}

func TestDiscover_DirectCalendar(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serveCalendar(w, testCalendar)
	}))
	defer server.Close()

	cal, err := Discover(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cal == nil {
		t.Fatal("expected calendar, got nil")
	}

	if cal.URL != server.URL {
		t.Errorf("expected URL %s, got %s", server.URL, cal.URL)
	}

	if cal.Name != "Town Events" {
		t.Errorf("expected name 'Town Events', got '%s'", cal.Name)
	}
}

func TestDiscover_HTMLWithCalendarLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(testHTMLWithCalendarLink))
		case "/calendar.ics":
			serveCalendar(w, testCalendar)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cal, err := Discover(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cal == nil {
		t.Fatal("expected calendar, got nil")
	}

	expectedURL := server.URL + "/calendar.ics"
	if cal.URL != expectedURL {
		t.Errorf("expected URL %s, got %s", expectedURL, cal.URL)
	}

	if cal.Name != "Town Events" {
		t.Errorf("expected name 'Town Events', got '%s'", cal.Name)
	}
}

func TestDiscover_LinkTitleNamesUnnamedCalendar(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(testHTMLWithCalendarLink))
		case "/calendar.ics":
			serveCalendar(w, testUnnamedCalendar)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cal, err := Discover(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cal.Name != "Site Calendar" {
		t.Errorf("expected link title 'Site Calendar', got '%s'", cal.Name)
	}
}

func TestDiscover_HTMLWithRelativeCalendarLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/events/":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(testHTMLWithRelativeCalendarLink))
		case "/events/events.ics":
			serveCalendar(w, testCalendar)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cal, err := Discover(context.Background(), server.URL+"/events/")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cal == nil {
		t.Fatal("expected calendar, got nil")
	}

	expectedURL := server.URL + "/events/events.ics"
	if cal.URL != expectedURL {
		t.Errorf("expected URL %s, got %s", expectedURL, cal.URL)
	}
}

func TestDiscover_RelativeURLWithDotDot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/town/events/":
			w.Header().Set("Content-Type", "text/html")
			html := `<!DOCTYPE html>
<html>
<head>
  <link rel="alternate" type="text/calendar" href="../calendar.ics">
</head>
<body></body>
</html>`
			w.Write([]byte(html))
		case "/town/calendar.ics":
			serveCalendar(w, testCalendar)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cal, err := Discover(context.Background(), server.URL+"/town/events/")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	expectedURL := server.URL + "/town/calendar.ics"
	if cal.URL != expectedURL {
		t.Errorf("expected URL %s, got %s", expectedURL, cal.URL)
	}
}

func TestDiscover_ProbeCommonPaths(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(testHTMLNoCalendarLinks))
		case "/events.ics":
			serveCalendar(w, testCalendar)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cal, err := Discover(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cal == nil {
		t.Fatal("expected calendar, got nil")
	}

	expectedURL := server.URL + "/events.ics"
	if cal.URL != expectedURL {
		t.Errorf("expected URL %s, got %s", expectedURL, cal.URL)
	}
}

func TestDiscover_ProbeReturns200ButNotCalendar(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(testHTMLNoCalendarLinks))
		case "/calendar.ics", "/events.ics":
			// These paths return 200 but with non-calendar content
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html><body>Not a calendar</body></html>"))
		case "/feed.ics":
			serveCalendar(w, testCalendar)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cal, err := Discover(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	expectedURL := server.URL + "/feed.ics"
	if cal.URL != expectedURL {
		t.Errorf("expected URL %s, got %s", expectedURL, cal.URL)
	}
}

func TestDiscover_NoCalendarFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(testHTMLNoCalendarLinks))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	cal, err := Discover(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if cal != nil {
		t.Errorf("expected nil calendar, got: %+v", cal)
	}

	if !errors.Is(err, ErrNoCalendarFound) {
		t.Errorf("expected ErrNoCalendarFound, got: %v", err)
	}
}

func TestDiscover_BrokenLinkTags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html")
			// Malformed HTML with incomplete link tags
			html := `<!DOCTYPE html>
<html>
<head>
  <link rel="alternate" type="text/calendar">
  <link href="/calendar.ics">
  <link rel="alternate" type="text/calendar" href="/valid.ics">
</head>
<body></body>
</html>`
			w.Write([]byte(html))
		case "/valid.ics":
			serveCalendar(w, testCalendar)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cal, err := Discover(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	expectedURL := server.URL + "/valid.ics"
	if cal.URL != expectedURL {
		t.Errorf("expected URL %s, got %s", expectedURL, cal.URL)
	}
}

func TestDiscover_CalendarLinkPointsTo404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html")
			html := `<!DOCTYPE html>
<html>
<head>
  <link rel="alternate" type="text/calendar" href="/missing.ics">
  <link rel="alternate" type="text/calendar" href="/present.ics">
</head>
<body></body>
</html>`
			w.Write([]byte(html))
		case "/present.ics":
			serveCalendar(w, testCalendar)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cal, err := Discover(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// Should skip the dead link and verify the next one
	expectedURL := server.URL + "/present.ics"
	if cal.URL != expectedURL {
		t.Errorf("expected URL %s, got %s", expectedURL, cal.URL)
	}
}

func TestDiscover_MalformedHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html")
			// Severely malformed HTML but with valid link tag
			html := `<html><head><link rel="alternate" type="text/calendar" href="/calendar.ics"</head><body>broken`
			w.Write([]byte(html))
		case "/calendar.ics":
			serveCalendar(w, testCalendar)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cal, err := Discover(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	expectedURL := server.URL + "/calendar.ics"
	if cal.URL != expectedURL {
		t.Errorf("expected URL %s, got %s", expectedURL, cal.URL)
	}
}

func TestDiscover_InvalidURL(t *testing.T) {
	_, err := Discover(context.Background(), "not-a-valid-url")
	if err == nil {
		t.Fatal("expected error for invalid URL")
	}
	if !errors.Is(err, ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got: %v", err)
	}
}

func TestDiscover_MissingScheme(t *testing.T) {
	_, err := Discover(context.Background(), "example.com/calendar.ics")
	if err == nil {
		t.Fatal("expected error for URL without scheme")
	}
}

func TestDiscover_EmptyURL(t *testing.T) {
	_, err := Discover(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestDiscover_URLWithoutHost(t *testing.T) {
	_, err := Discover(context.Background(), "http://")
	if err == nil {
		t.Fatal("expected error for URL without host")
	}
}

func TestIsCalendarContentType(t *testing.T) {
	tests := []struct {
		contentType string
		expected    bool
	}{
		{"text/calendar", true},
		{"text/calendar; charset=utf-8", true},
		{"application/ics", true},
		{"text/html", false},
		{"application/rss+xml", false},
		{"", false},
	}

	for _, tc := range tests {
		result := isCalendarContentType(tc.contentType)
		if result != tc.expected {
			t.Errorf("isCalendarContentType(%q) = %v, expected %v", tc.contentType, result, tc.expected)
		}
	}
}
