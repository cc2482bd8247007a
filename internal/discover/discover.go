// ABOUTME: Calendar discovery package for finding ICS feeds from URLs
// ABOUTME: Supports direct calendars, HTML link elements, and common path probing

package discover

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/harper/ics2disc/internal/ics"
)

// Common calendar paths to probe when other discovery methods fail
var commonCalendarPaths = []string{
	"/calendar.ics",
	"/events.ics",
	"/feed.ics",
	"/calendar/feed.ics",
	"/events/feed.ics",
	"/ical",
	"/events/ical",
	"/?ical=1",
}

// Errors returned by discovery functions
var (
	ErrNoCalendarFound = errors.New("no ICS calendar found at URL")
	ErrInvalidURL      = errors.New("invalid URL")
)

// DiscoveredCalendar represents a calendar feed found during discovery
type DiscoveredCalendar struct {
	URL  string // Absolute URL of the calendar feed
	Name string // Display name (from X-WR-CALNAME or the link element title)
}

// Discover attempts to find an ICS calendar feed from the given URL.
// It tries the following strategies in order:
//  1. Parse URL as a direct calendar
//  2. Parse URL as HTML and extract <link rel="alternate" type="text/calendar"> elements
//  3. Probe common calendar URL patterns
//
// Returns the discovered calendar, or an error if none found.
func Discover(ctx context.Context, inputURL string) (*DiscoveredCalendar, error) {
	parsedURL, err := url.Parse(inputURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("%w: missing scheme or host", ErrInvalidURL)
	}

	// Strategy 1: Try the URL as a calendar itself
	cal, body, err := tryDirectCalendar(ctx, inputURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	if cal != nil {
		return cal, nil
	}

	// Strategy 2: Extract calendar links from HTML
	candidates, err := extractCalendarLinks(body, parsedURL)
	if err == nil && len(candidates) > 0 {
		// Verify candidates in document order; first valid calendar wins
		for _, candidate := range candidates {
			verified, _, verifyErr := tryDirectCalendar(ctx, candidate.URL)
			if verifyErr == nil && verified != nil {
				// Use the link title if the calendar doesn't name itself
				if verified.Name == "" && candidate.Name != "" {
					verified.Name = candidate.Name
				}
				return verified, nil
			}
		}
	}

	// Strategy 3: Probe common paths
	cal, err = probeCommonPaths(ctx, parsedURL)
	if err == nil && cal != nil {
		return cal, nil
	}

	return nil, ErrNoCalendarFound
}

// tryDirectCalendar attempts to fetch and parse the URL as an ICS calendar.
// Returns the calendar if successful, or nil if the content is not valid ICS.
// Also returns the raw body for use in HTML parsing if it's not a calendar.
func tryDirectCalendar(ctx context.Context, calURL string) (*DiscoveredCalendar, []byte, error) {
	body, err := ics.Fetch(ctx, calURL)
	if err != nil {
		return nil, nil, err
	}

	if _, _, parseErr := ics.Parse(body); parseErr != nil {
		// Not a calendar; hand the body back for HTML link scanning
		return nil, body, nil
	}

	return &DiscoveredCalendar{
		URL:  calURL,
		Name: ics.CalendarName(body),
	}, body, nil
}

// extractCalendarLinks parses HTML and returns calendar URLs from
// <link rel="alternate"> elements with a calendar content type
func extractCalendarLinks(htmlBody []byte, baseURL *url.URL) ([]DiscoveredCalendar, error) {
	doc, err := html.Parse(strings.NewReader(string(htmlBody)))
	if err != nil {
		return nil, err
	}

	var calendars []DiscoveredCalendar
	var findLinks func(*html.Node)
	findLinks = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "link" {
			var rel, linkType, href, title string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "rel":
					rel = attr.Val
				case "type":
					linkType = attr.Val
				case "href":
					href = attr.Val
				case "title":
					title = attr.Val
				}
			}

			if rel == "alternate" && isCalendarContentType(linkType) && href != "" {
				resolvedURL, err := resolveURL(href, baseURL)
				if err == nil {
					calendars = append(calendars, DiscoveredCalendar{
						URL:  resolvedURL,
						Name: title,
					})
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findLinks(c)
		}
	}

	findLinks(doc)
	return calendars, nil
}

// probeCommonPaths tries common calendar URL patterns against the base URL
func probeCommonPaths(ctx context.Context, baseURL *url.URL) (*DiscoveredCalendar, error) {
	// Build base URL without path
	probeBase := &url.URL{
		Scheme: baseURL.Scheme,
		Host:   baseURL.Host,
	}

	for _, path := range commonCalendarPaths {
		probeURL := probeBase.String() + path
		cal, _, err := tryDirectCalendar(ctx, probeURL)
		if err == nil && cal != nil {
			return cal, nil
		}
	}

	return nil, ErrNoCalendarFound
}

// resolveURL resolves a potentially relative URL against a base URL
func resolveURL(href string, baseURL *url.URL) (string, error) {
	refURL, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

// isCalendarContentType checks if the content type indicates an ICS calendar
func isCalendarContentType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "calendar") ||
		strings.Contains(contentType, "ics")
}
