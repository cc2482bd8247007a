// ABOUTME: Fetches ICS calendar payloads from http(s) URLs, webcal URLs, or local files
// ABOUTME: Applies a response size cap and blocks private-network hosts with SSRF and DoS protection

package ics

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/harper/ics2disc/internal/config"
)

const MaxResponseSize = 10 * 1024 * 1024 // 10MB

var httpClient = &http.Client{
	Timeout: config.DefaultHTTPTimeout,
}

// isPrivateIP checks if an IP address is in a private range (excluding loopback for tests).
func isPrivateIP(ip net.IP) bool {
	// Allow loopback addresses (localhost) for tests
	if ip.IsLoopback() {
		return false
	}
	return ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}

// Fetch retrieves the raw ICS payload for a source.
// http:// and https:// sources are fetched over the network, webcal://
// is rewritten to https://, and anything else is read as a local file
// path. A failure here is fatal to the run: without the feed there is
// nothing to sync.
func Fetch(ctx context.Context, source string) ([]byte, error) {
	switch {
	case strings.HasPrefix(source, "webcal://"):
		return fetchURL(ctx, "https://"+strings.TrimPrefix(source, "webcal://"))
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return fetchURL(ctx, source)
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read calendar file: %w", err)
		}
		return data, nil
	}
}

func fetchURL(ctx context.Context, urlStr string) ([]byte, error) {
	// Parse URL for SSRF protection
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	// SSRF protection: block private IP ranges
	if ips, err := net.LookupIP(parsedURL.Hostname()); err == nil {
		for _, ip := range ips {
			if isPrivateIP(ip) {
				return nil, fmt.Errorf("access to private IP ranges is not allowed")
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "ics2disc/1.0 (ICS sync)")
	req.Header.Set("Accept", "text/calendar, */*")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// Read response body with DoS protection (10MB limit)
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response too large (exceeds %d bytes)", MaxResponseSize)
	}

	return body, nil
}
