// ABOUTME: MCP resource providers for ics2disc
// ABOUTME: Exposes read-only views of the calendar feed and its parsed events

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/ics2disc/internal/ics"
)

// ResourceData is the standard response format for JSON resources.
type ResourceData struct {
	Metadata ResourceMetadata  `json:"metadata"`
	Data     interface{}       `json:"data"`
	Links    map[string]string `json:"links"`
}

// ResourceMetadata contains metadata about the resource response.
type ResourceMetadata struct {
	Timestamp   time.Time `json:"timestamp"`
	Count       int       `json:"count"`
	ResourceURI string    `json:"resource_uri"`
}

func (s *Server) registerResources() {
	s.registerEventsResource()
	s.registerFeedResource()
}

func (s *Server) registerEventsResource() {
	s.mcpServer.AddResource(
		mcp.Resource{
			URI:         "ics2disc://events",
			Name:        "Calendar Events",
			Description: "All events parsed from the configured ICS feed, including recurrence descriptions and next occurrences for repeating events",
			MIMEType:    "application/json",
		},
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			events, _, err := s.loadEvents(ctx, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to load calendar: %w", err)
			}

			outputs := eventOutputs(events)
			resourceData := ResourceData{
				Metadata: ResourceMetadata{
					Timestamp:   time.Now(),
					Count:       len(outputs),
					ResourceURI: "ics2disc://events",
				},
				Data: outputs,
				Links: map[string]string{
					"feed": "ics2disc://feed",
				},
			}

			jsonBytes, err := json.MarshalIndent(resourceData, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal resource data: %w", err)
			}

			return []mcp.ResourceContents{
				&mcp.TextResourceContents{
					URI:      request.Params.URI,
					MIMEType: "application/json",
					Text:     string(jsonBytes),
				},
			}, nil
		},
	)
}

func (s *Server) registerFeedResource() {
	s.mcpServer.AddResource(
		mcp.Resource{
			URI:         "ics2disc://feed",
			Name:        "Raw Calendar Feed",
			Description: "The raw ICS payload of the configured calendar feed, exactly as fetched",
			MIMEType:    "text/calendar",
		},
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			source, err := s.feedSource(nil)
			if err != nil {
				return nil, err
			}

			data, err := ics.Fetch(ctx, source)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch calendar: %w", err)
			}

			return []mcp.ResourceContents{
				&mcp.TextResourceContents{
					URI:      request.Params.URI,
					MIMEType: "text/calendar",
					Text:     string(data),
				},
			}, nil
		},
	)
}
