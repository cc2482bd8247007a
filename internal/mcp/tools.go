// ABOUTME: MCP tool definitions and handlers for calendar and sync operations
// ABOUTME: Provides tools for listing events, previewing topic bodies, and running syncs

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/ics2disc/internal/config"
	"github.com/harper/ics2disc/internal/discourse"
	"github.com/harper/ics2disc/internal/ics"
	"github.com/harper/ics2disc/internal/models"
	"github.com/harper/ics2disc/internal/reconcile"
	"github.com/harper/ics2disc/internal/sync"
	"github.com/harper/ics2disc/internal/timeutil"
)

// Type definitions for input/output structures

type ListEventsInput struct {
	Feed   *string `json:"feed,omitempty"`
	Period *string `json:"period,omitempty"`
}

type EventOutput struct {
	UID      string     `json:"uid"`
	Title    string     `json:"title"`
	Start    time.Time  `json:"start"`
	End      *time.Time `json:"end,omitempty"`
	AllDay   bool       `json:"all_day"`
	Location string     `json:"location,omitempty"`
	URL      string     `json:"url,omitempty"`
	Repeats  string     `json:"repeats,omitempty"`
	Next     *time.Time `json:"next_occurrence,omitempty"`
}

type ListEventsOutput struct {
	Events  []EventOutput `json:"events"`
	Count   int           `json:"count"`
	Skipped int           `json:"skipped"`
}

type PreviewTopicInput struct {
	UID  *string `json:"uid,omitempty"`
	Feed *string `json:"feed,omitempty"`
}

type PreviewTopicOutput struct {
	UID   string   `json:"uid"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
	Body  string   `json:"body"`
}

type SyncEventsInput struct {
	DryRun *bool   `json:"dry_run,omitempty"`
	Feed   *string `json:"feed,omitempty"`
}

type SyncResultOutput struct {
	UID     string `json:"uid"`
	Title   string `json:"title"`
	Action  string `json:"action"`
	TopicID int    `json:"topic_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

type SyncEventsOutput struct {
	Results   []SyncResultOutput `json:"results"`
	Created   int                `json:"created"`
	Updated   int                `json:"updated"`
	Unchanged int                `json:"unchanged"`
	Failed    int                `json:"failed"`
	Skipped   int                `json:"skipped"`
	DryRun    bool               `json:"dry_run"`
}

// Tool registration

func (s *Server) registerTools() {
	s.registerListEventsTool()
	s.registerPreviewTopicTool()
	s.registerSyncEventsTool()
}

func (s *Server) registerListEventsTool() {
	tool := mcp.Tool{
		Name:        "list_events",
		Description: "List all events from the configured ICS calendar feed. Returns each event's UID, title, start and end times, location, and recurrence information including the next upcoming occurrence for repeating events. Use this to inspect the calendar before previewing or syncing.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"feed": map[string]interface{}{
					"type":        "string",
					"description": "Optional ICS source overriding the configured feed. May be an http(s):// or webcal:// URL or a local file path.",
				},
				"period": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"today", "week", "month"},
					"description": "Only return events with an occurrence in the given period. Recurring events count when any occurrence falls inside it.",
				},
			},
		},
	}
	s.mcpServer.AddTool(tool, s.handleListEvents)
}

func (s *Server) registerPreviewTopicTool() {
	tool := mcp.Tool{
		Name:        "preview_topic",
		Description: "Render the Discourse topic for a single calendar event without touching the forum. Returns the topic title, tags, and raw body exactly as a sync would post them, including the hidden UID marker. If no UID is given, the first event in the feed is used.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"uid": map[string]interface{}{
					"type":        "string",
					"description": "UID of the event to preview. Defaults to the first event in the feed.",
				},
				"feed": map[string]interface{}{
					"type":        "string",
					"description": "Optional ICS source overriding the configured feed. May be an http(s):// or webcal:// URL or a local file path.",
				},
			},
		},
	}
	s.mcpServer.AddTool(tool, s.handlePreviewTopic)
}

func (s *Server) registerSyncEventsTool() {
	tool := mcp.Tool{
		Name:        "sync_events",
		Description: "Synchronize calendar events to Discourse topics. Each event maps to one topic keyed by its UID: missing topics are created, changed bodies are updated, and tags are merged without ever removing existing ones. Titles and categories of existing topics are never touched. Set dry_run to compute the plan without writing to the forum. Returns per-event results and summary counts.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"dry_run": map[string]interface{}{
					"type":        "boolean",
					"description": "Compute and report the sync plan without creating or updating any topics.",
				},
				"feed": map[string]interface{}{
					"type":        "string",
					"description": "Optional ICS source overriding the configured feed. May be an http(s):// or webcal:// URL or a local file path.",
				},
			},
		},
	}
	s.mcpServer.AddTool(tool, s.handleSyncEvents)
}

// Helpers

// feedSource resolves the feed for a request: explicit tool argument first,
// then the configured default.
func (s *Server) feedSource(override *string) (string, error) {
	if override != nil && *override != "" {
		return config.ExpandPath(*override), nil
	}
	if err := s.cfg.ValidateFeed(); err != nil {
		return "", err
	}
	return s.cfg.GetFeedURL(), nil
}

func (s *Server) loadEvents(ctx context.Context, override *string) ([]models.Event, int, error) {
	source, err := s.feedSource(override)
	if err != nil {
		return nil, 0, err
	}
	return sync.FeedSource{Source: source}.Load(ctx)
}

func (s *Server) params(loc *time.Location) reconcile.Params {
	return reconcile.Params{
		CategoryID:  s.cfg.CategoryID,
		StaticTags:  s.cfg.StaticTags,
		DefaultTags: s.cfg.DefaultTags,
		UIDTag:      s.cfg.UIDTagEnabled(),
		Timezone:    loc,
	}
}

func eventOutputs(events []models.Event) []EventOutput {
	now := time.Now()
	outputs := make([]EventOutput, 0, len(events))
	for _, ev := range events {
		out := EventOutput{
			UID:      ev.UID,
			Title:    ev.Title(),
			Start:    ev.Start,
			AllDay:   ev.AllDay,
			Location: ev.Location,
			URL:      ev.URL,
		}
		if ev.HasEnd() {
			end := ev.End
			out.End = &end
		}
		if ev.Recurs() {
			out.Repeats = ics.DescribeRecurrence(ev.RRule)
			if next, ok := ics.NextOccurrence(ev.RRule, ev.Start, now); ok {
				out.Next = &next
			}
		}
		outputs = append(outputs, out)
	}
	return outputs
}

// Tool handlers

func (s *Server) handleListEvents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input ListEventsInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	var window timeutil.Window
	if input.Period != nil && *input.Period != "" {
		win, ok := timeutil.ParsePeriod(*input.Period)
		if !ok {
			return nil, fmt.Errorf("invalid period %q (use today, week, or month)", *input.Period)
		}
		window = win
	}

	events, skipped, err := s.loadEvents(ctx, input.Feed)
	if err != nil {
		return nil, err
	}

	if !window.IsZero() {
		kept := make([]models.Event, 0, len(events))
		for _, ev := range events {
			if ics.OccursWithin(ev, window.Start, window.End) {
				kept = append(kept, ev)
			}
		}
		events = kept
	}

	outputs := eventOutputs(events)
	result := ListEventsOutput{
		Events:  outputs,
		Count:   len(outputs),
		Skipped: skipped,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal output: %w", err)
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handlePreviewTopic(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input PreviewTopicInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	events, _, err := s.loadEvents(ctx, input.Feed)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("calendar has no events")
	}

	ev := events[0]
	if input.UID != nil && *input.UID != "" {
		found := false
		for _, candidate := range events {
			if candidate.UID == *input.UID {
				ev = candidate
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("no event with UID %q", *input.UID)
		}
	}

	loc, err := s.cfg.Location()
	if err != nil {
		return nil, err
	}

	// Plan against an absent topic to get exactly what a create would post
	plan := reconcile.Build(ev, nil, s.params(loc))

	output := PreviewTopicOutput{
		UID:   ev.UID,
		Title: plan.Create.Title,
		Tags:  plan.Create.Tags,
		Body:  plan.Create.Body,
	}

	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal output: %w", err)
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleSyncEvents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input SyncEventsInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	source, err := s.feedSource(input.Feed)
	if err != nil {
		return nil, err
	}
	if err := s.cfg.ValidateForum(); err != nil {
		return nil, err
	}
	loc, err := s.cfg.Location()
	if err != nil {
		return nil, err
	}

	client := discourse.New(s.cfg.BaseURL, s.cfg.APIKey, s.cfg.GetAPIUsername())
	client.HTTPClient.Timeout = s.cfg.GetTimeout()
	client.MaxRetries = s.cfg.GetMaxRetries()

	syncer := sync.New(sync.FeedSource{Source: source}, client, s.params(loc))
	if input.DryRun != nil {
		syncer.DryRun = *input.DryRun
	}

	report, err := syncer.Run(ctx)
	if err != nil {
		return nil, err
	}

	output := SyncEventsOutput{
		Results:   make([]SyncResultOutput, 0, len(report.Results)),
		Created:   report.Created,
		Updated:   report.Updated,
		Unchanged: report.Unchanged,
		Failed:    report.Failed,
		Skipped:   report.Skipped,
		DryRun:    report.DryRun,
	}
	for _, res := range report.Results {
		out := SyncResultOutput{
			UID:     res.UID,
			Title:   res.Title,
			Action:  res.Action,
			TopicID: res.TopicID,
		}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		output.Results = append(output.Results, out)
	}

	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal output: %w", err)
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}
