// ABOUTME: MCP prompt definitions and handlers
// ABOUTME: Provides a workflow template for reviewing calendar-to-forum syncs

package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.registerSyncReviewPrompt()
}

func (s *Server) registerSyncReviewPrompt() {
	s.mcpServer.AddPrompt(
		mcp.Prompt{
			Name:        "sync-review",
			Description: "Review calendar events and verify the sync plan before writing topics to the forum",
			Arguments:   []mcp.PromptArgument{},
		},
		s.handleSyncReview,
	)
}

func (s *Server) handleSyncReview(_ context.Context, _ mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	template := `# Calendar Sync Review

## Overview
Verify what a calendar sync will do before any topics are written. Each ICS event maps to exactly one Discourse topic keyed by the event UID; re-running a sync never duplicates topics, never removes tags, and never overwrites titles that moderators have changed.

## Workflow Steps

### Step 1: Inspect the Calendar
Use the list_events tool to see every event in the feed.
- Check the count matches expectations
- Note events with recurrence rules; a repeating series still maps to a single topic
- A non-zero skipped count means malformed entries were dropped at parse time

### Step 2: Preview a Topic
Use the preview_topic tool on one or two representative UIDs.
- Confirm the title, event block times, and timezone look right
- The hidden ICSUID comment marker must be present; it is how the sync finds the topic again

### Step 3: Dry Run
Call sync_events with dry_run set to true.
- Review which events would be created versus updated
- An unexpectedly high created count usually means existing topics are missing their markers

### Step 4: Sync
Call sync_events without dry_run.
- Compare the result counts with the dry run
- Failed events are isolated; re-running after fixing the cause is safe

## Key Principles
- Re-runs are idempotent: an unchanged calendar yields all-unchanged results
- Titles and categories of existing topics belong to the forum, not the feed
- Tags only ever grow; moderator-added tags survive every sync
`

	return &mcp.GetPromptResult{
		Description: "Guided review of a calendar-to-forum sync",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: template,
				},
			},
		},
	}, nil
}
