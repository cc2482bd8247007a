// ABOUTME: Sync engine driving one run: load the feed, plan each event, apply plans to the forum
// ABOUTME: Each event succeeds or fails on its own; one broken event never stops the batch

package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harper/ics2disc/internal/discourse"
	"github.com/harper/ics2disc/internal/ics"
	"github.com/harper/ics2disc/internal/models"
	"github.com/harper/ics2disc/internal/reconcile"
)

// Result actions
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionUnchanged = "unchanged"
	ActionFailed    = "failed"
)

// Feed supplies the events for a run. Load returns the parsed events,
// the count of malformed entries that were skipped, and a fatal error
// when the feed itself cannot be fetched or parsed.
type Feed interface {
	Load(ctx context.Context) ([]models.Event, int, error)
}

// Forum is the slice of the Discourse client the engine needs.
type Forum interface {
	FindTopicByUID(ctx context.Context, uid string) (*discourse.Topic, error)
	CreateTopic(ctx context.Context, title, raw string, categoryID int, tags []string) (*discourse.Topic, error)
	UpdateFirstPost(ctx context.Context, postID int, raw string) error
	UpdateTopicTags(ctx context.Context, topicID int, tags []string) error
}

// FeedSource loads events from an ICS source (URL, webcal, or path).
type FeedSource struct {
	Source string
}

// Load fetches and parses the configured source
func (f FeedSource) Load(ctx context.Context) ([]models.Event, int, error) {
	data, err := ics.Fetch(ctx, f.Source)
	if err != nil {
		return nil, 0, fmt.Errorf("feed fetch failed: %w", err)
	}
	events, skipped, err := ics.Parse(data)
	if err != nil {
		return nil, 0, fmt.Errorf("feed parse failed: %w", err)
	}
	return events, skipped, nil
}

// Result is the outcome of syncing a single event.
type Result struct {
	UID     string
	Title   string
	Action  string
	TopicID int
	Err     error
}

// Report aggregates the results of one run.
type Report struct {
	Results   []Result
	Created   int
	Updated   int
	Unchanged int
	Failed    int
	Skipped   int // malformed feed entries skipped at parse time
	DryRun    bool
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	switch res.Action {
	case ActionCreated:
		r.Created++
	case ActionUpdated:
		r.Updated++
	case ActionUnchanged:
		r.Unchanged++
	case ActionFailed:
		r.Failed++
	}
}

// HasFailures reports whether any event failed during the run
func (r *Report) HasFailures() bool {
	return r.Failed > 0
}

// Syncer runs the reconciliation loop against a forum.
type Syncer struct {
	Feed   Feed
	Forum  Forum
	Params reconcile.Params
	DryRun bool
	Logger *slog.Logger

	// Progress, when set, receives each result as soon as the event
	// finishes. The CLI uses it for live per-event output.
	Progress func(Result)
}

// New creates a Syncer with the given feed, forum, and plan params
func New(feed Feed, forum Forum, params reconcile.Params) *Syncer {
	return &Syncer{
		Feed:   feed,
		Forum:  forum,
		Params: params,
	}
}

func (s *Syncer) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Run performs one sync pass. The returned error is fatal (feed
// unavailable, run canceled); per-event failures are recorded in the
// report and leave the rest of the batch untouched.
func (s *Syncer) Run(ctx context.Context) (*Report, error) {
	report := &Report{DryRun: s.DryRun}

	events, skipped, err := s.Feed.Load(ctx)
	if err != nil {
		return report, err
	}
	report.Skipped = skipped

	s.logger().Info("Feed loaded", "events", len(events), "skipped", skipped)

	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := s.syncEvent(ctx, ev)
		report.add(res)
		if s.Progress != nil {
			s.Progress(res)
		}
	}

	s.logger().Info("Run complete",
		"created", report.Created,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"failed", report.Failed,
		"dry_run", s.DryRun)

	return report, nil
}

// syncEvent plans and applies changes for one event. Every error path
// returns a failed result instead of propagating, isolating events
// from each other.
func (s *Syncer) syncEvent(ctx context.Context, ev models.Event) Result {
	res := Result{UID: ev.UID, Title: ev.Title()}

	topic, err := s.Forum.FindTopicByUID(ctx, ev.UID)
	if err != nil {
		s.logger().Error("Topic lookup failed", "uid", ev.UID, "error", err)
		res.Action = ActionFailed
		res.Err = fmt.Errorf("lookup failed: %w", err)
		return res
	}

	var state *reconcile.TopicState
	if topic != nil {
		res.TopicID = topic.ID
		state = &reconcile.TopicState{
			ID:          topic.ID,
			FirstPostID: topic.FirstPostID,
			Tags:        topic.Tags,
			Raw:         topic.Raw,
		}
	}

	plan := reconcile.Build(ev, state, s.Params)

	if plan.NoOp() {
		s.logger().Debug("No changes needed", "uid", ev.UID, "topic_id", res.TopicID)
		res.Action = ActionUnchanged
		return res
	}

	if s.DryRun {
		s.logger().Info("Dry run, skipping writes", "uid", ev.UID, "plan", plan.Kind())
		if plan.Create != nil {
			res.Action = ActionCreated
		} else {
			res.Action = ActionUpdated
		}
		return res
	}

	if plan.Create != nil {
		created, err := s.Forum.CreateTopic(ctx, plan.Create.Title, plan.Create.Body, plan.Create.CategoryID, plan.Create.Tags)
		if err != nil {
			s.logger().Error("Topic create failed", "uid", ev.UID, "error", err)
			res.Action = ActionFailed
			res.Err = fmt.Errorf("create failed: %w", err)
			return res
		}
		s.logger().Info("Created topic", "uid", ev.UID, "topic_id", created.ID, "title", plan.Create.Title)
		res.Action = ActionCreated
		res.TopicID = created.ID
		return res
	}

	if plan.Update.Body != "" {
		if err := s.Forum.UpdateFirstPost(ctx, plan.Update.FirstPostID, plan.Update.Body); err != nil {
			s.logger().Error("Post update failed", "uid", ev.UID, "topic_id", plan.Update.TopicID, "error", err)
			res.Action = ActionFailed
			res.Err = fmt.Errorf("post update failed: %w", err)
			return res
		}
		s.logger().Info("Updated first post", "uid", ev.UID, "topic_id", plan.Update.TopicID)
	}

	if plan.Update.Tags != nil {
		if err := s.Forum.UpdateTopicTags(ctx, plan.Update.TopicID, plan.Update.Tags); err != nil {
			s.logger().Error("Tag update failed", "uid", ev.UID, "topic_id", plan.Update.TopicID, "error", err)
			res.Action = ActionFailed
			res.Err = fmt.Errorf("tag update failed: %w", err)
			return res
		}
		s.logger().Info("Merged tags", "uid", ev.UID, "topic_id", plan.Update.TopicID, "tags", plan.Update.Tags)
	}

	res.Action = ActionUpdated
	return res
}
