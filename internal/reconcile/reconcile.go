// ABOUTME: Pure planner deciding what forum writes an event needs: create, update body, update tags, or nothing
// ABOUTME: Never plans title or category changes for existing topics, and merged tags always keep human-added ones

package reconcile

import (
	"sort"
	"strings"
	"time"

	"github.com/harper/ics2disc/internal/models"
	"github.com/harper/ics2disc/internal/render"
)

// Params carries the run-level settings that shape every plan.
type Params struct {
	CategoryID  int
	StaticTags  []string
	DefaultTags []string
	UIDTag      bool // include the per-event ics-<hash> tag
	Timezone    *time.Location
}

// TopicState is the planner's narrow view of an existing forum topic.
// Keeping it free of transport types keeps this package pure.
type TopicState struct {
	ID          int
	FirstPostID int
	Tags        []string
	Raw         string
}

// Create describes a topic that does not exist yet. This is the only
// place a plan ever mentions title or category.
type Create struct {
	Title      string
	CategoryID int
	Body       string
	Tags       []string
}

// Update describes changes to an existing topic. A zero Body means the
// first post already matches; nil Tags means the tag set already
// contains everything we want.
type Update struct {
	TopicID     int
	FirstPostID int
	Body        string
	Tags        []string
}

// Plan is the decision for one event. Both Create and Update nil means
// the topic is already in sync.
type Plan struct {
	UID    string
	Create *Create
	Update *Update
}

// NoOp reports whether applying the plan would write nothing
func (p Plan) NoOp() bool {
	return p.Create == nil && p.Update == nil
}

// Kind classifies the plan for reporting
func (p Plan) Kind() string {
	switch {
	case p.Create != nil:
		return "create"
	case p.Update != nil:
		return "update"
	default:
		return "unchanged"
	}
}

// Build computes the plan for one event against the current state of
// its topic (nil when no topic exists). Pure function: same inputs
// always produce the same plan, and applying a plan then rebuilding
// yields a no-op.
func Build(ev models.Event, existing *TopicState, params Params) Plan {
	body := render.Body(ev, params.Timezone)
	desired := desiredTags(ev.UID, params)

	if existing == nil {
		return Plan{
			UID: ev.UID,
			Create: &Create{
				Title:      ev.Title(),
				CategoryID: params.CategoryID,
				Body:       body,
				Tags:       setToSorted(desired),
			},
		}
	}

	update := Update{TopicID: existing.ID, FirstPostID: existing.FirstPostID}
	changed := false

	if !bodiesEqual(existing.Raw, body) {
		update.Body = body
		changed = true
	}

	// Merge starts from the existing tags so human-added ones survive
	merged := make(map[string]bool, len(existing.Tags)+len(desired))
	for _, tag := range existing.Tags {
		if tag != "" {
			merged[tag] = true
		}
	}
	for tag := range desired {
		merged[tag] = true
	}
	if !sameSet(existing.Tags, merged) {
		update.Tags = setToSorted(merged)
		changed = true
	}

	plan := Plan{UID: ev.UID}
	if changed {
		plan.Update = &update
	}
	return plan
}

// bodiesEqual compares first-post bodies with the marker stripped and
// surrounding whitespace ignored, so marker placement and trailing
// newlines never force a rewrite
func bodiesEqual(oldRaw, newRaw string) bool {
	return strings.TrimSpace(render.StripMarker(oldRaw)) == strings.TrimSpace(render.StripMarker(newRaw))
}

func desiredTags(uid string, params Params) map[string]bool {
	desired := make(map[string]bool, len(params.DefaultTags)+len(params.StaticTags)+1)
	for _, tag := range params.DefaultTags {
		if tag != "" {
			desired[tag] = true
		}
	}
	for _, tag := range params.StaticTags {
		if tag != "" {
			desired[tag] = true
		}
	}
	if params.UIDTag {
		desired[render.UIDTag(uid)] = true
	}
	return desired
}

func sameSet(tags []string, set map[string]bool) bool {
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		if tag != "" {
			seen[tag] = true
		}
	}
	if len(seen) != len(set) {
		return false
	}
	for tag := range set {
		if !seen[tag] {
			return false
		}
	}
	return true
}

// setToSorted returns the set as a sorted slice so plans, API payloads,
// and log lines stay deterministic
func setToSorted(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for tag := range set {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
