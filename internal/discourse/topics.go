// ABOUTME: Topic-level Discourse operations: find by UID marker, read, create, update post and tags
// ABOUTME: Search hits are verified against the embedded marker so full-text false positives never match

package discourse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/harper/ics2disc/internal/render"
)

// Topic is the client's view of a forum topic: the fields the sync
// needs and nothing else.
type Topic struct {
	ID          int
	Title       string
	CategoryID  int
	Tags        []string
	FirstPostID int
	Raw         string // first post body, marker included
}

type searchResponse struct {
	Topics []struct {
		ID int `json:"id"`
	} `json:"topics"`
	Posts []struct {
		TopicID int `json:"topic_id"`
	} `json:"posts"`
}

type topicResponse struct {
	ID         int      `json:"id"`
	Title      string   `json:"title"`
	CategoryID int      `json:"category_id"`
	Tags       []string `json:"tags"`
	PostStream struct {
		Posts []struct {
			ID  int    `json:"id"`
			Raw string `json:"raw"`
		} `json:"posts"`
	} `json:"post_stream"`
}

type createResponse struct {
	ID      int `json:"id"`
	TopicID int `json:"topic_id"`
}

// FindTopicByUID looks up the topic whose first post carries the
// marker for uid. Candidates come from forum search (the marker may
// surface under topics or only under posts); each one is fetched and
// verified to embed exactly this UID before being returned. Returns
// (nil, nil) when no topic matches.
func (c *Client) FindTopicByUID(ctx context.Context, uid string) (*Topic, error) {
	// Quoted so search treats the marker token as an exact phrase
	query := url.Values{}
	query.Set("q", `"ICSUID:`+uid+`"`)

	body, err := c.do(ctx, "GET", "/search.json", query, nil)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	seen := make(map[int]bool)
	candidates := make([]int, 0, len(result.Topics)+len(result.Posts))
	for _, t := range result.Topics {
		if !seen[t.ID] {
			seen[t.ID] = true
			candidates = append(candidates, t.ID)
		}
	}
	for _, p := range result.Posts {
		if !seen[p.TopicID] {
			seen[p.TopicID] = true
			candidates = append(candidates, p.TopicID)
		}
	}

	for _, id := range candidates {
		topic, err := c.GetTopic(ctx, id)
		if err != nil {
			return nil, err
		}
		if render.ExtractUID(topic.Raw) == uid {
			return topic, nil
		}
	}

	return nil, nil
}

// GetTopic fetches a topic with the raw body of its first post
func (c *Client) GetTopic(ctx context.Context, topicID int) (*Topic, error) {
	query := url.Values{}
	query.Set("include_raw", "true")

	body, err := c.do(ctx, "GET", fmt.Sprintf("/t/%d.json", topicID), query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic %d: %w", topicID, err)
	}

	var result topicResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode topic %d: %w", topicID, err)
	}
	if len(result.PostStream.Posts) == 0 {
		return nil, fmt.Errorf("topic %d has no posts", topicID)
	}

	first := result.PostStream.Posts[0]
	return &Topic{
		ID:          result.ID,
		Title:       result.Title,
		CategoryID:  result.CategoryID,
		Tags:        result.Tags,
		FirstPostID: first.ID,
		Raw:         first.Raw,
	}, nil
}

// CreateTopic creates a new topic with the given first post body and
// tags in the given category, returning the created topic
func (c *Client) CreateTopic(ctx context.Context, title, raw string, categoryID int, tags []string) (*Topic, error) {
	form := url.Values{}
	form.Set("title", title)
	form.Set("raw", raw)
	form.Set("category", strconv.Itoa(categoryID))
	for _, tag := range tags {
		form.Add("tags[]", tag)
	}

	body, err := c.do(ctx, "POST", "/posts.json", nil, form)
	if err != nil {
		return nil, fmt.Errorf("failed to create topic: %w", err)
	}

	var result createResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode create response: %w", err)
	}

	return &Topic{
		ID:          result.TopicID,
		Title:       title,
		CategoryID:  categoryID,
		Tags:        tags,
		FirstPostID: result.ID,
		Raw:         raw,
	}, nil
}

// UpdateFirstPost overwrites the raw body of a post
func (c *Client) UpdateFirstPost(ctx context.Context, postID int, raw string) error {
	form := url.Values{}
	form.Set("post[raw]", raw)

	if _, err := c.do(ctx, "PUT", fmt.Sprintf("/posts/%d.json", postID), nil, form); err != nil {
		return fmt.Errorf("failed to update post %d: %w", postID, err)
	}
	return nil
}

// UpdateTopicTags replaces the tag set of a topic. Callers are
// expected to pass a merged set that still contains every existing
// tag; this method does no merging of its own.
func (c *Client) UpdateTopicTags(ctx context.Context, topicID int, tags []string) error {
	form := url.Values{}
	for _, tag := range tags {
		form.Add("tags[]", tag)
	}

	if _, err := c.do(ctx, "PUT", fmt.Sprintf("/t/%d.json", topicID), nil, form); err != nil {
		return fmt.Errorf("failed to update tags on topic %d: %w", topicID, err)
	}
	return nil
}
