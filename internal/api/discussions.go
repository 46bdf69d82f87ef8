package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/farmlink/farmlink-go/internal/model"
)

// Discussions fetches community discussion posts. Query supports Limit for
// the latest-discussions preview; the other filter fields are ignored by
// this endpoint.
func (c *Client) Discussions(ctx context.Context, q model.Query) ([]model.DiscussionPost, error) {
	var out []model.DiscussionPost
	if err := c.do(ctx, http.MethodGet, "/api/community/discussions", q.Values(), nil, authOptional, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Discussion fetches a single post by id.
func (c *Client) Discussion(ctx context.Context, id string) (*model.DiscussionPost, error) {
	var out model.DiscussionPost
	if err := c.do(ctx, http.MethodGet, "/api/community/discussions/"+id, nil, nil, authOptional, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DiscussionDraft is the payload for creating or updating a post.
type DiscussionDraft struct {
	Title   string
	Content string
	Image   *Upload
}

func (d DiscussionDraft) validate() error {
	if d.Title == "" || d.Content == "" {
		return fmt.Errorf("title and content are required")
	}
	return nil
}

// CreateDiscussion posts a new discussion as multipart form data.
// Requires authentication.
func (c *Client) CreateDiscussion(ctx context.Context, draft DiscussionDraft) (*model.DiscussionPost, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}
	b, err := discussionForm(draft)
	if err != nil {
		return nil, err
	}
	var out model.DiscussionPost
	if err := c.do(ctx, http.MethodPost, "/api/community/discussions", nil, b, authRequired, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDiscussion replaces a post's fields. Only the author may update.
func (c *Client) UpdateDiscussion(ctx context.Context, id string, draft DiscussionDraft) (*model.DiscussionPost, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}
	b, err := discussionForm(draft)
	if err != nil {
		return nil, err
	}
	var out model.DiscussionPost
	if err := c.do(ctx, http.MethodPut, "/api/community/discussions/"+id, nil, b, authRequired, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDiscussion removes a post. Only the author may delete. Callers are
// expected to confirm with the user before invoking this.
func (c *Client) DeleteDiscussion(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/community/discussions/"+id, nil, nil, authRequired, nil)
}

// CommunityStats fetches the aggregate community counters.
func (c *Client) CommunityStats(ctx context.Context) (*model.CommunityStats, error) {
	var out model.CommunityStats
	if err := c.do(ctx, http.MethodGet, "/api/community/stats", nil, nil, authNone, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// discussionForm builds the multipart body for a discussion draft.
func discussionForm(d DiscussionDraft) (*body, error) {
	fields := [][2]string{
		{"title", d.Title},
		{"content", d.Content},
	}
	var images []Upload
	if d.Image != nil {
		images = []Upload{*d.Image}
	}
	return multipartForm(fields, "image", images)
}
