// ABOUTME: Social calendar MCP tool handlers
// ABOUTME: Implements list_posts and save_post over the social controller
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/duoproservices/portal/controller"
	"github.com/duoproservices/portal/localapi"
	"github.com/duoproservices/portal/models"
)

type SocialHandlers struct {
	social *controller.Social
}

func NewSocialHandlers(social *controller.Social) *SocialHandlers {
	return &SocialHandlers{social: social}
}

type ListPostsInput struct {
	Month string `json:"month,omitempty" jsonschema:"Only posts in this month (YYYY-MM)"`
}

type SavePostInput struct {
	ID       string `json:"id,omitempty" jsonschema:"Post ID (omit to create a new post)"`
	Date     string `json:"date" jsonschema:"Publish date (YYYY-MM-DD, required)"`
	Time     string `json:"time,omitempty" jsonschema:"Publish time (HH:MM)"`
	Platform string `json:"platform" jsonschema:"Platform: instagram, facebook, linkedin, tiktok (required)"`
	Content  string `json:"content" jsonschema:"Post copy"`
	ImageURL string `json:"image_url,omitempty" jsonschema:"Image attached to the post"`
	Status   string `json:"status,omitempty" jsonschema:"Status: draft, scheduled, published (default draft)"`
}

func (h *SocialHandlers) ListPosts(ctx context.Context, _ *mcp.CallToolRequest, input ListPostsInput) (*mcp.CallToolResult, PostsOutput, error) {
	var (
		posts []models.SocialPost
		err   error
	)
	if input.Month != "" {
		month, perr := time.Parse("2006-01", input.Month)
		if perr != nil {
			return nil, PostsOutput{}, fmt.Errorf("invalid month %q (use YYYY-MM): %w", input.Month, perr)
		}
		posts, err = h.social.Month(ctx, month.Year(), month.Month())
	} else {
		posts, err = h.social.Load(ctx)
		localapi.SortPosts(posts)
	}
	if err != nil {
		return nil, PostsOutput{}, fmt.Errorf("failed to load posts: %w", err)
	}

	out := PostsOutput{Mode: h.social.Mode().String(), Posts: make([]PostOutput, 0, len(posts))}
	for _, p := range posts {
		out.Posts = append(out.Posts, postToOutput(p))
	}
	return nil, out, nil
}

func (h *SocialHandlers) SavePost(ctx context.Context, _ *mcp.CallToolRequest, input SavePostInput) (*mcp.CallToolResult, PostOutput, error) {
	post := models.SocialPost{
		ID:       input.ID,
		Date:     input.Date,
		Time:     input.Time,
		Platform: models.Platform(input.Platform),
		Content:  input.Content,
		ImageURL: input.ImageURL,
		Status:   models.PostStatus(input.Status),
	}
	if input.ID != "" {
		if existing, err := h.social.Find(ctx, input.ID); err == nil {
			post.CreatedAt = existing.CreatedAt
		}
	}

	saved, err := h.social.SavePost(ctx, post)
	if err != nil {
		return nil, PostOutput{}, fmt.Errorf("failed to save post: %w", err)
	}
	return nil, postToOutput(saved), nil
}
