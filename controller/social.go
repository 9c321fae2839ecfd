package controller

import (
	"context"
	"time"

	"github.com/duoproservices/portal/connectivity"
	"github.com/duoproservices/portal/localapi"
	"github.com/duoproservices/portal/models"
)

// Social drives the social-media content calendar.
type Social struct {
	*Controller[models.SocialPost]
}

func NewSocial(remote Source[models.SocialPost], local *localapi.SocialPostsAPI, flag *connectivity.Flag, opts ...Option) *Social {
	return &Social{Controller: New[models.SocialPost]("social", remote, local, flag, opts...)}
}

// SavePost fills in an id, draft status and createdAt, then saves.
func (s *Social) SavePost(ctx context.Context, post models.SocialPost) (models.SocialPost, error) {
	if post.ID == "" {
		post.ID = models.NewRecordID()
	}
	if post.Status == "" {
		post.Status = models.PostDraft
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = s.now().UTC()
	}
	return s.Save(ctx, post)
}

// Month loads the calendar and returns one month of it in date order.
func (s *Social) Month(ctx context.Context, year int, month time.Month) ([]models.SocialPost, error) {
	posts, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	localapi.SortPosts(posts)
	return localapi.PostsInMonth(posts, year, month), nil
}

// SetStatus changes a post's status, e.g. to published.
func (s *Social) SetStatus(ctx context.Context, id string, status models.PostStatus) (models.SocialPost, error) {
	post, err := s.Find(ctx, id)
	if err != nil {
		return models.SocialPost{}, err
	}
	post.Status = status
	return s.SavePost(ctx, post)
}
