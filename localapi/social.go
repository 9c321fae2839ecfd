package localapi

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/duoproservices/portal/kvstore"
	"github.com/duoproservices/portal/models"
)

// SocialPostsAPI serves the content calendar from social-post:<id>.
type SocialPostsAPI struct {
	*Collection[models.SocialPost]
	now func() time.Time
}

func NewSocialPostsAPI(store *kvstore.Store) *SocialPostsAPI {
	return &SocialPostsAPI{
		Collection: NewCollection[models.SocialPost](store, SocialPostPrefix),
		now:        time.Now,
	}
}

// GetPosts returns posts in calendar order.
func (a *SocialPostsAPI) GetPosts(ctx context.Context) ([]models.SocialPost, error) {
	posts, err := a.List(ctx)
	if err != nil {
		return nil, err
	}
	SortPosts(posts)
	return posts, nil
}

// GetPostsByMonth returns the posts whose date falls in the given month.
func (a *SocialPostsAPI) GetPostsByMonth(ctx context.Context, year int, month time.Month) ([]models.SocialPost, error) {
	posts, err := a.GetPosts(ctx)
	if err != nil {
		return nil, err
	}
	return PostsInMonth(posts, year, month), nil
}

// SavePost stamps createdAt on first save and defaults the status to draft.
func (a *SocialPostsAPI) SavePost(ctx context.Context, post models.SocialPost) (models.SocialPost, error) {
	if err := post.Validate(); err != nil {
		return models.SocialPost{}, err
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = a.now().UTC()
	}
	if post.Status == "" {
		post.Status = models.PostDraft
	}
	return a.Save(ctx, post)
}

func (a *SocialPostsAPI) DeletePost(ctx context.Context, id string) error {
	return a.Delete(ctx, id)
}

// SortPosts orders posts by date then time.
func SortPosts(posts []models.SocialPost) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Date != posts[j].Date {
			return posts[i].Date < posts[j].Date
		}
		return posts[i].Time < posts[j].Time
	})
}

// PostsInMonth filters posts by their YYYY-MM date prefix.
func PostsInMonth(posts []models.SocialPost, year int, month time.Month) []models.SocialPost {
	prefix := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-")
	out := make([]models.SocialPost, 0, len(posts))
	for _, p := range posts {
		if strings.HasPrefix(p.Date, prefix) {
			out = append(out, p)
		}
	}
	return out
}
