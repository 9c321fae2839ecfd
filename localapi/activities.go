package localapi

import (
	"context"
	"sort"
	"time"

	"github.com/duoproservices/portal/kvstore"
	"github.com/duoproservices/portal/models"
)

// ActivitiesAPI serves the team timeline from team-activity:<id>.
type ActivitiesAPI struct {
	*Collection[models.TeamActivity]
	now func() time.Time
}

func NewActivitiesAPI(store *kvstore.Store) *ActivitiesAPI {
	return &ActivitiesAPI{
		Collection: NewCollection[models.TeamActivity](store, TeamActivityPrefix),
		now:        time.Now,
	}
}

// GetActivities returns up to limit activities, newest first. A non-positive
// limit returns all of them.
func (a *ActivitiesAPI) GetActivities(ctx context.Context, limit int) ([]models.TeamActivity, error) {
	activities, err := a.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(activities, func(i, j int) bool {
		if !activities[i].CreatedAt.Equal(activities[j].CreatedAt) {
			return activities[i].CreatedAt.After(activities[j].CreatedAt)
		}
		return activities[i].ID > activities[j].ID
	})
	if limit > 0 && len(activities) > limit {
		activities = activities[:limit]
	}
	return activities, nil
}

// LogActivity fills in a missing id and timestamp before storing.
func (a *ActivitiesAPI) LogActivity(ctx context.Context, activity models.TeamActivity) (models.TeamActivity, error) {
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = a.now().UTC()
	}
	if activity.ID == "" {
		activity.ID = models.NewActivityID(activity.CreatedAt)
	}
	return a.Save(ctx, activity)
}

func (a *ActivitiesAPI) DeleteActivity(ctx context.Context, id string) error {
	return a.Delete(ctx, id)
}

func (a *ActivitiesAPI) ClearActivities(ctx context.Context) error {
	return a.Clear(ctx)
}
