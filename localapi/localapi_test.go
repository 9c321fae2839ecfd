// ABOUTME: Tests for the local domain facades
// ABOUTME: Round-trips, validation gates, namespacing and invoice read-modify-write
package localapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duoproservices/portal/kvstore"
	"github.com/duoproservices/portal/models"
)

func TestSaveTaskRoundTrip(t *testing.T) {
	ctx := context.Background()
	api := NewTasksAPI(kvstore.NewTestStore(t))

	before := time.Now().UTC()
	task := models.Task{
		ID:          "task-1",
		Title:       "Collect W-2 forms",
		Description: "Ask the Garcias for both W-2s",
		Status:      models.TaskInProgress,
		Priority:    models.PriorityHigh,
		AssignedTo:  "ana",
		DueDate:     "2026-03-31",
	}
	saved, err := api.SaveTask(ctx, task)
	require.NoError(t, err)
	assert.False(t, saved.UpdatedAt.Before(before.Truncate(time.Millisecond)))

	tasks, err := api.GetTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	if diff := cmp.Diff(task, tasks[0], cmpopts.IgnoreFields(models.Task{}, "CreatedAt", "UpdatedAt")); diff != "" {
		t.Errorf("task mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, saved.UpdatedAt.Equal(tasks[0].UpdatedAt))
}

func TestSaveTaskRefreshesUpdatedAtOnly(t *testing.T) {
	ctx := context.Background()
	api := NewTasksAPI(kvstore.NewTestStore(t))

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	api.now = func() time.Time { return created }
	first, err := api.SaveTask(ctx, models.Task{ID: "task-1", Title: "Draft engagement letter"})
	require.NoError(t, err)

	later := created.Add(time.Hour)
	api.now = func() time.Time { return later }
	first.Title = "Send engagement letter"
	second, err := api.SaveTask(ctx, first)
	require.NoError(t, err)

	assert.Equal(t, created, second.CreatedAt)
	assert.Equal(t, later, second.UpdatedAt)

	got, err := api.Get(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, "Send engagement letter", got.Title)
}

func TestSaveTaskValidationGate(t *testing.T) {
	ctx := context.Background()
	api := NewTasksAPI(kvstore.NewTestStore(t))

	_, err := api.SaveTask(ctx, models.Task{ID: "task-1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = api.SaveTask(ctx, models.Task{Title: "No id"})
	assert.ErrorIs(t, err, models.ErrValidation)

	tasks, err := api.GetTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestDeleteTaskIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewTestStore(t)
	api := NewTasksAPI(store)

	_, err := api.SaveTask(ctx, models.Task{ID: "keep", Title: "Keep me"})
	require.NoError(t, err)

	require.NoError(t, api.DeleteTask(ctx, "missing"))
	require.NoError(t, api.DeleteTask(ctx, "missing"))

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"task:keep"}, keys)

	require.NoError(t, api.DeleteTask(ctx, "keep"))
	require.NoError(t, api.DeleteTask(ctx, "keep"))
	tasks, err := api.GetTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskKeyNamespacing(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewTestStore(t)
	tasks := NewTasksAPI(store)
	posts := NewSocialPostsAPI(store)

	_, err := tasks.SaveTask(ctx, models.Task{ID: "abc", Title: "Quarterly estimates"})
	require.NoError(t, err)
	_, err = posts.SavePost(ctx, models.SocialPost{ID: "abc", Date: "2026-04-01", Platform: models.PlatformFacebook})
	require.NoError(t, err)

	var stored models.Task
	require.True(t, store.Get(ctx, "task:abc", &stored))
	assert.Equal(t, "Quarterly estimates", stored.Title)

	raw, err := store.Backend().Get([]byte(kvstore.DefaultBasePrefix + "task:abc"))
	require.NoError(t, err)
	assert.NotNil(t, raw)

	taskEntries, err := store.GetByPrefix(ctx, "task:")
	require.NoError(t, err)
	require.Len(t, taskEntries, 1)
	assert.Equal(t, "task:abc", taskEntries[0].Key)

	postEntries, err := store.GetByPrefix(ctx, "social-post:")
	require.NoError(t, err)
	require.Len(t, postEntries, 1)
	assert.Equal(t, "social-post:abc", postEntries[0].Key)
}

func TestReplaceAllOverwritesNamespace(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewTestStore(t)
	leads := NewLeadsAPI(store)
	tasks := NewTasksAPI(store)

	_, err := leads.SaveLead(ctx, models.Lead{ID: "stale", Name: "Old lead"})
	require.NoError(t, err)
	_, err = tasks.SaveTask(ctx, models.Task{ID: "t1", Title: "Untouched"})
	require.NoError(t, err)

	fresh := []models.Lead{
		{ID: "lead-1", Name: "Rosa", Status: models.LeadNew},
		{ID: "lead-2", Name: "Luis", Status: models.LeadWon},
		{ID: "", Name: "invalid"},
	}
	require.NoError(t, leads.ReplaceAll(ctx, fresh))

	got, err := leads.GetLeads(ctx)
	require.NoError(t, err)
	ids := []string{}
	for _, l := range got {
		ids = append(ids, l.ID)
	}
	assert.ElementsMatch(t, []string{"lead-1", "lead-2"}, ids)

	remaining, err := tasks.GetTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestInvoiceLifecycle(t *testing.T) {
	ctx := context.Background()
	api := NewInvoicesAPI(kvstore.NewTestStore(t))

	inv, err := api.CreateInvoice(ctx, models.Invoice{
		InvoiceNumber: "INV-2026-0001",
		UserID:        "user-1",
		Amount:        350,
		Type:          models.InvoiceInitial,
	})
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePending, inv.Status)
	assert.False(t, inv.CreatedAt.IsZero())
	assert.Equal(t, inv.CreatedAt, inv.UpdatedAt)

	paidAt := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	api.now = func() time.Time { return paidAt }
	paid, err := api.MarkAsPaid(ctx, "INV-2026-0001", map[string]any{"paymentIntentId": "pi_123"})
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, paid.PaidAt.Equal(paidAt))
	assert.Equal(t, "pi_123", paid.PaymentIntentID)
	assert.Equal(t, float64(350), paid.Amount)

	mine, err := api.GetUserInvoices(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	others, err := api.GetUserInvoices(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestMarkAsPaidExtraWins(t *testing.T) {
	ctx := context.Background()
	api := NewInvoicesAPI(kvstore.NewTestStore(t))

	_, err := api.CreateInvoice(ctx, models.Invoice{InvoiceNumber: "INV-9", UserID: "u"})
	require.NoError(t, err)

	paid, err := api.MarkAsPaid(ctx, "INV-9", map[string]any{"currency": "eur"})
	require.NoError(t, err)
	assert.Equal(t, "eur", paid.Currency)
}

func TestMarkAsPaidUnknownInvoice(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewTestStore(t)
	api := NewInvoicesAPI(store)

	_, err := api.MarkAsPaid(ctx, "INV-404", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, kvstore.ErrStorage)

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = api.CancelInvoice(ctx, "INV-404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestActivitiesNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	api := NewActivitiesAPI(kvstore.NewTestStore(t))

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, desc := range []string{"first", "second", "third"} {
		a := models.NewTeamActivity("admin", models.VerbUpdated, "task", "task-1", desc)
		a.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		a.ID = ""
		_, err := api.LogActivity(ctx, a)
		require.NoError(t, err)
	}

	got, err := api.GetActivities(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "third", got[0].Description)
	assert.Equal(t, "second", got[1].Description)

	require.NoError(t, api.ClearActivities(ctx))
	got, err = api.GetActivities(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPostsByMonth(t *testing.T) {
	ctx := context.Background()
	api := NewSocialPostsAPI(kvstore.NewTestStore(t))

	for _, p := range []models.SocialPost{
		{ID: "p1", Date: "2026-04-15", Time: "10:00", Platform: models.PlatformInstagram, Content: "Deadline reminder"},
		{ID: "p2", Date: "2026-04-02", Time: "09:00", Platform: models.PlatformLinkedIn, Content: "Extension tips"},
		{ID: "p3", Date: "2026-05-01", Time: "09:00", Platform: models.PlatformTikTok, Content: "After the rush"},
	} {
		_, err := api.SavePost(ctx, p)
		require.NoError(t, err)
	}

	april, err := api.GetPostsByMonth(ctx, 2026, time.April)
	require.NoError(t, err)
	require.Len(t, april, 2)
	assert.Equal(t, "p2", april[0].ID)
	assert.Equal(t, "p1", april[1].ID)
	assert.Equal(t, models.PostDraft, april[0].Status)

	_, err = api.SavePost(ctx, models.SocialPost{ID: "bad", Date: "2026-04-01", Platform: "myspace"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestGetMissingRecord(t *testing.T) {
	ctx := context.Background()
	api := NewClientsAPI(kvstore.NewTestStore(t))

	_, err := api.Get(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	saved, err := api.SaveClient(ctx, models.Client{ID: "c1", Name: "Ortega Family", Status: models.ClientActive})
	require.NoError(t, err)
	got, err := api.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, saved.Name, got.Name)
}
