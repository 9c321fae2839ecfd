// ABOUTME: Tests for the MCP tool handlers
// ABOUTME: Controllers run over an in-memory store and a switchable fake backend
package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duoproservices/portal/connectivity"
	"github.com/duoproservices/portal/controller"
	"github.com/duoproservices/portal/kvstore"
	"github.com/duoproservices/portal/localapi"
	"github.com/duoproservices/portal/models"
)

type memRemote[T models.Record] struct {
	mu      sync.Mutex
	down    bool
	records map[string]T
}

func newMemRemote[T models.Record]() *memRemote[T] {
	return &memRemote[T]{records: map[string]T{}}
}

func (m *memRemote[T]) setDown(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down = down
}

func (m *memRemote[T]) List(context.Context) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, errors.New("connection refused")
	}
	out := make([]T, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, nil
}

func (m *memRemote[T]) Save(_ context.Context, item T) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		var zero T
		return zero, errors.New("connection refused")
	}
	m.records[item.RecordID()] = item
	return item, nil
}

func (m *memRemote[T]) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errors.New("connection refused")
	}
	delete(m.records, id)
	return nil
}

type fixture struct {
	store       *kvstore.Store
	taskRemote  *memRemote[models.Task]
	leadRemote  *memRemote[models.Lead]
	postRemote  *memRemote[models.SocialPost]
	projects    *controller.Projects
	crm         *controller.CRM
	social      *controller.Social
	invoicesAPI *localapi.InvoicesAPI
	activities  *localapi.ActivitiesAPI
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := kvstore.NewTestStore(t)
	f := &fixture{
		store:       store,
		taskRemote:  newMemRemote[models.Task](),
		leadRemote:  newMemRemote[models.Lead](),
		postRemote:  newMemRemote[models.SocialPost](),
		invoicesAPI: localapi.NewInvoicesAPI(store),
		activities:  localapi.NewActivitiesAPI(store),
	}
	opts := []controller.Option{controller.WithTimeout(time.Second)}
	f.projects = controller.NewProjects(f.taskRemote, localapi.NewTasksAPI(store), connectivity.NewFlag(store, connectivity.TasksFlagKey), opts...)
	f.crm = controller.NewCRM(f.leadRemote, localapi.NewLeadsAPI(store), connectivity.NewFlag(store, connectivity.CRMFlagKey), opts...)
	f.social = controller.NewSocial(f.postRemote, localapi.NewSocialPostsAPI(store), connectivity.NewFlag(store, connectivity.SocialFlagKey), opts...)
	return f
}

func TestSaveAndListTasks(t *testing.T) {
	f := newFixture(t)
	h := NewTaskHandlers(f.projects)
	ctx := context.Background()

	_, created, err := h.SaveTask(ctx, nil, SaveTaskInput{Title: "File 1040 for Rivera", Priority: "high"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "not-started", created.Status)
	assert.Equal(t, "high", created.Priority)

	_, updated, err := h.SaveTask(ctx, nil, SaveTaskInput{ID: created.ID, Title: "File 1040 for Rivera", Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, "completed", updated.Status)
	assert.Equal(t, "high", updated.Priority)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	_, list, err := h.ListTasks(ctx, nil, ListTasksInput{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, "online", list.Mode)
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, created.ID, list.Tasks[0].ID)

	_, list, err = h.ListTasks(ctx, nil, ListTasksInput{Status: "in-progress"})
	require.NoError(t, err)
	assert.Empty(t, list.Tasks)
}

func TestSaveTaskRequiresTitle(t *testing.T) {
	h := NewTaskHandlers(newFixture(t).projects)
	_, _, err := h.SaveTask(context.Background(), nil, SaveTaskInput{})
	assert.Error(t, err)

	_, _, err = h.SaveTask(context.Background(), nil, SaveTaskInput{Title: "x", Status: "blocked"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDeleteTaskWhileOffline(t *testing.T) {
	f := newFixture(t)
	h := NewTaskHandlers(f.projects)
	ctx := context.Background()

	_, task, err := h.SaveTask(ctx, nil, SaveTaskInput{Title: "Scan receipts"})
	require.NoError(t, err)

	f.taskRemote.setDown(true)
	_, out, err := h.DeleteTask(ctx, nil, DeleteTaskInput{ID: task.ID})
	require.NoError(t, err)
	assert.True(t, out.Deleted)
	assert.Equal(t, "offline", out.Mode)

	_, list, err := h.ListTasks(ctx, nil, ListTasksInput{})
	require.NoError(t, err)
	assert.Equal(t, "offline", list.Mode)
	assert.Empty(t, list.Tasks)
}

func TestLeadLifecycleAndStats(t *testing.T) {
	f := newFixture(t)
	h := NewLeadHandlers(f.crm)
	ctx := context.Background()

	_, lead, err := h.SaveLead(ctx, nil, SaveLeadInput{Name: "Maria Lopez", Company: "Lopez Bakery", EstimatedValue: 1200})
	require.NoError(t, err)
	assert.Equal(t, "new", lead.Status)
	assert.Equal(t, "website", lead.ContactMethod)

	_, lead, err = h.SaveLead(ctx, nil, SaveLeadInput{ID: lead.ID, Name: "Maria Lopez", Status: "won"})
	require.NoError(t, err)
	assert.Equal(t, "won", lead.Status)
	require.Len(t, lead.Activities, 1)
	assert.Equal(t, "status-change", lead.Activities[0].Type)
	assert.Equal(t, "Status changed from new to won", lead.Activities[0].Description)

	_, lead, err = h.AddLeadActivity(ctx, nil, AddLeadActivityInput{LeadID: lead.ID, Type: "call", Description: "Confirmed engagement letter"})
	require.NoError(t, err)
	assert.Len(t, lead.Activities, 2)

	_, _, err = h.SaveLead(ctx, nil, SaveLeadInput{Name: "Tom Ng", Email: "tom@ng.test", ContactMethod: "referral"})
	require.NoError(t, err)

	_, list, err := h.ListLeads(ctx, nil, ListLeadsInput{Query: "bakery"})
	require.NoError(t, err)
	require.Len(t, list.Leads, 1)
	assert.Equal(t, "Maria Lopez", list.Leads[0].Name)

	_, stats, err := h.LeadStats(ctx, nil, LeadStatsInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Won)
	assert.Equal(t, 1, stats.New)
	assert.Equal(t, 50, stats.ConversionRate)
	assert.Equal(t, 1, stats.ByContactMethod["referral"])
}

func TestAddLeadActivityValidation(t *testing.T) {
	h := NewLeadHandlers(newFixture(t).crm)
	ctx := context.Background()

	_, _, err := h.AddLeadActivity(ctx, nil, AddLeadActivityInput{Description: "x"})
	assert.Error(t, err)
	_, _, err = h.AddLeadActivity(ctx, nil, AddLeadActivityInput{LeadID: "missing", Description: "x"})
	assert.ErrorIs(t, err, localapi.ErrNotFound)
}

func TestPostsByMonth(t *testing.T) {
	f := newFixture(t)
	h := NewSocialHandlers(f.social)
	ctx := context.Background()

	for _, date := range []string{"2026-04-20", "2026-04-02", "2026-05-01"} {
		_, _, err := h.SavePost(ctx, nil, SavePostInput{Date: date, Platform: "instagram", Content: "Deadline reminder"})
		require.NoError(t, err)
	}

	_, out, err := h.ListPosts(ctx, nil, ListPostsInput{Month: "2026-04"})
	require.NoError(t, err)
	require.Len(t, out.Posts, 2)
	assert.Equal(t, "2026-04-02", out.Posts[0].Date)
	assert.Equal(t, "draft", out.Posts[0].Status)

	_, _, err = h.ListPosts(ctx, nil, ListPostsInput{Month: "April"})
	assert.Error(t, err)

	_, _, err = h.SavePost(ctx, nil, SavePostInput{Date: "2026-04-02", Platform: "myspace"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestInvoiceTools(t *testing.T) {
	f := newFixture(t)
	h := NewInvoiceHandlers(f.invoicesAPI)
	ctx := context.Background()

	_, inv, err := h.CreateInvoice(ctx, nil, CreateInvoiceInput{InvoiceNumber: "INV-2026-001", UserID: "u1", Amount: 350, Type: "initial"})
	require.NoError(t, err)
	assert.Equal(t, "pending", inv.Status)
	assert.Equal(t, "usd", inv.Currency)

	_, paid, err := h.MarkInvoicePaid(ctx, nil, MarkInvoicePaidInput{InvoiceNumber: "INV-2026-001", PaymentIntentID: "pi_123"})
	require.NoError(t, err)
	assert.Equal(t, "paid", paid.Status)
	assert.Equal(t, "pi_123", paid.PaymentIntentID)
	assert.NotEmpty(t, paid.PaidAt)

	_, _, err = h.MarkInvoicePaid(ctx, nil, MarkInvoicePaidInput{InvoiceNumber: "INV-404"})
	assert.ErrorIs(t, err, localapi.ErrNotFound)

	_, list, err := h.ListInvoices(ctx, nil, ListInvoicesInput{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, list.Invoices, 1)

	_, list, err = h.ListInvoices(ctx, nil, ListInvoicesInput{UserID: "u2"})
	require.NoError(t, err)
	assert.Empty(t, list.Invoices)
}

func TestListActivitiesDefaultsLimit(t *testing.T) {
	f := newFixture(t)
	h := NewActivityHandlers(f.activities)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.activities.LogActivity(ctx, models.NewTeamActivity("u1", models.VerbCreated, "task", "t1", "Created task"))
		require.NoError(t, err)
	}

	_, out, err := h.ListActivities(ctx, nil, ListActivitiesInput{})
	require.NoError(t, err)
	assert.Len(t, out.Activities, 3)

	_, out, err = h.ListActivities(ctx, nil, ListActivitiesInput{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, out.Activities, 2)
}

func TestConnectivityStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.leadRemote.setDown(true)
	_, err := f.crm.Load(ctx)
	require.NoError(t, err)

	var probes int
	gate := connectivity.NewGate(connectivity.ProberFunc(func(context.Context) error {
		probes++
		return nil
	}))
	h := NewStatusHandlers(gate, f.crm, f.projects)

	_, out, err := h.ConnectivityStatus(ctx, nil, ConnectivityStatusInput{})
	require.NoError(t, err)
	assert.True(t, out.BackendAvailable)
	assert.NotEmpty(t, out.LastProbe)
	require.Len(t, out.Modules, 2)
	assert.Equal(t, ModuleStatus{Module: "crm", Mode: "offline", OfflineFlag: true, LastCheck: out.Modules[0].LastCheck}, out.Modules[0])
	assert.Equal(t, "unknown", out.Modules[1].Mode)
	assert.False(t, out.Modules[1].OfflineFlag)

	_, _, err = h.ConnectivityStatus(ctx, nil, ConnectivityStatusInput{Probe: true})
	require.NoError(t, err)
	assert.Equal(t, 2, probes)
}
