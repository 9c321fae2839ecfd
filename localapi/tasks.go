// ABOUTME: Local stand-ins for the remote tasks and CRM lead endpoints
// ABOUTME: Same call shape as the backend, backed only by the key-value store
package localapi

import (
	"context"
	"sort"
	"time"

	"github.com/duoproservices/portal/kvstore"
	"github.com/duoproservices/portal/models"
)

// TasksAPI serves project tasks from task:<id>.
type TasksAPI struct {
	*Collection[models.Task]
	now func() time.Time
}

func NewTasksAPI(store *kvstore.Store) *TasksAPI {
	return &TasksAPI{
		Collection: NewCollection[models.Task](store, TaskPrefix),
		now:        time.Now,
	}
}

// GetTasks never fails for lack of data; an empty store yields no tasks.
func (a *TasksAPI) GetTasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := a.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// SaveTask rejects tasks without id or title before touching storage, then
// upserts the whole task with a fresh updatedAt.
func (a *TasksAPI) SaveTask(ctx context.Context, task models.Task) (models.Task, error) {
	if err := task.Validate(); err != nil {
		return models.Task{}, err
	}
	now := a.now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	return a.Save(ctx, task)
}

func (a *TasksAPI) DeleteTask(ctx context.Context, id string) error {
	return a.Delete(ctx, id)
}

// LeadsAPI serves CRM leads from lead:<id>.
type LeadsAPI struct {
	*Collection[models.Lead]
	now func() time.Time
}

func NewLeadsAPI(store *kvstore.Store) *LeadsAPI {
	return &LeadsAPI{
		Collection: NewCollection[models.Lead](store, LeadPrefix),
		now:        time.Now,
	}
}

func (a *LeadsAPI) GetLeads(ctx context.Context) ([]models.Lead, error) {
	leads, err := a.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(leads, func(i, j int) bool {
		return leads[i].CreatedAt.After(leads[j].CreatedAt)
	})
	return leads, nil
}

func (a *LeadsAPI) SaveLead(ctx context.Context, lead models.Lead) (models.Lead, error) {
	if err := lead.Validate(); err != nil {
		return models.Lead{}, err
	}
	now := a.now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now
	if lead.Activities == nil {
		lead.Activities = []models.LeadActivity{}
	}
	return a.Save(ctx, lead)
}

func (a *LeadsAPI) DeleteLead(ctx context.Context, id string) error {
	return a.Delete(ctx, id)
}

// ClientsAPI serves the admin client list from client:<id>.
type ClientsAPI struct {
	*Collection[models.Client]
	now func() time.Time
}

func NewClientsAPI(store *kvstore.Store) *ClientsAPI {
	return &ClientsAPI{
		Collection: NewCollection[models.Client](store, ClientPrefix),
		now:        time.Now,
	}
}

func (a *ClientsAPI) GetClients(ctx context.Context) ([]models.Client, error) {
	clients, err := a.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(clients, func(i, j int) bool {
		return clients[i].Name < clients[j].Name
	})
	return clients, nil
}

func (a *ClientsAPI) SaveClient(ctx context.Context, client models.Client) (models.Client, error) {
	if err := client.Validate(); err != nil {
		return models.Client{}, err
	}
	now := a.now().UTC()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	client.UpdatedAt = now
	return a.Save(ctx, client)
}
