package controller

import (
	"context"

	"github.com/duoproservices/portal/connectivity"
	"github.com/duoproservices/portal/localapi"
	"github.com/duoproservices/portal/models"
)

// Projects drives the task tracker.
type Projects struct {
	*Controller[models.Task]
}

func NewProjects(remote Source[models.Task], local *localapi.TasksAPI, flag *connectivity.Flag, opts ...Option) *Projects {
	return &Projects{Controller: New[models.Task]("tasks", remote, local, flag, opts...)}
}

// SaveTask fills in a generated id and defaults, refreshes updatedAt and saves.
func (p *Projects) SaveTask(ctx context.Context, task models.Task) (models.Task, error) {
	now := p.now().UTC()
	if task.ID == "" {
		task.ID = models.NewTaskID(now)
	}
	if task.Status == "" {
		task.Status = models.TaskNotStarted
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	return p.Save(ctx, task)
}

// SetStatus moves a task to status.
func (p *Projects) SetStatus(ctx context.Context, id string, status models.TaskStatus) (models.Task, error) {
	if !status.Valid() {
		return models.Task{}, &models.ValidationError{Entity: "task", Field: "status", Value: string(status)}
	}
	task, err := p.Find(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	task.Status = status
	return p.SaveTask(ctx, task)
}
