// ABOUTME: Task MCP tool handlers
// ABOUTME: Implements list_tasks, save_task and delete_task over the projects controller
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/duoproservices/portal/controller"
	"github.com/duoproservices/portal/models"
)

type TaskHandlers struct {
	projects *controller.Projects
}

func NewTaskHandlers(projects *controller.Projects) *TaskHandlers {
	return &TaskHandlers{projects: projects}
}

type ListTasksInput struct {
	Status string `json:"status,omitempty" jsonschema:"Filter by status: not-started, in-progress, completed"`
}

type SaveTaskInput struct {
	ID          string `json:"id,omitempty" jsonschema:"Task ID (omit to create a new task)"`
	Title       string `json:"title" jsonschema:"Task title (required)"`
	Description string `json:"description,omitempty" jsonschema:"Task description"`
	Status      string `json:"status,omitempty" jsonschema:"Status: not-started, in-progress, completed"`
	Priority    string `json:"priority,omitempty" jsonschema:"Priority: low, medium, high"`
	AssignedTo  string `json:"assigned_to,omitempty" jsonschema:"Team member the task is assigned to"`
	DueDate     string `json:"due_date,omitempty" jsonschema:"Due date (YYYY-MM-DD)"`
}

type DeleteTaskInput struct {
	ID string `json:"id" jsonschema:"Task ID (required)"`
}

func (h *TaskHandlers) ListTasks(ctx context.Context, _ *mcp.CallToolRequest, input ListTasksInput) (*mcp.CallToolResult, TasksOutput, error) {
	tasks, err := h.projects.Load(ctx)
	if err != nil {
		return nil, TasksOutput{}, fmt.Errorf("failed to load tasks: %w", err)
	}

	out := TasksOutput{Mode: h.projects.Mode().String(), Tasks: []TaskOutput{}}
	for _, t := range tasks {
		if input.Status != "" && string(t.Status) != input.Status {
			continue
		}
		out.Tasks = append(out.Tasks, taskToOutput(t))
	}
	return nil, out, nil
}

func (h *TaskHandlers) SaveTask(ctx context.Context, _ *mcp.CallToolRequest, input SaveTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	if input.Title == "" {
		return nil, TaskOutput{}, fmt.Errorf("title is required")
	}

	var task models.Task
	if input.ID != "" {
		existing, err := h.projects.Find(ctx, input.ID)
		if err != nil {
			return nil, TaskOutput{}, fmt.Errorf("task not found: %w", err)
		}
		task = existing
	}

	task.Title = input.Title
	if input.Description != "" {
		task.Description = input.Description
	}
	if input.Status != "" {
		task.Status = models.TaskStatus(input.Status)
	}
	if input.Priority != "" {
		task.Priority = models.TaskPriority(input.Priority)
	}
	if input.AssignedTo != "" {
		task.AssignedTo = input.AssignedTo
	}
	if input.DueDate != "" {
		task.DueDate = input.DueDate
	}

	saved, err := h.projects.SaveTask(ctx, task)
	if err != nil {
		return nil, TaskOutput{}, fmt.Errorf("failed to save task: %w", err)
	}
	return nil, taskToOutput(saved), nil
}

func (h *TaskHandlers) DeleteTask(ctx context.Context, _ *mcp.CallToolRequest, input DeleteTaskInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if input.ID == "" {
		return nil, DeleteOutput{}, fmt.Errorf("id is required")
	}
	if err := h.projects.Delete(ctx, input.ID); err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete task: %w", err)
	}
	return nil, DeleteOutput{ID: input.ID, Deleted: true, Mode: h.projects.Mode().String()}, nil
}
