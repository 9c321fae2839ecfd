// ABOUTME: tasks subcommands for the project tracker
// ABOUTME: list, add, done and rm over the projects controller
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duoproservices/portal/models"
)

func NewTasksCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage project tasks",
	}
	cmd.AddCommand(newTasksListCommand(rootOpts))
	cmd.AddCommand(newTasksAddCommand(rootOpts))
	cmd.AddCommand(newTasksDoneCommand(rootOpts))
	cmd.AddCommand(newTasksRmCommand(rootOpts))
	return cmd
}

func newTasksListCommand(rootOpts *RootOptions) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			tasks, err := app.Projects.Load(cmd.Context())
			if err != nil {
				return err
			}

			filtered := make([]models.Task, 0, len(tasks))
			for _, t := range tasks {
				if status == "" || string(t.Status) == status {
					filtered = append(filtered, t)
				}
			}

			return rootOpts.emit(cmd.OutOrStdout(), filtered, func() error {
				rows := make([][]string, 0, len(filtered))
				for _, t := range filtered {
					rows = append(rows, []string{t.ID, truncate(t.Title, 40), string(t.Status), string(t.Priority), t.AssignedTo, t.DueDate})
				}
				printTable(cmd.OutOrStdout(), "No tasks found.", []string{"ID", "Title", "Status", "Priority", "Assigned", "Due"}, rows)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (not-started|in-progress|completed)")
	return cmd
}

func newTasksAddCommand(rootOpts *RootOptions) *cobra.Command {
	var task models.Task
	var priority, due string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			task.Title = args[0]
			task.Priority = models.TaskPriority(priority)
			task.DueDate = due

			saved, err := app.Projects.SaveTask(cmd.Context(), task)
			if err != nil {
				return err
			}
			app.Record(cmd.Context(), models.VerbCreated, "task", saved.ID, "Created task "+saved.Title)

			return rootOpts.emit(cmd.OutOrStdout(), saved, func() error {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Added task %s (%s)\n", saved.Title, saved.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&task.Description, "desc", "", "description")
	cmd.Flags().StringVar(&priority, "priority", "", "priority (low|medium|high)")
	cmd.Flags().StringVar(&task.AssignedTo, "assign", "", "assignee")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	return cmd
}

func newTasksDoneCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			if _, err := app.Projects.Load(cmd.Context()); err != nil {
				return err
			}
			task, err := app.Projects.SetStatus(cmd.Context(), args[0], models.TaskCompleted)
			if err != nil {
				return err
			}
			app.Record(cmd.Context(), models.VerbCompleted, "task", task.ID, "Completed task "+task.Title)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Completed %s\n", task.Title)
			return nil
		},
	}
}

func newTasksRmCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			if err := app.Projects.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			app.Record(cmd.Context(), models.VerbDeleted, "task", args[0], "Deleted task")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", args[0])
			return nil
		},
	}
}
