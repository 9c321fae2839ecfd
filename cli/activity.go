// ABOUTME: activity and clients subcommands
// ABOUTME: Team timeline lives only on this device; clients come from the backend when reachable
package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/duoproservices/portal/models"
)

func NewActivityCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show or edit the team activity timeline",
	}
	cmd.AddCommand(newActivityListCommand(rootOpts))
	cmd.AddCommand(newActivityLogCommand(rootOpts))
	cmd.AddCommand(newActivityClearCommand(rootOpts))
	return cmd
}

func newActivityListCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent activity, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			activities, err := app.Activities.GetActivities(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return rootOpts.emit(cmd.OutOrStdout(), activities, func() error {
				rows := make([][]string, 0, len(activities))
				for _, a := range activities {
					rows = append(rows, []string{a.CreatedAt.Local().Format("2006-01-02 15:04"), a.UserID, string(a.Action), a.EntityType, truncate(a.Description, 50)})
				}
				printTable(cmd.OutOrStdout(), "No activity yet.", []string{"When", "Who", "Action", "Entity", "Description"}, rows)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries (0 for all)")
	return cmd
}

func newActivityLogCommand(rootOpts *RootOptions) *cobra.Command {
	var action, entity, entityID string

	cmd := &cobra.Command{
		Use:   "log <description>",
		Short: "Add an entry to the timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			activity := models.NewTeamActivity(app.Actor(cmd.Context()), models.ActivityVerb(action), entity, entityID, args[0])
			saved, err := app.Activities.LogActivity(cmd.Context(), activity)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged %s\n", saved.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&action, "action", string(models.VerbCommented), "action (created|updated|deleted|completed|commented)")
	cmd.Flags().StringVar(&entity, "entity", "note", "entity type")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity ID")
	return cmd
}

func newActivityClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every timeline entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			if err := app.Activities.ClearActivities(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✓ Timeline cleared")
			return nil
		},
	}
}

func NewClientsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Show tax clients",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			clients, err := app.Clients.Load(cmd.Context())
			if err != nil {
				return err
			}
			return rootOpts.emit(cmd.OutOrStdout(), clients, func() error {
				rows := make([][]string, 0, len(clients))
				for _, c := range clients {
					year := ""
					if c.TaxYear != 0 {
						year = strconv.Itoa(c.TaxYear)
					}
					rows = append(rows, []string{c.ID, c.Name, c.Email, string(c.Status), year})
				}
				printTable(cmd.OutOrStdout(), "No clients found.", []string{"ID", "Name", "Email", "Status", "Tax year"}, rows)
				return nil
			})
		},
	})
	return cmd
}
