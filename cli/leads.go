// ABOUTME: leads subcommands for the CRM pipeline
// ABOUTME: list, add, status, note, stats and graph over the CRM controller
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/duoproservices/portal/models"
	"github.com/duoproservices/portal/viz"
)

func NewLeadsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Manage CRM leads",
	}
	cmd.AddCommand(newLeadsListCommand(rootOpts))
	cmd.AddCommand(newLeadsAddCommand(rootOpts))
	cmd.AddCommand(newLeadsStatusCommand(rootOpts))
	cmd.AddCommand(newLeadsNoteCommand(rootOpts))
	cmd.AddCommand(newLeadsStatsCommand(rootOpts))
	cmd.AddCommand(newLeadsGraphCommand(rootOpts))
	return cmd
}

func newLeadsListCommand(rootOpts *RootOptions) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			leads, err := app.CRM.Load(cmd.Context())
			if err != nil {
				return err
			}

			filtered := make([]models.Lead, 0, len(leads))
			for _, l := range leads {
				if status == "" || string(l.Status) == status {
					filtered = append(filtered, l)
				}
			}

			return rootOpts.emit(cmd.OutOrStdout(), filtered, func() error {
				rows := make([][]string, 0, len(filtered))
				for _, l := range filtered {
					rows = append(rows, []string{l.ID, l.Name, l.Company, string(l.Status), string(l.ContactMethod), fmt.Sprintf("$%.0f", l.EstimatedValue)})
				}
				printTable(cmd.OutOrStdout(), "No leads found.", []string{"ID", "Name", "Company", "Status", "Via", "Value"}, rows)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	return cmd
}

func newLeadsAddCommand(rootOpts *RootOptions) *cobra.Command {
	var lead models.Lead
	var via string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			lead.Name = args[0]
			lead.ContactMethod = models.ContactMethod(via)

			saved, err := app.CRM.SaveLead(cmd.Context(), lead)
			if err != nil {
				return err
			}
			app.Record(cmd.Context(), models.VerbCreated, "lead", saved.ID, "Added lead "+saved.Name)

			return rootOpts.emit(cmd.OutOrStdout(), saved, func() error {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Added lead %s (%s)\n", saved.Name, saved.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&lead.Email, "email", "", "email address")
	cmd.Flags().StringVar(&lead.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&lead.Company, "company", "", "company name")
	cmd.Flags().StringVar(&via, "via", "", "contact method (website|phone|email|whatsapp|instagram|facebook|referral|walk-in)")
	cmd.Flags().Float64Var(&lead.EstimatedValue, "value", 0, "estimated value")
	cmd.Flags().StringVar(&lead.Notes, "notes", "", "notes")
	return cmd
}

func newLeadsStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a lead to another pipeline status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			if _, err := app.CRM.Load(cmd.Context()); err != nil {
				return err
			}
			lead, err := app.CRM.UpdateStatus(cmd.Context(), args[0], models.LeadStatus(args[1]))
			if err != nil {
				return err
			}
			app.Record(cmd.Context(), models.VerbUpdated, "lead", lead.ID, fmt.Sprintf("Moved %s to %s", lead.Name, lead.Status))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is now %s\n", lead.Name, lead.Status)
			return nil
		},
	}
}

func newLeadsNoteCommand(rootOpts *RootOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "note <id> <text>",
		Short: "Add an activity to a lead's history",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			if _, err := app.CRM.Load(cmd.Context()); err != nil {
				return err
			}
			lead, err := app.CRM.AddActivity(cmd.Context(), args[0], models.LeadActivity{
				Type:        models.LeadActivityType(kind),
				Description: args[1],
			})
			if err != nil {
				return err
			}
			app.Record(cmd.Context(), models.VerbCommented, "lead", lead.ID, "Logged "+kind+" for "+lead.Name)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s now has %d activities\n", lead.Name, len(lead.Activities))
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "type", "note", "activity type (note|call|email|meeting)")
	return cmd
}

func newLeadsStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show pipeline statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			if _, err := app.CRM.Load(cmd.Context()); err != nil {
				return err
			}
			stats := app.CRM.Stats()
			return rootOpts.emit(cmd.OutOrStdout(), stats, func() error {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), viz.RenderDashboard(stats))
				return nil
			})
		},
	}
}

func newLeadsGraphCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the lead funnel as a Graphviz graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			if _, err := app.CRM.Load(cmd.Context()); err != nil {
				return err
			}
			dot, err := viz.PipelineGraph(cmd.Context(), app.CRM.Stats())
			if err != nil {
				return err
			}
			if output == "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), dot)
				return nil
			}
			if err := os.WriteFile(output, []byte(dot), 0644); err != nil {
				return fmt.Errorf("failed to write graph: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}
