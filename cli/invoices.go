// ABOUTME: invoices subcommands over local invoice storage
// ABOUTME: list, create, paid and cancel
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duoproservices/portal/models"
)

func NewInvoicesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Manage client invoices stored on this device",
	}
	cmd.AddCommand(newInvoicesListCommand(rootOpts))
	cmd.AddCommand(newInvoicesCreateCommand(rootOpts))
	cmd.AddCommand(newInvoicesPaidCommand(rootOpts))
	cmd.AddCommand(newInvoicesCancelCommand(rootOpts))
	return cmd
}

func printInvoice(cmd *cobra.Command, rootOpts *RootOptions, verb string, inv models.Invoice) error {
	return rootOpts.emit(cmd.OutOrStdout(), inv, func() error {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s invoice %s (%.2f %s, %s)\n", verb, inv.InvoiceNumber, inv.Amount, inv.Currency, inv.Status)
		return nil
	})
}

func newInvoicesListCommand(rootOpts *RootOptions) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			var invoices []models.Invoice
			if user != "" {
				invoices, err = app.Invoices.GetUserInvoices(cmd.Context(), user)
			} else {
				invoices, err = app.Invoices.GetInvoices(cmd.Context())
			}
			if err != nil {
				return err
			}

			return rootOpts.emit(cmd.OutOrStdout(), invoices, func() error {
				rows := make([][]string, 0, len(invoices))
				for _, inv := range invoices {
					rows = append(rows, []string{inv.InvoiceNumber, inv.UserID, fmt.Sprintf("%.2f %s", inv.Amount, inv.Currency), string(inv.Type), string(inv.Status)})
				}
				printTable(cmd.OutOrStdout(), "No invoices found.", []string{"Number", "User", "Amount", "Type", "Status"}, rows)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "only invoices for this user ID")
	return cmd
}

func newInvoicesCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var inv models.Invoice
	var kind string

	cmd := &cobra.Command{
		Use:   "create <number>",
		Short: "Create an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			inv.InvoiceNumber = args[0]
			inv.Type = models.InvoiceType(kind)

			created, err := app.Invoices.CreateInvoice(cmd.Context(), inv)
			if err != nil {
				return err
			}
			app.Record(cmd.Context(), models.VerbCreated, "invoice", created.InvoiceNumber, fmt.Sprintf("Issued invoice %s", created.InvoiceNumber))
			return printInvoice(cmd, rootOpts, "Created", created)
		},
	}

	cmd.Flags().StringVar(&inv.UserID, "user", "", "client user ID (required)")
	cmd.Flags().Float64Var(&inv.Amount, "amount", 0, "amount")
	cmd.Flags().StringVar(&inv.Currency, "currency", "", "currency code (default usd)")
	cmd.Flags().StringVar(&kind, "type", string(models.InvoiceInitial), "invoice type (initial|final)")
	cmd.Flags().StringVar(&inv.Description, "desc", "", "description")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newInvoicesPaidCommand(rootOpts *RootOptions) *cobra.Command {
	var intent string

	cmd := &cobra.Command{
		Use:   "paid <number>",
		Short: "Mark an invoice paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			var extra map[string]any
			if intent != "" {
				extra = map[string]any{"paymentIntentId": intent}
			}
			inv, err := app.Invoices.MarkAsPaid(cmd.Context(), args[0], extra)
			if err != nil {
				return err
			}
			app.Record(cmd.Context(), models.VerbUpdated, "invoice", inv.InvoiceNumber, "Marked invoice paid")
			return printInvoice(cmd, rootOpts, "Paid", inv)
		},
	}

	cmd.Flags().StringVar(&intent, "intent", "", "payment intent ID")
	return cmd
}

func newInvoicesCancelCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <number>",
		Short: "Cancel an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			inv, err := app.Invoices.CancelInvoice(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			app.Record(cmd.Context(), models.VerbUpdated, "invoice", inv.InvoiceNumber, "Cancelled invoice")
			return printInvoice(cmd, rootOpts, "Cancelled", inv)
		},
	}
}
