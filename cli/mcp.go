// ABOUTME: MCP server subcommand
// ABOUTME: Serves the portal tools over stdio for desktop assistants
package cli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/duoproservices/portal/handlers"
)

// NewMCPServer registers every portal tool against app.
func NewMCPServer(app *App) *mcp.Server {
	taskHandlers := handlers.NewTaskHandlers(app.Projects)
	leadHandlers := handlers.NewLeadHandlers(app.CRM)
	socialHandlers := handlers.NewSocialHandlers(app.Social)
	invoiceHandlers := handlers.NewInvoiceHandlers(app.Invoices)
	activityHandlers := handlers.NewActivityHandlers(app.Activities)
	statusHandlers := handlers.NewStatusHandlers(app.Gate, app.Modules()...)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "duopro",
		Version: Version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List project tasks, optionally filtered by status",
	}, taskHandlers.ListTasks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "save_task",
		Description: "Create a task, or update one when an id is given",
	}, taskHandlers.SaveTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task",
	}, taskHandlers.DeleteTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_leads",
		Description: "List CRM leads, optionally filtered by status or a search query",
	}, leadHandlers.ListLeads)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "save_lead",
		Description: "Create a lead, or update one when an id is given; status changes are recorded in the lead history",
	}, leadHandlers.SaveLead)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_lead_activity",
		Description: "Append a call, email, meeting or note to a lead's history",
	}, leadHandlers.AddLeadActivity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "lead_stats",
		Description: "Pipeline counts, value and conversion rate across all leads",
	}, leadHandlers.LeadStats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_posts",
		Description: "List social media posts in date order, optionally for one month",
	}, socialHandlers.ListPosts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "save_post",
		Description: "Create or update a social media post",
	}, socialHandlers.SavePost)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_invoices",
		Description: "List invoices, optionally for one client user",
	}, invoiceHandlers.ListInvoices)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_invoice",
		Description: "Create a pending invoice",
	}, invoiceHandlers.CreateInvoice)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "mark_invoice_paid",
		Description: "Mark an invoice paid and record the payment reference",
	}, invoiceHandlers.MarkInvoicePaid)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_activities",
		Description: "Recent team activity, newest first",
	}, activityHandlers.ListActivities)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "connectivity_status",
		Description: "Whether the backend is reachable and which modules are working offline",
	}, statusHandlers.ConnectivityStatus)

	return server
}

func NewMCPCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Toasts would interleave with the protocol stream
			rootOpts.stderr = nil
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			app.Logger.Info("starting MCP server")
			return NewMCPServer(app).Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
