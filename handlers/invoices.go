// ABOUTME: Invoice MCP tool handlers
// ABOUTME: Implements list_invoices, create_invoice and mark_invoice_paid on local storage
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/duoproservices/portal/localapi"
	"github.com/duoproservices/portal/models"
)

type InvoiceHandlers struct {
	invoices *localapi.InvoicesAPI
}

func NewInvoiceHandlers(invoices *localapi.InvoicesAPI) *InvoiceHandlers {
	return &InvoiceHandlers{invoices: invoices}
}

type ListInvoicesInput struct {
	UserID string `json:"user_id,omitempty" jsonschema:"Only invoices for this client user"`
}

type CreateInvoiceInput struct {
	InvoiceNumber string  `json:"invoice_number" jsonschema:"Invoice number (required, unique)"`
	UserID        string  `json:"user_id" jsonschema:"Client user the invoice is for (required)"`
	Amount        float64 `json:"amount" jsonschema:"Amount in major currency units"`
	Currency      string  `json:"currency,omitempty" jsonschema:"Currency code (default usd)"`
	Type          string  `json:"type,omitempty" jsonschema:"Invoice type: initial, final"`
	Description   string  `json:"description,omitempty" jsonschema:"Line description"`
}

type MarkInvoicePaidInput struct {
	InvoiceNumber   string `json:"invoice_number" jsonschema:"Invoice number (required)"`
	PaymentIntentID string `json:"payment_intent_id,omitempty" jsonschema:"Payment processor reference"`
}

func (h *InvoiceHandlers) ListInvoices(ctx context.Context, _ *mcp.CallToolRequest, input ListInvoicesInput) (*mcp.CallToolResult, InvoicesOutput, error) {
	var (
		invoices []models.Invoice
		err      error
	)
	if input.UserID != "" {
		invoices, err = h.invoices.GetUserInvoices(ctx, input.UserID)
	} else {
		invoices, err = h.invoices.GetInvoices(ctx)
	}
	if err != nil {
		return nil, InvoicesOutput{}, fmt.Errorf("failed to list invoices: %w", err)
	}

	out := InvoicesOutput{Invoices: make([]InvoiceOutput, 0, len(invoices))}
	for _, inv := range invoices {
		out.Invoices = append(out.Invoices, invoiceToOutput(inv))
	}
	return nil, out, nil
}

func (h *InvoiceHandlers) CreateInvoice(ctx context.Context, _ *mcp.CallToolRequest, input CreateInvoiceInput) (*mcp.CallToolResult, InvoiceOutput, error) {
	if input.InvoiceNumber == "" {
		return nil, InvoiceOutput{}, fmt.Errorf("invoice_number is required")
	}

	inv, err := h.invoices.CreateInvoice(ctx, models.Invoice{
		InvoiceNumber: input.InvoiceNumber,
		UserID:        input.UserID,
		Amount:        input.Amount,
		Currency:      input.Currency,
		Type:          models.InvoiceType(input.Type),
		Description:   input.Description,
	})
	if err != nil {
		return nil, InvoiceOutput{}, fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil, invoiceToOutput(inv), nil
}

func (h *InvoiceHandlers) MarkInvoicePaid(ctx context.Context, _ *mcp.CallToolRequest, input MarkInvoicePaidInput) (*mcp.CallToolResult, InvoiceOutput, error) {
	if input.InvoiceNumber == "" {
		return nil, InvoiceOutput{}, fmt.Errorf("invoice_number is required")
	}

	var extra map[string]any
	if input.PaymentIntentID != "" {
		extra = map[string]any{"paymentIntentId": input.PaymentIntentID}
	}
	inv, err := h.invoices.MarkAsPaid(ctx, input.InvoiceNumber, extra)
	if err != nil {
		return nil, InvoiceOutput{}, fmt.Errorf("failed to mark invoice paid: %w", err)
	}
	return nil, invoiceToOutput(inv), nil
}
