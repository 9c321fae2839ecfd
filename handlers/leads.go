// ABOUTME: CRM lead MCP tool handlers
// ABOUTME: Implements list_leads, save_lead, add_lead_activity and lead_stats
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/duoproservices/portal/controller"
	"github.com/duoproservices/portal/models"
)

type LeadHandlers struct {
	crm *controller.CRM
}

func NewLeadHandlers(crm *controller.CRM) *LeadHandlers {
	return &LeadHandlers{crm: crm}
}

type ListLeadsInput struct {
	Status string `json:"status,omitempty" jsonschema:"Filter by status: new, contacted, quote-sent, negotiating, won, lost"`
	Query  string `json:"query,omitempty" jsonschema:"Case-insensitive match on name, email or company"`
}

type SaveLeadInput struct {
	ID             string  `json:"id,omitempty" jsonschema:"Lead ID (omit to create a new lead)"`
	Name           string  `json:"name" jsonschema:"Lead name (required)"`
	Email          string  `json:"email,omitempty" jsonschema:"Email address"`
	Phone          string  `json:"phone,omitempty" jsonschema:"Phone number"`
	Company        string  `json:"company,omitempty" jsonschema:"Company name"`
	ContactMethod  string  `json:"contact_method,omitempty" jsonschema:"How the lead reached us: website, phone, email, whatsapp, instagram, facebook, referral, walk-in"`
	Status         string  `json:"status,omitempty" jsonschema:"Pipeline status: new, contacted, quote-sent, negotiating, won, lost"`
	EstimatedValue float64 `json:"estimated_value,omitempty" jsonschema:"Estimated deal value"`
	Notes          string  `json:"notes,omitempty" jsonschema:"Free-form notes"`
}

type AddLeadActivityInput struct {
	LeadID      string `json:"lead_id" jsonschema:"Lead ID (required)"`
	Type        string `json:"type,omitempty" jsonschema:"Activity type: note, call, email, meeting (default note)"`
	Description string `json:"description" jsonschema:"What happened (required)"`
}

type LeadStatsInput struct{}

func (h *LeadHandlers) ListLeads(ctx context.Context, _ *mcp.CallToolRequest, input ListLeadsInput) (*mcp.CallToolResult, LeadsOutput, error) {
	leads, err := h.crm.Load(ctx)
	if err != nil {
		return nil, LeadsOutput{}, fmt.Errorf("failed to load leads: %w", err)
	}

	query := strings.ToLower(input.Query)
	out := LeadsOutput{Mode: h.crm.Mode().String(), Leads: []LeadOutput{}}
	for _, l := range leads {
		if input.Status != "" && string(l.Status) != input.Status {
			continue
		}
		if query != "" && !matchesLead(l, query) {
			continue
		}
		out.Leads = append(out.Leads, leadToOutput(l))
	}
	return nil, out, nil
}

func matchesLead(l models.Lead, query string) bool {
	for _, field := range []string{l.Name, l.Email, l.Company} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func (h *LeadHandlers) SaveLead(ctx context.Context, _ *mcp.CallToolRequest, input SaveLeadInput) (*mcp.CallToolResult, LeadOutput, error) {
	if input.Name == "" {
		return nil, LeadOutput{}, fmt.Errorf("name is required")
	}

	var lead models.Lead
	if input.ID != "" {
		existing, err := h.crm.Find(ctx, input.ID)
		if err != nil {
			return nil, LeadOutput{}, fmt.Errorf("lead not found: %w", err)
		}
		lead = existing
	}

	lead.Name = input.Name
	if input.Email != "" {
		lead.Email = input.Email
	}
	if input.Phone != "" {
		lead.Phone = input.Phone
	}
	if input.Company != "" {
		lead.Company = input.Company
	}
	if input.ContactMethod != "" {
		lead.ContactMethod = models.ContactMethod(input.ContactMethod)
	}
	if input.EstimatedValue != 0 {
		lead.EstimatedValue = input.EstimatedValue
	}
	if input.Notes != "" {
		lead.Notes = input.Notes
	}

	// Status changes on existing leads go through UpdateStatus so the history records them
	status := models.LeadStatus(input.Status)
	if input.ID == "" && status != "" {
		lead.Status = status
	}

	saved, err := h.crm.SaveLead(ctx, lead)
	if err != nil {
		return nil, LeadOutput{}, fmt.Errorf("failed to save lead: %w", err)
	}
	if input.ID != "" && status != "" && status != saved.Status {
		saved, err = h.crm.UpdateStatus(ctx, saved.ID, status)
		if err != nil {
			return nil, LeadOutput{}, fmt.Errorf("failed to update lead status: %w", err)
		}
	}
	return nil, leadToOutput(saved), nil
}

func (h *LeadHandlers) AddLeadActivity(ctx context.Context, _ *mcp.CallToolRequest, input AddLeadActivityInput) (*mcp.CallToolResult, LeadOutput, error) {
	if input.LeadID == "" {
		return nil, LeadOutput{}, fmt.Errorf("lead_id is required")
	}
	if input.Description == "" {
		return nil, LeadOutput{}, fmt.Errorf("description is required")
	}

	lead, err := h.crm.AddActivity(ctx, input.LeadID, models.LeadActivity{
		Type:        models.LeadActivityType(input.Type),
		Description: input.Description,
	})
	if err != nil {
		return nil, LeadOutput{}, fmt.Errorf("failed to add activity: %w", err)
	}
	return nil, leadToOutput(lead), nil
}

func (h *LeadHandlers) LeadStats(ctx context.Context, _ *mcp.CallToolRequest, _ LeadStatsInput) (*mcp.CallToolResult, StatsOutput, error) {
	if _, err := h.crm.Load(ctx); err != nil {
		return nil, StatsOutput{}, fmt.Errorf("failed to load leads: %w", err)
	}
	return nil, statsToOutput(h.crm.Mode().String(), h.crm.Stats()), nil
}
