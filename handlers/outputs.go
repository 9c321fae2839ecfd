// ABOUTME: Output shapes returned by the MCP tools
// ABOUTME: Timestamps are rendered as RFC3339 strings for tool clients
package handlers

import (
	"time"

	"github.com/duoproservices/portal/models"
	"github.com/duoproservices/portal/viz"
)

type TaskOutput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	AssignedTo  string `json:"assigned_to,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type TasksOutput struct {
	Mode  string       `json:"mode"`
	Tasks []TaskOutput `json:"tasks"`
}

type LeadActivityOutput struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type LeadOutput struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Email          string               `json:"email,omitempty"`
	Phone          string               `json:"phone,omitempty"`
	Company        string               `json:"company,omitempty"`
	ContactMethod  string               `json:"contact_method"`
	Status         string               `json:"status"`
	EstimatedValue float64              `json:"estimated_value"`
	Notes          string               `json:"notes,omitempty"`
	Activities     []LeadActivityOutput `json:"activities"`
	CreatedAt      string               `json:"created_at"`
	UpdatedAt      string               `json:"updated_at"`
}

type LeadsOutput struct {
	Mode  string       `json:"mode"`
	Leads []LeadOutput `json:"leads"`
}

type StatsOutput struct {
	Mode              string         `json:"mode"`
	Total             int            `json:"total"`
	New               int            `json:"new"`
	Contacted         int            `json:"contacted"`
	QuoteSent         int            `json:"quote_sent"`
	Negotiating       int            `json:"negotiating"`
	Won               int            `json:"won"`
	Lost              int            `json:"lost"`
	ByContactMethod   map[string]int `json:"by_contact_method"`
	TotalValue        float64        `json:"total_value"`
	EstimatedPipeline float64        `json:"estimated_pipeline"`
	ConversionRate    int            `json:"conversion_rate"`
}

type PostOutput struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Platform  string `json:"platform"`
	Content   string `json:"content"`
	ImageURL  string `json:"image_url,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type PostsOutput struct {
	Mode  string       `json:"mode"`
	Posts []PostOutput `json:"posts"`
}

type InvoiceOutput struct {
	InvoiceNumber   string  `json:"invoice_number"`
	UserID          string  `json:"user_id"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	Status          string  `json:"status"`
	Type            string  `json:"type"`
	Description     string  `json:"description,omitempty"`
	PaymentIntentID string  `json:"payment_intent_id,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
	PaidAt          string  `json:"paid_at,omitempty"`
}

type InvoicesOutput struct {
	Invoices []InvoiceOutput `json:"invoices"`
}

type ActivityOutput struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name,omitempty"`
	Action      string `json:"action"`
	EntityType  string `json:"entity_type"`
	EntityID    string `json:"entity_id,omitempty"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type ActivitiesOutput struct {
	Activities []ActivityOutput `json:"activities"`
}

type DeleteOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
	Mode    string `json:"mode"`
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func taskToOutput(t models.Task) TaskOutput {
	return TaskOutput{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		AssignedTo:  t.AssignedTo,
		DueDate:     t.DueDate,
		CreatedAt:   stamp(t.CreatedAt),
		UpdatedAt:   stamp(t.UpdatedAt),
	}
}

func leadToOutput(l models.Lead) LeadOutput {
	activities := make([]LeadActivityOutput, 0, len(l.Activities))
	for _, a := range l.Activities {
		activities = append(activities, LeadActivityOutput{
			ID:          a.ID,
			Type:        string(a.Type),
			Description: a.Description,
			CreatedAt:   stamp(a.CreatedAt),
		})
	}
	return LeadOutput{
		ID:             l.ID,
		Name:           l.Name,
		Email:          l.Email,
		Phone:          l.Phone,
		Company:        l.Company,
		ContactMethod:  string(l.ContactMethod),
		Status:         string(l.Status),
		EstimatedValue: l.EstimatedValue,
		Notes:          l.Notes,
		Activities:     activities,
		CreatedAt:      stamp(l.CreatedAt),
		UpdatedAt:      stamp(l.UpdatedAt),
	}
}

func statsToOutput(mode string, s viz.LeadStats) StatsOutput {
	byMethod := make(map[string]int, len(s.ByContactMethod))
	for method, n := range s.ByContactMethod {
		byMethod[string(method)] = n
	}
	return StatsOutput{
		Mode:              mode,
		Total:             s.Total,
		New:               s.New,
		Contacted:         s.Contacted,
		QuoteSent:         s.QuoteSent,
		Negotiating:       s.Negotiating,
		Won:               s.Won,
		Lost:              s.Lost,
		ByContactMethod:   byMethod,
		TotalValue:        s.TotalValue,
		EstimatedPipeline: s.EstimatedPipeline,
		ConversionRate:    s.ConversionRate,
	}
}

func postToOutput(p models.SocialPost) PostOutput {
	return PostOutput{
		ID:        p.ID,
		Date:      p.Date,
		Time:      p.Time,
		Platform:  string(p.Platform),
		Content:   p.Content,
		ImageURL:  p.ImageURL,
		Status:    string(p.Status),
		CreatedAt: stamp(p.CreatedAt),
	}
}

func invoiceToOutput(inv models.Invoice) InvoiceOutput {
	out := InvoiceOutput{
		InvoiceNumber:   inv.InvoiceNumber,
		UserID:          inv.UserID,
		Amount:          inv.Amount,
		Currency:        inv.Currency,
		Status:          string(inv.Status),
		Type:            string(inv.Type),
		Description:     inv.Description,
		PaymentIntentID: inv.PaymentIntentID,
		CreatedAt:       stamp(inv.CreatedAt),
		UpdatedAt:       stamp(inv.UpdatedAt),
	}
	if inv.PaidAt != nil {
		out.PaidAt = stamp(*inv.PaidAt)
	}
	return out
}

func activityToOutput(a models.TeamActivity) ActivityOutput {
	return ActivityOutput{
		ID:          a.ID,
		UserID:      a.UserID,
		UserName:    a.UserName,
		Action:      string(a.Action),
		EntityType:  a.EntityType,
		EntityID:    a.EntityID,
		Description: a.Description,
		CreatedAt:   stamp(a.CreatedAt),
	}
}
