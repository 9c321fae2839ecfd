// ABOUTME: Data models for portal entities handled by the data layer
// ABOUTME: Defines Task, Lead, Invoice, SocialPost, Client and TeamActivity structs
package models

import (
	"strings"
	"time"
)

// Record is implemented by every entity persisted through the data layer.
type Record interface {
	RecordID() string
	Validate() error
}

type TaskStatus string

const (
	TaskNotStarted TaskStatus = "not-started"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskNotStarted, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	AssignedTo  string       `json:"assignedTo,omitempty"`
	DueDate     string       `json:"dueDate,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func (t Task) RecordID() string { return t.ID }

// Validate checks the fields a task must carry before it is persisted.
func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return &ValidationError{Entity: "task", Field: "id"}
	}
	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{Entity: "task", Field: "title"}
	}
	if t.Status != "" && !t.Status.Valid() {
		return &ValidationError{Entity: "task", Field: "status", Value: string(t.Status)}
	}
	if t.Priority != "" && !t.Priority.Valid() {
		return &ValidationError{Entity: "task", Field: "priority", Value: string(t.Priority)}
	}
	return nil
}

type ContactMethod string

const (
	ContactWebsite   ContactMethod = "website"
	ContactPhone     ContactMethod = "phone"
	ContactEmail     ContactMethod = "email"
	ContactWhatsApp  ContactMethod = "whatsapp"
	ContactInstagram ContactMethod = "instagram"
	ContactFacebook  ContactMethod = "facebook"
	ContactReferral  ContactMethod = "referral"
	ContactWalkIn    ContactMethod = "walk-in"
)

// ContactMethods lists every contact method in display order.
var ContactMethods = []ContactMethod{
	ContactWebsite, ContactPhone, ContactEmail, ContactWhatsApp,
	ContactInstagram, ContactFacebook, ContactReferral, ContactWalkIn,
}

func (m ContactMethod) Valid() bool {
	for _, known := range ContactMethods {
		if m == known {
			return true
		}
	}
	return false
}

type LeadStatus string

const (
	LeadNew         LeadStatus = "new"
	LeadContacted   LeadStatus = "contacted"
	LeadQuoteSent   LeadStatus = "quote-sent"
	LeadNegotiating LeadStatus = "negotiating"
	LeadWon         LeadStatus = "won"
	LeadLost        LeadStatus = "lost"
)

// LeadStatuses lists every lead status in funnel order.
var LeadStatuses = []LeadStatus{
	LeadNew, LeadContacted, LeadQuoteSent, LeadNegotiating, LeadWon, LeadLost,
}

func (s LeadStatus) Valid() bool {
	for _, known := range LeadStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Closed reports whether the lead has left the pipeline.
func (s LeadStatus) Closed() bool {
	return s == LeadWon || s == LeadLost
}

type LeadActivityType string

const (
	ActivityNote         LeadActivityType = "note"
	ActivityCall         LeadActivityType = "call"
	ActivityEmail        LeadActivityType = "email"
	ActivityMeeting      LeadActivityType = "meeting"
	ActivityStatusChange LeadActivityType = "status-change"
)

type LeadActivity struct {
	ID          string           `json:"id"`
	Type        LeadActivityType `json:"type"`
	Description string           `json:"description"`
	CreatedAt   time.Time        `json:"createdAt"`
}

type Lead struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Email          string         `json:"email,omitempty"`
	Phone          string         `json:"phone,omitempty"`
	Company        string         `json:"company,omitempty"`
	ContactMethod  ContactMethod  `json:"contactMethod"`
	Status         LeadStatus     `json:"status"`
	EstimatedValue float64        `json:"estimatedValue"`
	Notes          string         `json:"notes,omitempty"`
	Activities     []LeadActivity `json:"activities"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func (l Lead) RecordID() string { return l.ID }

func (l Lead) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return &ValidationError{Entity: "lead", Field: "id"}
	}
	if strings.TrimSpace(l.Name) == "" {
		return &ValidationError{Entity: "lead", Field: "name"}
	}
	if l.Status != "" && !l.Status.Valid() {
		return &ValidationError{Entity: "lead", Field: "status", Value: string(l.Status)}
	}
	if l.ContactMethod != "" && !l.ContactMethod.Valid() {
		return &ValidationError{Entity: "lead", Field: "contactMethod", Value: string(l.ContactMethod)}
	}
	return nil
}

// AddActivity appends an activity to the lead's ordered history.
func (l *Lead) AddActivity(a LeadActivity) {
	if a.ID == "" {
		a.ID = NewActivityID(a.CreatedAt)
	}
	l.Activities = append(l.Activities, a)
	l.UpdatedAt = a.CreatedAt
}

type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

type InvoiceType string

const (
	InvoiceInitial InvoiceType = "initial"
	InvoiceFinal   InvoiceType = "final"
)

// Invoice is keyed by its business invoice number rather than a generated id.
type Invoice struct {
	InvoiceNumber   string        `json:"invoiceNumber"`
	UserID          string        `json:"userId"`
	Amount          float64       `json:"amount"`
	Currency        string        `json:"currency"`
	Status          InvoiceStatus `json:"status"`
	Type            InvoiceType   `json:"type"`
	Description     string        `json:"description,omitempty"`
	PaymentIntentID string        `json:"paymentIntentId,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
	PaidAt          *time.Time    `json:"paidAt,omitempty"`
}

func (i Invoice) RecordID() string { return i.InvoiceNumber }

func (i Invoice) Validate() error {
	if strings.TrimSpace(i.InvoiceNumber) == "" {
		return &ValidationError{Entity: "invoice", Field: "invoiceNumber"}
	}
	if strings.TrimSpace(i.UserID) == "" {
		return &ValidationError{Entity: "invoice", Field: "userId"}
	}
	switch i.Status {
	case "", InvoicePending, InvoicePaid, InvoiceCancelled:
	default:
		return &ValidationError{Entity: "invoice", Field: "status", Value: string(i.Status)}
	}
	switch i.Type {
	case "", InvoiceInitial, InvoiceFinal:
	default:
		return &ValidationError{Entity: "invoice", Field: "type", Value: string(i.Type)}
	}
	return nil
}

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTikTok    Platform = "tiktok"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformInstagram, PlatformFacebook, PlatformLinkedIn, PlatformTikTok:
		return true
	}
	return false
}

type PostStatus string

const (
	PostScheduled PostStatus = "scheduled"
	PostDraft     PostStatus = "draft"
	PostPublished PostStatus = "published"
)

type SocialPost struct {
	ID        string     `json:"id"`
	Date      string     `json:"date"` // YYYY-MM-DD
	Time      string     `json:"time"` // HH:MM
	Platform  Platform   `json:"platform"`
	Content   string     `json:"content"`
	ImageURL  string     `json:"imageUrl,omitempty"`
	Status    PostStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (p SocialPost) RecordID() string { return p.ID }

func (p SocialPost) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return &ValidationError{Entity: "social post", Field: "id"}
	}
	if _, err := time.Parse(time.DateOnly, p.Date); err != nil {
		return &ValidationError{Entity: "social post", Field: "date", Value: p.Date}
	}
	if !p.Platform.Valid() {
		return &ValidationError{Entity: "social post", Field: "platform", Value: string(p.Platform)}
	}
	switch p.Status {
	case "", PostScheduled, PostDraft, PostPublished:
	default:
		return &ValidationError{Entity: "social post", Field: "status", Value: string(p.Status)}
	}
	return nil
}

// ScheduledAt combines the post's date and time in the given location.
// A missing or malformed time falls back to 09:00.
func (p SocialPost) ScheduledAt(loc *time.Location) (time.Time, error) {
	clock := p.Time
	if _, err := time.Parse("15:04", clock); err != nil {
		clock = "09:00"
	}
	return time.ParseInLocation("2006-01-02 15:04", p.Date+" "+clock, loc)
}

type ClientStatus string

const (
	ClientActive    ClientStatus = "active"
	ClientPending   ClientStatus = "pending"
	ClientCompleted ClientStatus = "completed"
)

// Client is a tax-preparation customer as listed in the admin portal.
type Client struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Phone     string       `json:"phone,omitempty"`
	Status    ClientStatus `json:"status"`
	TaxYear   int          `json:"taxYear,omitempty"`
	Notes     string       `json:"notes,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func (c Client) RecordID() string { return c.ID }

func (c Client) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return &ValidationError{Entity: "client", Field: "id"}
	}
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Entity: "client", Field: "name"}
	}
	return nil
}
