package controller

import (
	"context"
	"fmt"

	"github.com/duoproservices/portal/connectivity"
	"github.com/duoproservices/portal/localapi"
	"github.com/duoproservices/portal/models"
	"github.com/duoproservices/portal/viz"
)

// CRM drives the lead pipeline.
type CRM struct {
	*Controller[models.Lead]
}

func NewCRM(remote Source[models.Lead], local *localapi.LeadsAPI, flag *connectivity.Flag, opts ...Option) *CRM {
	return &CRM{Controller: New[models.Lead]("crm", remote, local, flag, opts...)}
}

// SaveLead fills in a generated id and defaults, refreshes updatedAt and saves.
func (c *CRM) SaveLead(ctx context.Context, lead models.Lead) (models.Lead, error) {
	now := c.now().UTC()
	if lead.ID == "" {
		lead.ID = models.NewLeadID(now)
	}
	if lead.Status == "" {
		lead.Status = models.LeadNew
	}
	if lead.ContactMethod == "" {
		lead.ContactMethod = models.ContactWebsite
	}
	if lead.Activities == nil {
		lead.Activities = []models.LeadActivity{}
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now
	return c.Save(ctx, lead)
}

// AddActivity appends to a lead's history and saves the whole lead.
func (c *CRM) AddActivity(ctx context.Context, leadID string, activity models.LeadActivity) (models.Lead, error) {
	lead, err := c.Find(ctx, leadID)
	if err != nil {
		return models.Lead{}, err
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = c.now().UTC()
	}
	if activity.Type == "" {
		activity.Type = models.ActivityNote
	}
	lead.AddActivity(activity)
	return c.SaveLead(ctx, lead)
}

// UpdateStatus moves a lead through the funnel and records the change.
func (c *CRM) UpdateStatus(ctx context.Context, leadID string, status models.LeadStatus) (models.Lead, error) {
	if !status.Valid() {
		return models.Lead{}, &models.ValidationError{Entity: "lead", Field: "status", Value: string(status)}
	}
	lead, err := c.Find(ctx, leadID)
	if err != nil {
		return models.Lead{}, err
	}
	if lead.Status == status {
		return lead, nil
	}
	lead.AddActivity(models.LeadActivity{
		Type:        models.ActivityStatusChange,
		Description: fmt.Sprintf("Status changed from %s to %s", lead.Status, status),
		CreatedAt:   c.now().UTC(),
	})
	lead.Status = status
	return c.SaveLead(ctx, lead)
}

// Stats aggregates the leads currently held in memory.
func (c *CRM) Stats() viz.LeadStats {
	return viz.ComputeLeadStats(c.Items())
}
