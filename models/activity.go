// ABOUTME: Team activity records for the admin timeline
// ABOUTME: Defines ActivityVerb and the TeamActivity entity stored under team-activity keys
package models

import (
	"strings"
	"time"
)

// ActivityVerb represents the action a team member performed on an entity.
type ActivityVerb string

const (
	VerbCreated   ActivityVerb = "created"
	VerbUpdated   ActivityVerb = "updated"
	VerbDeleted   ActivityVerb = "deleted"
	VerbCompleted ActivityVerb = "completed"
	VerbCommented ActivityVerb = "commented"
)

func (v ActivityVerb) Valid() bool {
	switch v {
	case VerbCreated, VerbUpdated, VerbDeleted, VerbCompleted, VerbCommented:
		return true
	}
	return false
}

// TeamActivity is one entry of the shared team timeline.
type TeamActivity struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	UserName    string       `json:"userName,omitempty"`
	Action      ActivityVerb `json:"action"`
	EntityType  string       `json:"entityType"`
	EntityID    string       `json:"entityId,omitempty"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// NewTeamActivity builds an activity stamped now with a sortable id.
func NewTeamActivity(userID string, verb ActivityVerb, entityType, entityID, description string) TeamActivity {
	now := time.Now().UTC()
	return TeamActivity{
		ID:          NewActivityID(now),
		UserID:      userID,
		Action:      verb,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
		CreatedAt:   now,
	}
}

func (a TeamActivity) RecordID() string { return a.ID }

func (a TeamActivity) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return &ValidationError{Entity: "activity", Field: "id"}
	}
	if !a.Action.Valid() {
		return &ValidationError{Entity: "activity", Field: "action", Value: string(a.Action)}
	}
	if strings.TrimSpace(a.EntityType) == "" {
		return &ValidationError{Entity: "activity", Field: "entityType"}
	}
	return nil
}
