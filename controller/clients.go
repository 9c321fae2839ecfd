package controller

import (
	"context"

	"github.com/duoproservices/portal/connectivity"
	"github.com/duoproservices/portal/localapi"
	"github.com/duoproservices/portal/models"
)

// Clients drives the admin client list.
type Clients struct {
	*Controller[models.Client]
}

func NewClients(remote Source[models.Client], local *localapi.ClientsAPI, flag *connectivity.Flag, opts ...Option) *Clients {
	return &Clients{Controller: New[models.Client]("clients", remote, local, flag, opts...)}
}

func (c *Clients) SaveClient(ctx context.Context, client models.Client) (models.Client, error) {
	now := c.now().UTC()
	if client.ID == "" {
		client.ID = models.NewRecordID()
	}
	if client.Status == "" {
		client.Status = models.ClientPending
	}
	if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	client.UpdatedAt = now
	return c.Save(ctx, client)
}
