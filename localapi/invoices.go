package localapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/duoproservices/portal/kvstore"
	"github.com/duoproservices/portal/models"
)

// InvoicesAPI serves invoices from invoice:<invoiceNumber>. Invoices are keyed
// by their business number, unlike every other record type.
type InvoicesAPI struct {
	*Collection[models.Invoice]
	store *kvstore.Store
	now   func() time.Time
}

func NewInvoicesAPI(store *kvstore.Store) *InvoicesAPI {
	return &InvoicesAPI{
		Collection: NewCollection[models.Invoice](store, InvoicePrefix),
		store:      store,
		now:        time.Now,
	}
}

// GetInvoices returns every invoice, newest first.
func (a *InvoicesAPI) GetInvoices(ctx context.Context) ([]models.Invoice, error) {
	invoices, err := a.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(invoices, func(i, j int) bool {
		return invoices[i].CreatedAt.After(invoices[j].CreatedAt)
	})
	return invoices, nil
}

func (a *InvoicesAPI) GetUserInvoices(ctx context.Context, userID string) ([]models.Invoice, error) {
	all, err := a.GetInvoices(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Invoice, 0, len(all))
	for _, inv := range all {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (a *InvoicesAPI) GetInvoice(ctx context.Context, number string) (models.Invoice, error) {
	return a.Get(ctx, number)
}

// CreateInvoice stores inv, stamping timestamps that are missing and
// defaulting the status to pending.
func (a *InvoicesAPI) CreateInvoice(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	if err := inv.Validate(); err != nil {
		return models.Invoice{}, err
	}
	now := a.now().UTC()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = now
	}
	if inv.Status == "" {
		inv.Status = models.InvoicePending
	}
	if inv.Currency == "" {
		inv.Currency = "usd"
	}
	return a.Save(ctx, inv)
}

// MarkAsPaid merges {status: paid, paidAt: now} and then extra into the
// stored invoice. Unknown invoice numbers fail with ErrNotFound.
func (a *InvoicesAPI) MarkAsPaid(ctx context.Context, number string, extra map[string]any) (models.Invoice, error) {
	now := a.now().UTC()
	fields := map[string]any{
		"status":    string(models.InvoicePaid),
		"paidAt":    now,
		"updatedAt": now,
	}
	for k, v := range extra {
		fields[k] = v
	}
	return a.merge(ctx, number, fields)
}

// CancelInvoice marks a known invoice cancelled.
func (a *InvoicesAPI) CancelInvoice(ctx context.Context, number string) (models.Invoice, error) {
	return a.merge(ctx, number, map[string]any{
		"status":    string(models.InvoiceCancelled),
		"updatedAt": a.now().UTC(),
	})
}

// merge is a read-modify-write at the JSON object level so fields this
// package does not model survive the update.
func (a *InvoicesAPI) merge(ctx context.Context, number string, fields map[string]any) (models.Invoice, error) {
	key := a.Key(number)
	raw, ok := a.store.GetRaw(ctx, key)
	if !ok {
		return models.Invoice{}, fmt.Errorf("invoice %s: %w", number, ErrNotFound)
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return models.Invoice{}, fmt.Errorf("invoice %s: %w", number, ErrNotFound)
	}
	for k, v := range fields {
		obj[k] = v
	}

	if err := a.store.Set(ctx, key, obj); err != nil {
		return models.Invoice{}, err
	}

	var inv models.Invoice
	if !a.store.Get(ctx, key, &inv) {
		return models.Invoice{}, fmt.Errorf("invoice %s: %w", number, ErrNotFound)
	}
	return inv, nil
}
