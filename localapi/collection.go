// ABOUTME: Generic record collection over one key namespace of the local store
// ABOUTME: Shared by every domain facade and used as the mirror behind controllers
package localapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/duoproservices/portal/kvstore"
	"github.com/duoproservices/portal/models"
)

// Key namespaces. They must match the browser application's keys.
const (
	TaskPrefix         = "task:"
	SocialPostPrefix   = "social-post:"
	InvoicePrefix      = "invoice:"
	TeamActivityPrefix = "team-activity:"
	LeadPrefix         = "lead:"
	ClientPrefix       = "client:"
)

// ErrNotFound is returned when a record lookup misses. It is never used for
// connectivity problems.
var ErrNotFound = errors.New("record not found")

// Collection stores whole records of one type under prefix+id.
type Collection[T models.Record] struct {
	store  *kvstore.Store
	prefix string
}

func NewCollection[T models.Record](store *kvstore.Store, prefix string) *Collection[T] {
	return &Collection[T]{store: store, prefix: prefix}
}

// Key returns the namespaced key for id, without the base prefix.
func (c *Collection[T]) Key(id string) string {
	return c.prefix + id
}

func (c *Collection[T]) Prefix() string { return c.prefix }

// List returns every record in the namespace. An empty namespace yields an
// empty, non-nil slice.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	entries, err := c.store.GetByPrefix(ctx, c.prefix)
	if err != nil {
		return nil, err
	}
	return kvstore.Decode[T](entries), nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var item T
	if !c.store.Get(ctx, c.Key(id), &item) {
		var zero T
		return zero, fmt.Errorf("%s%s: %w", c.prefix, id, ErrNotFound)
	}
	return item, nil
}

// Save validates item and overwrites whatever was stored under its id.
// Nothing is written when validation fails.
func (c *Collection[T]) Save(ctx context.Context, item T) (T, error) {
	if err := item.Validate(); err != nil {
		var zero T
		return zero, err
	}
	if err := c.store.Set(ctx, c.Key(item.RecordID()), item); err != nil {
		var zero T
		return zero, err
	}
	return item, nil
}

// Delete removes id. Deleting a missing record succeeds.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.store.Del(ctx, c.Key(id))
}

// ReplaceAll makes the namespace hold exactly items. Records that fail
// validation are skipped.
func (c *Collection[T]) ReplaceAll(ctx context.Context, items []T) error {
	entries, err := c.store.GetByPrefix(ctx, c.prefix)
	if err != nil {
		return err
	}
	valid := make([]T, 0, len(items))
	keep := make(map[string]bool, len(items))
	for _, item := range items {
		if item.Validate() != nil {
			continue
		}
		valid = append(valid, item)
		keep[c.Key(item.RecordID())] = true
	}
	for _, e := range entries {
		if keep[e.Key] {
			continue
		}
		if err := c.store.Del(ctx, e.Key); err != nil {
			return err
		}
	}
	for _, item := range valid {
		if err := c.store.Set(ctx, c.Key(item.RecordID()), item); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes every record in the namespace.
func (c *Collection[T]) Clear(ctx context.Context) error {
	entries, err := c.store.GetByPrefix(ctx, c.prefix)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := c.store.Del(ctx, e.Key); err != nil {
			return err
		}
	}
	return nil
}
