package connectivity

import (
	"context"
)

// Well-known storage keys of the sticky offline flags, one per module.
const (
	CRMFlagKey     = "crm-offline-mode"
	TasksFlagKey   = "tasks-offline-mode"
	ClientsFlagKey = "clients-offline-mode"
	SocialFlagKey  = "social-offline-mode"
)

// FlagKeys lists every sticky flag key.
var FlagKeys = []string{CRMFlagKey, TasksFlagKey, ClientsFlagKey, SocialFlagKey}

// FlagStore is the slice of the local store a Flag needs.
type FlagStore interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, value any) error
	Del(ctx context.Context, key string) error
}

// Flag is a persisted "offline mode" marker. Once set it survives restarts
// until something clears it. The stored value is the string "true".
type Flag struct {
	store FlagStore
	key   string
}

func NewFlag(store FlagStore, key string) *Flag {
	return &Flag{store: store, key: key}
}

func (f *Flag) Key() string { return f.key }

// IsSet reports whether the flag is present. Anything other than "true"
// (or a JSON true written by older exports) counts as unset.
func (f *Flag) IsSet(ctx context.Context) bool {
	var v any
	if !f.store.Get(ctx, f.key, &v) {
		return false
	}
	switch val := v.(type) {
	case string:
		return val == "true"
	case bool:
		return val
	}
	return false
}

func (f *Flag) Set(ctx context.Context) error {
	return f.store.Set(ctx, f.key, "true")
}

func (f *Flag) Clear(ctx context.Context) error {
	return f.store.Del(ctx, f.key)
}
