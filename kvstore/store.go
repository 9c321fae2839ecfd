// ABOUTME: Namespaced JSON key-value store used as the local fallback for every module
// ABOUTME: Wraps a raw byte backend (badger, sqlite, charm) behind a fixed base prefix
package kvstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// DefaultBasePrefix isolates portal records from unrelated keys in the same backend.
const DefaultBasePrefix = "duopro:"

// ErrStorage is matched by every StorageError.
var ErrStorage = errors.New("storage error")

// StorageError reports a failed write, encode or scan against the backend.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("kvstore %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("kvstore %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Backend is the raw byte storage underneath a Store.
// Delete of an absent key must not fail.
type Backend interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
}

// PrefixScanner is implemented by backends that can list keys by prefix
// without a full scan.
type PrefixScanner interface {
	KeysWithPrefix(prefix []byte) ([][]byte, error)
}

// Entry is one record returned from a prefix scan, with the base prefix stripped.
type Entry struct {
	Key   string
	Value json.RawMessage
}

// Store is a JSON codec over a Backend, scoped to a base prefix.
type Store struct {
	backend Backend
	prefix  string
	logger  *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for swallowed read failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a store over backend. An empty basePrefix uses DefaultBasePrefix.
func New(backend Backend, basePrefix string, opts ...Option) *Store {
	if basePrefix == "" {
		basePrefix = DefaultBasePrefix
	}
	s := &Store{
		backend: backend,
		prefix:  basePrefix,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BasePrefix returns the prefix every key is stored under.
func (s *Store) BasePrefix() string { return s.prefix }

// Backend returns the underlying raw storage.
func (s *Store) Backend() Backend { return s.backend }

func (s *Store) fullKey(key string) []byte {
	return []byte(s.prefix + key)
}

// Set serializes value and writes it under the namespaced key.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return &StorageError{Op: "encode", Key: key, Err: err}
	}
	if err := s.backend.Set(s.fullKey(key), data); err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Get decodes the value under key into dst. Absence, backend failures and
// undecodable data all report false.
func (s *Store) Get(ctx context.Context, key string, dst any) bool {
	raw, ok := s.GetRaw(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Debug("discarding undecodable value", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// GetRaw returns the stored JSON under key.
func (s *Store) GetRaw(ctx context.Context, key string) (json.RawMessage, bool) {
	if ctx.Err() != nil {
		return nil, false
	}
	data, err := s.backend.Get(s.fullKey(key))
	if err != nil || data == nil {
		return nil, false
	}
	if !json.Valid(data) {
		s.logger.Debug("discarding invalid json", zap.String("key", key))
		return nil, false
	}
	return json.RawMessage(data), true
}

// Del removes key. Removing an absent key is not an error.
func (s *Store) Del(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.backend.Delete(s.fullKey(key)); err != nil {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// GetByPrefix returns every entry whose key starts with base prefix + prefix.
// Order follows backend enumeration and must not be relied upon.
func (s *Store) GetByPrefix(ctx context.Context, prefix string) ([]Entry, error) {
	keys, err := s.scan(ctx, s.prefix+prefix)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		data, err := s.backend.Get(k)
		if err != nil || data == nil || !json.Valid(data) {
			continue
		}
		entries = append(entries, Entry{
			Key:   strings.TrimPrefix(string(k), s.prefix),
			Value: json.RawMessage(data),
		})
	}
	return entries, nil
}

// ListKeys returns every key under the base prefix with the prefix stripped.
func (s *Store) ListKeys(ctx context.Context) ([]string, error) {
	keys, err := s.scan(ctx, s.prefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(string(k), s.prefix))
	}
	return out, nil
}

// Clear removes every key under the base prefix and nothing else.
func (s *Store) Clear(ctx context.Context) error {
	keys, err := s.scan(ctx, s.prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.backend.Delete(k); err != nil {
			return &StorageError{Op: "clear", Key: string(k), Err: err}
		}
	}
	return nil
}

func (s *Store) scan(ctx context.Context, prefix string) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := []byte(prefix)

	var all [][]byte
	var err error
	if ps, ok := s.backend.(PrefixScanner); ok {
		all, err = ps.KeysWithPrefix(p)
	} else {
		all, err = s.backend.Keys()
	}
	if err != nil {
		return nil, &StorageError{Op: "scan", Err: err}
	}

	// Backends may over-match, so the prefix is compared byte for byte here.
	var matched [][]byte
	for _, k := range all {
		if bytes.HasPrefix(k, p) {
			matched = append(matched, k)
		}
	}
	return matched, nil
}

// Decode converts scanned entries into typed values, skipping any that do not decode.
func Decode[T any](entries []Entry) []T {
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		var v T
		if err := json.Unmarshal(e.Value, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
