// ABOUTME: Charm KV backend for the local store with optional automatic sync
// ABOUTME: Lets several machines share one offline store through a charm server

package charm

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
)

// Options selects the charm server and sync behavior.
type Options struct {
	// Name is the charm KV database name.
	Name string
	// Host is the charm server hostname.
	Host string
	// AutoSync syncs after every write and once on open.
	AutoSync bool
}

// database is the subset of kv.KV the backend uses.
type database interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Reset() error
}

// Client wraps charm KV as a kvstore backend.
type Client struct {
	db       database
	autoSync bool
	host     string
	mu       sync.RWMutex
}

// Open opens the named charm KV database against opts.Host.
func Open(opts Options) (*Client, error) {
	if opts.Host != "" {
		// charm reads the server from the environment
		_ = os.Setenv("CHARM_HOST", opts.Host)
	}

	db, err := kv.OpenWithDefaults(opts.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := &Client{db: db, autoSync: opts.AutoSync, host: opts.Host}

	// Sync on startup to pull remote changes
	if opts.AutoSync {
		_ = db.Sync()
	}
	return c, nil
}

// Host returns the configured charm server.
func (c *Client) Host() string { return c.host }

// AutoSync reports whether writes are pushed immediately.
func (c *Client) AutoSync() bool { return c.autoSync }

// ID returns the charm user ID for this device.
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// IsConnected reports whether the charm server knows this device.
func (c *Client) IsConnected() bool {
	_, err := c.ID()
	return err == nil
}

// Sync performs a manual sync with the charm server.
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Sync()
}

// Get returns nil for a missing key.
func (c *Client) Get(key []byte) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, err := c.db.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	return value, err
}

// Set stores a value and syncs if enabled.
func (c *Client) Set(key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.db.Set(key, value); err != nil {
		return err
	}

	// Sync while still holding lock to avoid race condition
	if c.autoSync {
		_ = c.db.Sync()
	}
	return nil
}

// Delete removes a key and syncs if enabled.
func (c *Client) Delete(key []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.db.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}

	if c.autoSync {
		_ = c.db.Sync()
	}
	return nil
}

func (c *Client) Keys() ([][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db.Keys()
}

// KeysWithPrefix filters a full key listing; charm KV has no prefix scan.
func (c *Client) KeysWithPrefix(prefix []byte) ([][]byte, error) {
	allKeys, err := c.Keys()
	if err != nil {
		return nil, err
	}

	var matched [][]byte
	for _, k := range allKeys {
		if bytes.HasPrefix(k, prefix) {
			matched = append(matched, k)
		}
	}
	return matched, nil
}

// Reset wipes all data from the KV store (use with caution!)
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Reset()
}

// Close is a no-op; charm/kv does not expose Close and badger is
// cleaned up on process exit.
func (c *Client) Close() error {
	return nil
}
