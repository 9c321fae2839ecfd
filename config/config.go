// ABOUTME: Portal configuration stored as JSON under the XDG data directory
// ABOUTME: Missing fields get defaults; PORTAL_* environment variables override the file
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	// AppName names the data directory and the charm database.
	AppName = "duopro"

	// ConfigFileName is where we store local config.
	ConfigFileName = "config.json"

	DefaultCharmHost = "charm.2389.dev"
)

// Storage backends for the local store.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendCharm  = "charm"
)

// Config holds every setting the portal reads at startup.
type Config struct {
	// BackendURL is the hosted backend's base URL.
	BackendURL string `json:"backend_url" env:"BACKEND_URL"`

	// AnonKey is the backend's public API key.
	AnonKey string `json:"anon_key" env:"ANON_KEY"`

	// Storage selects the local backend: badger, sqlite or charm.
	Storage string `json:"storage" env:"STORAGE"`

	// DataDir holds the badger directory and the sqlite file.
	DataDir string `json:"data_dir,omitempty" env:"DATA_DIR"`

	// BasePrefix isolates portal keys inside the store.
	BasePrefix string `json:"base_prefix" env:"BASE_PREFIX"`

	// CharmHost is the charm server used by the charm backend.
	CharmHost string `json:"charm_host,omitempty" env:"CHARM_HOST"`

	// AutoSync pushes every charm write to the server immediately.
	AutoSync bool `json:"auto_sync" env:"AUTO_SYNC"`

	// Durations are written as Go duration strings such as "30s".
	ProbeInterval Duration `json:"probe_interval" env:"PROBE_INTERVAL"`
	ProbeTimeout  Duration `json:"probe_timeout" env:"PROBE_TIMEOUT"`
	FetchTimeout  Duration `json:"fetch_timeout" env:"FETCH_TIMEOUT"`

	LogLevel string `json:"log_level" env:"LOG_LEVEL"`
	LogFile  string `json:"log_file,omitempty" env:"LOG_FILE"`

	// CalendarID is the Google calendar scheduled posts are published to.
	CalendarID string `json:"calendar_id,omitempty" env:"CALENDAR_ID"`

	// Endpoints maps each module to its edge function name.
	Endpoints Endpoints `json:"endpoints"`
}

// Endpoints names the edge function behind each module.
type Endpoints struct {
	Tasks   string `json:"tasks" env:"TASKS_ENDPOINT"`
	Leads   string `json:"leads" env:"LEADS_ENDPOINT"`
	Posts   string `json:"posts" env:"POSTS_ENDPOINT"`
	Clients string `json:"clients" env:"CLIENTS_ENDPOINT"`
}

// DefaultConfig returns a new config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Storage:       BackendBadger,
		BasePrefix:    "duopro:",
		CharmHost:     DefaultCharmHost,
		AutoSync:      true,
		ProbeInterval: Duration(30 * time.Second),
		ProbeTimeout:  Duration(3 * time.Second),
		FetchTimeout:  Duration(5 * time.Second),
		LogLevel:      "info",
		CalendarID:    "primary",
		Endpoints: Endpoints{
			Tasks:   "tasks",
			Leads:   "crm-leads",
			Posts:   "social-posts",
			Clients: "clients",
		},
	}
}

// Dir returns the portal's data directory.
func Dir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Path returns the path to the config file.
func Path() string {
	return filepath.Join(Dir(), ConfigFileName)
}

// Load reads the config file at path (Path() when empty), fills defaults,
// loads a .env file from the working directory if present, and applies
// PORTAL_* environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "PORTAL_"}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Storage == "" {
		c.Storage = d.Storage
	}
	if c.BasePrefix == "" {
		c.BasePrefix = d.BasePrefix
	}
	if c.CharmHost == "" {
		c.CharmHost = d.CharmHost
	}
	if c.ProbeInterval <= 0 {
		c.ProbeInterval = d.ProbeInterval
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = d.ProbeTimeout
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = d.FetchTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.CalendarID == "" {
		c.CalendarID = d.CalendarID
	}
	if c.DataDir == "" {
		c.DataDir = Dir()
	}
	if c.Endpoints.Tasks == "" {
		c.Endpoints.Tasks = d.Endpoints.Tasks
	}
	if c.Endpoints.Leads == "" {
		c.Endpoints.Leads = d.Endpoints.Leads
	}
	if c.Endpoints.Posts == "" {
		c.Endpoints.Posts = d.Endpoints.Posts
	}
	if c.Endpoints.Clients == "" {
		c.Endpoints.Clients = d.Endpoints.Clients
	}
}

// Validate checks the settings the portal cannot run without.
func (c *Config) Validate() error {
	switch c.Storage {
	case BackendBadger, BackendSQLite, BackendCharm:
	default:
		return fmt.Errorf("unknown storage backend %q (valid: badger, sqlite, charm)", c.Storage)
	}
	if c.BasePrefix == "" {
		return fmt.Errorf("base_prefix must not be empty")
	}
	return nil
}

// Save persists the config to path (Path() when empty).
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
