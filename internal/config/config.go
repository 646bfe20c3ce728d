// Package config manages the local client configuration file.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	configFile = "config.json"
	lockFile   = "config.json.lock"
)

// DefaultServerURL is used until `fb config set-server` or a login overrides it.
const DefaultServerURL = "http://localhost:8000"

// Config is the persisted client state: which server to talk to plus the
// last-used feed filters so `fb list` and the kanban view resume where the
// user left off.
type Config struct {
	ServerURL      string `json:"server_url,omitempty"`
	DefaultBoardID int64  `json:"default_board_id,omitempty"`

	// Saved filter state
	SearchQuery  string `json:"search_query,omitempty"`
	StatusFilter string `json:"status_filter,omitempty"`
	BoardFilter  int64  `json:"board_filter,omitempty"`
	Ordering     string `json:"ordering,omitempty"`
}

// Load reads the config from disk
func Load(baseDir string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, configFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// EffectiveServerURL returns the configured server URL or the default.
func (c *Config) EffectiveServerURL() string {
	if c.ServerURL != "" {
		return c.ServerURL
	}
	return DefaultServerURL
}

// Save writes the config to disk using atomic write (temp file + rename)
func Save(baseDir string, cfg *Config) error {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write: temp file in same dir, then rename
	tmp, err := os.CreateTemp(baseDir, "config-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, filepath.Join(baseDir, configFile))
}

// Update serializes a read-modify-write of the config under the file lock.
func Update(baseDir string, fn func(cfg *Config)) error {
	return withConfigLock(baseDir, func() error {
		cfg, err := Load(baseDir)
		if err != nil {
			return err
		}
		fn(cfg)
		return Save(baseDir, cfg)
	})
}

// SetServerURL persists the server base URL.
func SetServerURL(baseDir, serverURL string) error {
	return Update(baseDir, func(cfg *Config) {
		cfg.ServerURL = serverURL
	})
}

// SetDefaultBoard persists the default board for create/list.
func SetDefaultBoard(baseDir string, boardID int64) error {
	return Update(baseDir, func(cfg *Config) {
		cfg.DefaultBoardID = boardID
	})
}

// FilterState holds the feed filter/search state shared by list and kanban.
type FilterState struct {
	SearchQuery  string
	StatusFilter string
	BoardFilter  int64
	Ordering     string
}

// GetFilterState returns the saved filter state
func GetFilterState(baseDir string) (*FilterState, error) {
	cfg, err := Load(baseDir)
	if err != nil {
		return nil, err
	}
	return &FilterState{
		SearchQuery:  cfg.SearchQuery,
		StatusFilter: cfg.StatusFilter,
		BoardFilter:  cfg.BoardFilter,
		Ordering:     cfg.Ordering,
	}, nil
}

// SetFilterState saves the filter state to config
func SetFilterState(baseDir string, state *FilterState) error {
	return Update(baseDir, func(cfg *Config) {
		cfg.SearchQuery = state.SearchQuery
		cfg.StatusFilter = state.StatusFilter
		cfg.BoardFilter = state.BoardFilter
		cfg.Ordering = state.Ordering
	})
}

// withConfigLock serializes access to config.json across processes.
func withConfigLock(baseDir string, fn func() error) error {
	lockPath := filepath.Join(baseDir, lockFile)

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := flock(f); err != nil {
		return err
	}
	defer funlock(f)

	return fn()
}
