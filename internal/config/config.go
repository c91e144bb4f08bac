// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/agentchat-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete agentchat configuration.
type Config struct {
	Version string `toml:"version"`

	// Server is the agent service connection configuration.
	Server ServerConfig `toml:"server"`

	// Chat controls send behavior.
	Chat ChatConfig `toml:"chat"`

	// History controls local persistence.
	History HistoryConfig `toml:"history"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// ServerConfig contains agent service connection configuration.
type ServerConfig struct {
	// BaseURL is the agent service base URL.
	BaseURL string `toml:"base_url"`
	// StreamPath is the streaming endpoint path.
	StreamPath string `toml:"stream_path"`
	// CleanlabEnabled is the default per-thread trust-scoring toggle.
	CleanlabEnabled bool `toml:"cleanlab_enabled"`
}

// ChatConfig contains send-behavior configuration.
type ChatConfig struct {
	// SendIntervalMs is the minimum spacing between sends in milliseconds.
	SendIntervalMs int `toml:"send_interval_ms"`
	// SendBurst is how many sends may arrive back-to-back.
	SendBurst int `toml:"send_burst"`
}

// HistoryConfig contains history persistence configuration.
type HistoryConfig struct {
	// Path is the history file location (empty = ~/.agentchat/history.json).
	Path string `toml:"path"`
	// MaxThreads limits stored history entries (0 = unlimited).
	MaxThreads int `toml:"max_threads"`
	// WatchEnabled reloads history when another process rewrites the file.
	WatchEnabled bool `toml:"watch_enabled"`
	// SearchIndexPath is the search database location
	// (empty = ~/.agentchat/search.db).
	SearchIndexPath string `toml:"search_index_path"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme selects the color theme: "auto", "dark", or "light".
	Theme string `toml:"theme"`
	// ShowTrustScores renders trust metadata under assistant responses.
	ShowTrustScores bool `toml:"show_trust_scores"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			BaseURL:         "http://127.0.0.1:8000",
			StreamPath:      "/api/support-agent/stream",
			CleanlabEnabled: true,
		},
		Chat: ChatConfig{
			SendIntervalMs: 1000,
			SendBurst:      5,
		},
		History: HistoryConfig{
			MaxThreads:   100,
			WatchEnabled: true,
		},
		UI: UIConfig{
			Theme:           "auto",
			ShowTrustScores: true,
		},
	}
}

// SendInterval returns the chat send interval as a duration.
func (c *Config) SendInterval() time.Duration {
	return time.Duration(c.Chat.SendIntervalMs) * time.Millisecond
}

// HistoryPath returns the resolved history file path.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.json"), nil
}

// SearchIndexPath returns the resolved search database path.
func (c *Config) SearchIndexPath() (string, error) {
	if c.History.SearchIndexPath != "" {
		return c.History.SearchIndexPath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "search.db"), nil
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the agentchat configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".agentchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// fillDefaults fills in any missing values with defaults.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaults.Server.BaseURL
	}
	if c.Server.StreamPath == "" {
		c.Server.StreamPath = defaults.Server.StreamPath
	}
	if c.Chat.SendIntervalMs <= 0 {
		c.Chat.SendIntervalMs = defaults.Chat.SendIntervalMs
	}
	if c.Chat.SendBurst <= 0 {
		c.Chat.SendBurst = defaults.Chat.SendBurst
	}
	if c.History.MaxThreads < 0 {
		c.History.MaxThreads = defaults.History.MaxThreads
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - AGENTCHAT_BASE_URL: overrides server.base_url
//   - AGENTCHAT_STREAM_PATH: overrides server.stream_path
//   - AGENTCHAT_CLEANLAB: "1"/"true" or "0"/"false" overrides
//     server.cleanlab_enabled
//   - AGENTCHAT_HISTORY_PATH: overrides history.path
//   - AGENTCHAT_HISTORY_MAX: overrides history.max_threads
//   - AGENTCHAT_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("AGENTCHAT_BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("AGENTCHAT_STREAM_PATH"); v != "" {
		c.Server.StreamPath = v
	}
	if v := os.Getenv("AGENTCHAT_CLEANLAB"); v != "" {
		c.Server.CleanlabEnabled = v == "1" || strings.ToLower(v) == "true"
	}
	if v := os.Getenv("AGENTCHAT_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("AGENTCHAT_HISTORY_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.History.MaxThreads = n
		}
	}
	if v := os.Getenv("AGENTCHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.base_url %q is not a valid URL", c.Server.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.base_url scheme must be http or https, got %q", u.Scheme)
	}

	if !strings.HasPrefix(c.Server.StreamPath, "/") {
		return fmt.Errorf("server.stream_path %q must start with /", c.Server.StreamPath)
	}

	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		return fmt.Errorf("ui.theme must be auto, dark, or light, got %q", c.UI.Theme)
	}

	if c.Chat.SendIntervalMs <= 0 {
		return errors.New("chat.send_interval_ms must be positive")
	}
	if c.Chat.SendBurst <= 0 {
		return errors.New("chat.send_burst must be positive")
	}

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file. The write is atomic so
// a crash mid-save cannot corrupt an existing config.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# agentchat configuration file")
	fmt.Fprintln(&buf, "# Generated by agentchat - edit with care")
	fmt.Fprintln(&buf, "")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}
