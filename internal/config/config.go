// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for
// rigrun-slots.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/rigrun-slots/internal/logging"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete rigrun-slots configuration.
type Config struct {
	Daemon  DaemonConfig  `toml:"daemon"`
	Client  ClientConfig  `toml:"client"`
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
}

// DaemonConfig configures the background context.
type DaemonConfig struct {
	// ListenAddr is the host:port of the WebSocket/metrics listener
	ListenAddr string `toml:"listen_addr"`
	// AllowedOrigins lists Origin headers accepted on upgrade (empty = same host only)
	AllowedOrigins []string `toml:"allowed_origins"`
	// RateLimit is the sustained messages per second accepted per connection
	RateLimit float64 `toml:"rate_limit"`
	// RateBurst is the burst size for RateLimit
	RateBurst int `toml:"rate_burst"`
}

// ClientConfig configures the foreground context.
type ClientConfig struct {
	// DaemonURL is the WebSocket endpoint of the daemon
	DaemonURL string `toml:"daemon_url"`
	// RequestTimeoutSecs bounds every request/response exchange
	RequestTimeoutSecs int `toml:"request_timeout_secs"`
	// Embedded runs the background in-process instead of dialing a daemon
	Embedded bool `toml:"embedded"`
}

// StorageConfig configures where the background keeps durable state.
type StorageConfig struct {
	// DataDir holds the slot database, sealed credential and logs
	DataDir string `toml:"data_dir"`
	// Passphrase, when set, derives the credential sealing key with PBKDF2
	// instead of using the generated master key file
	Passphrase string `toml:"passphrase"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// RequestTimeout returns the client request timeout as a duration.
func (c ClientConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Daemon: DaemonConfig{
			ListenAddr: "127.0.0.1:7433",
			RateLimit:  50,
			RateBurst:  100,
		},
		Client: ClientConfig{
			DaemonURL:          "ws://127.0.0.1:7433/ws",
			RequestTimeoutSecs: 10,
		},
		Storage: StorageConfig{
			DataDir: "~/.rigrun-slots",
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
	}
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// ConfigDir returns the configuration directory. RIGRUN_SLOTS_HOME
// overrides the default ~/.rigrun-slots.
func ConfigDir() (string, error) {
	if dir := os.Getenv("RIGRUN_SLOTS_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rigrun-slots"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir returns the storage directory with a leading ~ expanded.
func (c *Config) DataDir() (string, error) {
	return expandHome(c.Storage.DataDir)
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the default config file if it exists, then applies environment
// overrides, defaults and validation.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		return LoadFromPath(path)
	}
	return finish(Default())
}

// LoadFromPath loads configuration from a specific TOML file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

// LoadTOML decodes path on top of cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ensureSecurePermissions tightens the config file to 0600, since it may
// hold the storage passphrase.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// SetDefaults fills zero values with the built-in defaults.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Daemon.ListenAddr == "" {
		c.Daemon.ListenAddr = d.Daemon.ListenAddr
	}
	if c.Daemon.RateLimit == 0 {
		c.Daemon.RateLimit = d.Daemon.RateLimit
	}
	if c.Daemon.RateBurst == 0 {
		c.Daemon.RateBurst = d.Daemon.RateBurst
	}
	if c.Client.DaemonURL == "" {
		c.Client.DaemonURL = d.Client.DaemonURL
	}
	if c.Client.RequestTimeoutSecs == 0 {
		c.Client.RequestTimeoutSecs = d.Client.RequestTimeoutSecs
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = d.Storage.DataDir
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// ApplyEnvOverrides applies RIGRUN_SLOTS_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if addr := os.Getenv("RIGRUN_SLOTS_LISTEN_ADDR"); addr != "" {
		c.Daemon.ListenAddr = addr
	}
	if u := os.Getenv("RIGRUN_SLOTS_DAEMON_URL"); u != "" {
		c.Client.DaemonURL = u
	}
	if embedded := os.Getenv("RIGRUN_SLOTS_EMBEDDED"); embedded != "" {
		c.Client.Embedded = embedded == "1" || strings.EqualFold(embedded, "true")
	}
	if dir := os.Getenv("RIGRUN_SLOTS_DATA_DIR"); dir != "" {
		c.Storage.DataDir = dir
	}
	if pass := os.Getenv("RIGRUN_SLOTS_PASSPHRASE"); pass != "" {
		c.Storage.Passphrase = pass
	}
	if level := os.Getenv("RIGRUN_SLOTS_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if secs := os.Getenv("RIGRUN_SLOTS_REQUEST_TIMEOUT"); secs != "" {
		if n, err := strconv.Atoi(secs); err == nil {
			c.Client.RequestTimeoutSecs = n
		}
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes the configuration with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# rigrun-slots configuration file")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if _, _, err := net.SplitHostPort(c.Daemon.ListenAddr); err != nil {
		errs = append(errs, ValidationError{
			Field:   "daemon.listen_addr",
			Message: fmt.Sprintf("invalid address '%s': %v", c.Daemon.ListenAddr, err),
		})
	}
	if c.Daemon.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "daemon.rate_limit", Message: "must not be negative"})
	}
	if c.Daemon.RateBurst < 1 {
		errs = append(errs, ValidationError{Field: "daemon.rate_burst", Message: "must be at least 1"})
	}

	if u, err := url.Parse(c.Client.DaemonURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "client.daemon_url",
			Message: fmt.Sprintf("invalid URL '%s', must be ws:// or wss://", c.Client.DaemonURL),
		})
	}
	if c.Client.RequestTimeoutSecs < 1 || c.Client.RequestTimeoutSecs > 300 {
		errs = append(errs, ValidationError{
			Field:   "client.request_timeout_secs",
			Message: fmt.Sprintf("%d out of range 1-300", c.Client.RequestTimeoutSecs),
		})
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, ValidationError{Field: "log.level", Message: err.Error()})
	}
	if f := strings.ToLower(c.Log.Format); f != logging.FormatText && f != logging.FormatJSON {
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: text, json", c.Log.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
