package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"

	"github.com/Jharmony/StreamVault/types"
)

// DefaultFileName is looked up in the working directory when --config is
// not given.
const DefaultFileName = "streamvault.yaml"

// Config represents a streamvault.yaml configuration file.
// All values are optional and act as defaults for command flags.
// CLI flags always override config values.
type Config struct {
	Wallet   WalletConfig   `yaml:"wallet"`
	Gateways GatewayConfig  `yaml:"gateways"`
	Signer   EndpointConfig `yaml:"signer"`
	Network  EndpointConfig `yaml:"network"`
	Bulk     EndpointConfig `yaml:"bulk"`
	Registry EndpointConfig `yaml:"registry"`
	Profile  ProfileConfig  `yaml:"profile"`
	Confirm  ConfirmConfig  `yaml:"confirm"`
	Cache    CacheConfig    `yaml:"cache"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Adapter  AdapterConfig  `yaml:"adapter"`
	Log      LogConfig      `yaml:"log"`
	// LockPath is the lock file guarding single publish flow per machine.
	LockPath string `yaml:"lock_path"`
}

// WalletConfig identifies the connected wallet.
type WalletConfig struct {
	Type    string `yaml:"type"`
	Address string `yaml:"address"`
}

// GatewayConfig holds the two retrieval gateways.
type GatewayConfig struct {
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary"`
}

// EndpointConfig is a remote HTTP service.
type EndpointConfig struct {
	URL     string            `yaml:"url"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// ProfileConfig configures the profile record store.
type ProfileConfig struct {
	EndpointConfig `yaml:",inline"`
	CacheSize      int `yaml:"cache_size,omitempty"`
}

// ConfirmConfig configures confirmation polling.
type ConfirmConfig struct {
	Interval Duration `yaml:"interval,omitempty"`
	Timeout  Duration `yaml:"timeout,omitempty"`
	// Disabled skips confirmation; results carry no confirmed flag.
	Disabled bool `yaml:"disabled,omitempty"`
}

// CacheConfig locates the local SQLite cache.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// LedgerConfig holds publish ledger storage settings.
type LedgerConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// AdapterConfig holds completion notification settings.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Secret  string            `yaml:"secret,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// LogConfig selects the log level (debug, info, warn, error).
type LogConfig struct {
	Level string `yaml:"level"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "2s", "45s").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML writes the duration back in string form.
func (d Duration) MarshalYAML() (any, error) {
	if d.Duration == 0 {
		return "", nil
	}
	return d.String(), nil
}

// WalletValue returns the configured wallet.
func (c *Config) WalletValue() (types.Wallet, error) {
	wt, err := types.ParseWalletType(c.Wallet.Type)
	if err != nil {
		return types.Wallet{}, err
	}
	return types.Wallet{Type: wt, Address: c.Wallet.Address}, nil
}

// GatewayValue returns the configured gateways with defaults filled in.
func (c *Config) GatewayValue() types.Gateways {
	gw := types.DefaultGateways()
	if c.Gateways.Primary != "" {
		gw.Primary = c.Gateways.Primary
	}
	if c.Gateways.Secondary != "" {
		gw.Secondary = c.Gateways.Secondary
	}
	return gw
}

// Validate checks values that would otherwise fail deep inside a publish.
// Every problem is reported, not just the first.
func (c *Config) Validate() error {
	var errs error
	if _, err := c.WalletValue(); err != nil {
		errs = multierr.Append(errs, err)
	}
	switch c.Ledger.Backend {
	case "", "fs", "s3", "memory":
	default:
		errs = multierr.Append(errs, fmt.Errorf("invalid ledger.backend: %q (must be fs, s3, or memory)", c.Ledger.Backend))
	}
	if c.Ledger.Backend == "s3" && c.Ledger.Path == "" {
		errs = multierr.Append(errs, errors.New("ledger.path is required for the s3 backend (bucket/prefix)"))
	}
	switch c.Adapter.Type {
	case "", "webhook", "redis":
	default:
		errs = multierr.Append(errs, fmt.Errorf("invalid adapter.type: %q (must be webhook or redis)", c.Adapter.Type))
	}
	if c.Adapter.Type != "" && c.Adapter.URL == "" {
		errs = multierr.Append(errs, fmt.Errorf("adapter.url is required for adapter type %s", c.Adapter.Type))
	}
	if c.Adapter.Retries != nil && *c.Adapter.Retries < 0 {
		errs = multierr.Append(errs, fmt.Errorf("adapter.retries must be >= 0, got %d", *c.Adapter.Retries))
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = multierr.Append(errs, fmt.Errorf("invalid log.level: %q", c.Log.Level))
	}
	return errs
}

// DataDir is the per-user directory for the cache, ledger and lock file.
func DataDir() string {
	if dir := os.Getenv("STREAMVAULT_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".streamvault"
	}
	return filepath.Join(home, ".streamvault")
}

// ApplyDefaults fills unset storage paths under DataDir.
func (c *Config) ApplyDefaults() {
	dir := DataDir()
	if c.Cache.Path == "" {
		c.Cache.Path = filepath.Join(dir, "cache.db")
	}
	if c.Ledger.Backend == "" {
		c.Ledger.Backend = "fs"
	}
	if c.Ledger.Backend == "fs" && c.Ledger.Path == "" {
		c.Ledger.Path = filepath.Join(dir, "ledger")
	}
	if c.LockPath == "" {
		c.LockPath = filepath.Join(dir, "publish.lock")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
