// Package config handles the XDG configuration directory, file paths and
// settings loaded from the config file, the environment and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"todosync/internal/features"
	"todosync/internal/logging"
	"todosync/internal/theme"
)

const (
	// AppName is the application directory name.
	AppName = "todosync"

	// ConfigFile is the settings filename inside the config directory.
	ConfigFile = "config.yaml"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"

	// EnvPrefix prefixes environment overrides, e.g. TODOSYNC_API_URL.
	EnvPrefix = "TODOSYNC"
)

// Backend names.
const (
	BackendREST        = "rest"
	BackendGoogleTasks = "googletasks"
)

// Storage names.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `yaml:"-" mapstructure:"-"`

	// Debug enables debug logging.
	Debug bool `yaml:"-" mapstructure:"-"`

	// Quiet suppresses informational output.
	Quiet bool `yaml:"-" mapstructure:"-"`

	APIURL         string        `yaml:"api_url" mapstructure:"api_url"`
	APIToken       string        `yaml:"api_token" mapstructure:"api_token"`
	Backend        string        `yaml:"backend" mapstructure:"backend"`
	TaskList       string        `yaml:"tasklist" mapstructure:"tasklist"`
	Flags          string        `yaml:"flags" mapstructure:"flags"`
	LogLevel       string        `yaml:"log_level" mapstructure:"log_level"`
	LogFile        string        `yaml:"log_file" mapstructure:"log_file"`
	Env            string        `yaml:"env" mapstructure:"env"`
	Storage        string        `yaml:"storage" mapstructure:"storage"`
	StoragePath    string        `yaml:"storage_path" mapstructure:"storage_path"`
	SearchDebounce time.Duration `yaml:"search_debounce" mapstructure:"search_debounce"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	Retries        int           `yaml:"retries" mapstructure:"retries"`
	Theme          string        `yaml:"theme" mapstructure:"theme"`
}

// DefaultConfig returns the default settings with an empty Dir.
func DefaultConfig() *Config {
	return &Config{
		Backend:        BackendREST,
		TaskList:       "@default",
		LogLevel:       "warn",
		Env:            "development",
		Storage:        StorageFile,
		SearchDebounce: 200 * time.Millisecond,
		RequestTimeout: 10 * time.Second,
		Retries:        2,
		Theme:          theme.PrefAuto,
	}
}

// New creates a Config with default settings and the default or specified
// config directory. Nothing is read from disk.
// If configDir is empty, uses XDG_CONFIG_HOME/todosync or $HOME/.config/todosync.
func New(configDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Dir = configDir
	if cfg.Dir == "" {
		cfg.Dir = DefaultConfigDir()
	}
	return cfg, nil
}

// Load builds the effective configuration. Later sources win: defaults,
// <dir>/config.yaml, TODOSYNC_* environment variables, then overrides
// (flag values keyed by setting name).
func Load(configDir string, overrides map[string]any) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range defaultsMap(cfg) {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	path := cfg.ConfigPath()
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultsMap(cfg *Config) map[string]any {
	return map[string]any{
		"api_url":         cfg.APIURL,
		"api_token":       cfg.APIToken,
		"backend":         cfg.Backend,
		"tasklist":        cfg.TaskList,
		"flags":           cfg.Flags,
		"log_level":       cfg.LogLevel,
		"log_file":        cfg.LogFile,
		"env":             cfg.Env,
		"storage":         cfg.Storage,
		"storage_path":    cfg.StoragePath,
		"search_debounce": cfg.SearchDebounce,
		"request_timeout": cfg.RequestTimeout,
		"retries":         cfg.Retries,
		"theme":           cfg.Theme,
	}
}

// Validate checks the settings that have a fixed set of values.
func (c *Config) Validate() error {
	c.APIURL = strings.TrimSpace(c.APIURL)
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))

	switch c.Backend {
	case BackendREST, BackendGoogleTasks:
	default:
		return fmt.Errorf("invalid backend %q (want %s or %s)", c.Backend, BackendREST, BackendGoogleTasks)
	}
	switch c.Storage {
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("invalid storage %q (want %s or %s)", c.Storage, StorageFile, StorageSQLite)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	pref, err := theme.ParsePreference(c.Theme)
	if err != nil {
		return err
	}
	c.Theme = pref
	if c.Retries < 0 {
		return fmt.Errorf("invalid retries %d: must not be negative", c.Retries)
	}
	if c.SearchDebounce < 0 || c.RequestTimeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// RemoteConfigured reports whether a remote backend is selected. Without one
// the engine runs in local mode.
func (c *Config) RemoteConfigured() bool {
	return c.Backend == BackendGoogleTasks || c.APIURL != ""
}

// Features returns the enabled feature flags.
func (c *Config) Features() features.Set {
	return features.Parse(c.Flags)
}

// ConfigPath returns the path to the settings file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// DataPath returns the local storage location: StoragePath when set,
// otherwise tasks.json or tasks.db in the config directory.
func (c *Config) DataPath() string {
	if c.StoragePath != "" {
		return c.StoragePath
	}
	if c.Storage == StorageSQLite {
		return filepath.Join(c.Dir, "tasks.db")
	}
	return filepath.Join(c.Dir, "tasks.json")
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
