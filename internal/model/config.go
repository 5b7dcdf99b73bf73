package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Store backend identifiers.
const (
	StoreBackendSQLite = "sqlite"
	StoreBackendMongo  = "mongo"
)

// StoreConfig selects and configures the document store backend.
type StoreConfig struct {
	// Backend is "sqlite" or "mongo".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Path is the SQLite database file (sqlite backend only).
	Path string `mapstructure:"path" yaml:"path"`

	// MongoURI is the connection string (mongo backend only).
	MongoURI string `mapstructure:"mongo_uri" yaml:"mongo_uri"`

	// MongoDatabase is the database name (mongo backend only).
	MongoDatabase string `mapstructure:"mongo_database" yaml:"mongo_database"`

	// PollIntervalSec is how often the mongo backend polls collections
	// for snapshot changes.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// IntakeConfig configures the email intake channel for requester
// submissions.
type IntakeConfig struct {
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
	IMAPHost        string `mapstructure:"imap_host" yaml:"imap_host"`
	IMAPPort        string `mapstructure:"imap_port" yaml:"imap_port"`
	Username        string `mapstructure:"username" yaml:"username"`
	Mailbox         string `mapstructure:"mailbox" yaml:"mailbox"`
	UseTLS          bool   `mapstructure:"use_tls" yaml:"use_tls"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// NotifyConfig holds the notification derivation settings.
type NotifyConfig struct {
	// DueSoonThresholdDays is the window, in days, within which an
	// active task counts as due soon.
	DueSoonThresholdDays int `mapstructure:"due_soon_threshold_days" yaml:"due_soon_threshold_days"`

	// DueScanIntervalSec is how often the periodic due-soon rescan runs,
	// in addition to the scan on every task snapshot.
	DueScanIntervalSec int `mapstructure:"due_scan_interval_sec" yaml:"due_scan_interval_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Intake  IntakeConfig  `mapstructure:"intake" yaml:"intake"`
	Notify  NotifyConfig  `mapstructure:"notify" yaml:"notify"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/prdesk/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "prdesk", "config.yaml")
}

// defaultDataPath returns the default SQLite database location.
func defaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "prdesk.db")
	}
	return filepath.Join(home, ".config", "prdesk", "prdesk.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Store: StoreConfig{
			Backend:         StoreBackendSQLite,
			Path:            defaultDataPath(),
			MongoDatabase:   "prdesk",
			PollIntervalSec: 5,
		},
		Intake: IntakeConfig{
			Mailbox:         "INBOX",
			UseTLS:          true,
			PollIntervalSec: 120,
		},
		Notify: NotifyConfig{
			DueSoonThresholdDays: 3,
			DueScanIntervalSec:   3600,
		},
		Display: DisplayConfig{Theme: "default"},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("store.backend", StoreBackendSQLite)
	v.SetDefault("store.path", defaultDataPath())
	v.SetDefault("store.mongo_database", "prdesk")
	v.SetDefault("store.poll_interval_sec", 5)
	v.SetDefault("intake.mailbox", "INBOX")
	v.SetDefault("intake.use_tls", true)
	v.SetDefault("intake.poll_interval_sec", 120)
	v.SetDefault("notify.due_soon_threshold_days", 3)
	v.SetDefault("notify.due_scan_interval_sec", 3600)
	v.SetDefault("display.theme", "default")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("store", cfg.Store)
	v.Set("intake", cfg.Intake)
	v.Set("notify", cfg.Notify)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
