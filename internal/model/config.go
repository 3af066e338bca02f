package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds the connection settings for the platform's
// notification API.
type ServerConfig struct {
	// BaseURL is the root URL of the platform (e.g., https://example.org).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// PageLimit is how many notifications to request per list call.
	PageLimit int `mapstructure:"page_limit" yaml:"page_limit"`

	// RefreshIntervalSec is how often (in seconds) to refresh the
	// notification list in the background.
	RefreshIntervalSec int `mapstructure:"refresh_interval_sec" yaml:"refresh_interval_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`

	// ToastDurationMs is how long an auto-hiding toast stays visible.
	ToastDurationMs int `mapstructure:"toast_duration_ms" yaml:"toast_duration_ms"`

	// MaxToasts caps how many toasts are visible at once; the oldest is
	// evicted when the cap is exceeded.
	MaxToasts int `mapstructure:"max_toasts" yaml:"max_toasts"`
}

// EmailArrivalConfig holds the settings for the optional IMAP arrival
// source that ingests platform notification emails.
type EmailArrivalConfig struct {
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
	Host            string `mapstructure:"host" yaml:"host"`
	Port            string `mapstructure:"port" yaml:"port"`
	Username        string `mapstructure:"username" yaml:"username"`
	Mailbox         string `mapstructure:"mailbox" yaml:"mailbox"`
	TLS             bool   `mapstructure:"tls" yaml:"tls"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// SenderFilter limits ingestion to messages from this address; empty
	// means every message in the mailbox is considered.
	SenderFilter string `mapstructure:"sender_filter" yaml:"sender_filter"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server  ServerConfig       `mapstructure:"server" yaml:"server"`
	Display DisplayConfig      `mapstructure:"display" yaml:"display"`
	Email   EmailArrivalConfig `mapstructure:"email" yaml:"email"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/notify-center/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "notify-center", "config.yaml")
}

// DataDir returns the directory for local state (cache database, log
// file), creating it if needed.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, ".config", "notify-center")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory %s: %w", dir, err)
	}
	return dir, nil
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			PageLimit:          50,
			RefreshIntervalSec: 120,
		},
		Display: DisplayConfig{
			Theme:           "default",
			ToastDurationMs: 5000,
			MaxToasts:       5,
		},
		Email: EmailArrivalConfig{
			Mailbox:         "INBOX",
			TLS:             true,
			PollIntervalSec: 300,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.page_limit", 50)
	v.SetDefault("server.refresh_interval_sec", 120)
	v.SetDefault("display.theme", "default")
	v.SetDefault("display.toast_duration_ms", 5000)
	v.SetDefault("display.max_toasts", 5)
	v.SetDefault("email.mailbox", "INBOX")
	v.SetDefault("email.tls", true)
	v.SetDefault("email.poll_interval_sec", 300)

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

	v.Set("server", cfg.Server)
	v.Set("display", cfg.Display)
	v.Set("email", cfg.Email)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
