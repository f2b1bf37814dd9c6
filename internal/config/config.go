// Package config loads and saves fcast's TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all fcast configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Forecast   ForecastConfig   `toml:"forecast"`
	API        APIConfig        `toml:"api"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Log        LogConfig        `toml:"log"`
	Appearance AppearanceConfig `toml:"appearance"`
	TUI        TUIConfig        `toml:"tui"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultDays int    `toml:"default_days"`
	DataDir     string `toml:"data_dir,omitempty"`
}

// ForecastConfig holds the scenario baseline and edit behavior.
// Zero baseline values are derived from loaded data.
type ForecastConfig struct {
	MonthlyIncome   float64 `toml:"monthly_income,omitempty"`
	MonthlyExpenses float64 `toml:"monthly_expenses,omitempty"`
	DebounceMs      int     `toml:"debounce_ms"`
	DefaultScenario string  `toml:"default_scenario,omitempty"`
}

// APIConfig holds the remote analytics API settings.
type APIConfig struct {
	BaseURL string `toml:"base_url,omitempty"`
	Token   string `toml:"token,omitempty"`
}

// DaemonConfig holds background service settings.
type DaemonConfig struct {
	Addr           string   `toml:"addr"`
	IntervalSec    int      `toml:"interval_sec"`
	EventsBuffer   int      `toml:"events_buffer"`
	AllowedOrigins []string `toml:"allowed_origins,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// TUIConfig holds dashboard behavior.
type TUIConfig struct {
	AutoRefresh        bool `toml:"auto_refresh"`
	RefreshIntervalSec int  `toml:"refresh_interval_sec"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultDays: 90,
		},
		Forecast: ForecastConfig{
			DebounceMs:      300,
			DefaultScenario: "baseline",
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8765",
			IntervalSec:  30,
			EventsBuffer: 200,
		},
		Log: LogConfig{
			Level: "info",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		TUI: TUIConfig{
			AutoRefresh:        true,
			RefreshIntervalSec: 60,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fcast")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fcast")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultDataDir is where data files are read from when none is configured.
func DefaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "fcast-data")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // user-controlled config path
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path, creating its directory.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// GetAPIToken returns the API token from env var or config, in that order.
func GetAPIToken(cfg Config) string {
	if tok := os.Getenv("FCAST_API_TOKEN"); tok != "" {
		return tok
	}
	return cfg.API.Token
}

// DebounceDelay returns the configured edit debounce as a duration.
func (c Config) DebounceDelay() time.Duration {
	if c.Forecast.DebounceMs <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(c.Forecast.DebounceMs) * time.Millisecond
}

// PollInterval returns the daemon poll interval, at least one second.
func (c Config) PollInterval() time.Duration {
	if c.Daemon.IntervalSec < 1 {
		return time.Second
	}
	return time.Duration(c.Daemon.IntervalSec) * time.Second
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
