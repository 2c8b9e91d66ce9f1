package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete areavis configuration
type Config struct {
	Bus     BusConfig     `mapstructure:"bus"`
	Logging LoggingConfig `mapstructure:"logging"`
	Layout  LayoutConfig  `mapstructure:"layout"`
	TUI     TUIConfig     `mapstructure:"tui"`
}

// BusConfig controls the event bus
type BusConfig struct {
	// QueueSize is the number of undelivered messages the bus buffers before
	// publishes are rejected (default: 256)
	QueueSize int `mapstructure:"queue_size"`
	// DeliverTimeoutMs bounds how long commands wait for queued deliveries
	// to be dispatched (default: 2000)
	DeliverTimeoutMs int `mapstructure:"deliver_timeout_ms"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	// Level is the minimum log level to record
	// Options: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Format is the log line encoding
	// Options: "json", "text" (default: "json")
	Format string `mapstructure:"format"`
	// Dir is where areavis.log is written. Empty logs to stderr.
	Dir string `mapstructure:"dir"`
}

// LayoutConfig controls which layout commands load
type LayoutConfig struct {
	// Path is the layout file used when a command is given none (default: "layout.yaml")
	Path string `mapstructure:"path"`
	// Watch reloads the layout when the file changes (default: false)
	Watch bool `mapstructure:"watch"`
}

// TUIConfig controls the terminal UI behavior
type TUIConfig struct {
	// ShowHidden lists areas hidden by an ancestor instead of collapsing them (default: true)
	ShowHidden bool `mapstructure:"show_hidden"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Bus: BusConfig{
			QueueSize:        256,
			DeliverTimeoutMs: 2000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Dir:    "",
		},
		Layout: LayoutConfig{
			Path:  "layout.yaml",
			Watch: false,
		},
		TUI: TUIConfig{
			ShowHidden: true,
		},
	}
}

// DeliverTimeout returns the delivery timeout as a time.Duration
func (c *BusConfig) DeliverTimeout() time.Duration {
	return time.Duration(c.DeliverTimeoutMs) * time.Millisecond
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Bus defaults
	viper.SetDefault("bus.queue_size", defaults.Bus.QueueSize)
	viper.SetDefault("bus.deliver_timeout_ms", defaults.Bus.DeliverTimeoutMs)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.format", defaults.Logging.Format)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	// Layout defaults
	viper.SetDefault("layout.path", defaults.Layout.Path)
	viper.SetDefault("layout.watch", defaults.Layout.Watch)

	// TUI defaults
	viper.SetDefault("tui.show_hidden", defaults.TUI.ShowHidden)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "areavis")
	}
	// Fall back to ~/.config/areavis
	home, err := os.UserHomeDir()
	if err != nil {
		return ".areavis"
	}
	return filepath.Join(home, ".config", "areavis")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
