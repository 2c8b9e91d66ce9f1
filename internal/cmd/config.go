package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Iron-Ham/areavis/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify areavis configuration",
	Long: `View or modify areavis configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  areavis config set bus.queue_size 512
  areavis config set logging.level debug

Valid keys:
  bus.queue_size          - Undelivered messages buffered by the bus
  bus.deliver_timeout_ms  - How long commands wait for deliveries
  logging.level           - Options: debug, info, warn, error
  logging.format          - Options: json, text
  logging.dir             - Directory for areavis.log (empty for stderr)
  layout.path             - Default layout file
  layout.watch            - Reload the layout on change (true/false)
  tui.show_hidden         - List areas masked by a hidden ancestor (true/false)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/areavis/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

// configKeys maps settable keys to their value type.
var configKeys = map[string]string{
	"bus.queue_size":         "int",
	"bus.deliver_timeout_ms": "int",
	"logging.level":          "string",
	"logging.format":         "string",
	"logging.dir":            "string",
	"layout.path":            "string",
	"layout.watch":           "bool",
	"tui.show_hidden":        "bool",
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out)

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "bus:")
	fmt.Fprintf(out, "  queue_size: %d\n", cfg.Bus.QueueSize)
	fmt.Fprintf(out, "  deliver_timeout_ms: %d\n", cfg.Bus.DeliverTimeoutMs)

	fmt.Fprintln(out, "logging:")
	fmt.Fprintf(out, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "  format: %s\n", cfg.Logging.Format)
	fmt.Fprintf(out, "  dir: %s\n", cfg.Logging.Dir)

	fmt.Fprintln(out, "layout:")
	fmt.Fprintf(out, "  path: %s\n", cfg.Layout.Path)
	fmt.Fprintf(out, "  watch: %v\n", cfg.Layout.Watch)

	fmt.Fprintln(out, "tui:")
	fmt.Fprintf(out, "  show_hidden: %v\n", cfg.TUI.ShowHidden)

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	keyType, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'areavis config set --help' to see valid keys", key)
	}

	// Validate the value based on type
	var typedValue any
	switch keyType {
	case "string":
		typedValue = value
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		typedValue = value == "true"
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected integer", key)
		}
		typedValue = intVal
	}

	// Run the full validator against the new value before writing it
	viper.Set(key, typedValue)
	if _, err := config.Load(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'areavis config set' to modify values", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Generate a commented config file
	configContent := `# areavis configuration

# Event bus settings
bus:
  # Undelivered messages buffered before publishes are rejected
  queue_size: 256
  # How long commands wait for queued deliveries, in milliseconds
  deliver_timeout_ms: 2000

# Logging settings
logging:
  # Options: debug, info, warn, error
  level: info
  # Options: json, text
  format: json
  # Directory for areavis.log; empty logs to stderr
  dir: ""

# Layout settings
layout:
  # Layout used when a command is given none
  path: layout.yaml
  # Reload the layout when the file changes
  watch: false

# TUI (terminal user interface) settings
tui:
  # List areas that are masked by a hidden ancestor
  show_hidden: true
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to customize areavis.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := config.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. $HOME/.config/areavis/config.yaml\n")
	fmt.Fprintf(out, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintf(out, "\nEnvironment variables: AREAVIS_* (e.g., %s)\n", envName("bus.queue_size"))

	return nil
}

// envName returns the environment variable that overrides key.
func envName(key string) string {
	return "AREAVIS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
