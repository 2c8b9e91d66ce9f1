package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Iron-Ham/areavis/internal/config"
	"github.com/Iron-Ham/areavis/internal/errors"
	"github.com/Iron-Ham/areavis/internal/event"
	"github.com/Iron-Ham/areavis/internal/layout"
	"github.com/Iron-Ham/areavis/internal/logging"
	"github.com/Iron-Ham/areavis/internal/tui/styles"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "areavis",
	Short: "Area visibility coordination for widget pages",
	Long: `areavis coordinates the visibility of nested areas on a page of widgets.
Widgets ask for areas to be shown or hidden over a publish/subscribe bus, and
a page host answers with will/did confirmations that cascade to every area
below the one that changed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and reports a failure on stderr
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

// printError renders a command failure. Errors meant for users are shown as
// they are; anything else is tagged with its severity.
func printError(w io.Writer, err error) {
	msg := err.Error()
	if !errors.IsUserFacing(err) {
		msg = errors.GetSeverity(err).String() + ": " + msg
	}
	if errors.IsRetryable(err) {
		msg += " (temporary, try again)"
	}
	fmt.Fprintln(w, styles.ErrorMsg.Render(msg))
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/areavis/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/areavis")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("AREAVIS")
	// Replace dots with underscores for nested keys in env vars
	// e.g., AREAVIS_BUS_QUEUE_SIZE for bus.queue_size
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// loadConfig returns the validated configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// newLogger builds the command logger from the logging section. Logs go to
// stderr unless a directory is configured.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if cfg.Logging.Dir != "" {
		return logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	}
	return logging.NewWriterLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format), nil
}

// newBus creates an event bus sized by the bus section.
func newBus(cfg *config.Config, logger *logging.Logger) *event.Bus {
	return event.NewBus(
		event.WithQueueSize(cfg.Bus.QueueSize),
		event.WithLogger(logger),
	)
}

// layoutPath picks the layout argument, falling back to layout.path.
func layoutPath(cfg *config.Config, args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return cfg.Layout.Path
}

// readLayout loads a layout file, or reads one from in when path is "-".
func readLayout(path string, in io.Reader) (*layout.Layout, error) {
	if path != "-" {
		return layout.Load(path)
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read layout from stdin")
	}
	return layout.Parse(data)
}
