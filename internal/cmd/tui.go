package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/areavis/internal/layout"
	"github.com/Iron-Ham/areavis/internal/logging"
	"github.com/Iron-Ham/areavis/internal/page"
	"github.com/Iron-Ham/areavis/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [layout]",
	Short: "Toggle areas of a layout interactively",
	Long: `Host a layout and browse its area tree in the terminal. Toggling an area
publishes a visibility request; the tree updates when the page confirms it.

Logs are discarded unless logging.dir is set, so they do not corrupt the screen.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.NopLogger()
	if cfg.Logging.Dir != "" {
		if logger, err = logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level); err != nil {
			return err
		}
		defer logger.Close()
	}

	path := layoutPath(cfg, args)
	if path == "-" {
		return fmt.Errorf("the tui needs the terminal; pass a layout file instead of stdin")
	}
	l, err := layout.Load(path)
	if err != nil {
		return err
	}

	bus := newBus(cfg, logger)
	defer bus.Close()

	p, err := page.New(bus, l, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	flushCtx, cancel := context.WithTimeout(context.Background(), cfg.Bus.DeliverTimeout())
	err = p.Flush(flushCtx)
	cancel()
	if err != nil {
		return err
	}

	m, err := tui.New(p, bus, tui.Options{ShowHidden: cfg.TUI.ShowHidden, Logger: logger})
	if err != nil {
		return err
	}
	defer m.Close()

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
