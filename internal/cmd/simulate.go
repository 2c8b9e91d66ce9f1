package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/areavis/internal/config"
	"github.com/Iron-Ham/areavis/internal/event"
	"github.com/Iron-Ham/areavis/internal/layout"
	"github.com/Iron-Ham/areavis/internal/logging"
	"github.com/Iron-Ham/areavis/internal/page"
	"github.com/Iron-Ham/areavis/internal/tui/styles"
	"github.com/Iron-Ham/areavis/internal/visibility"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [layout] [area=bool | widget:id=bool ...]",
	Short: "Apply visibility requests to a layout and print the result",
	Long: `Host a layout on an in-process bus, apply visibility requests in order and
print the resulting area tree.

Examples:
  # Hide the main area and everything in it
  areavis simulate layout.yaml main=false

  # Hide a widget, then show one of its areas again
  areavis simulate layout.yaml widget:w1=false w1-content=true

  # Re-run whenever the layout file changes
  areavis simulate layout.yaml sidebar=false --watch`,
	RunE: runSimulate,
}

var (
	simulateWatch  bool
	simulateEvents bool
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().BoolVar(&simulateWatch, "watch", false, "Re-run when the layout file changes (default: layout.watch)")
	simulateCmd.Flags().BoolVar(&simulateEvents, "events", false, "Print every will/did confirmation")
}

// simRequest is one visibility request from the command line.
type simRequest struct {
	target  string
	widget  bool
	visible bool
}

// parseRequests splits args into an optional layout path and requests.
func parseRequests(args []string) (string, []simRequest, error) {
	var path string
	var reqs []simRequest
	for i, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			if i == 0 {
				path = arg
				continue
			}
			return "", nil, fmt.Errorf("invalid request %q: expected name=true|false", arg)
		}
		visible, err := strconv.ParseBool(value)
		if err != nil {
			return "", nil, fmt.Errorf("invalid request %q: %w", arg, err)
		}
		req := simRequest{target: name, visible: visible}
		if id, isWidget := strings.CutPrefix(name, "widget:"); isWidget {
			req.target, req.widget = id, true
		}
		if req.target == "" {
			return "", nil, fmt.Errorf("invalid request %q: empty name", arg)
		}
		reqs = append(reqs, req)
	}
	return path, reqs, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	path, reqs, err := parseRequests(args)
	if err != nil {
		return err
	}
	if path == "" {
		path = cfg.Layout.Path
	}

	l, err := readLayout(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := simulate(cmd.Context(), cfg, logger, l, reqs, out); err != nil {
		return err
	}

	watch := simulateWatch || (cfg.Layout.Watch && !cmd.Flags().Changed("watch"))
	if !watch {
		return nil
	}
	if path == "-" {
		return fmt.Errorf("cannot watch a layout read from stdin")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "\nwatching %s (ctrl+c to stop)\n", path)
	return layout.Watch(ctx, path, logger, func(l *layout.Layout, err error) {
		if err != nil {
			fmt.Fprintf(out, "\n%s\n", styles.ErrorMsg.Render("reload failed: "+err.Error()))
			return
		}
		fmt.Fprintln(out)
		if err := simulate(ctx, cfg, logger, l, reqs, out); err != nil {
			fmt.Fprintf(out, "%s\n", styles.ErrorMsg.Render(err.Error()))
		}
	})
}

// simulate hosts l on a fresh bus, applies reqs and prints the tree.
func simulate(ctx context.Context, cfg *config.Config, logger *logging.Logger, l *layout.Layout, reqs []simRequest, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	bus := newBus(cfg, logger)
	defer bus.Close()

	var mu sync.Mutex
	var events []string
	if simulateEvents {
		record := func(m event.Message) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, m.Topic)
		}
		observer := bus.Client("")
		for _, kind := range []string{visibility.KindWillChangeAreaVisibility, visibility.KindDidChangeAreaVisibility} {
			if _, err := observer.Subscribe(kind, record); err != nil {
				return err
			}
		}
	}

	p, err := page.New(bus, l, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	settle := func() error {
		flushCtx, cancel := context.WithTimeout(ctx, cfg.Bus.DeliverTimeout())
		defer cancel()
		return p.Flush(flushCtx)
	}
	if err := settle(); err != nil {
		return err
	}

	for _, req := range reqs {
		if req.widget {
			if _, err := p.Widget(req.target); err != nil {
				return err
			}
			_, err = p.RequestWidget(req.target, req.visible)
		} else {
			if _, err := p.Visible(req.target); err != nil {
				return err
			}
			_, err = p.Request(req.target, req.visible)
		}
		if err != nil {
			return err
		}
		if err := settle(); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, renderTree(p.Snapshot(), terminalWidth()))

	if simulateEvents {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(out)
		for _, topic := range events {
			fmt.Fprintln(out, styles.Muted.Render(topic))
		}
	}
	return nil
}

// renderTree renders the area tree in a box no wider than width.
func renderTree(rows []page.AreaState, width int) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, styles.Primary.Bold(true).Render("areas"))
	for _, row := range rows {
		name := strings.Repeat("  ", row.Depth) + row.Name
		if row.Owner != "" {
			name += " " + styles.Owner.Render("("+row.Owner+")")
		}
		state := styles.RenderState(styles.State(row.Own, row.Effective))
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(32).Render(name),
			state,
		))
	}

	box := styles.EventLog
	if width > 4 {
		box = box.MaxWidth(width)
	}
	return box.Render(strings.Join(lines, "\n"))
}

// terminalWidth returns the width of stdout, or 80 when it is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 80
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
