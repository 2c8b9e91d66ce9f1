// Package tui is an interactive view of a running page host. Each row is an
// area of the layout; toggling a row publishes a visibility request on the
// bus, and the view refreshes when the page confirms the change.
package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/areavis/internal/event"
	"github.com/Iron-Ham/areavis/internal/logging"
	"github.com/Iron-Ham/areavis/internal/page"
	"github.com/Iron-Ham/areavis/internal/tui/styles"
	"github.com/Iron-Ham/areavis/internal/visibility"
)

// maxEvents is how many confirmations the event pane keeps.
const maxEvents = 8

// Options configures the model.
type Options struct {
	// ShowHidden lists areas masked by a hidden ancestor.
	ShowHidden bool
	Logger     *logging.Logger
}

// areaChangedMsg is a didChangeAreaVisibility confirmation seen on the bus.
type areaChangedMsg struct {
	topic   string
	visible bool
}

// Model is the Bubbletea model for the area tree.
type Model struct {
	page  *page.Page
	ctx   *visibility.Context
	coord *visibility.Coordinator

	changes chan areaChangedMsg
	done    chan struct{}
	once    *sync.Once

	keys keyMap
	help help.Model

	rows       []page.AreaState
	cursor     int
	showHidden bool
	events     []string
	width      int
	err        error
	quitting   bool
}

// New creates a model bound to p. It listens on bus for confirmations of
// every area in the layout.
func New(p *page.Page, bus *event.Bus, opts Options) (Model, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	client := bus.Client("")
	m := Model{
		page: p,
		ctx: &visibility.Context{
			Widget:   visibility.Widget{ID: client.ID()},
			EventBus: client,
			Logger:   logger,
		},
		changes:    make(chan areaChangedMsg, 64),
		done:       make(chan struct{}),
		once:       &sync.Once{},
		keys:       defaultKeyMap(),
		help:       help.New(),
		showHidden: opts.ShowHidden,
	}

	coord, err := visibility.HandlerFor(m.ctx)
	if err != nil {
		return Model{}, err
	}
	for _, row := range p.Snapshot() {
		coord.RegisterArea(row.Name, visibility.AreaOptions{OnChange: m.notify(row.Name)})
	}
	if err := coord.Err(); err != nil {
		coord.Close()
		return Model{}, err
	}
	m.coord = coord
	m.refresh()
	return m, nil
}

// notify forwards confirmations for area to the program. Subtopics of area
// are skipped since their own registration forwards them. The snapshot is
// re-read on every message, so a full buffer only drops redundant refreshes.
func (m Model) notify(area string) event.Handler {
	changes, done := m.changes, m.done
	want := visibility.DidChangeTopic(area) + "."
	return func(msg event.Message) {
		if !strings.HasPrefix(msg.Topic, want) {
			return
		}
		visible, _ := visibility.VisibleFrom(msg)
		select {
		case changes <- areaChangedMsg{topic: msg.Topic, visible: visible}:
		case <-done:
		default:
		}
	}
}

func (m Model) waitForChange() tea.Cmd {
	changes, done := m.changes, m.done
	return func() tea.Msg {
		select {
		case msg := <-changes:
			return msg
		case <-done:
			return nil
		}
	}
}

// Close releases the model's subscriptions.
func (m Model) Close() {
	m.once.Do(func() {
		m.coord.Close()
		close(m.done)
	})
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.waitForChange()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case areaChangedMsg:
		m.events = append(m.events, msg.topic)
		if len(m.events) > maxEvents {
			m.events = m.events[len(m.events)-maxEvents:]
		}
		m.refresh()
		return m, m.waitForChange()

	case tea.KeyMsg:
		m.err = nil
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.visibleRows()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.ToggleArea):
		if row, ok := m.selected(rows); ok {
			_, m.err = visibility.PublisherForArea(m.ctx, row.Name)(!row.Own)
		}

	case key.Matches(msg, m.keys.ToggleWidget):
		row, ok := m.selected(rows)
		if !ok {
			break
		}
		if row.Owner == "" {
			m.err = fmt.Errorf("area %q belongs to the page, not a widget", row.Name)
			break
		}
		w, err := m.page.Widget(row.Owner)
		if err != nil {
			m.err = err
			break
		}
		owner := &visibility.Context{
			Widget:   visibility.Widget{ID: row.Owner},
			EventBus: m.ctx.EventBus,
			Logger:   m.ctx.Logger,
		}
		_, m.err = visibility.PublisherForWidget(owner)(!w.Own)

	case key.Matches(msg, m.keys.ShowHidden):
		m.showHidden = !m.showHidden
		m.clampCursor()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

func (m *Model) refresh() {
	m.rows = m.page.Snapshot()
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.visibleRows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// visibleRows drops masked areas unless they are shown.
func (m Model) visibleRows() []page.AreaState {
	if m.showHidden {
		return m.rows
	}
	out := make([]page.AreaState, 0, len(m.rows))
	for _, row := range m.rows {
		if styles.State(row.Own, row.Effective) != styles.StateMasked {
			out = append(out, row)
		}
	}
	return out
}

func (m Model) selected(rows []page.AreaState) (page.AreaState, bool) {
	if m.cursor < 0 || m.cursor >= len(rows) {
		return page.AreaState{}, false
	}
	return rows[m.cursor], true
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	header := styles.Header
	if m.width > 4 {
		header = header.Width(m.width - 4)
	}
	b.WriteString(header.Render(fmt.Sprintf("areavis · %d areas", len(m.rows))))
	b.WriteString("\n")

	rows := m.visibleRows()
	for i, row := range rows {
		b.WriteString(renderRow(row, i == m.cursor))
		b.WriteString("\n")
	}

	if len(m.events) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.EventLog.Render(strings.Join(m.events, "\n")))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(styles.ErrorMsg.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(styles.HelpBar.Render(m.help.View(m.keys)))
	return b.String()
}

// renderRow renders one area of the tree.
func renderRow(row page.AreaState, active bool) string {
	name := strings.Repeat("  ", row.Depth) + row.Name
	style := styles.Row
	if active {
		style = styles.RowActive
	}

	line := style.Render(name) + " " + styles.RenderState(styles.State(row.Own, row.Effective))
	if row.Owner != "" {
		line += " " + styles.Owner.Render("("+row.Owner+")")
	}
	return line
}
