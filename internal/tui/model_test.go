package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/areavis/internal/event"
	"github.com/Iron-Ham/areavis/internal/layout"
	"github.com/Iron-Ham/areavis/internal/page"
)

const testLayout = `
areas:
  - name: main
    widgets:
      - id: w1
        areas:
          - name: content
  - name: sidebar
`

func newTestModel(t *testing.T, showHidden bool) (Model, *page.Page) {
	t.Helper()

	l, err := layout.Parse([]byte(testLayout))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	bus := event.NewBus()
	t.Cleanup(bus.Close)

	p, err := page.New(bus, l, nil)
	if err != nil {
		t.Fatalf("page.New failed: %v", err)
	}
	t.Cleanup(p.Close)
	// Let the initial confirmations go out before the model listens.
	flushPage(t, p)

	m, err := New(p, bus, Options{ShowHidden: showHidden})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(m.Close)
	return m, p
}

func flushPage(t *testing.T, p *page.Page) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return model
}

// receive runs the pending wait command and feeds its message back in.
func receive(t *testing.T, m Model) Model {
	t.Helper()
	msg := m.waitForChange()()
	if _, ok := msg.(areaChangedMsg); !ok {
		t.Fatalf("waitForChange() = %#v, want areaChangedMsg", msg)
	}
	return update(t, m, msg)
}

func TestNew_ListsAreasInTreeOrder(t *testing.T) {
	m, _ := newTestModel(t, true)

	var names []string
	for _, row := range m.visibleRows() {
		names = append(names, row.Name)
	}
	if got := strings.Join(names, ","); got != "main,w1-content,sidebar" {
		t.Errorf("rows = %s, want main,w1-content,sidebar", got)
	}
}

func TestUpdate_Navigation(t *testing.T) {
	m, _ := newTestModel(t, true)

	m = update(t, m, runes("k"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0 at top", m.cursor)
	}
	m = update(t, m, runes("j"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.cursor)
	}
	m = update(t, m, runes("j"))
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2 at bottom", m.cursor)
	}
}

func TestUpdate_ToggleArea(t *testing.T) {
	m, p := newTestModel(t, true)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.err != nil {
		t.Fatalf("toggle failed: %v", m.err)
	}
	flushPage(t, p)

	if v, _ := p.Visible("main"); v {
		t.Fatal("main should be hidden after toggling")
	}

	m = receive(t, m)
	if m.rows[0].Effective || m.rows[1].Effective {
		t.Errorf("rows should reflect the hidden subtree, got %+v", m.rows)
	}
	if len(m.events) != 1 || m.events[0] != "didChangeAreaVisibility.main.false" {
		t.Errorf("events = %v", m.events)
	}
	if !strings.Contains(m.View(), "masked") {
		t.Error("view should show w1-content as masked")
	}
}

func TestUpdate_ToggleWidget(t *testing.T) {
	m, p := newTestModel(t, true)

	m = update(t, m, runes("w"))
	if m.err == nil {
		t.Error("page areas have no owning widget")
	}

	m = update(t, m, runes("j"))
	m = update(t, m, runes("w"))
	if m.err != nil {
		t.Fatalf("toggle widget failed: %v", m.err)
	}
	flushPage(t, p)

	w1, err := p.Widget("w1")
	if err != nil {
		t.Fatalf("Widget failed: %v", err)
	}
	if w1.Own {
		t.Error("w1 should be hidden")
	}
	if v, _ := p.Visible("w1-content"); v {
		t.Error("w1-content should be hidden with its widget")
	}
}

func TestUpdate_ShowHidden(t *testing.T) {
	m, p := newTestModel(t, false)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	flushPage(t, p)
	m = receive(t, m)

	if n := len(m.visibleRows()); n != 2 {
		t.Errorf("masked rows should be collapsed, got %d rows", n)
	}

	m = update(t, m, runes("h"))
	if n := len(m.visibleRows()); n != 3 {
		t.Errorf("masked rows should be listed, got %d rows", n)
	}
}

func TestUpdate_Quit(t *testing.T) {
	m, _ := newTestModel(t, true)

	next, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("quit should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit should return tea.Quit")
	}
	if view := next.View(); view != "" {
		t.Errorf("View() after quit = %q, want empty", view)
	}

	// Close has already run; waiting returns nothing.
	if msg := m.waitForChange()(); msg != nil {
		t.Errorf("waitForChange() after quit = %#v, want nil", msg)
	}
}

func TestView(t *testing.T) {
	m, _ := newTestModel(t, true)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	view := m.View()
	for _, want := range []string{"3 areas", "main", "w1-content", "(w1)", "sidebar", "visible"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}
