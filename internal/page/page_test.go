package page

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/areavis/internal/errors"
	"github.com/Iron-Ham/areavis/internal/event"
	"github.com/Iron-Ham/areavis/internal/layout"
	"github.com/Iron-Ham/areavis/internal/visibility"
)

const testLayout = `
areas:
  - name: main
    widgets:
      - id: w1
        areas:
          - name: content
          - name: details
            visible: false
      - id: w2
  - name: sidebar
    widgets:
      - id: w3
        areas:
          - name: panel
`

// recorder collects the visibility confirmations published on a bus.
type recorder struct {
	mu     sync.Mutex
	topics []string
}

func (r *recorder) handle(m event.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, m.Topic)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = nil
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.topics...)
}

func newTestPage(t *testing.T, doc string) (*Page, *event.Bus, *recorder) {
	t.Helper()

	l, err := layout.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	bus := event.NewBus()
	t.Cleanup(bus.Close)

	rec := &recorder{}
	observer := bus.Client("observer")
	for _, kind := range []string{visibility.KindWillChangeAreaVisibility, visibility.KindDidChangeAreaVisibility} {
		if _, err := observer.Subscribe(kind, rec.handle); err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
	}

	p, err := New(bus, l, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(p.Close)
	flush(t, p)
	return p, bus, rec
}

func flush(t *testing.T, p *Page) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
}

func effective(p *Page) map[string]bool {
	out := make(map[string]bool)
	for _, s := range p.Snapshot() {
		out[s.Name] = s.Effective
	}
	return out
}

func didTopics(topics []string) []string {
	var out []string
	for _, topic := range topics {
		if strings.HasPrefix(topic, visibility.KindDidChangeAreaVisibility+".") {
			out = append(out, topic)
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNew_InitialState(t *testing.T) {
	p, _, rec := newTestPage(t, testLayout)

	snap := p.Snapshot()
	wantOrder := []string{"main", "w1-content", "w1-details", "sidebar", "w3-panel"}
	if len(snap) != len(wantOrder) {
		t.Fatalf("Snapshot() has %d areas, want %d", len(snap), len(wantOrder))
	}
	for i, name := range wantOrder {
		if snap[i].Name != name {
			t.Errorf("Snapshot()[%d] = %q, want %q", i, snap[i].Name, name)
		}
	}
	if snap[1].Owner != "w1" || snap[1].Depth != 1 {
		t.Errorf("w1-content = %+v, want owner w1 at depth 1", snap[1])
	}

	want := map[string]bool{
		"main": true, "w1-content": true, "w1-details": false, "sidebar": true, "w3-panel": true,
	}
	for name, v := range want {
		if got := effective(p)[name]; got != v {
			t.Errorf("effective(%s) = %v, want %v", name, got, v)
		}
	}

	wantDid := []string{
		"didChangeAreaVisibility.main.true",
		"didChangeAreaVisibility.w1-content.true",
		"didChangeAreaVisibility.w1-details.false",
		"didChangeAreaVisibility.sidebar.true",
		"didChangeAreaVisibility.w3-panel.true",
	}
	if got := didTopics(rec.snapshot()); !equalStrings(got, wantDid) {
		t.Errorf("initial confirmations = %v, want %v", got, wantDid)
	}
}

func TestNew_WidgetsLearnContainerVisibility(t *testing.T) {
	p, _, _ := newTestPage(t, testLayout)

	for _, id := range []string{"w1", "w2", "w3"} {
		w, err := p.Widget(id)
		if err != nil {
			t.Fatalf("Widget(%s) failed: %v", id, err)
		}
		if !w.Confirmed || !w.Effective {
			t.Errorf("Widget(%s) = %+v, want confirmed and effective", id, w)
		}
	}
}

func TestRequest_CascadesToNestedAreas(t *testing.T) {
	p, _, rec := newTestPage(t, testLayout)
	rec.reset()

	if _, err := p.Request("main", false); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	flush(t, p)

	got := effective(p)
	if got["main"] || got["w1-content"] {
		t.Errorf("main and w1-content should be hidden, got %v", got)
	}
	if !got["sidebar"] || !got["w3-panel"] {
		t.Errorf("sidebar subtree should stay visible, got %v", got)
	}

	// w1-details was already hidden and is not confirmed again.
	want := []string{
		"willChangeAreaVisibility.main.false",
		"didChangeAreaVisibility.main.false",
		"willChangeAreaVisibility.w1-content.false",
		"didChangeAreaVisibility.w1-content.false",
	}
	if topics := rec.snapshot(); !equalStrings(topics, want) {
		t.Errorf("published %v, want %v", topics, want)
	}

	w1, _ := p.Widget("w1")
	if w1.Effective || w1.Confirmed {
		t.Errorf("w1 should follow its hidden container, got %+v", w1)
	}

	rec.reset()
	if _, err := p.Request("main", true); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	flush(t, p)

	if got := effective(p); !got["main"] || !got["w1-content"] || got["w1-details"] {
		t.Errorf("showing main should restore own visibility below it, got %v", got)
	}
}

func TestRequest_WidgetArea(t *testing.T) {
	p, _, rec := newTestPage(t, testLayout)
	rec.reset()

	if _, err := p.Request("w1-details", true); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	flush(t, p)

	if v, _ := p.Visible("w1-details"); !v {
		t.Error("w1-details should be visible")
	}
	want := []string{
		"willChangeAreaVisibility.w1-details.true",
		"didChangeAreaVisibility.w1-details.true",
	}
	if topics := rec.snapshot(); !equalStrings(topics, want) {
		t.Errorf("published %v, want %v", topics, want)
	}
}

func TestRequest_HiddenAncestorWins(t *testing.T) {
	p, _, rec := newTestPage(t, testLayout)

	_, _ = p.Request("sidebar", false)
	flush(t, p)
	rec.reset()

	// The area keeps its own flag but stays hidden; the request is still confirmed.
	_, _ = p.Request("w3-panel", true)
	flush(t, p)

	if v, _ := p.Visible("w3-panel"); v {
		t.Error("w3-panel should stay hidden under a hidden sidebar")
	}
	want := []string{"didChangeAreaVisibility.w3-panel.false"}
	if got := didTopics(rec.snapshot()); !equalStrings(got, want) {
		t.Errorf("confirmations = %v, want %v", got, want)
	}
}

func TestRequest_UnchangedIsStillConfirmed(t *testing.T) {
	p, _, rec := newTestPage(t, testLayout)
	rec.reset()

	_, _ = p.Request("main", true)
	flush(t, p)

	want := []string{
		"willChangeAreaVisibility.main.true",
		"didChangeAreaVisibility.main.true",
	}
	if topics := rec.snapshot(); !equalStrings(topics, want) {
		t.Errorf("published %v, want %v", topics, want)
	}
}

func TestRequestWidget(t *testing.T) {
	p, _, rec := newTestPage(t, testLayout)
	rec.reset()

	if _, err := p.RequestWidget("w3", false); err != nil {
		t.Fatalf("RequestWidget failed: %v", err)
	}
	flush(t, p)

	w3, err := p.Widget("w3")
	if err != nil {
		t.Fatalf("Widget failed: %v", err)
	}
	if w3.Own || w3.Effective {
		t.Errorf("w3 = %+v, want hidden", w3)
	}
	// The container did not change, so the widget's confirmation is unchanged.
	if !w3.Confirmed {
		t.Error("w3's container is still visible")
	}
	if v, _ := p.Visible("w3-panel"); v {
		t.Error("w3-panel should be hidden with its widget")
	}
	if v, _ := p.Visible("sidebar"); !v {
		t.Error("sidebar should stay visible")
	}

	want := []string{"didChangeAreaVisibility.w3-panel.false"}
	if got := didTopics(rec.snapshot()); !equalStrings(got, want) {
		t.Errorf("confirmations = %v, want %v", got, want)
	}
}

func TestRequest_UnknownTargets(t *testing.T) {
	p, _, rec := newTestPage(t, testLayout)
	rec.reset()

	_, _ = p.Request("nowhere", false)
	_, _ = p.RequestWidget("ghost", false)
	flush(t, p)

	if topics := rec.snapshot(); len(topics) != 0 {
		t.Errorf("unknown targets should not be confirmed, got %v", topics)
	}

	_, err := p.Visible("nowhere")
	if !errors.Is(err, errors.ErrUnknownArea) {
		t.Errorf("Visible() error = %v, want ErrUnknownArea", err)
	}
	var notFound *errors.NotFoundError
	if !errors.As(err, &notFound) || notFound.ResourceID != "nowhere" {
		t.Errorf("Visible() error = %v, want NotFoundError for nowhere", err)
	}

	if _, err := p.Widget("ghost"); !errors.Is(err, errors.ErrUnknownWidget) {
		t.Errorf("Widget() error = %v, want ErrUnknownWidget", err)
	}
}

func TestRequest_PrefixedNamesAreAnsweredOnce(t *testing.T) {
	const doc = `
areas:
  - name: side
  - name: side-bar
`
	p, _, rec := newTestPage(t, doc)
	rec.reset()

	_, _ = p.Request("side-bar", false)
	flush(t, p)

	want := []string{"didChangeAreaVisibility.side-bar.false"}
	if got := didTopics(rec.snapshot()); !equalStrings(got, want) {
		t.Errorf("confirmations = %v, want %v", got, want)
	}
	if v, _ := p.Visible("side"); !v {
		t.Error("side should not be affected by a request for side-bar")
	}
}

func TestRequest_FromHostedWidget(t *testing.T) {
	p, bus, rec := newTestPage(t, testLayout)
	rec.reset()

	// The widget publishes under its own id without self-delivery.
	w1 := &visibility.Context{
		Widget:   visibility.Widget{ID: "w1", Area: "main"},
		EventBus: bus.Client("w1"),
	}
	if _, err := visibility.PublisherForArea(w1, "w1-details")(true); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if _, err := visibility.PublisherForWidget(w1)(false); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	flush(t, p)

	want := []string{
		"didChangeAreaVisibility.w1-details.true",
		"didChangeAreaVisibility.w1-content.false",
		"didChangeAreaVisibility.w1-details.false",
	}
	if got := didTopics(rec.snapshot()); !equalStrings(got, want) {
		t.Errorf("confirmations = %v, want %v", got, want)
	}
}

func TestNew_ClosedBus(t *testing.T) {
	l, err := layout.Parse([]byte(testLayout))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	bus := event.NewBus()
	bus.Close()

	if _, err := New(bus, l, nil); !errors.Is(err, errors.ErrBusClosed) {
		t.Errorf("New() error = %v, want ErrBusClosed", err)
	}
}

func TestClose_ReleasesSubscriptions(t *testing.T) {
	l, err := layout.Parse([]byte(testLayout))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	bus := event.NewBus()
	defer bus.Close()

	p, err := New(bus, l, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if bus.SubscriptionCount() == 0 {
		t.Fatal("page should subscribe")
	}

	p.Close()
	if n := bus.SubscriptionCount(); n != 0 {
		t.Errorf("SubscriptionCount() = %d after Close, want 0", n)
	}
	p.Close()
	flush(t, p)
}

// wideLayout returns a layout with one page area holding n widgets of one
// area each.
func wideLayout(n int) string {
	var b strings.Builder
	b.WriteString("areas:\n  - name: main\n    widgets:\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "      - id: w%d\n        areas:\n          - name: a\n", i)
	}
	return b.String()
}

func TestNew_LayoutLargerThanQueue(t *testing.T) {
	const widgets = 150
	p, _, rec := newTestPage(t, wideLayout(widgets))

	dids := didTopics(rec.snapshot())
	if len(dids) != widgets+1 {
		t.Fatalf("initial confirmations = %d, want %d", len(dids), widgets+1)
	}
	if dids[len(dids)-1] != visibility.DidChangeTopicFor("w149-a", true) {
		t.Errorf("last confirmation = %q", dids[len(dids)-1])
	}
	if v, err := p.Visible("w149-a"); err != nil || !v {
		t.Errorf("Visible(w149-a) = %v, %v", v, err)
	}
}

func TestRequest_CascadeLargerThanQueue(t *testing.T) {
	const widgets = 150
	p, _, rec := newTestPage(t, wideLayout(widgets))
	rec.reset()

	if _, err := p.Request("main", false); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	flush(t, p)

	topics := rec.snapshot()
	if len(topics) != 2*(widgets+1) {
		t.Fatalf("confirmations = %d, want %d (will and did per area)", len(topics), 2*(widgets+1))
	}
	for i := 0; i < widgets; i++ {
		area := fmt.Sprintf("w%d-a", i)
		if v, _ := p.Visible(area); v {
			t.Errorf("%s should be hidden with main", area)
		}
		w, err := p.Widget(fmt.Sprintf("w%d", i))
		if err != nil {
			t.Fatalf("Widget failed: %v", err)
		}
		if w.Confirmed {
			t.Errorf("w%d should have learned that main is hidden", i)
		}
	}
}
