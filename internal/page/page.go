// Package page hosts a layout on an event bus. It owns the area tree,
// answers visibility requests with will/did confirmations and cascades
// visibility changes to nested areas.
//
// Every widget in the layout is hosted by a visibility.Coordinator of its
// own: the coordinator follows the widget's container through OnChange and
// answers requests for the widget's areas through OnAnyAreaRequest. Page-level
// areas are answered by the page's coordinator.
package page

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/Iron-Ham/areavis/internal/errors"
	"github.com/Iron-Ham/areavis/internal/event"
	"github.com/Iron-Ham/areavis/internal/layout"
	"github.com/Iron-Ham/areavis/internal/logging"
	"github.com/Iron-Ham/areavis/internal/visibility"
)

const (
	// ClientID is the bus identity of the page host.
	ClientID = "page"
	// DriverID is the bus identity used by Request and RequestWidget.
	DriverID = "driver"
)

// retryWait bounds how long a confirmation rejected by a full bus queue waits
// for the queue to drain before it is published again.
const retryWait = 50 * time.Millisecond

// AreaState is the visibility of one area.
type AreaState struct {
	Name      string
	Owner     string // owning widget id, empty for page areas
	Depth     int
	Own       bool // requested visibility of the area itself
	Effective bool // own visibility combined with every ancestor
}

// WidgetState is the visibility of one widget.
type WidgetState struct {
	ID        string
	Area      string
	Own       bool
	Effective bool
	// Confirmed is what the widget's coordinator last heard about its container.
	Confirmed bool
}

type areaNode struct {
	info      layout.AreaInfo
	own       bool
	effective bool
}

type widgetNode struct {
	info      layout.WidgetInfo
	own       bool
	effective bool
}

// confirmation is a will/did pair waiting to be published.
type confirmation struct {
	area    string
	visible bool
}

// Page is a running layout host.
type Page struct {
	bus    *event.Bus
	ctx    *visibility.Context
	driver *visibility.Context
	logger *logging.Logger

	mu      sync.Mutex
	tree    []layout.TreeEntry
	areas   map[string]*areaNode
	widgets map[string]*widgetNode

	coordinators map[string]*visibility.Coordinator
	self         *visibility.Coordinator
	subs         []string

	// Confirmations are published in order by a single goroutine so that
	// handlers on the dispatcher never block on a full bus queue.
	outMu      sync.Mutex
	outbox     []confirmation
	outPending int
	outIdle    chan struct{}
	outClosed  bool
	wake       chan struct{}
	runCtx     context.Context
	stop       context.CancelFunc
	wg         conc.WaitGroup
}

// New hosts l on bus. It registers one coordinator per widget, answers
// requests for page areas and publishes an initial confirmation for every
// area so widgets learn their starting visibility.
func New(bus *event.Bus, l *layout.Layout, logger *logging.Logger) (*Page, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}

	areaInfo, widgetInfo := l.Index()
	p := &Page{
		bus:          bus,
		logger:       logger.WithWidget(ClientID),
		tree:         l.Tree(),
		areas:        make(map[string]*areaNode, len(areaInfo)),
		widgets:      make(map[string]*widgetNode, len(widgetInfo)),
		coordinators: make(map[string]*visibility.Coordinator, len(widgetInfo)),
		wake:         make(chan struct{}, 1),
	}
	p.runCtx, p.stop = context.WithCancel(context.Background())
	p.ctx = &visibility.Context{
		Widget:   visibility.Widget{ID: ClientID},
		EventBus: bus.Client(ClientID),
		Logger:   p.logger,
	}
	p.driver = &visibility.Context{
		Widget:   visibility.Widget{ID: DriverID},
		EventBus: bus.Client(DriverID),
		Logger:   logger.WithWidget(DriverID),
	}

	for name, info := range areaInfo {
		p.areas[name] = &areaNode{info: info, own: info.Visible}
	}
	for id, info := range widgetInfo {
		p.widgets[id] = &widgetNode{info: info, own: true}
	}
	p.recompute()

	if err := p.wire(l); err != nil {
		p.Close()
		return nil, err
	}
	p.wg.Go(p.deliver)

	// Hold mu so no request changes state between this snapshot and its enqueue.
	p.mu.Lock()
	initial := make([]confirmation, 0, len(p.tree))
	for _, entry := range p.tree {
		initial = append(initial, confirmation{area: entry.Name, visible: p.areas[entry.Name].effective})
	}
	p.enqueue(initial)
	p.mu.Unlock()
	return p, nil
}

func (p *Page) wire(l *layout.Layout) error {
	self, err := visibility.HandlerFor(p.ctx)
	if err != nil {
		return err
	}
	p.self = self
	for _, root := range l.RootAreas() {
		self.RegisterArea(root, visibility.AreaOptions{OnRequest: p.answer(root, "")})
	}
	if err := self.Err(); err != nil {
		return err
	}

	for id, w := range p.widgets {
		wctx := &visibility.Context{
			Widget:   visibility.Widget{ID: id, Area: w.info.Area},
			EventBus: p.bus.Client(hostClientID(id)),
			Logger:   p.logger.WithWidget(id),
		}
		opts := visibility.Options{
			OnChange: func(m event.Message) {
				wctx.Logger.Debug("container visibility changed", "topic", m.Topic)
			},
		}
		if len(w.info.Areas) > 0 {
			opts.OnAnyAreaRequest = p.answer("", id)
		}
		c, err := visibility.HandlerFor(wctx, opts)
		if err != nil {
			return err
		}
		p.coordinators[id] = c
	}

	client := p.ctx.EventBus
	for topic, h := range map[string]event.Handler{
		visibility.KindChangeWidgetVisibilityRequest: p.handleWidgetRequest,
		visibility.KindChangeAreaVisibilityRequest:   p.handleUnknownArea,
	} {
		id, err := client.Subscribe(topic, h)
		if err != nil {
			return err
		}
		p.subs = append(p.subs, id)
	}
	return nil
}

// hostClientID is the bus identity the page hosts widget id under. It
// differs from the widget's own identity so that requests the widget
// publishes without self-delivery still reach its host.
func hostClientID(id string) string {
	return ClientID + ":" + id
}

// answer returns the request handler for either a page area (root) or the
// areas owned by a widget (owner). Topic matching is prefix based, so a
// handler also sees requests for areas it does not own; those are ignored.
func (p *Page) answer(root, owner string) event.Handler {
	return func(m event.Message) {
		area, visible, ok := decodeRequest(m)
		if !ok {
			p.logger.Warn("malformed area request", "topic", m.Topic)
			return
		}

		p.mu.Lock()
		node, known := p.areas[area]
		if !known || node.info.Owner != owner || (root != "" && area != root) {
			p.mu.Unlock()
			return
		}
		p.apply(m, node, visible)
	}
}

// apply updates an area and publishes the resulting cascade. Called with
// p.mu held; it is released before publishing.
func (p *Page) apply(m event.Message, node *areaNode, visible bool) {
	area := node.info.Name
	node.own = visible
	changed := p.recompute()
	effective := node.effective
	p.mu.Unlock()

	p.logger.WithArea(area).Info("area visibility requested", "visible", visible, "sender", m.Sender)
	p.publishChanges(area, effective, changed)
}

// handleWidgetRequest applies a changeWidgetVisibilityRequest by hiding or
// showing every area the widget owns.
func (p *Page) handleWidgetRequest(m event.Message) {
	req, ok := decodeWidgetRequest(m)
	if !ok {
		p.logger.Warn("malformed widget request", "topic", m.Topic)
		return
	}

	p.mu.Lock()
	node, known := p.widgets[req.Widget]
	if !known {
		p.mu.Unlock()
		p.logger.Warn("request for unknown widget", "widget", req.Widget, "sender", m.Sender)
		return
	}
	node.own = req.Visible
	changed := p.recompute()
	p.mu.Unlock()

	p.logger.Info("widget visibility requested", "widget", req.Widget, "visible", req.Visible, "sender", m.Sender)
	p.publishChanges("", false, changed)
}

// handleUnknownArea logs requests nobody in the layout answers.
func (p *Page) handleUnknownArea(m event.Message) {
	area, _, ok := decodeRequest(m)
	if !ok {
		return
	}
	p.mu.Lock()
	_, known := p.areas[area]
	p.mu.Unlock()
	if !known {
		p.logger.Warn("request for unknown area", "area", area, "sender", m.Sender)
	}
}

// publishChanges confirms the requested area (even when unchanged) and every
// area whose effective visibility changed, in tree order.
func (p *Page) publishChanges(requested string, requestedVisible bool, changed map[string]bool) {
	var batch []confirmation
	for _, entry := range p.tree {
		visible, ok := changed[entry.Name]
		if !ok && entry.Name != requested {
			continue
		}
		if !ok {
			visible = requestedVisible
		}
		batch = append(batch, confirmation{area: entry.Name, visible: visible})
	}
	p.enqueue(batch)
}

// enqueue hands a batch of confirmations to the delivery goroutine.
func (p *Page) enqueue(batch []confirmation) {
	if len(batch) == 0 {
		return
	}

	p.outMu.Lock()
	if p.outClosed {
		p.outMu.Unlock()
		return
	}
	if p.outPending == 0 {
		p.outIdle = make(chan struct{})
	}
	p.outPending += len(batch)
	p.outbox = append(p.outbox, batch...)
	p.outMu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest queued confirmation.
func (p *Page) next() (confirmation, bool) {
	p.outMu.Lock()
	defer p.outMu.Unlock()

	if len(p.outbox) == 0 {
		return confirmation{}, false
	}
	c := p.outbox[0]
	p.outbox = p.outbox[1:]
	return c, true
}

// delivered marks one confirmation as published or abandoned.
func (p *Page) delivered() {
	p.outMu.Lock()
	defer p.outMu.Unlock()

	p.outPending--
	if p.outPending == 0 && p.outIdle != nil {
		close(p.outIdle)
		p.outIdle = nil
	}
}

// deliver publishes queued confirmations until the page is closed.
func (p *Page) deliver() {
	for {
		select {
		case <-p.runCtx.Done():
			return
		case <-p.wake:
		}

		for p.runCtx.Err() == nil {
			c, ok := p.next()
			if !ok {
				break
			}
			if err := p.confirm(c.area, c.visible); err != nil {
				p.logger.WithArea(c.area).Error("failed to confirm area visibility",
					"error", err.Error(),
					"severity", errors.GetSeverity(err).String())
			}
			p.delivered()
		}
	}
}

func (p *Page) confirm(area string, visible bool) error {
	if err := p.publish(visibility.PublisherForAreaWill(p.ctx, area), visible); err != nil {
		return err
	}
	return p.publish(visibility.PublisherForAreaDid(p.ctx, area), visible)
}

// publish retries while the bus rejects the message as retryable, waiting
// for the queue to drain in between. It gives up once the page is closed.
func (p *Page) publish(pub visibility.Publisher, visible bool) error {
	for {
		_, err := pub(visible)
		if err == nil || !errors.IsRetryable(err) {
			return err
		}

		ctx, cancel := context.WithTimeout(p.runCtx, retryWait)
		_ = p.bus.Flush(ctx)
		cancel()
		if p.runCtx.Err() != nil {
			return err
		}
	}
}

// recompute refreshes effective visibility top-down and returns the areas
// whose effective visibility changed. Callers hold p.mu.
func (p *Page) recompute() map[string]bool {
	changed := make(map[string]bool)
	for _, entry := range p.tree {
		node := p.areas[entry.Name]
		parent := true
		if entry.Owner != "" {
			w := p.widgets[entry.Owner]
			container := p.areas[w.info.Area]
			w.effective = w.own && container.effective
			parent = w.effective
		}
		effective := node.own && parent
		if effective != node.effective {
			changed[entry.Name] = effective
		}
		node.effective = effective
	}
	for _, w := range p.widgets {
		w.effective = w.own && p.areas[w.info.Area].effective
	}
	return changed
}

// decodeRequest reads the target area and flag of an area request.
func decodeRequest(m event.Message) (string, bool, bool) {
	if req, ok := m.Payload.(visibility.AreaRequest); ok {
		return req.Area, req.Visible, true
	}
	segments := strings.Split(m.Topic, ".")
	if len(segments) < 3 {
		return "", false, false
	}
	visible, ok := visibility.VisibleFrom(m)
	return segments[1], visible, ok
}

func decodeWidgetRequest(m event.Message) (visibility.WidgetRequest, bool) {
	if req, ok := m.Payload.(visibility.WidgetRequest); ok {
		return req, true
	}
	segments := strings.Split(m.Topic, ".")
	if len(segments) < 3 {
		return visibility.WidgetRequest{}, false
	}
	visible, ok := visibility.VisibleFrom(m)
	return visibility.WidgetRequest{Widget: segments[1], Visible: visible}, ok
}

// Visible returns the effective visibility of area.
func (p *Page) Visible(area string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	node, ok := p.areas[area]
	if !ok {
		return false, errors.NewNotFoundError("area", area).WithCause(errors.ErrUnknownArea)
	}
	return node.effective, nil
}

// Widget returns the state of a hosted widget.
func (p *Page) Widget(id string) (WidgetState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	node, ok := p.widgets[id]
	if !ok {
		return WidgetState{}, errors.NewNotFoundError("widget", id).WithCause(errors.ErrUnknownWidget)
	}
	return WidgetState{
		ID:        id,
		Area:      node.info.Area,
		Own:       node.own,
		Effective: node.effective,
		Confirmed: p.coordinators[id].IsVisible(),
	}, nil
}

// Snapshot returns every area in tree order.
func (p *Page) Snapshot() []AreaState {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]AreaState, 0, len(p.tree))
	for _, entry := range p.tree {
		node := p.areas[entry.Name]
		out = append(out, AreaState{
			Name:      entry.Name,
			Owner:     entry.Owner,
			Depth:     entry.Depth,
			Own:       node.own,
			Effective: node.effective,
		})
	}
	return out
}

// Request asks for area to be shown or hidden, as any widget would.
func (p *Page) Request(area string, visible bool) (*event.Delivery, error) {
	return visibility.PublisherForArea(p.driver, area)(visible)
}

// RequestWidget asks for a widget to be shown or hidden.
func (p *Page) RequestWidget(id string, visible bool) (*event.Delivery, error) {
	ctx := &visibility.Context{
		Widget:   visibility.Widget{ID: id},
		EventBus: p.driver.EventBus,
		Logger:   p.driver.Logger,
	}
	return visibility.PublisherForWidget(ctx)(visible)
}

// Flush waits until every pending confirmation has been published and all
// queued visibility traffic has been dispatched.
func (p *Page) Flush(ctx context.Context) error {
	for {
		if err := p.waitOutbox(ctx); err != nil {
			return err
		}
		if err := p.bus.Flush(ctx); err != nil {
			return err
		}
		// Handlers run during the bus flush may have queued more.
		p.outMu.Lock()
		idle := p.outPending == 0
		p.outMu.Unlock()
		if idle {
			return nil
		}
	}
}

func (p *Page) waitOutbox(ctx context.Context) error {
	p.outMu.Lock()
	idle := p.outIdle
	p.outMu.Unlock()

	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops publishing confirmations and releases every subscription the
// page made. Confirmations still queued are dropped.
func (p *Page) Close() {
	p.outMu.Lock()
	p.outClosed = true
	p.outMu.Unlock()
	p.stop()
	p.wg.Wait()

	p.outMu.Lock()
	p.outbox = nil
	p.outPending = 0
	if p.outIdle != nil {
		close(p.outIdle)
		p.outIdle = nil
	}
	p.outMu.Unlock()

	for _, c := range p.coordinators {
		c.Close()
	}
	if p.self != nil {
		p.self.Close()
	}
	for _, id := range p.subs {
		p.ctx.EventBus.Unsubscribe(id)
	}
	p.subs = nil
}
