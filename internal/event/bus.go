package event

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"

	"github.com/Iron-Ham/areavis/internal/errors"
	"github.com/Iron-Ham/areavis/internal/logging"
)

// DefaultQueueSize is the number of messages the bus buffers before
// rejecting publishes with ErrQueueFull.
const DefaultQueueSize = 256

// subscription represents a registered handler.
type subscription struct {
	id      string
	pattern string
	owner   string
	handler Handler
}

// envelope is a queued message awaiting dispatch.
type envelope struct {
	msg             Message
	deliverToSender bool
	delivery        *Delivery
}

// Bus is an asynchronous pub-sub event bus.
// It allows components to communicate without direct dependencies.
type Bus struct {
	mu            sync.RWMutex
	subscriptions []subscription // registration order
	closed        bool
	nextID        atomic.Uint64

	queue       chan envelope
	quit        chan struct{}
	done        chan struct{}
	dispatching atomic.Bool // a handler is running
	logger      *logging.Logger

	pendingMu sync.Mutex
	pending   int
	idle      chan struct{}
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithQueueSize sets the dispatch queue capacity. Values below 1 are ignored.
func WithQueueSize(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.queue = make(chan envelope, n)
		}
	}
}

// WithLogger attaches a logger for dispatch tracing and handler panics.
func WithLogger(logger *logging.Logger) BusOption {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBus creates a new event bus and starts its dispatcher.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		queue:  make(chan envelope, DefaultQueueSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.run()
	return b
}

// Client returns a handle that subscribes and publishes as the given sender.
// An empty name gets a random identity.
func (b *Bus) Client(name string) *Client {
	if name == "" {
		name = uuid.NewString()
	}
	return &Client{bus: b, id: name}
}

func (b *Bus) subscribe(owner, pattern string, handler Handler) (string, error) {
	if handler == nil {
		return "", errors.NewBusError("subscribe rejected", errors.ErrNilHandler).
			WithTopic(pattern).WithClient(owner)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return "", errors.NewBusError("subscribe rejected", errors.ErrBusClosed).
			WithTopic(pattern).WithClient(owner)
	}

	id := "sub-" + strconv.FormatUint(b.nextID.Add(1), 10)
	b.subscriptions = append(b.subscriptions, subscription{
		id:      id,
		pattern: pattern,
		owner:   owner,
		handler: handler,
	})
	b.logger.Debug("subscribed", "topic", pattern, "client", owner, "subscription", id)
	return id, nil
}

// Unsubscribe removes a subscription by ID.
// Returns true if the subscription was found and removed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscriptions {
		if sub.id == id {
			b.subscriptions = append(b.subscriptions[:i:i], b.subscriptions[i+1:]...)
			return true
		}
	}
	return false
}

func (b *Bus) publish(sender, topic string, payload any, opts ...PublishOption) (*Delivery, error) {
	if !validTopic(topic) {
		return nil, errors.NewBusError("publish rejected", errors.ErrInvalidTopic).
			WithTopic(topic).WithClient(sender)
	}

	cfg := publishConfig{deliverToSender: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	env := envelope{
		msg: Message{
			Topic:       topic,
			Payload:     payload,
			Sender:      sender,
			PublishedAt: time.Now(),
		},
		deliverToSender: cfg.deliverToSender,
		delivery:        newDelivery(topic),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, errors.NewBusError("publish rejected", errors.ErrBusClosed).
			WithTopic(topic).WithClient(sender)
	}

	b.addPending(1)
	select {
	case b.queue <- env:
	default:
		b.addPending(-1)
		b.logger.Warn("message dropped", "topic", topic, "client", sender)
		return nil, errors.NewBusError("publish rejected", errors.ErrQueueFull).
			WithTopic(topic).WithClient(sender).WithSeverity(errors.SeverityWarning)
	}

	b.logger.Debug("published", "topic", topic, "client", sender)
	return env.delivery, nil
}

// run is the dispatcher loop.
func (b *Bus) run() {
	defer close(b.done)

	for {
		select {
		case env := <-b.queue:
			b.dispatch(env)
		case <-b.quit:
			b.drain()
			return
		}
	}
}

// drain fails every queued message after Close.
func (b *Bus) drain() {
	for {
		select {
		case env := <-b.queue:
			env.delivery.complete(0, errors.NewBusError("not dispatched", errors.ErrBusClosed).
				WithTopic(env.msg.Topic))
			b.addPending(-1)
		default:
			return
		}
	}
}

// dispatch delivers one message to every matching subscription in
// registration order.
func (b *Bus) dispatch(env envelope) {
	b.mu.RLock()
	matched := make([]subscription, 0, 4)
	for _, sub := range b.subscriptions {
		if !Matches(sub.pattern, env.msg.Topic) {
			continue
		}
		if !env.deliverToSender && sub.owner == env.msg.Sender {
			continue
		}
		matched = append(matched, sub)
	}
	b.mu.RUnlock()

	b.dispatching.Store(true)
	for _, sub := range matched {
		b.safeCall(sub, env.msg)
	}
	b.dispatching.Store(false)

	b.logger.Debug("dispatched", "topic", env.msg.Topic, "handlers", len(matched))
	env.delivery.complete(len(matched), nil)
	b.addPending(-1)
}

// safeCall invokes a handler and recovers from any panics.
func (b *Bus) safeCall(sub subscription, msg Message) {
	var pc panics.Catcher
	pc.Try(func() { sub.handler(msg) })

	if r := pc.Recovered(); r != nil {
		b.logger.Error("event handler panicked",
			"topic", msg.Topic,
			"subscription", sub.id,
			"client", sub.owner,
			"panic", r.Value,
			"stack", string(r.Stack))
	}
}

func (b *Bus) addPending(delta int) {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()

	if b.pending == 0 && delta > 0 {
		b.idle = make(chan struct{})
	}
	b.pending += delta
	if b.pending == 0 && b.idle != nil {
		close(b.idle)
		b.idle = nil
	}
}

// Flush waits until every queued message, including messages published by
// handlers while flushing, has been dispatched.
func (b *Bus) Flush(ctx context.Context) error {
	b.pendingMu.Lock()
	idle := b.idle
	b.pendingMu.Unlock()

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

// Close stops the dispatcher. Queued messages complete with ErrBusClosed and
// further subscribe or publish calls fail. Close is idempotent.
//
// Close waits for the dispatcher to exit unless a handler is running, which
// is always the case when a handler calls Close itself. The dispatcher then
// stops once that handler returns.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.quit)
	b.mu.Unlock()

	if b.dispatching.Load() {
		return
	}
	<-b.done
}

// SubscriptionCount returns the total number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions)
}

// Client is a sender identity on a Bus.
type Client struct {
	bus *Bus
	id  string
}

// ID returns the client's sender identity.
func (c *Client) ID() string {
	return c.id
}

// Subscribe registers handler for every topic matching pattern.
// Returns a subscription ID that can be used to unsubscribe.
func (c *Client) Subscribe(pattern string, handler Handler) (string, error) {
	return c.bus.subscribe(c.id, pattern, handler)
}

// Unsubscribe removes a subscription by ID.
func (c *Client) Unsubscribe(id string) bool {
	return c.bus.Unsubscribe(id)
}

// Publish queues payload on topic and returns its completion signal.
func (c *Client) Publish(topic string, payload any, opts ...PublishOption) (*Delivery, error) {
	return c.bus.publish(c.id, topic, payload, opts...)
}
