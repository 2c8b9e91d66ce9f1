package visibility

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Iron-Ham/areavis/internal/errors"
	"github.com/Iron-Ham/areavis/internal/event"
	"github.com/Iron-Ham/areavis/internal/logging"
)

// Options configures HandlerFor. Nil handlers are inert.
type Options struct {
	// OnChange is called when the area containing this widget changes
	// visibility, which is this widget's own effective visibility.
	OnChange event.Handler
	// OnAnyAreaRequest is called for every request addressed to one of this
	// widget's areas. It must answer with will/did events for the area.
	OnAnyAreaRequest event.Handler
}

// AreaOptions configures RegisterArea. Nil handlers are inert.
type AreaOptions struct {
	// OnChange is called when the area changed visibility.
	OnChange event.Handler
	// OnRequest is called for requests to change the area's visibility and
	// must answer with will/did events. Do not combine with
	// Options.OnAnyAreaRequest or overlapping requests are handled twice.
	OnRequest event.Handler
}

// Disposer releases the subscriptions of one registration. Calling it more
// than once is a no-op.
type Disposer func()

// Coordinator manages the visibility subscriptions of one widget instance.
type Coordinator struct {
	ctx    *Context
	logger *logging.Logger

	mu   sync.Mutex
	subs []string
	err  error

	visible atomic.Bool
}

// HandlerFor creates a Coordinator bound to ctx. Later Options override
// earlier ones field by field. Without handlers no subscription is made.
//
// Bus errors are returned as raised; any subscription made before the
// failure is released.
func HandlerFor(ctx *Context, opts ...Options) (*Coordinator, error) {
	o := mergeOptions(opts)
	w := ctx.widget()

	c := &Coordinator{
		ctx:    ctx,
		logger: ctx.logger().WithWidget(w.ID),
	}

	var ids []string
	if o.OnChange != nil {
		id, err := c.subscribe(DidChangeTopic(w.Area), c.trackVisibility(o.OnChange))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if o.OnAnyAreaRequest != nil {
		id, err := c.subscribe(AreaRequestTopic(w.ID), o.OnAnyAreaRequest)
		if err != nil {
			c.release(ids)
			return nil, err
		}
		ids = append(ids, id)
	}

	c.subs = append(c.subs, ids...)
	return c, nil
}

// RegisterArea subscribes to traffic about a single area and returns the
// coordinator for chaining. Registering the same area again adds further
// subscriptions. A bus failure is kept and reported by Err; once it is set,
// later registrations are skipped.
func (c *Coordinator) RegisterArea(area string, opts ...AreaOptions) *Coordinator {
	c.mu.Lock()
	failed := c.err != nil
	c.mu.Unlock()
	if failed {
		return c
	}

	ids, err := c.registerArea(area, mergeAreaOptions(opts))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, ids...)
	if err != nil {
		c.err = errors.Wrapf(err, "register area %q", area)
	}
	return c
}

// RegisterAreaScoped is RegisterArea with a disposer for just this
// registration. It does not touch the sticky error.
func (c *Coordinator) RegisterAreaScoped(area string, opts ...AreaOptions) (Disposer, error) {
	ids, err := c.registerArea(area, mergeAreaOptions(opts))
	if err != nil {
		c.release(ids)
		return func() {}, err
	}

	c.mu.Lock()
	c.subs = append(c.subs, ids...)
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.subs = slices.DeleteFunc(c.subs, func(id string) bool {
				return slices.Contains(ids, id)
			})
			c.mu.Unlock()
			c.release(ids)
		})
	}, nil
}

// registerArea returns the ids it subscribed, even on failure.
func (c *Coordinator) registerArea(area string, o AreaOptions) ([]string, error) {
	var ids []string
	if o.OnChange != nil {
		id, err := c.subscribe(DidChangeTopic(area), o.OnChange)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	if o.OnRequest != nil {
		id, err := c.subscribe(AreaRequestTopic(area), o.OnRequest)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Err returns the first error hit by RegisterArea, or nil.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// IsVisible reports the visibility most recently confirmed for the widget's
// containing area. It is only tracked when Options.OnChange was given and is
// false until the first confirmation arrives.
func (c *Coordinator) IsVisible() bool {
	return c.visible.Load()
}

// Close releases every subscription the coordinator holds.
func (c *Coordinator) Close() {
	c.mu.Lock()
	ids := c.subs
	c.subs = nil
	c.mu.Unlock()

	c.release(ids)
}

func (c *Coordinator) subscribe(topic string, handler event.Handler) (string, error) {
	bus, err := c.ctx.bus()
	if err != nil {
		return "", err
	}

	id, err := bus.Subscribe(topic, handler)
	if err != nil {
		return "", err
	}
	c.logger.Debug("subscribed", "topic", topic, "subscription", id)
	return id, nil
}

func (c *Coordinator) release(ids []string) {
	if len(ids) == 0 {
		return
	}
	bus, err := c.ctx.bus()
	if err != nil {
		return
	}
	for _, id := range ids {
		bus.Unsubscribe(id)
	}
	c.logger.Debug("released subscriptions", "count", len(ids))
}

// trackVisibility records the confirmed visibility before calling h.
func (c *Coordinator) trackVisibility(h event.Handler) event.Handler {
	return func(m event.Message) {
		if v, ok := VisibleFrom(m); ok {
			c.visible.Store(v)
		}
		h(m)
	}
}

func mergeOptions(opts []Options) Options {
	var o Options
	for _, opt := range opts {
		if opt.OnChange != nil {
			o.OnChange = opt.OnChange
		}
		if opt.OnAnyAreaRequest != nil {
			o.OnAnyAreaRequest = opt.OnAnyAreaRequest
		}
	}
	return o
}

func mergeAreaOptions(opts []AreaOptions) AreaOptions {
	var o AreaOptions
	for _, opt := range opts {
		if opt.OnChange != nil {
			o.OnChange = opt.OnChange
		}
		if opt.OnRequest != nil {
			o.OnRequest = opt.OnRequest
		}
	}
	return o
}
