package visibility

import (
	"github.com/Iron-Ham/areavis/internal/errors"
	"github.com/Iron-Ham/areavis/internal/event"
	"github.com/Iron-Ham/areavis/internal/logging"
)

// EventBus is the transport a widget talks through. *event.Client satisfies it.
type EventBus interface {
	Subscribe(topic string, handler event.Handler) (string, error)
	Unsubscribe(id string) bool
	Publish(topic string, payload any, opts ...event.PublishOption) (*event.Delivery, error)
}

// Widget identifies a widget instance and the area that contains it.
type Widget struct {
	ID   string
	Area string
}

// Context binds a widget instance to its messaging channel.
type Context struct {
	Widget   Widget
	EventBus EventBus
	Logger   *logging.Logger // optional
}

func (c *Context) bus() (EventBus, error) {
	if c == nil || c.EventBus == nil {
		return nil, errors.ErrNoEventBus
	}
	return c.EventBus, nil
}

func (c *Context) widget() Widget {
	if c == nil {
		return Widget{}
	}
	return c.Widget
}

func (c *Context) logger() *logging.Logger {
	if c == nil || c.Logger == nil {
		return logging.NopLogger()
	}
	return c.Logger
}
