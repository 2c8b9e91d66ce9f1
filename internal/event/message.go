package event

import (
	"context"
	"time"
)

// Message is a single published event as seen by a handler.
type Message struct {
	Topic       string
	Payload     any
	Sender      string // ID of the publishing client
	PublishedAt time.Time
}

// Handler is a function that handles a message.
type Handler func(Message)

// publishConfig holds per-publish settings.
type publishConfig struct {
	deliverToSender bool
}

// PublishOption configures a single Publish call.
type PublishOption func(*publishConfig)

// DeliverToSender controls whether subscriptions owned by the publishing
// client receive the message. The default is true.
func DeliverToSender(deliver bool) PublishOption {
	return func(c *publishConfig) {
		c.deliverToSender = deliver
	}
}

// Delivery is the completion signal for one published message.
type Delivery struct {
	topic   string
	done    chan struct{}
	handled int
	err     error
}

func newDelivery(topic string) *Delivery {
	return &Delivery{
		topic: topic,
		done:  make(chan struct{}),
	}
}

// complete records the outcome and releases waiters. Called exactly once.
func (d *Delivery) complete(handled int, err error) {
	d.handled = handled
	d.err = err
	close(d.done)
}

// Topic returns the topic the message was published on.
func (d *Delivery) Topic() string {
	return d.topic
}

// Done returns a channel that is closed once dispatch has finished.
func (d *Delivery) Done() <-chan struct{} {
	return d.done
}

// Wait blocks until dispatch has finished or ctx is done.
// It returns the delivery error, if any, or the context error.
func (d *Delivery) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return d.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handled reports how many handlers were invoked. Only meaningful after Done.
func (d *Delivery) Handled() int {
	select {
	case <-d.done:
		return d.handled
	default:
		return 0
	}
}

// Err reports why the message was not dispatched. Only meaningful after Done.
func (d *Delivery) Err() error {
	select {
	case <-d.done:
		return d.err
	default:
		return nil
	}
}
