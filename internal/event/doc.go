// Package event provides an asynchronous topic-based pub-sub event bus.
//
// Components talk through the bus rather than through direct method calls.
// Each participant obtains a [Client] from the [Bus]; the client carries a
// sender identity so that a publisher can ask the bus not to deliver its own
// message back to it (see [DeliverToSender]).
//
// # Topics
//
// Topics are dot-separated segments, for example
// "changeAreaVisibilityRequest.sidebar.true". A subscription pattern matches
// a topic when its segments are a prefix of the topic's segments. A pattern
// segment matches a topic segment when the two are equal, when the topic
// segment continues with a dash-separated subtopic ("w1" matches "w1-content"),
// or when the pattern segment is "*". The pattern "*" matches every topic.
//
// # Delivery
//
// Publish never blocks. Messages are queued and dispatched by a single
// goroutine, so handlers run one at a time in publish order. Publish returns a
// [Delivery] which completes once every matching handler has run. When the
// queue is full the message is rejected with ErrQueueFull; delivery is best
// effort.
//
// A panicking handler is recovered and logged and does not prevent other
// handlers from being called.
//
// # Basic Usage
//
//	bus := event.NewBus(event.WithQueueSize(64))
//	defer bus.Close()
//
//	widget := bus.Client("w1")
//	id, _ := widget.Subscribe("didChangeAreaVisibility.main", func(m event.Message) {
//	    log.Printf("%s: %v", m.Topic, m.Payload)
//	})
//	defer widget.Unsubscribe(id)
//
//	page := bus.Client("page")
//	d, _ := page.Publish("didChangeAreaVisibility.main.true", payload)
//	_ = d.Wait(ctx)
package event
