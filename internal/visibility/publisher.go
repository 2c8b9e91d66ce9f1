package visibility

import "github.com/Iron-Ham/areavis/internal/event"

// Publisher requests (or confirms) a visibility state. It returns the bus's
// completion signal unchanged.
type Publisher func(visible bool) (*event.Delivery, error)

// PublisherForWidget returns a Publisher that asks for this widget to be
// shown or hidden. The widget's own subscriptions never see the request.
func PublisherForWidget(ctx *Context) Publisher {
	return func(visible bool) (*event.Delivery, error) {
		id := ctx.widget().ID
		return publish(ctx, WidgetRequestTopicFor(id, visible), WidgetRequest{
			Widget:  id,
			Visible: visible,
		}, event.DeliverToSender(false))
	}
}

// PublisherForArea returns a Publisher that asks for area to be shown or
// hidden. The sender's own subscriptions never see the request.
func PublisherForArea(ctx *Context, area string) Publisher {
	return func(visible bool) (*event.Delivery, error) {
		return publish(ctx, AreaRequestTopicFor(area, visible), AreaRequest{
			Area:    area,
			Visible: visible,
		}, event.DeliverToSender(false))
	}
}

// PublisherForAreaWill returns a Publisher announcing that area is about to
// change visibility.
func PublisherForAreaWill(ctx *Context, area string) Publisher {
	return func(visible bool) (*event.Delivery, error) {
		return publish(ctx, WillChangeTopicFor(area, visible), AreaChange{Area: area, Visible: visible})
	}
}

// PublisherForAreaDid returns a Publisher confirming that area changed
// visibility.
func PublisherForAreaDid(ctx *Context, area string) Publisher {
	return func(visible bool) (*event.Delivery, error) {
		return publish(ctx, DidChangeTopicFor(area, visible), AreaChange{Area: area, Visible: visible})
	}
}

func publish(ctx *Context, topic string, payload any, opts ...event.PublishOption) (*event.Delivery, error) {
	bus, err := ctx.bus()
	if err != nil {
		return nil, err
	}
	ctx.logger().Debug("publishing", "topic", topic)
	return bus.Publish(topic, payload, opts...)
}
