// Package visibility coordinates show/hide state for widgets and their named
// areas purely through event bus traffic.
//
// A widget never calls its renderer or its container directly. It subscribes
// to the subset of visibility traffic addressed to its own identity or to one
// of its areas, and it originates requests through the two publisher
// factories.
//
// # Topics
//
//	didChangeAreaVisibility.<area>[.<visible>]          confirmation, payload AreaChange
//	willChangeAreaVisibility.<area>.<visible>           announcement, payload AreaChange
//	changeAreaVisibilityRequest.<area>.<visible>        request, payload AreaRequest
//	changeAreaVisibilityRequest.<widgetId>              listener form for all areas of a widget
//	changeWidgetVisibilityRequest.<widgetId>.<visible>  request, payload WidgetRequest
//
// The will/did distinction is a naming convention. Nothing in this package
// checks that a handler answering a request eventually publishes the matching
// confirmation.
//
// # Usage
//
//	ctx := &visibility.Context{
//	    Widget:   visibility.Widget{ID: "w1", Area: "main"},
//	    EventBus: bus.Client("w1"),
//	}
//
//	vh, err := visibility.HandlerFor(ctx, visibility.Options{
//	    OnChange: func(m event.Message) { ... },
//	})
//	vh.RegisterArea(visibility.AreaName("w1", "content"), visibility.AreaOptions{
//	    OnRequest: answerContentRequest,
//	})
//	if err := vh.Err(); err != nil { ... }
//	defer vh.Close()
//
//	show := visibility.PublisherForWidget(ctx)
//	_, _ = show(true)
package visibility
