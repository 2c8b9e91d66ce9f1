package visibility

import (
	"strconv"
	"strings"
)

// Event kinds, the first segment of every visibility topic.
const (
	KindDidChangeAreaVisibility       = "didChangeAreaVisibility"
	KindWillChangeAreaVisibility      = "willChangeAreaVisibility"
	KindChangeAreaVisibilityRequest   = "changeAreaVisibilityRequest"
	KindChangeWidgetVisibilityRequest = "changeWidgetVisibilityRequest"
)

// Topic dot-joins an event kind and its target segments.
func Topic(kind string, segments ...string) string {
	return strings.Join(append([]string{kind}, segments...), ".")
}

// DidChangeTopic is the listener topic for confirmations about area.
func DidChangeTopic(area string) string {
	return Topic(KindDidChangeAreaVisibility, area)
}

// DidChangeTopicFor is the topic a confirmation about area is published on.
func DidChangeTopicFor(area string, visible bool) string {
	return Topic(KindDidChangeAreaVisibility, area, strconv.FormatBool(visible))
}

// WillChangeTopicFor is the topic an announcement about area is published on.
func WillChangeTopicFor(area string, visible bool) string {
	return Topic(KindWillChangeAreaVisibility, area, strconv.FormatBool(visible))
}

// AreaRequestTopic is the listener topic for requests addressed to target,
// which is either an area name or a widget id.
func AreaRequestTopic(target string) string {
	return Topic(KindChangeAreaVisibilityRequest, target)
}

// AreaRequestTopicFor is the topic a request to show or hide area is
// published on.
func AreaRequestTopicFor(area string, visible bool) string {
	return Topic(KindChangeAreaVisibilityRequest, area, strconv.FormatBool(visible))
}

// WidgetRequestTopicFor is the topic a request to show or hide a widget is
// published on.
func WidgetRequestTopicFor(widgetID string, visible bool) string {
	return Topic(KindChangeWidgetVisibilityRequest, widgetID, strconv.FormatBool(visible))
}

// AreaName returns the bus name of a widget-local area. Requests for it also
// reach listeners on AreaRequestTopic(widgetID).
func AreaName(widgetID, local string) string {
	return widgetID + "-" + local
}
