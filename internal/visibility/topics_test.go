package visibility

import (
	"testing"

	"github.com/Iron-Ham/areavis/internal/event"
)

func TestTopics(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"did listener", DidChangeTopic("main"), "didChangeAreaVisibility.main"},
		{"did publish", DidChangeTopicFor("main", false), "didChangeAreaVisibility.main.false"},
		{"will publish", WillChangeTopicFor("main", true), "willChangeAreaVisibility.main.true"},
		{"area listener", AreaRequestTopic("w1"), "changeAreaVisibilityRequest.w1"},
		{"area request", AreaRequestTopicFor("areaX", false), "changeAreaVisibilityRequest.areaX.false"},
		{"widget request", WidgetRequestTopicFor("w1", true), "changeWidgetVisibilityRequest.w1.true"},
		{"bare kind", Topic(KindDidChangeAreaVisibility), "didChangeAreaVisibility"},
		{"local area", AreaName("w1", "content"), "w1-content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestTopics_ListenerMatchesPublished(t *testing.T) {
	if !event.Matches(DidChangeTopic("main"), DidChangeTopicFor("main", true)) {
		t.Error("did listener should match did confirmations")
	}
	if !event.Matches(AreaRequestTopic("w1"), AreaRequestTopicFor(AreaName("w1", "content"), true)) {
		t.Error("widget listener should match requests for its local areas")
	}
	if event.Matches(DidChangeTopic("main"), WillChangeTopicFor("main", true)) {
		t.Error("did listener should not match will announcements")
	}
}

func TestVisibleFrom(t *testing.T) {
	tests := []struct {
		name   string
		msg    event.Message
		want   bool
		wantOK bool
	}{
		{"area change", event.Message{Payload: AreaChange{Visible: true}}, true, true},
		{"area change pointer", event.Message{Payload: &AreaChange{Visible: true}}, true, true},
		{"area request", event.Message{Payload: AreaRequest{Visible: false}}, false, true},
		{"area request pointer", event.Message{Payload: &AreaRequest{Visible: true}}, true, true},
		{"widget request", event.Message{Payload: WidgetRequest{Visible: true}}, true, true},
		{"widget request pointer", event.Message{Payload: &WidgetRequest{Visible: false}, Topic: "changeWidgetVisibilityRequest.w1.true"}, false, true},
		{"nil widget request falls back to topic", event.Message{Payload: (*WidgetRequest)(nil), Topic: "changeWidgetVisibilityRequest.w1.true"}, true, true},
		{"map", event.Message{Payload: map[string]any{"visible": true}}, true, true},
		{"topic suffix", event.Message{Topic: "didChangeAreaVisibility.main.true"}, true, true},
		{"topic suffix false", event.Message{Topic: "didChangeAreaVisibility.main.false"}, false, true},
		{"nothing", event.Message{Topic: "didChangeAreaVisibility.main", Payload: "x"}, false, false},
		{"map without flag", event.Message{Topic: "didChangeAreaVisibility.main", Payload: map[string]any{}}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := VisibleFrom(tt.msg)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("VisibleFrom() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
