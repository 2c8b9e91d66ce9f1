package visibility

import (
	"strings"

	"github.com/Iron-Ham/areavis/internal/event"
)

// AreaRequest is the payload of changeAreaVisibilityRequest.
type AreaRequest struct {
	Area    string `json:"area"`
	Visible bool   `json:"visible"`
}

// WidgetRequest is the payload of changeWidgetVisibilityRequest.
type WidgetRequest struct {
	Widget  string `json:"widget"`
	Visible bool   `json:"visible"`
}

// AreaChange is the payload of willChangeAreaVisibility and
// didChangeAreaVisibility.
type AreaChange struct {
	Area    string `json:"area"`
	Visible bool   `json:"visible"`
}

// VisibleFrom extracts the visibility flag carried by a message. It looks at
// the typed payloads, then at a "visible" key of a map payload, then at a
// trailing true/false topic segment.
func VisibleFrom(m event.Message) (visible bool, ok bool) {
	switch p := m.Payload.(type) {
	case AreaChange:
		return p.Visible, true
	case *AreaChange:
		if p != nil {
			return p.Visible, true
		}
	case AreaRequest:
		return p.Visible, true
	case *AreaRequest:
		if p != nil {
			return p.Visible, true
		}
	case WidgetRequest:
		return p.Visible, true
	case *WidgetRequest:
		if p != nil {
			return p.Visible, true
		}
	case map[string]any:
		if v, isBool := p["visible"].(bool); isBool {
			return v, true
		}
	}

	switch m.Topic[strings.LastIndex(m.Topic, ".")+1:] {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
