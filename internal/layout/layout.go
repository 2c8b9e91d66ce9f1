// Package layout loads page layouts: a tree of named areas that contain
// widgets, which in turn own areas of their own.
package layout

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/areavis/internal/errors"
	"github.com/Iron-Ham/areavis/internal/visibility"
)

// Layout is a page layout document.
//
//	areas:
//	  - name: main
//	    widgets:
//	      - id: w1
//	        areas:
//	          - name: content
//	            visible: false
type Layout struct {
	Areas []Area `yaml:"areas"`
}

// Area is a named region. Areas owned by a widget are addressed on the bus
// as visibility.AreaName(widgetID, Name).
type Area struct {
	Name    string   `yaml:"name"`
	Visible *bool    `yaml:"visible,omitempty"` // default true
	Widgets []Widget `yaml:"widgets,omitempty"`
}

// Widget is a widget instance placed in an area.
type Widget struct {
	ID    string `yaml:"id"`
	Areas []Area `yaml:"areas,omitempty"`
}

// IsVisible reports the area's initial visibility.
func (a Area) IsVisible() bool {
	return a.Visible == nil || *a.Visible
}

// AreaInfo is a flattened area.
type AreaInfo struct {
	Name    string // bus name
	Owner   string // owning widget id, empty for page areas
	Visible bool   // initial own visibility
	Widgets []string
}

// WidgetInfo is a flattened widget.
type WidgetInfo struct {
	ID    string
	Area  string   // containing area bus name
	Areas []string // owned area bus names
}

// Load reads and validates a layout file.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewLayoutError("failed to read layout", err).WithPath(path)
	}

	l, err := Parse(data)
	if err != nil {
		var layoutErr *errors.LayoutError
		if errors.As(err, &layoutErr) {
			return nil, layoutErr.WithPath(path)
		}
		return nil, err
	}
	return l, nil
}

// Parse decodes and validates a layout document.
func Parse(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, errors.NewLayoutError("failed to parse layout", err)
	}

	if errs := l.Validate(); len(errs) > 0 {
		joined := make([]error, 0, len(errs)+1)
		joined = append(joined, errors.ErrInvalidLayout)
		for _, e := range errs {
			joined = append(joined, e)
		}
		return nil, errors.NewLayoutError(fmt.Sprintf("%d validation error(s)", len(errs)), errors.Join(joined...))
	}
	return &l, nil
}

// Validate reports empty or duplicate names. Bus names must be unique across
// the whole page, and ids may not contain topic separators.
func (l *Layout) Validate() []*errors.ValidationError {
	var errs []*errors.ValidationError
	seenAreas := make(map[string]bool)
	seenWidgets := make(map[string]bool)

	checkName := func(field, name string) bool {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, errors.NewValidationError("name cannot be empty").WithField(field))
			return false
		}
		if strings.ContainsAny(name, ".* ") {
			errs = append(errs, errors.NewValidationError("name cannot contain '.', '*' or spaces").
				WithField(field).WithValue(name))
			return false
		}
		return true
	}

	var walkAreas func(prefix, owner string, areas []Area)
	walkAreas = func(prefix, owner string, areas []Area) {
		for i, a := range areas {
			field := fmt.Sprintf("%sareas[%d]", prefix, i)
			if !checkName(field+".name", a.Name) {
				continue
			}
			name := busName(owner, a.Name)
			if seenAreas[name] {
				errs = append(errs, errors.NewValidationError("duplicate area").
					WithField(field+".name").WithValue(name))
			}
			seenAreas[name] = true

			for j, w := range a.Widgets {
				wfield := fmt.Sprintf("%s.widgets[%d]", field, j)
				if !checkName(wfield+".id", w.ID) {
					continue
				}
				if seenWidgets[w.ID] {
					errs = append(errs, errors.NewValidationError("duplicate widget id").
						WithField(wfield+".id").WithValue(w.ID))
				}
				seenWidgets[w.ID] = true
				walkAreas(wfield+".", w.ID, w.Areas)
			}
		}
	}
	walkAreas("", "", l.Areas)

	return errs
}

// Index flattens the layout into areas and widgets keyed by bus name and id.
func (l *Layout) Index() (map[string]AreaInfo, map[string]WidgetInfo) {
	areas := make(map[string]AreaInfo)
	widgets := make(map[string]WidgetInfo)

	var walk func(owner string, list []Area) []string
	walk = func(owner string, list []Area) []string {
		names := make([]string, 0, len(list))
		for _, a := range list {
			name := busName(owner, a.Name)
			names = append(names, name)

			info := AreaInfo{Name: name, Owner: owner, Visible: a.IsVisible()}
			for _, w := range a.Widgets {
				info.Widgets = append(info.Widgets, w.ID)
				widgets[w.ID] = WidgetInfo{
					ID:    w.ID,
					Area:  name,
					Areas: walk(w.ID, w.Areas),
				}
			}
			areas[name] = info
		}
		return names
	}
	walk("", l.Areas)

	return areas, widgets
}

// TreeEntry is one area in depth-first document order.
type TreeEntry struct {
	Name  string // bus name
	Owner string // owning widget id, empty for page areas
	Depth int
}

// Tree returns every area in depth-first document order, parents before
// their descendants.
func (l *Layout) Tree() []TreeEntry {
	var out []TreeEntry
	var walk func(owner string, depth int, list []Area)
	walk = func(owner string, depth int, list []Area) {
		for _, a := range list {
			name := busName(owner, a.Name)
			out = append(out, TreeEntry{Name: name, Owner: owner, Depth: depth})
			for _, w := range a.Widgets {
				walk(w.ID, depth+1, w.Areas)
			}
		}
	}
	walk("", 0, l.Areas)
	return out
}

// RootAreas returns the bus names of page-level areas in document order.
func (l *Layout) RootAreas() []string {
	names := make([]string, 0, len(l.Areas))
	for _, a := range l.Areas {
		names = append(names, a.Name)
	}
	return names
}

func busName(owner, name string) string {
	if owner == "" {
		return name
	}
	return visibility.AreaName(owner, name)
}
