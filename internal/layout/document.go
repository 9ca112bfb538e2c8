package layout

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Component is one entry of a page-builder document: a section type plus its
// property bag. The property "id" carries the section id.
type Component struct {
	Type  string         `json:"type"`
	Props map[string]any `json:"props"`
	// Extra keeps members the storefront does not use, such as editor
	// metadata, so they survive a round trip.
	Extra map[string]any `json:"-"`
}

// ID returns the section id stored in the component props.
func (c Component) ID() string {
	id, _ := c.Props["id"].(string)
	return id
}

// Root holds document level properties such as the page title.
type Root struct {
	Props map[string]any `json:"props"`
	Extra map[string]any `json:"-"`
}

// Document is the canonical layout document exchanged with the editor and
// the backend.
type Document struct {
	Content []Component            `json:"content"`
	Root    Root                   `json:"root"`
	Zones   map[string][]Component `json:"zones"`
	Extra   map[string]any         `json:"-"`
}

// EmptyDocument is the fallback used whenever normalization fails.
func EmptyDocument() *Document {
	return &Document{
		Content: []Component{},
		Root:    defaultRoot(),
		Zones:   map[string][]Component{},
	}
}

func defaultRoot() Root {
	return Root{Props: map[string]any{"title": ""}}
}

// Title returns the root title property.
func (d *Document) Title() string {
	if d == nil {
		return ""
	}
	title, _ := d.Root.Props["title"].(string)
	return title
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Content: cloneComponents(d.Content),
		Root:    Root{Props: cloneProps(d.Root.Props), Extra: cloneExtra(d.Root.Extra)},
		Zones:   make(map[string][]Component, len(d.Zones)),
		Extra:   cloneExtra(d.Extra),
	}
	for zone, components := range d.Zones {
		out.Zones[zone] = cloneComponents(components)
	}
	return out
}

// Index returns the position of the section with id, or -1.
func (d *Document) Index(id string) int {
	return slices.IndexFunc(d.Content, func(c Component) bool { return c.ID() == id })
}

// Find returns the section with id.
func (d *Document) Find(id string) (Component, bool) {
	if idx := d.Index(id); idx >= 0 {
		return d.Content[idx], true
	}
	return Component{}, false
}

// Insert places c at index, clamped to the content bounds.
func (d *Document) Insert(index int, c Component) error {
	if c.ID() == "" {
		return ErrMissingSectionID
	}
	if d.Index(c.ID()) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateSectionID, c.ID())
	}
	index = max(0, min(index, len(d.Content)))
	d.Content = slices.Insert(d.Content, index, c)
	return nil
}

// Update replaces the props of the section with id. The id itself is kept.
func (d *Document) Update(id string, props map[string]any) error {
	idx := d.Index(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	next := cloneProps(props)
	next["id"] = id
	d.Content[idx].Props = next
	return nil
}

// Move relocates the section with id to index.
func (d *Document) Move(id string, index int) error {
	idx := d.Index(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	c := d.Content[idx]
	d.Content = slices.Delete(d.Content, idx, idx+1)
	index = max(0, min(index, len(d.Content)))
	d.Content = slices.Insert(d.Content, index, c)
	return nil
}

// Remove deletes the section with id.
func (d *Document) Remove(id string) error {
	idx := d.Index(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	d.Content = slices.Delete(d.Content, idx, idx+1)
	return nil
}

// MarshalJSON keeps empty collections as [] and {} instead of null.
func (d Document) MarshalJSON() ([]byte, error) {
	type alias Document
	out := alias(d)
	if out.Content == nil {
		out.Content = []Component{}
	}
	if out.Root.Props == nil {
		out.Root = defaultRoot()
	}
	if out.Zones == nil {
		out.Zones = map[string][]Component{}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return appendExtra(data, d.Extra, documentFields)
}

func cloneComponents(in []Component) []Component {
	out := make([]Component, len(in))
	for i, c := range in {
		out[i] = Component{Type: c.Type, Props: cloneProps(c.Props), Extra: cloneExtra(c.Extra)}
	}
	return out
}

func cloneProps(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return cloneProps(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(typed))
		for i, item := range typed {
			out[i] = maps.Clone(item)
		}
		return out
	default:
		return v
	}
}
