package layout

import (
	"fmt"
	"maps"
)

// Section is one configured section of a Layout.
type Section struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Settings map[string]any `json:"settings"`
}

// Layout is the render view of a document: sections keyed by id and the
// order they are shown in. Order never holds duplicates; ids in Order missing
// from Sections are skipped by consumers.
type Layout struct {
	Sections map[string]Section `json:"sections"`
	Order    []string           `json:"order"`
}

// Layout builds the render view of d. Sections without an id get
// "{type}-{index}"; repeated ids keep their first occurrence.
func (d *Document) Layout() *Layout {
	if d == nil {
		return nil
	}
	out := &Layout{
		Sections: make(map[string]Section, len(d.Content)),
		Order:    make([]string, 0, len(d.Content)),
	}
	for i, c := range d.Content {
		id := c.ID()
		if id == "" {
			id = fmt.Sprintf("%s-%d", c.Type, i)
		}
		if _, seen := out.Sections[id]; seen {
			continue
		}
		out.Sections[id] = Section{ID: id, Type: c.Type, Settings: c.Props}
		out.Order = append(out.Order, id)
	}
	return out
}

// Configured reports whether l carries both sections and order.
func (l *Layout) Configured() bool {
	return l != nil && l.Sections != nil && l.Order != nil
}

// Visible returns the sections in render order, skipping dangling ids and
// repeated entries.
func (l *Layout) Visible() []Section {
	if !l.Configured() {
		return nil
	}
	seen := make(map[string]struct{}, len(l.Order))
	out := make([]Section, 0, len(l.Order))
	for _, id := range l.Order {
		section, ok := l.Sections[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if section.ID == "" {
			section.ID = id
		}
		out = append(out, section)
	}
	return out
}

// Document converts the layout back into canonical content, dropping
// orphaned sections.
func (l *Layout) Document() *Document {
	doc := EmptyDocument()
	for _, section := range l.Visible() {
		props := maps.Clone(section.Settings)
		if props == nil {
			props = map[string]any{}
		}
		props["id"] = section.ID
		doc.Content = append(doc.Content, Component{Type: section.Type, Props: props})
	}
	return doc
}
