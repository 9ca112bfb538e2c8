package layout

import (
	"encoding/json"
)

// LegacySection is an entry of the legacy {sections, order} layout format.
type LegacySection struct {
	Type     string         `json:"type"`
	Settings map[string]any `json:"settings,omitempty"`
}

// LegacyDocument is the pre page-builder layout format. It is only ever read.
type LegacyDocument struct {
	Sections map[string]LegacySection `json:"sections"`
	Order    []string                 `json:"order"`
}

// Convert maps the legacy document onto canonical content. Keys in Order
// without a matching section are dropped and unreferenced sections ignored.
// Every produced section gets the id "{type}-{key}".
func (l LegacyDocument) Convert() *Document {
	doc := EmptyDocument()
	for _, key := range l.Order {
		section, ok := l.Sections[key]
		if !ok {
			continue
		}
		props := cloneProps(section.Settings)
		props["id"] = section.Type + "-" + key
		doc.Content = append(doc.Content, Component{Type: section.Type, Props: props})
	}
	return doc
}

// Normalize accepts a raw layout payload in either the canonical or the
// legacy shape and returns the canonical document. It reports false when
// the payload matches neither shape; callers then use EmptyDocument.
//
// raw may be a decoded JSON object, raw JSON bytes, or a *Document.
func Normalize(raw any) (*Document, bool) {
	var obj map[string]any
	switch v := raw.(type) {
	case nil:
		return nil, false
	case *Document:
		if v == nil {
			return nil, false
		}
		return withDefaults(v.Clone()), true
	case Document:
		return withDefaults(v.Clone()), true
	case map[string]any:
		obj = v
	case json.RawMessage:
		return NormalizeJSON(v)
	case []byte:
		return NormalizeJSON(v)
	case string:
		return NormalizeJSON([]byte(v))
	default:
		return nil, false
	}
	return normalizeObject(obj)
}

// NormalizeJSON decodes data and normalizes it. Invalid JSON or a non-object
// payload yields false.
func NormalizeJSON(data []byte) (*Document, bool) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, false
	}
	return normalizeObject(obj)
}

// NormalizeOrEmpty is Normalize with the empty document fallback applied.
func NormalizeOrEmpty(raw any) *Document {
	if doc, ok := Normalize(raw); ok {
		return doc
	}
	return EmptyDocument()
}

func normalizeObject(obj map[string]any) (*Document, bool) {
	if content, ok := obj["content"].([]any); ok {
		doc := &Document{Content: decodeComponents(content), Extra: extraFields(obj, documentFields)}
		if root, ok := obj["root"].(map[string]any); ok {
			doc.Root = Root{Props: propsOf(root), Extra: extraFields(root, rootFields)}
		} else {
			doc.Root = defaultRoot()
		}
		doc.Zones = map[string][]Component{}
		if zones, ok := obj["zones"].(map[string]any); ok {
			for name, value := range zones {
				items, _ := value.([]any)
				doc.Zones[name] = decodeComponents(items)
			}
		}
		return doc, true
	}

	order, orderOK := obj["order"].([]any)
	sections, sectionsPresent := obj["sections"]
	if !orderOK || !sectionsPresent || sections == nil {
		return nil, false
	}

	legacy := LegacyDocument{Sections: map[string]LegacySection{}}
	entries, _ := sections.(map[string]any)
	for key, value := range entries {
		entry, ok := value.(map[string]any)
		if !ok {
			continue
		}
		typ, _ := entry["type"].(string)
		settings, _ := entry["settings"].(map[string]any)
		legacy.Sections[key] = LegacySection{Type: typ, Settings: settings}
	}
	for _, item := range order {
		if key, ok := item.(string); ok {
			legacy.Order = append(legacy.Order, key)
		}
	}
	return legacy.Convert(), true
}

func decodeComponents(items []any) []Component {
	out := make([]Component, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		typ, _ := entry["type"].(string)
		out = append(out, Component{Type: typ, Props: propsOf(entry), Extra: extraFields(entry, componentFields)})
	}
	return out
}

func propsOf(entry map[string]any) map[string]any {
	props, ok := entry["props"].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return props
}

func withDefaults(doc *Document) *Document {
	if doc.Content == nil {
		doc.Content = []Component{}
	}
	if doc.Root.Props == nil {
		doc.Root = defaultRoot()
	}
	if doc.Zones == nil {
		doc.Zones = map[string][]Component{}
	}
	return doc
}
