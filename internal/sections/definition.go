package sections

// FieldType is the editor control used for a setting.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldArray    FieldType = "array"
)

// Option is one allowed value of a select or radio field.
type Option struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// Field describes one configurable setting of a section.
type Field struct {
	Name        string         `json:"name"`
	Label       string         `json:"label"`
	Type        FieldType      `json:"type"`
	Min         *float64       `json:"min,omitempty"`
	Max         *float64       `json:"max,omitempty"`
	Options     []Option       `json:"options,omitempty"`
	ArrayFields []Field        `json:"arrayFields,omitempty"`
	ItemSummary string         `json:"itemSummary,omitempty"`
	DefaultItem map[string]any `json:"defaultItem,omitempty"`
}

// Category groups definitions in the editor palette.
type Category struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Collapsed bool   `json:"collapsed,omitempty"`
	Kinds     []Kind `json:"kinds"`
}

// Definition is the editor and render contract of a section kind.
type Definition struct {
	Kind      Kind           `json:"kind"`
	Component string         `json:"component"`
	Label     string         `json:"label"`
	Category  string         `json:"category"`
	Fields    []Field        `json:"fields"`
	Defaults  map[string]any `json:"defaults"`
}

// Field returns the named field.
func (d Definition) Field(name string) (Field, bool) {
	for _, field := range d.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// RootFields are the page-level settings stored under the document root.
var RootFields = []Field{text("title", "Page Title")}

func text(name, label string) Field {
	return Field{Name: name, Label: label, Type: FieldText}
}

func textarea(name, label string) Field {
	return Field{Name: name, Label: label, Type: FieldTextarea}
}

func number(name, label string, lo, hi float64) Field {
	return Field{Name: name, Label: label, Type: FieldNumber, Min: &lo, Max: &hi}
}

func choice(name, label string, options ...Option) Field {
	return Field{Name: name, Label: label, Type: FieldSelect, Options: options}
}

func yesNo(name, label string) Field {
	return Field{Name: name, Label: label, Type: FieldRadio, Options: []Option{opt("Yes", true), opt("No", false)}}
}

func list(name, label, summary string, defaultItem map[string]any, fields ...Field) Field {
	return Field{Name: name, Label: label, Type: FieldArray, ArrayFields: fields, ItemSummary: summary, DefaultItem: defaultItem}
}

func opt(label string, value any) Option {
	return Option{Label: label, Value: value}
}
