package sections

import (
	"fmt"
	"maps"

	"github.com/goliatone/go-storefront/internal/validation"
)

// Schema returns the JSON schema for the props of kind.
func (r *Registry) Schema(kind Kind) (map[string]any, bool) {
	def, ok := r.Definition(kind)
	if !ok {
		return nil, false
	}
	return definitionSchema(def), true
}

// Validate checks props against the schema of kind. Nil values are treated
// as unset.
func (r *Registry) Validate(kind Kind, props map[string]any) error {
	schema, err := r.compiled(kind)
	if err != nil {
		return err
	}
	payload := make(map[string]any, len(props))
	for key, value := range props {
		if value != nil {
			payload[key] = value
		}
	}
	return schema.Validate(payload)
}

func (r *Registry) compiled(kind Kind) (*validation.Schema, error) {
	r.mu.RLock()
	schema, ok := r.schemas[kind]
	r.mu.RUnlock()
	if ok {
		return schema, nil
	}

	doc, ok := r.Schema(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	schema, err := validation.Compile(doc)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.schemas[kind] = schema
	r.mu.Unlock()
	return schema, nil
}

func definitionSchema(def Definition) map[string]any {
	doc := objectSchema(def.Fields)
	doc["$schema"] = "https://json-schema.org/draft/2020-12/schema"
	doc["title"] = def.Label
	properties := doc["properties"].(map[string]any)
	properties["id"] = map[string]any{"type": "string"}
	return doc
}

func objectSchema(fields []Field) map[string]any {
	properties := make(map[string]any, len(fields))
	for _, field := range fields {
		properties[field.Name] = fieldSchema(field)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": true,
	}
}

func fieldSchema(field Field) map[string]any {
	schema := map[string]any{}
	if field.Label != "" {
		schema["title"] = field.Label
	}
	switch field.Type {
	case FieldNumber:
		schema["type"] = "number"
		if field.Min != nil {
			schema["minimum"] = *field.Min
		}
		if field.Max != nil {
			schema["maximum"] = *field.Max
		}
	case FieldSelect, FieldRadio:
		values := make([]any, 0, len(field.Options))
		for _, option := range field.Options {
			values = append(values, option.Value)
		}
		schema["enum"] = values
	case FieldArray:
		items := objectSchema(field.ArrayFields)
		if len(field.DefaultItem) > 0 {
			items["default"] = maps.Clone(field.DefaultItem)
		}
		schema["type"] = "array"
		schema["items"] = items
	default:
		schema["type"] = "string"
	}
	return schema
}
