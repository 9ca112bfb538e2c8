package sections

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-storefront/internal/layout"
	"github.com/goliatone/go-storefront/internal/validation"
)

var (
	ErrUnknownKind       = errors.New("sections: unknown section type")
	ErrDefinitionInvalid = errors.New("sections: definition invalid")
)

// Registry resolves section types to their definitions. The set of kinds is
// closed; hosts may replace the definition of a kind to change labels,
// fields or defaults.
type Registry struct {
	mu          sync.RWMutex
	definitions map[Kind]Definition
	schemas     map[Kind]*validation.Schema
	newID       func() string
}

// NewRegistry returns a registry holding the built-in definitions.
func NewRegistry() *Registry {
	r := &Registry{
		definitions: make(map[Kind]Definition, len(Kinds)),
		schemas:     map[Kind]*validation.Schema{},
		newID:       uuid.NewString,
	}
	for _, def := range builtinDefinitions() {
		def.Component = def.Kind.Component()
		r.definitions[def.Kind] = def
	}
	return r
}

// WithIDGenerator overrides how NewInstance generates ids.
func (r *Registry) WithIDGenerator(fn func() string) *Registry {
	if fn != nil {
		r.newID = fn
	}
	return r
}

// Register replaces the definition of a known kind.
func (r *Registry) Register(def Definition) error {
	if _, ok := componentNames[def.Kind]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, def.Kind)
	}
	if def.Label == "" {
		return fmt.Errorf("%w: %s has no label", ErrDefinitionInvalid, def.Kind)
	}
	def.Component = def.Kind.Component()
	def.Defaults = maps.Clone(def.Defaults)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[def.Kind] = def
	delete(r.schemas, def.Kind)
	return nil
}

// Lookup resolves a section type, given as kind id or component name.
func (r *Registry) Lookup(sectionType string) (Definition, bool) {
	kind, ok := ParseKind(sectionType)
	if !ok {
		return Definition{}, false
	}
	return r.Definition(kind)
}

// Definition returns the definition registered for kind.
func (r *Registry) Definition(kind Kind) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[kind]
	if !ok {
		return Definition{}, false
	}
	def.Defaults = maps.Clone(def.Defaults)
	return def, true
}

// List returns every definition in palette order.
func (r *Registry) List() []Definition {
	out := make([]Definition, 0, len(Kinds))
	for _, kind := range Kinds {
		if def, ok := r.Definition(kind); ok {
			out = append(out, def)
		}
	}
	return out
}

// Categories returns the palette groups.
func (r *Registry) Categories() []Category {
	out := make([]Category, len(builtinCategories))
	for i, category := range builtinCategories {
		category.Kinds = slices.Clone(category.Kinds)
		out[i] = category
	}
	return out
}

// ApplyDefaults returns props with every missing or nil setting filled from
// the kind's defaults. props itself is not modified.
func (r *Registry) ApplyDefaults(kind Kind, props map[string]any) map[string]any {
	def, ok := r.Definition(kind)
	out := make(map[string]any, len(props)+len(def.Defaults))
	if ok {
		maps.Copy(out, def.Defaults)
	}
	for key, value := range props {
		if value == nil {
			continue
		}
		out[key] = value
	}
	return out
}

// NewInstance builds a component of kind with a fresh id and default props.
func (r *Registry) NewInstance(kind Kind) (layout.Component, error) {
	def, ok := r.Definition(kind)
	if !ok {
		return layout.Component{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	props := def.Defaults
	if props == nil {
		props = map[string]any{}
	}
	props["id"] = def.Component + "-" + r.newID()
	return layout.Component{Type: def.Component, Props: props}, nil
}
