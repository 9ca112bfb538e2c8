package editor

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-storefront/internal/layout"
	"github.com/goliatone/go-storefront/internal/sections"
)

var ErrInvalidDocument = errors.New("editor: invalid document")

// DocumentValidator checks documents against the section registry before
// they are stored.
type DocumentValidator struct {
	registry *sections.Registry
}

func NewDocumentValidator(registry *sections.Registry) DocumentValidator {
	return DocumentValidator{registry: registry}
}

// ValidateDocument requires every section to carry a unique id, a known
// type and props that satisfy the type's schema.
func (v DocumentValidator) ValidateDocument(doc *layout.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is required", ErrInvalidDocument)
	}
	seen := make(map[string]struct{}, len(doc.Content))
	for i, component := range doc.Content {
		id := component.ID()
		if id == "" {
			return fmt.Errorf("%w: section %d: %w", ErrInvalidDocument, i, layout.ErrMissingSectionID)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %w: %s", ErrInvalidDocument, layout.ErrDuplicateSectionID, id)
		}
		seen[id] = struct{}{}
		if err := v.validateComponent(component); err != nil {
			return fmt.Errorf("%w: section %s: %w", ErrInvalidDocument, id, err)
		}
	}
	return nil
}

func (v DocumentValidator) validateComponent(component layout.Component) error {
	kind, ok := sections.ParseKind(component.Type)
	if !ok {
		return fmt.Errorf("%w: %q", sections.ErrUnknownKind, component.Type)
	}
	if v.registry == nil {
		return nil
	}
	return v.registry.Validate(kind, component.Props)
}
