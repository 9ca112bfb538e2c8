package editor

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-storefront/internal/domain"
	"github.com/goliatone/go-storefront/internal/layout"
	"github.com/goliatone/go-storefront/internal/sections"
)

var ErrSessionClosed = errors.New("editor: session closed")

// EditOp names a document edit.
type EditOp string

const (
	OpAdd    EditOp = "add"
	OpUpdate EditOp = "update"
	OpMove   EditOp = "move"
	OpRemove EditOp = "remove"
)

// Edit is one change to a draft. Type is only read by OpAdd; Index by OpAdd
// and OpMove, where nil appends.
type Edit struct {
	Op    EditOp         `json:"op"`
	Type  string         `json:"type,omitempty"`
	ID    string         `json:"id,omitempty"`
	Index *int           `json:"index,omitempty"`
	Props map[string]any `json:"props,omitempty"`
}

func (e Edit) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Op, validation.Required, validation.In(OpAdd, OpUpdate, OpMove, OpRemove)),
		validation.Field(&e.Type, validation.When(e.Op == OpAdd, validation.Required)),
		validation.Field(&e.ID, validation.When(e.Op != OpAdd, validation.Required)),
		validation.Field(&e.Index, validation.When(e.Op == OpMove, validation.NotNil), validation.Min(0)),
	)
}

// Snapshot is the state of a session at one point in time.
type Snapshot struct {
	StoreSlug string           `json:"storeSlug"`
	PageType  domain.PageType  `json:"pageType"`
	Document  *layout.Document `json:"document"`
	Selected  string           `json:"selectedSectionId,omitempty"`
	Version   uint64           `json:"version"`
	Dirty     bool             `json:"dirty"`
}

// Session is the working copy of one page layout. Every accepted change is
// scheduled for autosave and pushed to the preview.
type Session struct {
	storeSlug string
	pageType  domain.PageType
	registry  *sections.Registry
	autosave  *Autosaver
	changed   func(*layout.Document)

	mu       sync.Mutex
	token    string
	doc      *layout.Document
	selected string
	version  uint64
	closed   bool
}

func newSession(storeSlug string, pageType domain.PageType, token string, doc *layout.Document, registry *sections.Registry) *Session {
	if doc == nil {
		doc = layout.EmptyDocument()
	}
	return &Session{
		storeSlug: storeSlug,
		pageType:  pageType,
		registry:  registry,
		token:     token,
		doc:       doc,
	}
}

func (s *Session) StoreSlug() string { return s.storeSlug }

func (s *Session) PageType() domain.PageType { return s.pageType }

// Token returns the credential drafts are saved with.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		StoreSlug: s.storeSlug,
		PageType:  s.pageType,
		Document:  s.doc.Clone(),
		Selected:  s.selected,
		Version:   s.version,
		Dirty:     s.autosave != nil && s.autosave.Pending(),
	}
}

// Document returns a copy of the working document.
func (s *Session) Document() *layout.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Select marks a section as selected. An empty id clears the selection.
func (s *Session) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
}

// Apply validates and applies edit to the working document.
func (s *Session) Apply(edit Edit) (Snapshot, error) {
	if err := edit.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s.mutate(func(doc *layout.Document) error {
		switch edit.Op {
		case OpAdd:
			return s.add(doc, edit)
		case OpUpdate:
			return s.update(doc, edit)
		case OpMove:
			return doc.Move(edit.ID, *edit.Index)
		case OpRemove:
			return doc.Remove(edit.ID)
		default:
			return fmt.Errorf("editor: unsupported edit %q", edit.Op)
		}
	})
}

// Replace swaps in a whole document, as sent by the visual editor.
func (s *Session) Replace(doc *layout.Document) (Snapshot, error) {
	if doc == nil {
		doc = layout.EmptyDocument()
	}
	validator := NewDocumentValidator(s.registry)
	if err := validator.ValidateDocument(doc); err != nil {
		return Snapshot{}, err
	}
	return s.mutate(func(current *layout.Document) error {
		*current = *doc.Clone()
		return nil
	})
}

func (s *Session) add(doc *layout.Document, edit Edit) error {
	kind, ok := sections.ParseKind(edit.Type)
	if !ok {
		return fmt.Errorf("%w: %q", sections.ErrUnknownKind, edit.Type)
	}
	component, err := s.registry.NewInstance(kind)
	if err != nil {
		return err
	}
	id := component.ID()
	maps.Copy(component.Props, edit.Props)
	component.Props["id"] = id
	if err := s.registry.Validate(kind, component.Props); err != nil {
		return err
	}
	index := len(doc.Content)
	if edit.Index != nil {
		index = *edit.Index
	}
	return doc.Insert(index, component)
}

func (s *Session) update(doc *layout.Document, edit Edit) error {
	current, ok := doc.Find(edit.ID)
	if !ok {
		return fmt.Errorf("%w: %s", layout.ErrSectionNotFound, edit.ID)
	}
	kind, ok := sections.ParseKind(current.Type)
	if !ok {
		return fmt.Errorf("%w: %q", sections.ErrUnknownKind, current.Type)
	}
	props := maps.Clone(current.Props)
	maps.Copy(props, edit.Props)
	props["id"] = edit.ID
	if err := s.registry.Validate(kind, props); err != nil {
		return err
	}
	return doc.Update(edit.ID, props)
}

// mutate runs change on a copy and commits it only when change succeeds.
func (s *Session) mutate(change func(*layout.Document) error) (Snapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Snapshot{}, ErrSessionClosed
	}
	next := s.doc.Clone()
	if err := change(next); err != nil {
		s.mu.Unlock()
		return Snapshot{}, err
	}
	s.doc = next
	s.version++
	if s.selected != "" && next.Index(s.selected) < 0 {
		s.selected = ""
	}
	snapshot := Snapshot{
		StoreSlug: s.storeSlug,
		PageType:  s.pageType,
		Document:  next.Clone(),
		Selected:  s.selected,
		Version:   s.version,
		Dirty:     true,
	}
	autosave, changed := s.autosave, s.changed
	s.mu.Unlock()

	if autosave != nil {
		autosave.Schedule(snapshot.Document)
	}
	if changed != nil {
		changed(snapshot.Document)
	}
	return snapshot, nil
}

// Flush writes any pending draft immediately.
func (s *Session) Flush(ctx context.Context) error {
	if s.autosave == nil {
		return nil
	}
	return s.autosave.Flush(ctx)
}

// Save schedules the current document and writes it immediately.
func (s *Session) Save(ctx context.Context) error {
	if s.autosave == nil {
		return nil
	}
	s.autosave.Schedule(s.Document())
	return s.autosave.Flush(ctx)
}

func (s *Session) close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	if s.autosave == nil {
		return nil
	}
	return s.autosave.Close(ctx)
}
