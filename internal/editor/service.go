// Package editor keeps the working copy of page layouts being edited,
// validates every change against the section registry, saves drafts after a
// quiet period and mirrors the working copy to the storefront preview.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	command "github.com/goliatone/go-command"

	layoutscmd "github.com/goliatone/go-storefront/internal/commands/layouts"
	"github.com/goliatone/go-storefront/internal/domain"
	"github.com/goliatone/go-storefront/internal/layout"
	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/internal/sections"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

var (
	ErrTokenRequired   = errors.New("editor: admin token is required")
	ErrInvalidPageType = errors.New("editor: invalid page type")
	ErrStoreRequired   = errors.New("editor: store slug is required")
	ErrStoreForbidden  = errors.New("editor: token does not belong to store")
	ErrSessionLocked   = errors.New("editor: page is being edited with another token")
)

// Backend is the admin API surface a session loads drafts from.
type Backend interface {
	GetDraftLayout(ctx context.Context, pageType domain.PageType) (*layout.Document, error)
	ListLayouts(ctx context.Context) ([]domain.LayoutSummary, error)
	CurrentStore(ctx context.Context) (*domain.StoreSettings, error)
}

// BackendFor returns the backend authenticated as the holder of token.
type BackendFor func(token string) Backend

// PreviewSink receives the working copy after every change.
type PreviewSink interface {
	Show(ctx context.Context, storeSlug string, pageType domain.PageType, doc *layout.Document)
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) { s.logger = logging.OrNoOp(logger) }
}

// WithAutosaveDelay sets the quiet period before drafts are saved.
func WithAutosaveDelay(delay time.Duration) Option {
	return func(s *Service) {
		if delay > 0 {
			s.delay = delay
		}
	}
}

func WithPreview(sink PreviewSink) Option {
	return func(s *Service) { s.preview = sink }
}

func WithTemplates(templates *Templates) Option {
	return func(s *Service) { s.templates = templates }
}

type sessionKey struct {
	store    string
	pageType domain.PageType
}

// Service owns the editing sessions of every store page.
type Service struct {
	backends  BackendFor
	registry  *sections.Registry
	save      command.Commander[layoutscmd.SaveLayoutCommand]
	publish   command.Commander[layoutscmd.PublishLayoutCommand]
	preview   PreviewSink
	templates *Templates
	delay     time.Duration
	logger    interfaces.Logger

	mu       sync.Mutex
	sessions map[sessionKey]*Session
}

// NewService wires the editor. Drafts are written through save and
// published through publish, so both go through the command pipeline.
func NewService(
	backends BackendFor,
	registry *sections.Registry,
	save command.Commander[layoutscmd.SaveLayoutCommand],
	publish command.Commander[layoutscmd.PublishLayoutCommand],
	opts ...Option,
) *Service {
	s := &Service{
		backends: backends,
		registry: registry,
		save:     save,
		publish:  publish,
		delay:    DefaultAutosaveDelay,
		logger:   logging.NoOp(),
		sessions: map[sessionKey]*Session{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Registry exposes the section registry the editor validates against.
func (s *Service) Registry() *sections.Registry { return s.registry }

// Templates returns the starter templates for pageType.
func (s *Service) Templates(pageType domain.PageType) []Template {
	return s.templates.List(pageType)
}

// Layouts lists the layouts the token's store has.
func (s *Service) Layouts(ctx context.Context, token string) ([]domain.LayoutSummary, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrTokenRequired
	}
	return s.backends(token).ListLayouts(ctx)
}

// Open returns the session of a page, loading its draft on first use. A
// missing draft starts from the empty document. The token must belong to
// storeSlug and a session stays bound to the token that opened it.
func (s *Service) Open(ctx context.Context, token, storeSlug string, pageType domain.PageType) (*Session, error) {
	key, err := s.key(token, storeSlug, pageType)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	session, ok := s.sessions[key]
	s.mu.Unlock()
	if ok {
		return s.claim(ctx, session, token)
	}

	backend := s.backends(token)
	if err := s.authorize(ctx, backend, key.store); err != nil {
		return nil, err
	}
	doc, err := backend.GetDraftLayout(ctx, key.pageType)
	if err != nil {
		return nil, fmt.Errorf("editor: load draft: %w", err)
	}
	doc = layout.NormalizeOrEmpty(doc)

	s.mu.Lock()
	if existing, ok := s.sessions[key]; ok {
		s.mu.Unlock()
		if existing.Token() != token {
			return nil, locked(existing)
		}
		return existing, nil
	}
	session = s.newSession(key, token, doc)
	s.sessions[key] = session
	s.mu.Unlock()

	s.logger.Info("editor.session_opened", "store", key.store, "page_type", string(key.pageType), "sections", len(doc.Content))
	if s.preview != nil {
		s.preview.Show(ctx, key.store, key.pageType, doc)
	}
	return session, nil
}

func (s *Service) authorize(ctx context.Context, backend Backend, store string) error {
	settings, err := backend.CurrentStore(ctx)
	if err != nil {
		return fmt.Errorf("editor: resolve store: %w", err)
	}
	if settings == nil || normalizeStore(settings.StoreSlug) != store {
		s.logger.Warn("editor.store_forbidden", "store", store)
		return fmt.Errorf("%w: %s", ErrStoreForbidden, store)
	}
	return nil
}

// claim returns session to the token that opened it. Any other token is
// refused, as forbidden when it belongs to another store.
func (s *Service) claim(ctx context.Context, session *Session, token string) (*Session, error) {
	if session.Token() == token {
		return session, nil
	}
	if err := s.authorize(ctx, s.backends(token), session.StoreSlug()); err != nil {
		return nil, err
	}
	return nil, locked(session)
}

func locked(session *Session) error {
	return fmt.Errorf("%w: %s/%s", ErrSessionLocked, session.StoreSlug(), session.PageType())
}

// Lookup returns an open session.
func (s *Service) Lookup(storeSlug string, pageType domain.PageType) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionKey{store: normalizeStore(storeSlug), pageType: pageType}]
	return session, ok
}

// Apply opens the page if needed and applies edit.
func (s *Service) Apply(ctx context.Context, token, storeSlug string, pageType domain.PageType, edit Edit) (Snapshot, error) {
	session, err := s.Open(ctx, token, storeSlug, pageType)
	if err != nil {
		return Snapshot{}, err
	}
	return session.Apply(edit)
}

// Replace opens the page if needed and swaps in doc.
func (s *Service) Replace(ctx context.Context, token, storeSlug string, pageType domain.PageType, doc *layout.Document) (Snapshot, error) {
	session, err := s.Open(ctx, token, storeSlug, pageType)
	if err != nil {
		return Snapshot{}, err
	}
	return session.Replace(doc)
}

// ApplyTemplate replaces the working copy with a starter template.
func (s *Service) ApplyTemplate(ctx context.Context, token, storeSlug string, pageType domain.PageType, templateSlug string) (Snapshot, error) {
	tpl, err := s.templates.Get(templateSlug)
	if err != nil {
		return Snapshot{}, err
	}
	return s.Replace(ctx, token, storeSlug, pageType, tpl.Document)
}

// Save writes the working copy now.
func (s *Service) Save(ctx context.Context, token, storeSlug string, pageType domain.PageType) error {
	session, err := s.Open(ctx, token, storeSlug, pageType)
	if err != nil {
		return err
	}
	return session.Save(ctx)
}

// Publish saves the working copy and then publishes it. Nothing is
// published when the save fails.
func (s *Service) Publish(ctx context.Context, token, storeSlug string, pageType domain.PageType) error {
	session, err := s.Open(ctx, token, storeSlug, pageType)
	if err != nil {
		return err
	}
	if err := session.Save(ctx); err != nil {
		return err
	}
	if err := s.publish.Execute(ctx, layoutscmd.PublishLayoutCommand{Token: token, PageType: session.PageType()}); err != nil {
		return err
	}
	s.logger.Info("editor.layout_published", "store", session.StoreSlug(), "page_type", string(session.PageType()))
	return nil
}

// Close flushes and forgets a session. Only the token that opened it may
// close it.
func (s *Service) Close(ctx context.Context, token, storeSlug string, pageType domain.PageType) error {
	key, err := s.key(token, storeSlug, pageType)
	if err != nil {
		return err
	}
	s.mu.Lock()
	session, ok := s.sessions[key]
	if ok && session.Token() != token {
		s.mu.Unlock()
		return locked(session)
	}
	delete(s.sessions, key)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return session.close(ctx)
}

// Shutdown flushes and closes every session.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for key, session := range s.sessions {
		sessions = append(sessions, session)
		delete(s.sessions, key)
	}
	s.mu.Unlock()

	var errs []error
	for _, session := range sessions {
		if err := session.close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", session.StoreSlug(), session.PageType(), err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) newSession(key sessionKey, token string, doc *layout.Document) *Session {
	session := newSession(key.store, key.pageType, token, doc, s.registry)
	logger := logging.WithFields(s.logger, map[string]any{"store": key.store, "page_type": string(key.pageType)})

	session.autosave = NewAutosaver(s.delay, func(ctx context.Context, doc *layout.Document) error {
		return s.save.Execute(ctx, layoutscmd.SaveLayoutCommand{
			Token:    session.Token(),
			PageType: key.pageType,
			Document: doc,
		})
	}, WithAutosaveLogger(logger))

	if s.preview != nil {
		session.changed = func(doc *layout.Document) {
			s.preview.Show(context.Background(), key.store, key.pageType, doc)
		}
	}
	return session
}

func (s *Service) key(token, storeSlug string, pageType domain.PageType) (sessionKey, error) {
	if strings.TrimSpace(token) == "" {
		return sessionKey{}, ErrTokenRequired
	}
	store := normalizeStore(storeSlug)
	if store == "" {
		return sessionKey{}, ErrStoreRequired
	}
	parsed, ok := domain.ParsePageType(string(pageType))
	if !ok {
		return sessionKey{}, fmt.Errorf("%w: %q", ErrInvalidPageType, pageType)
	}
	return sessionKey{store: store, pageType: parsed}, nil
}

func normalizeStore(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
