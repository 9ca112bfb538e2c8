package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	layoutscmd "github.com/goliatone/go-storefront/internal/commands/layouts"
	"github.com/goliatone/go-storefront/internal/domain"
	"github.com/goliatone/go-storefront/internal/layout"
	"github.com/goliatone/go-storefront/internal/sections"
)

type fakeBackend struct {
	mu     sync.Mutex
	drafts map[domain.PageType]*layout.Document
	owners map[string]string
	loads  int
	err    error
}

func (b *fakeBackend) storeOf(token string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if store, ok := b.owners[token]; ok {
		return store
	}
	return "acme"
}

type tokenBackend struct {
	*fakeBackend
	token string
}

func (b tokenBackend) CurrentStore(context.Context) (*domain.StoreSettings, error) {
	return &domain.StoreSettings{StoreSlug: b.storeOf(b.token)}, nil
}

func (b *fakeBackend) GetDraftLayout(_ context.Context, pageType domain.PageType) (*layout.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loads++
	if b.err != nil {
		return nil, b.err
	}
	if doc, ok := b.drafts[pageType]; ok {
		return doc.Clone(), nil
	}
	return layout.EmptyDocument(), nil
}

func (b *fakeBackend) ListLayouts(context.Context) ([]domain.LayoutSummary, error) {
	return []domain.LayoutSummary{{PageType: domain.PageHome, Name: "HOME Page"}}, nil
}

type journal struct {
	mu      sync.Mutex
	entries []string
	saved   []layoutscmd.SaveLayoutCommand
	failOn  string
}

func (j *journal) record(entry string, saved *layoutscmd.SaveLayoutCommand) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if entry == j.failOn {
		return errors.New(entry + " failed")
	}
	j.entries = append(j.entries, entry)
	if saved != nil {
		j.saved = append(j.saved, *saved)
	}
	return nil
}

func (j *journal) lastSave() layoutscmd.SaveLayoutCommand {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.saved[len(j.saved)-1]
}

func (j *journal) snapshot() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type saveCommander struct{ j *journal }

func (c saveCommander) Execute(_ context.Context, msg layoutscmd.SaveLayoutCommand) error {
	return c.j.record("save", &msg)
}

type publishCommander struct{ j *journal }

func (c publishCommander) Execute(_ context.Context, msg layoutscmd.PublishLayoutCommand) error {
	return c.j.record("publish:"+string(msg.PageType), nil)
}

type previewRecorder struct {
	mu    sync.Mutex
	shown []*layout.Document
}

func (p *previewRecorder) Show(_ context.Context, _ string, _ domain.PageType, doc *layout.Document) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = append(p.shown, doc)
}

func (p *previewRecorder) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.shown)
}

type editorFixture struct {
	service *Service
	backend *fakeBackend
	journal *journal
	preview *previewRecorder
}

func newEditorFixture(t *testing.T, delay time.Duration) editorFixture {
	t.Helper()
	backend := &fakeBackend{drafts: map[domain.PageType]*layout.Document{}, owners: map[string]string{}}
	j := &journal{}
	preview := &previewRecorder{}
	templates, err := BuiltinTemplates()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	ids := 0
	registry := sections.NewRegistry().WithIDGenerator(func() string {
		ids++
		return string(rune('a' + ids - 1))
	})
	service := NewService(
		func(token string) Backend { return tokenBackend{fakeBackend: backend, token: token} },
		registry,
		saveCommander{j: j},
		publishCommander{j: j},
		WithAutosaveDelay(delay),
		WithPreview(preview),
		WithTemplates(templates),
	)
	t.Cleanup(func() { _ = service.Shutdown(context.Background()) })
	return editorFixture{service: service, backend: backend, journal: j, preview: preview}
}

func intPtr(v int) *int { return &v }

func TestServiceOpenLoadsDraftOnce(t *testing.T) {
	t.Parallel()

	fx := newEditorFixture(t, time.Hour)
	draft := layout.EmptyDocument()
	draft.Content = append(draft.Content, layout.Component{Type: "HeroBanner", Props: map[string]any{"id": "hero"}})
	fx.backend.drafts[domain.PageHome] = draft

	session, err := fx.service.Open(context.Background(), "token", "Acme", domain.PageHome)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	again, err := fx.service.Open(context.Background(), "token", "acme", "home")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if session != again {
		t.Fatalf("expected the same session")
	}
	if fx.backend.loads != 1 {
		t.Fatalf("expected draft loaded once, got %d", fx.backend.loads)
	}
	if again.Token() != "token" {
		t.Fatalf("expected session bound to opening token, got %q", again.Token())
	}
	if got := session.Document().Content; len(got) != 1 || got[0].ID() != "hero" {
		t.Fatalf("unexpected document %+v", got)
	}
	if fx.preview.count() != 1 {
		t.Fatalf("expected preview to receive the draft")
	}
}

func TestServiceOpenValidatesArguments(t *testing.T) {
	t.Parallel()

	fx := newEditorFixture(t, time.Hour)
	cases := []struct {
		name     string
		token    string
		store    string
		pageType domain.PageType
		want     error
	}{
		{name: "token", store: "acme", pageType: domain.PageHome, want: ErrTokenRequired},
		{name: "store", token: "t", pageType: domain.PageHome, want: ErrStoreRequired},
		{name: "page type", token: "t", store: "acme", pageType: "LANDING", want: ErrInvalidPageType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := fx.service.Open(context.Background(), tc.token, tc.store, tc.pageType); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	fx.backend.err = errors.New("backend down")
	if _, err := fx.service.Open(context.Background(), "t", "acme", domain.PageCart); err == nil {
		t.Fatalf("expected load failure")
	}
}

func TestServiceOpenRejectsForeignStore(t *testing.T) {
	t.Parallel()

	fx := newEditorFixture(t, time.Hour)
	fx.backend.owners["token-x"] = "x"
	fx.backend.owners["token-y"] = "y"
	fx.backend.owners["token-y2"] = "y"
	ctx := context.Background()

	if _, err := fx.service.Open(ctx, "token-x", "y", domain.PageHome); !errors.Is(err, ErrStoreForbidden) {
		t.Fatalf("expected forbidden store, got %v", err)
	}
	if _, err := fx.service.Apply(ctx, "token-x", "Y", domain.PageHome, Edit{Op: OpAdd, Type: "HeroBanner"}); !errors.Is(err, ErrStoreForbidden) {
		t.Fatalf("expected forbidden edit, got %v", err)
	}
	if _, ok := fx.service.Lookup("y", domain.PageHome); ok {
		t.Fatalf("expected no session for a foreign token")
	}
	if fx.backend.loads != 0 {
		t.Fatalf("expected no draft loaded for a foreign token, got %d", fx.backend.loads)
	}

	session, err := fx.service.Open(ctx, "token-y", "y", domain.PageHome)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(session.Document().Content) != 0 {
		t.Fatalf("expected the store's own empty draft, got %+v", session.Document().Content)
	}
	if err := fx.service.Save(ctx, "token-y", "y", domain.PageHome); err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved := fx.journal.lastSave(); saved.Token != "token-y" {
		t.Fatalf("expected save with the opening token, got %q", saved.Token)
	}

	if _, err := fx.service.Open(ctx, "token-x", "y", domain.PageHome); !errors.Is(err, ErrStoreForbidden) {
		t.Fatalf("expected forbidden store for an open session, got %v", err)
	}
	if _, err := fx.service.Open(ctx, "token-y2", "y", domain.PageHome); !errors.Is(err, ErrSessionLocked) {
		t.Fatalf("expected locked session, got %v", err)
	}
	if err := fx.service.Close(ctx, "token-y2", "y", domain.PageHome); !errors.Is(err, ErrSessionLocked) {
		t.Fatalf("expected locked close, got %v", err)
	}
	if session.Token() != "token-y" {
		t.Fatalf("expected token unchanged, got %q", session.Token())
	}
	if err := fx.service.Close(ctx, "token-y", "y", domain.PageHome); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestServiceApplyEdits(t *testing.T) {
	t.Parallel()

	fx := newEditorFixture(t, time.Hour)
	ctx := context.Background()

	snap, err := fx.service.Apply(ctx, "t", "acme", domain.PageHome, Edit{Op: OpAdd, Type: "hero-banner", Props: map[string]any{"title": "Hi"}})
	if err != nil {
		t.Fatalf("add hero: %v", err)
	}
	heroID := snap.Document.Content[0].ID()
	if heroID != "HeroBanner-a" {
		t.Fatalf("unexpected generated id %q", heroID)
	}
	if snap.Document.Content[0].Props["cta_text"] != "Shop Now" {
		t.Fatalf("expected defaults applied, got %+v", snap.Document.Content[0].Props)
	}

	snap, err = fx.service.Apply(ctx, "t", "acme", domain.PageHome, Edit{Op: OpAdd, Type: "Footer", Index: intPtr(0)})
	if err != nil {
		t.Fatalf("add footer: %v", err)
	}
	footerID := snap.Document.Content[0].ID()

	if snap, err = fx.service.Apply(ctx, "t", "acme", domain.PageHome, Edit{Op: OpMove, ID: footerID, Index: intPtr(5)}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if snap.Document.Content[1].ID() != footerID {
		t.Fatalf("expected footer moved to the end")
	}

	if snap, err = fx.service.Apply(ctx, "t", "acme", domain.PageHome, Edit{Op: OpUpdate, ID: heroID, Props: map[string]any{"height": "small"}}); err != nil {
		t.Fatalf("update: %v", err)
	}
	props := snap.Document.Content[0].Props
	if props["height"] != "small" || props["title"] != "Hi" || props["id"] != heroID {
		t.Fatalf("expected merged props, got %+v", props)
	}

	if snap, err = fx.service.Apply(ctx, "t", "acme", domain.PageHome, Edit{Op: OpRemove, ID: footerID}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(snap.Document.Content) != 1 || snap.Version != 5 || !snap.Dirty {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if fx.preview.count() != 6 {
		t.Fatalf("expected preview after open and every edit, got %d", fx.preview.count())
	}
}

func TestServiceRejectsInvalidEdits(t *testing.T) {
	t.Parallel()

	fx := newEditorFixture(t, time.Hour)
	ctx := context.Background()
	session, err := fx.service.Open(ctx, "t", "acme", domain.PageHome)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := session.Apply(Edit{Op: OpAdd, Type: "ProductGrid"}); err != nil {
		t.Fatalf("add grid: %v", err)
	}
	gridID := session.Document().Content[0].ID()

	cases := []struct {
		name string
		edit Edit
		want error
	}{
		{name: "unknown type", edit: Edit{Op: OpAdd, Type: "carousel"}, want: sections.ErrUnknownKind},
		{name: "missing section", edit: Edit{Op: OpRemove, ID: "nope"}, want: layout.ErrSectionNotFound},
		{name: "schema violation", edit: Edit{Op: OpUpdate, ID: gridID, Props: map[string]any{"limit": 99}}},
		{name: "move without index", edit: Edit{Op: OpMove, ID: gridID}},
		{name: "unknown op", edit: Edit{Op: "rotate", ID: gridID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := session.Apply(tc.edit)
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	snap := session.Snapshot()
	if snap.Version != 1 || len(snap.Document.Content) != 1 {
		t.Fatalf("expected failed edits to leave the document untouched, got %+v", snap)
	}
}

func TestServiceAutosavesLatestDocument(t *testing.T) {
	t.Parallel()

	fx := newEditorFixture(t, 20*time.Millisecond)
	ctx := context.Background()
	for _, title := range []string{"One", "Two", "Three"} {
		if _, err := fx.service.Apply(ctx, "t", "acme", domain.PageHome, Edit{Op: OpAdd, Type: "RichText", Props: map[string]any{"title": title}}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	waitFor(t, func() bool { return len(fx.journal.snapshot()) == 1 })
	time.Sleep(50 * time.Millisecond)
	if entries := fx.journal.snapshot(); len(entries) != 1 {
		t.Fatalf("expected a single autosave, got %v", entries)
	}
	saved := fx.journal.lastSave()
	if saved.Token != "t" || saved.PageType != domain.PageHome || len(saved.Document.Content) != 3 {
		t.Fatalf("unexpected save %+v", saved)
	}
}

func TestServicePublishSavesFirst(t *testing.T) {
	t.Parallel()

	fx := newEditorFixture(t, time.Hour)
	ctx := context.Background()
	if _, err := fx.service.Apply(ctx, "t", "acme", domain.PageProduct, Edit{Op: OpAdd, Type: "ProductMain"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := fx.service.Publish(ctx, "t", "acme", domain.PageProduct); err != nil {
		t.Fatalf("publish: %v", err)
	}
	entries := fx.journal.snapshot()
	if len(entries) != 2 || entries[0] != "save" || entries[1] != "publish:PRODUCT" {
		t.Fatalf("expected save then publish, got %v", entries)
	}
}

func TestServicePublishStopsWhenSaveFails(t *testing.T) {
	t.Parallel()

	fx := newEditorFixture(t, time.Hour)
	fx.journal.failOn = "save"
	if err := fx.service.Publish(context.Background(), "t", "acme", domain.PageHome); err == nil {
		t.Fatalf("expected publish to fail")
	}
	if entries := fx.journal.snapshot(); len(entries) != 0 {
		t.Fatalf("expected nothing published, got %v", entries)
	}
}

func TestServiceApplyTemplate(t *testing.T) {
	t.Parallel()

	fx := newEditorFixture(t, time.Hour)
	snap, err := fx.service.ApplyTemplate(context.Background(), "t", "acme", domain.PageHome, "home-classic")
	if err != nil {
		t.Fatalf("apply template: %v", err)
	}
	if len(snap.Document.Content) != 5 || snap.Document.Content[0].ID() != "announcement" {
		t.Fatalf("unexpected template document %+v", snap.Document.Content)
	}
	if _, err := fx.service.ApplyTemplate(context.Background(), "t", "acme", domain.PageHome, "missing"); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestServiceCloseFlushesPendingDraft(t *testing.T) {
	t.Parallel()

	fx := newEditorFixture(t, time.Hour)
	ctx := context.Background()
	if _, err := fx.service.Apply(ctx, "t", "acme", domain.PageCart, Edit{Op: OpAdd, Type: "Newsletter"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := fx.service.Close(ctx, "t", "acme", domain.PageCart); err != nil {
		t.Fatalf("close: %v", err)
	}
	if entries := fx.journal.snapshot(); len(entries) != 1 {
		t.Fatalf("expected close to flush, got %v", entries)
	}
	if _, ok := fx.service.Lookup("acme", domain.PageCart); ok {
		t.Fatalf("expected session forgotten")
	}
}
