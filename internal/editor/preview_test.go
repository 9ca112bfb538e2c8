package editor

import (
	"context"
	"sync"
	"testing"

	"github.com/goliatone/go-storefront/internal/bridge"
	"github.com/goliatone/go-storefront/internal/domain"
	"github.com/goliatone/go-storefront/internal/layout"
	"github.com/goliatone/go-storefront/internal/logging"
)

const editorOrigin = "http://localhost:3001"

type posted struct {
	origin string
	msg    bridge.Message
}

type recordingPoster struct {
	mu   sync.Mutex
	msgs []posted
}

func (p *recordingPoster) Post(_ context.Context, origin string, msg bridge.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, posted{origin: origin, msg: msg})
	return nil
}

func (p *recordingPoster) types() []bridge.MessageType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]bridge.MessageType, len(p.msgs))
	for i, m := range p.msgs {
		out[i] = m.msg.Type
	}
	return out
}

func newTestPreview(t *testing.T) (*Preview, *recordingPoster) {
	t.Helper()
	poster := &recordingPoster{}
	preview := newPreview("acme/home", poster, []string{editorOrigin}, logging.NoOp())
	preview.bridge.Init(context.Background())
	return preview, poster
}

func TestChannelName(t *testing.T) {
	t.Parallel()

	if got := Channel("Acme", domain.PageProduct); got != "acme/product" {
		t.Fatalf("unexpected channel %q", got)
	}
}

func TestPreviewAppliesEditorMessages(t *testing.T) {
	t.Parallel()

	preview, poster := newTestPreview(t)
	ctx := context.Background()

	preview.Receive(ctx, editorOrigin, []byte(`{"type":"UPDATE_LAYOUT","payload":{"content":[{"type":"HeroBanner","props":{"id":"hero"}}]}}`))
	doc, ok := preview.Document()
	if !ok || len(doc.Content) != 1 || doc.Content[0].ID() != "hero" {
		t.Fatalf("expected document from editor, got %+v", doc)
	}
	if types := poster.types(); len(types) != 2 || types[1] != bridge.LayoutLoaded {
		t.Fatalf("expected pages to be told to refresh, got %v", types)
	}

	preview.Receive(ctx, editorOrigin, []byte(`{"type":"SELECT_SECTION","sectionId":"hero"}`))
	if preview.Selected() != "hero" {
		t.Fatalf("expected selection, got %q", preview.Selected())
	}
	preview.Receive(ctx, editorOrigin, []byte(`{"type":"DESELECT_SECTION"}`))
	if preview.Selected() != bridge.NoSelection {
		t.Fatalf("expected selection cleared, got %q", preview.Selected())
	}

	preview.Receive(ctx, editorOrigin, []byte(`{"type":"PREVIEW_MODE_ON"}`))
	if !preview.PreviewMode() {
		t.Fatalf("expected preview mode on")
	}
	preview.Receive(ctx, editorOrigin, []byte(`{"type":"PREVIEW_MODE_OFF"}`))
	if preview.PreviewMode() {
		t.Fatalf("expected preview mode off")
	}
}

func TestPreviewDropsUntrustedOrigins(t *testing.T) {
	t.Parallel()

	preview, poster := newTestPreview(t)
	ctx := context.Background()
	preview.Receive(ctx, "https://evil.example", []byte(`{"type":"UPDATE_LAYOUT","payload":{"content":[]}}`))
	preview.Receive(ctx, "https://evil.example", []byte(`{"type":"SECTION_CLICKED","sectionId":"hero"}`))

	if _, ok := preview.Document(); ok {
		t.Fatalf("expected untrusted update to be dropped")
	}
	if preview.Version() != 0 {
		t.Fatalf("expected no document change")
	}
	if types := poster.types(); len(types) != 1 || types[0] != bridge.Ready {
		t.Fatalf("expected only READY, got %v", types)
	}
}

func TestPreviewRelaysClicksAndLayouts(t *testing.T) {
	t.Parallel()

	preview, poster := newTestPreview(t)
	ctx := context.Background()

	preview.Receive(ctx, editorOrigin, []byte(`{"type":"SECTION_CLICKED","payload":{"sectionId":"grid"}}`))
	if preview.Selected() != "grid" {
		t.Fatalf("expected click to select, got %q", preview.Selected())
	}

	preview.Show(ctx, layout.EmptyDocument())
	if preview.Version() != 1 {
		t.Fatalf("expected version bump, got %d", preview.Version())
	}

	types := poster.types()
	want := []bridge.MessageType{bridge.Ready, bridge.SectionClicked, bridge.LayoutLoaded}
	if len(types) != len(want) {
		t.Fatalf("expected %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, types)
		}
	}
}

func TestPreviewsSessionLifecycle(t *testing.T) {
	t.Parallel()

	previews := NewPreviews(nil, []string{editorOrigin}, nil)
	ctx := context.Background()
	previews.Show(ctx, "acme", domain.PageHome, layout.EmptyDocument())

	preview, ok := previews.Lookup("ACME", domain.PageHome)
	if !ok {
		t.Fatalf("expected preview to exist")
	}
	if _, ok := preview.Document(); !ok {
		t.Fatalf("expected shown document")
	}
	if again := previews.Session(ctx, "acme", domain.PageHome); again != preview {
		t.Fatalf("expected same preview")
	}

	previews.Close("acme", domain.PageHome)
	if _, ok := previews.Lookup("acme", domain.PageHome); ok {
		t.Fatalf("expected preview forgotten")
	}
	version := preview.Version()
	preview.Receive(ctx, editorOrigin, []byte(`{"type":"UPDATE_LAYOUT","payload":{"content":[]}}`))
	if preview.Version() != version {
		t.Fatalf("expected closed preview to ignore updates")
	}
}
