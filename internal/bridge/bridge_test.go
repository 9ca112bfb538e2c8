package bridge

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-storefront/internal/layout"
	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/internal/logging/console"
)

type sentMessage struct {
	origin string
	msg    Message
}

type recordingPoster struct {
	mu   sync.Mutex
	sent []sentMessage
	fail bool
}

func (p *recordingPoster) Post(_ context.Context, origin string, msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sentMessage{origin: origin, msg: msg})
	if p.fail {
		return errors.New("window closed")
	}
	return nil
}

func (p *recordingPoster) messages() []sentMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sentMessage(nil), p.sent...)
}

var editorOrigins = []string{"http://localhost:3001", "HTTP://LOCALHOST:8080/", "not an origin"}

func TestBridgeInitAnnouncesReadyOnce(t *testing.T) {
	t.Parallel()

	poster := &recordingPoster{}
	b := New(editorOrigins, poster)
	b.Init(context.Background())
	b.Init(context.Background())

	sent := poster.messages()
	if len(sent) != 2 {
		t.Fatalf("expected READY to each allowed origin once, got %+v", sent)
	}
	if sent[0].origin != "http://localhost:3001" || sent[1].origin != "http://localhost:8080" {
		t.Fatalf("unexpected origins %+v", sent)
	}
	for _, s := range sent {
		if s.msg.Type != Ready {
			t.Fatalf("expected READY, got %s", s.msg.Type)
		}
	}
}

func TestBridgeDispatchesEditorMessages(t *testing.T) {
	t.Parallel()

	var (
		docs     []*layout.Document
		selected []string
		preview  []bool
	)
	b := New(editorOrigins, nil, WithHandlers(Handlers{
		OnLayoutUpdate:      func(doc *layout.Document) { docs = append(docs, doc) },
		OnSectionSelect:     func(id string) { selected = append(selected, id) },
		OnPreviewModeChange: func(on bool) { preview = append(preview, on) },
	}))
	b.Init(context.Background())

	ctx := context.Background()
	origin := "http://localhost:3001"
	b.Handle(ctx, origin, []byte(`{"type":"UPDATE_LAYOUT","payload":{"sections":{"a":{"type":"HeroBanner","settings":{"title":"Hi"}}},"order":["a"]}}`))
	b.Handle(ctx, origin, []byte(`{"type":"UPDATE_LAYOUT","payload":{"bogus":true}}`))
	b.Handle(ctx, origin, []byte(`{"type":"UPDATE_LAYOUT"}`))
	b.Handle(ctx, origin, []byte(`{"type":"SELECT_SECTION","sectionId":"hero-1"}`))
	b.Handle(ctx, origin, []byte(`{"type":"SELECT_SECTION"}`))
	b.Handle(ctx, origin, []byte(`{"type":"DESELECT_SECTION"}`))
	b.Handle(ctx, origin, []byte(`{"type":"PREVIEW_MODE_ON"}`))
	b.Handle(ctx, origin, []byte(`{"type":"PREVIEW_MODE_OFF"}`))
	b.Handle(ctx, origin, []byte(`{"type":"SOMETHING_ELSE"}`))
	b.Handle(ctx, origin, []byte(`{"payload":1}`))
	b.Handle(ctx, origin, []byte(`not json`))

	if len(docs) != 2 {
		t.Fatalf("expected two layout updates, got %d", len(docs))
	}
	if len(docs[0].Content) != 1 || docs[0].Content[0].ID() != "HeroBanner-a" {
		t.Fatalf("expected legacy payload to be normalized, got %+v", docs[0])
	}
	if len(docs[1].Content) != 0 {
		t.Fatalf("expected malformed payload to become the empty document")
	}
	if len(selected) != 2 || selected[0] != "hero-1" || selected[1] != NoSelection {
		t.Fatalf("unexpected selections %q", selected)
	}
	if len(preview) != 2 || !preview[0] || preview[1] {
		t.Fatalf("unexpected preview changes %v", preview)
	}
}

func TestBridgeRejectsUntrustedOrigins(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	provider := console.NewProvider(console.Options{Writer: &buf})
	called := false
	b := New(editorOrigins, nil,
		WithLogger(logging.ModuleLogger(provider, logging.BridgeModule)),
		WithHandlers(Handlers{OnSectionSelect: func(string) { called = true }}),
	)
	b.Init(context.Background())

	b.Handle(context.Background(), "https://evil.example", []byte(`{"type":"SELECT_SECTION","sectionId":"x"}`))
	b.Handle(context.Background(), "", []byte(`{"type":"SELECT_SECTION","sectionId":"x"}`))

	if called {
		t.Fatalf("expected handler not to run for untrusted origin")
	}
	if !strings.Contains(buf.String(), "WARN bridge.origin_rejected") || !strings.Contains(buf.String(), "origin=https://evil.example") {
		t.Fatalf("expected rejection to be logged, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "bridge.origin_invalid") {
		t.Fatalf("expected invalid allow-list entry to be logged")
	}
}

func TestBridgeDestroyDetaches(t *testing.T) {
	t.Parallel()

	calls := 0
	b := New(editorOrigins, nil, WithHandlers(Handlers{OnPreviewModeChange: func(bool) { calls++ }}))
	msg := []byte(`{"type":"PREVIEW_MODE_ON"}`)

	b.Handle(context.Background(), "http://localhost:3001", msg)
	b.Init(context.Background())
	b.Handle(context.Background(), "http://localhost:3001", msg)
	b.Destroy()
	b.Handle(context.Background(), "http://localhost:3001", msg)

	if calls != 1 {
		t.Fatalf("expected a single dispatch while initialized, got %d", calls)
	}
}

func TestBridgeSetHandlersKeepsExisting(t *testing.T) {
	t.Parallel()

	var got []string
	b := New(editorOrigins, nil, WithHandlers(Handlers{OnSectionSelect: func(id string) { got = append(got, "first:"+id) }}))
	b.SetHandlers(Handlers{OnPreviewModeChange: func(bool) {}})
	b.Init(context.Background())
	b.Handle(context.Background(), "http://localhost:8080", []byte(`{"type":"SELECT_SECTION","sectionId":"a"}`))

	b.SetHandlers(Handlers{OnSectionSelect: func(id string) { got = append(got, "second:"+id) }})
	b.Handle(context.Background(), "http://localhost:8080", []byte(`{"type":"SELECT_SECTION","sectionId":"b"}`))

	if len(got) != 2 || got[0] != "first:a" || got[1] != "second:b" {
		t.Fatalf("unexpected dispatches %q", got)
	}
}

func TestBridgeOutboundSwallowsPostErrors(t *testing.T) {
	t.Parallel()

	poster := &recordingPoster{fail: true}
	b := New(editorOrigins, poster)
	b.NotifySectionClicked(context.Background(), "hero-1")
	b.NotifyLayoutLoaded(context.Background(), layout.EmptyDocument())

	sent := poster.messages()
	if len(sent) != 4 {
		t.Fatalf("expected every origin to be attempted, got %d", len(sent))
	}
	if sent[0].msg.Type != SectionClicked || sent[0].msg.SectionID != "hero-1" {
		t.Fatalf("unexpected message %+v", sent[0].msg)
	}
	if sent[2].msg.Type != LayoutLoaded || sent[2].msg.Layout == nil {
		t.Fatalf("unexpected message %+v", sent[2].msg)
	}
}

func TestBridgeAnnounceOnlyWhileActive(t *testing.T) {
	t.Parallel()

	poster := &recordingPoster{}
	b := New([]string{"http://localhost:3001"}, poster)
	b.Announce(context.Background())
	if len(poster.messages()) != 0 {
		t.Fatalf("expected no READY before Init")
	}

	b.Init(context.Background())
	b.Announce(context.Background())
	if sent := poster.messages(); len(sent) != 2 || sent[1].msg.Type != Ready {
		t.Fatalf("expected repeated READY, got %+v", sent)
	}

	b.Destroy()
	b.Announce(context.Background())
	if len(poster.messages()) != 2 {
		t.Fatalf("expected destroyed bridge to stay silent")
	}
}
