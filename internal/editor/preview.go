package editor

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/goliatone/go-storefront/internal/bridge"
	"github.com/goliatone/go-storefront/internal/domain"
	"github.com/goliatone/go-storefront/internal/layout"
	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// Channel names the bridge channel of a previewed page.
func Channel(storeSlug string, pageType domain.PageType) string {
	return strings.ToLower(storeSlug) + "/" + strings.ToLower(string(pageType))
}

// Previews tracks one preview session per store page. Sessions talk to
// their editor through a bridge bound to the page's hub channel.
type Previews struct {
	hub     *bridge.Hub
	origins []string
	logger  interfaces.Logger

	mu       sync.Mutex
	sessions map[string]*Preview
}

func NewPreviews(hub *bridge.Hub, allowedOrigins []string, logger interfaces.Logger) *Previews {
	return &Previews{
		hub:      hub,
		origins:  append([]string(nil), allowedOrigins...),
		logger:   logging.OrNoOp(logger),
		sessions: map[string]*Preview{},
	}
}

// Session returns the preview of a page, creating it on first use.
func (p *Previews) Session(ctx context.Context, storeSlug string, pageType domain.PageType) *Preview {
	channel := Channel(storeSlug, pageType)

	p.mu.Lock()
	preview, ok := p.sessions[channel]
	if !ok {
		preview = newPreview(channel, p.poster(channel), p.origins, p.logger)
		p.sessions[channel] = preview
	}
	p.mu.Unlock()

	if !ok {
		preview.bridge.Init(ctx)
	}
	return preview
}

// Joined announces READY again when a connection joins the channel of a
// live preview.
func (p *Previews) Joined(ctx context.Context, channel, _ string) {
	p.mu.Lock()
	preview, ok := p.sessions[channel]
	p.mu.Unlock()
	if ok {
		preview.bridge.Announce(ctx)
	}
}

// Lookup returns an existing preview.
func (p *Previews) Lookup(storeSlug string, pageType domain.PageType) (*Preview, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	preview, ok := p.sessions[Channel(storeSlug, pageType)]
	return preview, ok
}

// Show replaces the document a preview renders and tells the editor.
func (p *Previews) Show(ctx context.Context, storeSlug string, pageType domain.PageType, doc *layout.Document) {
	p.Session(ctx, storeSlug, pageType).Show(ctx, doc)
}

// Close detaches and forgets a preview. Messages that arrive for it later
// are dropped.
func (p *Previews) Close(storeSlug string, pageType domain.PageType) {
	channel := Channel(storeSlug, pageType)
	p.mu.Lock()
	preview, ok := p.sessions[channel]
	delete(p.sessions, channel)
	p.mu.Unlock()
	if ok {
		preview.bridge.Destroy()
	}
}

func (p *Previews) poster(channel string) bridge.Poster {
	if p.hub == nil {
		return nil
	}
	return p.hub.Channel(channel)
}

// Preview is the state a storefront preview renders from: the latest
// document received from the editor, the selected section and whether the
// editor switched to preview mode.
type Preview struct {
	channel string
	bridge  *bridge.Bridge

	mu          sync.RWMutex
	doc         *layout.Document
	selected    string
	previewMode bool
	version     uint64
}

func newPreview(channel string, poster bridge.Poster, origins []string, logger interfaces.Logger) *Preview {
	p := &Preview{channel: channel}
	p.bridge = bridge.New(origins, poster,
		bridge.WithLogger(logging.WithFields(logger, map[string]any{"channel": channel})),
		bridge.WithHandlers(bridge.Handlers{
			OnLayoutUpdate: func(doc *layout.Document) {
				p.setDocument(doc)
				p.refresh()
			},
			OnSectionSelect: func(id string) {
				p.setSelected(id)
				p.refresh()
			},
			OnPreviewModeChange: func(enabled bool) {
				p.setPreviewMode(enabled)
				p.refresh()
			},
		}),
	)
	return p
}

// refresh tells connected pages to re-render after an editor change.
func (p *Preview) refresh() {
	doc, _ := p.Document()
	p.bridge.NotifyLayoutLoaded(context.Background(), doc)
}

func (p *Preview) Channel() string { return p.channel }

// Bridge returns the bridge inbound websocket messages are handed to.
func (p *Preview) Bridge() *bridge.Bridge { return p.bridge }

// Document returns the document to render, if the editor sent one.
func (p *Preview) Document() (*layout.Document, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.doc == nil {
		return nil, false
	}
	return p.doc.Clone(), true
}

// Selected returns the section highlighted in the editor.
func (p *Preview) Selected() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.selected
}

// PreviewMode reports whether editing affordances should be hidden.
func (p *Preview) PreviewMode() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.previewMode
}

// Version increases with every document change.
func (p *Preview) Version() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.version
}

type clickReport struct {
	Type      bridge.MessageType `json:"type"`
	SectionID string             `json:"sectionId"`
	Payload   struct {
		SectionID string `json:"sectionId"`
	} `json:"payload"`
}

// Receive handles one message read from the page's websocket. Clicks
// reported by the preview page are relayed to the editor; anything else is
// an editor message for the bridge.
func (p *Preview) Receive(ctx context.Context, origin string, data []byte) {
	var report clickReport
	if err := json.Unmarshal(data, &report); err == nil && report.Type == bridge.SectionClicked {
		if !p.bridge.Allowed(origin) {
			return
		}
		id := report.SectionID
		if id == "" {
			id = report.Payload.SectionID
		}
		if id != "" {
			p.SectionClicked(ctx, id)
		}
		return
	}
	p.bridge.Handle(ctx, origin, data)
}

// Show sets the document and announces it to the editor.
func (p *Preview) Show(ctx context.Context, doc *layout.Document) {
	p.setDocument(doc)
	p.bridge.NotifyLayoutLoaded(ctx, doc)
}

// SectionClicked relays a click in the preview to the editor.
func (p *Preview) SectionClicked(ctx context.Context, sectionID string) {
	p.setSelected(sectionID)
	p.bridge.NotifySectionClicked(ctx, sectionID)
}

func (p *Preview) setDocument(doc *layout.Document) {
	if doc == nil {
		doc = layout.EmptyDocument()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doc = doc.Clone()
	p.version++
}

func (p *Preview) setSelected(sectionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = sectionID
}

func (p *Preview) setPreviewMode(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.previewMode = enabled
}
