// Package bridge carries messages between the visual editor and a storefront
// preview. Every inbound message is checked against an origin allow-list.
package bridge

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/goliatone/go-storefront/internal/layout"
	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/internal/runtimeconfig"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// Poster delivers an outbound message to listeners of one origin.
type Poster interface {
	Post(ctx context.Context, origin string, msg Message) error
}

// NoSelection is the id OnSectionSelect receives for DESELECT_SECTION. It
// stands for the null selection; SELECT_SECTION without an id is dropped,
// so a real selection is never empty.
const NoSelection = ""

// Handlers react to editor messages. Nil handlers are skipped.
type Handlers struct {
	OnLayoutUpdate func(doc *layout.Document)
	// OnSectionSelect receives the selected id, or NoSelection when the
	// editor clears the selection.
	OnSectionSelect     func(sectionID string)
	OnPreviewModeChange func(enabled bool)
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the bridge logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(b *Bridge) { b.logger = logging.OrNoOp(logger) }
}

// WithHandlers sets the initial handlers.
func WithHandlers(h Handlers) Option {
	return func(b *Bridge) { b.handlers = h }
}

// Bridge dispatches editor messages to handlers and broadcasts storefront
// events to every allowed origin.
type Bridge struct {
	poster Poster
	logger interfaces.Logger

	mu          sync.RWMutex
	origins     []string
	handlers    Handlers
	initialized bool
}

// New builds a bridge trusting allowedOrigins. Origins are compared in
// their normalized scheme://host form; entries that do not parse are
// skipped.
func New(allowedOrigins []string, poster Poster, opts ...Option) *Bridge {
	b := &Bridge{poster: poster, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	for _, origin := range allowedOrigins {
		normalized, err := runtimeconfig.NormalizeOrigin(origin)
		if err != nil {
			b.logger.Warn("bridge.origin_invalid", "origin", origin, "error", err)
			continue
		}
		if !slices.Contains(b.origins, normalized) {
			b.origins = append(b.origins, normalized)
		}
	}
	return b
}

// Origins returns the allow-list.
func (b *Bridge) Origins() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.origins)
}

// Allowed reports whether origin is on the allow-list.
func (b *Bridge) Allowed(origin string) bool {
	normalized, err := runtimeconfig.NormalizeOrigin(origin)
	if err != nil {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Contains(b.origins, normalized)
}

// Init starts accepting messages and announces READY. Repeated calls are
// no-ops.
func (b *Bridge) Init(ctx context.Context) {
	b.mu.Lock()
	if b.initialized {
		b.mu.Unlock()
		return
	}
	b.initialized = true
	b.mu.Unlock()

	b.send(ctx, Message{Type: Ready})
}

// Announce repeats READY for listeners that joined after Init. It does
// nothing before Init or after Destroy.
func (b *Bridge) Announce(ctx context.Context) {
	b.mu.RLock()
	active := b.initialized
	b.mu.RUnlock()
	if active {
		b.send(ctx, Message{Type: Ready})
	}
}

// Destroy stops dispatching inbound messages.
func (b *Bridge) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = false
}

// SetHandlers replaces the handlers that are non-nil in h.
func (b *Bridge) SetHandlers(h Handlers) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if h.OnLayoutUpdate != nil {
		b.handlers.OnLayoutUpdate = h.OnLayoutUpdate
	}
	if h.OnSectionSelect != nil {
		b.handlers.OnSectionSelect = h.OnSectionSelect
	}
	if h.OnPreviewModeChange != nil {
		b.handlers.OnPreviewModeChange = h.OnPreviewModeChange
	}
}

// Handle dispatches one inbound message. Messages from origins outside the
// allow-list, malformed messages and unknown types are dropped.
func (b *Bridge) Handle(ctx context.Context, origin string, data []byte) {
	if !b.Allowed(origin) {
		b.logger.WithContext(ctx).Warn("bridge.origin_rejected", "origin", origin)
		return
	}

	b.mu.RLock()
	active, handlers := b.initialized, b.handlers
	b.mu.RUnlock()
	if !active {
		return
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		return
	}

	switch msg.Type {
	case UpdateLayout:
		if handlers.OnLayoutUpdate == nil || len(msg.Payload) == 0 || string(msg.Payload) == "null" {
			return
		}
		handlers.OnLayoutUpdate(layout.NormalizeOrEmpty(msg.Payload))
	case SelectSection:
		if handlers.OnSectionSelect != nil && msg.SectionID != "" {
			handlers.OnSectionSelect(msg.SectionID)
		}
	case DeselectSection:
		if handlers.OnSectionSelect != nil {
			handlers.OnSectionSelect(NoSelection)
		}
	case PreviewModeOn, PreviewModeOff:
		if handlers.OnPreviewModeChange != nil {
			handlers.OnPreviewModeChange(msg.Type == PreviewModeOn)
		}
	default:
		b.logger.Debug("bridge.message_ignored", "type", msg.Type)
	}
}

// NotifySectionClicked tells the editor a section was clicked.
func (b *Bridge) NotifySectionClicked(ctx context.Context, sectionID string) {
	b.send(ctx, Message{Type: SectionClicked, SectionID: sectionID})
}

// NotifyLayoutLoaded tells the editor which layout the preview shows.
func (b *Bridge) NotifyLayoutLoaded(ctx context.Context, doc *layout.Document) {
	b.send(ctx, Message{Type: LayoutLoaded, Layout: doc})
}

func (b *Bridge) send(ctx context.Context, msg Message) {
	if b.poster == nil {
		return
	}
	for _, origin := range b.Origins() {
		if err := b.poster.Post(ctx, origin, msg); err != nil {
			b.logger.Debug("bridge.post_failed", "origin", origin, "type", msg.Type, "error", err)
		}
	}
}
