package editor

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/goliatone/go-storefront/internal/layout"
	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// DefaultAutosaveDelay is the quiet period after the last edit before a
// draft is written.
const DefaultAutosaveDelay = 2 * time.Second

const autosaveTimeout = 30 * time.Second

// SaveFunc persists a draft.
type SaveFunc func(ctx context.Context, doc *layout.Document) error

// AutosaveOption configures an Autosaver.
type AutosaveOption func(*Autosaver)

// WithAutosaveLogger sets the autosaver logger.
func WithAutosaveLogger(logger interfaces.Logger) AutosaveOption {
	return func(a *Autosaver) { a.logger = logging.OrNoOp(logger) }
}

// WithSaveObserver registers fn to be called after every save attempt.
func WithSaveObserver(fn func(doc *layout.Document, err error)) AutosaveOption {
	return func(a *Autosaver) { a.observe = fn }
}

// Autosaver coalesces edits: every burst of Schedule calls inside the delay
// window produces one save carrying the last scheduled document.
type Autosaver struct {
	save      SaveFunc
	debounced func(func())
	logger    interfaces.Logger
	observe   func(*layout.Document, error)

	mu      sync.Mutex
	pending *layout.Document
	closed  bool

	// saving orders writes so a draft taken later is never overwritten by
	// one taken earlier.
	saving sync.Mutex
}

// NewAutosaver builds an autosaver that writes through save once edits have
// been quiet for delay.
func NewAutosaver(delay time.Duration, save SaveFunc, opts ...AutosaveOption) *Autosaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	a := &Autosaver{
		save:      save,
		debounced: debounce.New(delay),
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Schedule records doc as the latest draft and restarts the quiet period.
func (a *Autosaver) Schedule(doc *layout.Document) {
	if doc == nil {
		return
	}
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.pending = doc.Clone()
	a.mu.Unlock()

	a.debounced(a.fire)
}

// Pending reports whether a draft is waiting to be written.
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != nil
}

// Flush writes the pending draft now. It is a no-op when nothing is pending.
func (a *Autosaver) Flush(ctx context.Context) error {
	return a.write(ctx)
}

// Close flushes the pending draft and stops accepting new ones.
func (a *Autosaver) Close(ctx context.Context) error {
	err := a.write(ctx)
	a.mu.Lock()
	a.closed = true
	a.pending = nil
	a.mu.Unlock()
	return err
}

func (a *Autosaver) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()
	if err := a.write(ctx); err != nil {
		a.logger.Warn("editor.autosave_failed", "error", err)
	}
}

func (a *Autosaver) write(ctx context.Context) error {
	a.saving.Lock()
	defer a.saving.Unlock()

	a.mu.Lock()
	doc := a.pending
	a.pending = nil
	a.mu.Unlock()
	if doc == nil {
		return nil
	}

	err := a.save(ctx, doc)
	if err != nil {
		a.requeue(doc)
	}
	if a.observe != nil {
		a.observe(doc, err)
	}
	return err
}

// requeue puts a failed draft back unless a newer one arrived meanwhile.
func (a *Autosaver) requeue(doc *layout.Document) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == nil && !a.closed {
		a.pending = doc
	}
}
