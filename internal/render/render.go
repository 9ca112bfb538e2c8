// Package render assembles a page from a layout, rendering each section in
// order. Sections that load data run concurrently, each within a time
// budget; a section that misses its budget is replaced by a placeholder that
// fetches the finished markup from the fragment endpoint.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"runtime/debug"
	"sync"
	"time"

	"github.com/goliatone/go-storefront/internal/layout"
	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/internal/sections"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

var ErrSectionNotFound = errors.New("render: section not found")

// NoLayout is shown when a page has no usable layout.
const NoLayout template.HTML = `<div class="storefront-empty-layout py-24 text-center text-gray-500"><p>No layout configuration found</p></div>`

// Options controls a single render.
type Options struct {
	// SelectedSectionID marks a section as selected in the editor.
	SelectedSectionID string
	// FragmentURL builds the URL a deferred section is fetched from. Sections
	// are never deferred when nil.
	FragmentURL func(sectionID string) string
}

// Renderer renders layouts.
type Renderer struct {
	sections *sections.Renderer
	budget   time.Duration
	logger   interfaces.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSectionBudget sets how long a data-loading section may take before it
// is deferred. Zero waits indefinitely.
func WithSectionBudget(d time.Duration) Option {
	return func(r *Renderer) { r.budget = d }
}

// WithLogger sets the renderer logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Renderer) { r.logger = logging.OrNoOp(logger) }
}

// New builds a layout renderer on top of a section renderer.
func New(sectionRenderer *sections.Renderer, opts ...Option) *Renderer {
	r := &Renderer{sections: sectionRenderer, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

type result struct {
	markup   template.HTML
	deferred bool
}

// Render renders every section in l.Order. The output order always matches
// Order regardless of which sections finish first.
func (r *Renderer) Render(ctx context.Context, l *layout.Layout, sc sections.Context, opts Options) (template.HTML, error) {
	if !l.Configured() {
		return NoLayout, nil
	}
	visible := l.Visible()
	results := make([]result, len(visible))

	var wg sync.WaitGroup
	for i, section := range visible {
		kind, known := sections.ParseKind(section.Type)
		if !known || !sections.LoadsData(kind, sc) {
			results[i] = result{markup: r.renderSafely(ctx, section, sc)}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = r.renderBudgeted(ctx, section, sc, opts)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	deferred := 0
	for i, section := range visible {
		writeWrapper(&buf, section.ID, results[i].markup, sc.Editing, section.ID == opts.SelectedSectionID)
		if results[i].deferred {
			deferred++
		}
	}
	if sc.Editing && len(visible) > 0 {
		buf.WriteString(clickRelayScript)
	}
	if deferred > 0 {
		r.logger.Debug("render.page_deferred", "sections", len(visible), "deferred", deferred)
	}
	return template.HTML(buf.String()), nil
}

// RenderSection renders the section with id without a time budget. It is
// the fragment endpoint's counterpart of a deferred section.
func (r *Renderer) RenderSection(ctx context.Context, l *layout.Layout, id string, sc sections.Context) (template.HTML, error) {
	if !l.Configured() {
		return "", ErrSectionNotFound
	}
	section, ok := l.Sections[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	return r.renderSafely(ctx, section, sc), nil
}

func (r *Renderer) renderBudgeted(ctx context.Context, section layout.Section, sc sections.Context, opts Options) result {
	if r.budget <= 0 || opts.FragmentURL == nil {
		return result{markup: r.renderSafely(ctx, section, sc)}
	}

	done := make(chan template.HTML, 1)
	go func() {
		done <- r.renderSafely(context.WithoutCancel(ctx), section, sc)
	}()

	timer := time.NewTimer(r.budget)
	defer timer.Stop()
	select {
	case markup := <-done:
		return result{markup: markup}
	case <-timer.C:
		r.logger.Debug("render.section_deferred", "section", section.ID, "type", section.Type)
		return result{markup: deferredPlaceholder(opts.FragmentURL(section.ID)), deferred: true}
	case <-ctx.Done():
		return result{}
	}
}

// renderSafely renders one section, turning errors and panics into an empty
// section so the rest of the page still renders.
func (r *Renderer) renderSafely(ctx context.Context, section layout.Section, sc sections.Context) (out template.HTML) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("render.section_panic", "section", section.ID, "type", section.Type, "panic", rec, "stack", string(debug.Stack()))
			out = sectionError(sc, fmt.Errorf("panic: %v", rec))
		}
	}()
	markup, err := r.sections.Render(ctx, section.Type, section.Settings, sc)
	if err != nil {
		r.logger.Warn("render.section_failed", "section", section.ID, "type", section.Type, "error", err)
		return sectionError(sc, err)
	}
	return markup
}

func sectionError(sc sections.Context, err error) template.HTML {
	if !sc.Diagnostics() {
		return ""
	}
	return template.HTML(`<div class="storefront-section-error"><p>Section failed to render: ` + html.EscapeString(err.Error()) + `</p></div>`)
}

func deferredPlaceholder(url string) template.HTML {
	return template.HTML(`<div class="storefront-section-loading animate-pulse" data-fragment-url="` + html.EscapeString(url) +
		`"><p>Loading section...</p></div>` + fragmentLoaderScript)
}

func writeWrapper(buf *bytes.Buffer, id string, markup template.HTML, editing, selected bool) {
	escaped := html.EscapeString(id)
	buf.WriteString(`<section id="section-`)
	buf.WriteString(escaped)
	buf.WriteString(`" data-section-id="`)
	buf.WriteString(escaped)
	buf.WriteString(`" class="storefront-section`)
	if selected {
		buf.WriteString(` is-selected`)
	}
	buf.WriteByte('"')
	if editing {
		buf.WriteString(` data-editor-selectable="true"`)
	}
	buf.WriteByte('>')
	buf.WriteString(string(markup))
	buf.WriteString(`</section>`)
}

const fragmentLoaderScript = `<script>(function(s){var el=s.previousElementSibling;if(!el||!el.dataset.fragmentUrl)return;fetch(el.dataset.fragmentUrl,{credentials:"same-origin"}).then(function(r){return r.ok?r.text():""}).then(function(h){el.outerHTML=h}).catch(function(){})})(document.currentScript)</script>`

const clickRelayScript = `<script>document.addEventListener("click",function(e){var s=e.target.closest("[data-editor-selectable]");if(!s)return;e.preventDefault();e.stopPropagation();if(window.storefrontBridge)window.storefrontBridge.send({type:"SECTION_CLICKED",payload:{sectionId:s.dataset.sectionId}})},true)</script>`
