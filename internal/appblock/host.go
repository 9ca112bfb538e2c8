package appblock

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"
)

// ErrElementNotDefined is returned by WhenDefined when every known script has
// finished loading and none of them defines the tag.
var ErrElementNotDefined = errors.New("custom element not defined")

const defaultLoadTimeout = 10 * time.Second

// ScriptSource fetches a script body so the host can discover which custom
// elements it defines.
type ScriptSource interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Script is a script tag the rendered page must include.
type Script struct {
	URL   string
	AppID string
}

type pendingScript struct {
	Script
	done chan struct{}
	err  error
	// opaque is set when the body registers elements under names that
	// cannot be read from the source.
	opaque bool
}

// PageHost is the ElementHost for a single rendered page. Scripts are
// recorded in injection order and each URL is fetched at most once.
type PageHost struct {
	source  ScriptSource
	timeout time.Duration

	mu      sync.Mutex
	defined map[string]struct{}
	scripts map[string]*pendingScript
	order   []*pendingScript
}

var _ ElementHost = (*PageHost)(nil)

// NewPageHost builds a host that already knows the given tags.
func NewPageHost(source ScriptSource, defined ...string) *PageHost {
	host := &PageHost{
		source:  source,
		timeout: defaultLoadTimeout,
		defined: make(map[string]struct{}, len(defined)),
		scripts: map[string]*pendingScript{},
	}
	for _, tag := range defined {
		host.defined[tag] = struct{}{}
	}
	return host
}

// WithLoadTimeout bounds how long a script fetch may take.
func (p *PageHost) WithLoadTimeout(timeout time.Duration) *PageHost {
	if timeout > 0 {
		p.timeout = timeout
	}
	return p
}

func (p *PageHost) IsDefined(tag string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.defined[tag]
	return ok
}

func (p *PageHost) HasScript(url string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.scripts[url]
	return ok
}

// InjectScript adds the script to the page and waits for it to load.
func (p *PageHost) InjectScript(ctx context.Context, url, appID string) error {
	p.mu.Lock()
	script, exists := p.scripts[url]
	if !exists {
		script = &pendingScript{Script: Script{URL: url, AppID: appID}, done: make(chan struct{})}
		p.scripts[url] = script
		p.order = append(p.order, script)
	}
	p.mu.Unlock()

	if !exists {
		go p.load(context.WithoutCancel(ctx), script)
	}

	select {
	case <-script.done:
		return script.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *PageHost) load(ctx context.Context, script *pendingScript) {
	defer close(script.done)
	if p.source == nil {
		script.err = errors.New("no script source")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	body, err := p.source.Fetch(ctx, script.URL)
	if err != nil {
		script.err = err
		return
	}
	tags := DefinedElements(body)
	script.opaque = definesOpaquely(body, tags)
	p.mu.Lock()
	for _, tag := range tags {
		p.defined[tag] = struct{}{}
	}
	p.mu.Unlock()
}

// WhenDefined waits until tag is defined by a loaded script. When scriptURL
// loaded without naming its elements in a readable way, tag is taken to be
// one of them.
func (p *PageHost) WhenDefined(ctx context.Context, scriptURL, tag string) error {
	for {
		p.mu.Lock()
		_, ok := p.defined[tag]
		own := p.scripts[scriptURL]
		var waiting []*pendingScript
		for _, script := range p.order {
			select {
			case <-script.done:
			default:
				waiting = append(waiting, script)
			}
		}
		p.mu.Unlock()

		if ok {
			return nil
		}
		if len(waiting) == 0 {
			if own == nil || own.err != nil || !own.opaque {
				return ErrElementNotDefined
			}
			p.mu.Lock()
			p.defined[tag] = struct{}{}
			p.mu.Unlock()
			return nil
		}
		for _, script := range waiting {
			select {
			case <-script.done:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Scripts lists the injected scripts in order.
func (p *PageHost) Scripts() []Script {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Script, 0, len(p.order))
	for _, script := range p.order {
		out = append(out, script.Script)
	}
	return out
}

var (
	definePattern = regexp.MustCompile("customElements\\.define\\(\\s*['\"`]([a-z][a-z0-9._]*-[a-z0-9._-]*)['\"`]")
	defineCall    = regexp.MustCompile(`customElements\s*\.\s*define\s*\(`)
)

// DefinedElements returns the custom element names a script registers.
func DefinedElements(body string) []string {
	matches := definePattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, match := range matches {
		if _, ok := seen[match[1]]; ok {
			continue
		}
		seen[match[1]] = struct{}{}
		out = append(out, match[1])
	}
	return out
}

// definesOpaquely reports whether body has no define call with a literal
// name, or has define calls whose names are computed.
func definesOpaquely(body string, literal []string) bool {
	if len(literal) == 0 {
		return true
	}
	return len(defineCall.FindAllStringIndex(body, -1)) > len(definePattern.FindAllStringIndex(body, -1))
}
