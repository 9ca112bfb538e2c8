package appblock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"html/template"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/internal/templatevars"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// ElementHost is the page an app block is mounted into. It tracks which
// custom elements are defined and which scripts are present.
type ElementHost interface {
	IsDefined(tag string) bool
	HasScript(url string) bool
	InjectScript(ctx context.Context, url, appID string) error
	WhenDefined(ctx context.Context, scriptURL, tag string) error
}

// Option configures an Instance.
type Option func(*Instance)

// WithVariables sets the data used to resolve template tokens in props.
func WithVariables(vars templatevars.Context) Option {
	return func(i *Instance) { i.vars = vars }
}

// WithLogger sets the instance logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(i *Instance) { i.logger = logging.OrNoOp(logger) }
}

// OnStateChange registers fn to run after every state transition.
func OnStateChange(fn func(State)) Option {
	return func(i *Instance) {
		if fn != nil {
			i.listeners = append(i.listeners, fn)
		}
	}
}

// Instance is one mounted app block.
type Instance struct {
	cfg       Config
	host      ElementHost
	vars      templatevars.Context
	logger    interfaces.Logger
	listeners []func(State)

	mu        sync.Mutex
	state     State
	err       error
	unmounted bool
}

// New prepares an instance in StateUninitialized.
func New(cfg Config, host ElementHost, opts ...Option) *Instance {
	inst := &Instance{cfg: cfg, host: host, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(inst)
		}
	}
	inst.logger = logging.WithFields(inst.logger, map[string]any{"app_id": cfg.AppID, "tag": cfg.TagName})
	return inst
}

// State returns the current state.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Err returns the failure recorded in StateError.
func (i *Instance) Err() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.err
}

// Config returns the instance configuration.
func (i *Instance) Config() Config {
	return i.cfg
}

// Mount drives the instance until the element is ready, loading fails or ctx
// ends. When ctx ends first the instance stays in StateLoading. Mount only
// runs once; later calls return the current state.
func (i *Instance) Mount(ctx context.Context) State {
	if i.State() != StateUninitialized {
		return i.State()
	}
	if err := i.cfg.Validate(); err != nil {
		return i.fail(err)
	}
	if i.host == nil {
		return i.fail(errors.New("no element host"))
	}
	if i.host.IsDefined(i.cfg.TagName) {
		return i.set(StateReady, nil)
	}

	i.set(StateLoading, nil)

	if i.host.HasScript(i.cfg.ScriptURL) {
		if err := i.host.WhenDefined(ctx, i.cfg.ScriptURL, i.cfg.TagName); err != nil {
			if ctx.Err() != nil {
				return i.State()
			}
			return i.fail(fmt.Errorf("Failed to define custom element: %s", i.cfg.TagName))
		}
		return i.set(StateReady, nil)
	}

	if err := i.host.InjectScript(ctx, i.cfg.ScriptURL, i.cfg.AppID); err != nil {
		if ctx.Err() != nil {
			return i.State()
		}
		i.logger.Warn("appblock.script_failed", "url", i.cfg.ScriptURL, "error", err)
		return i.fail(fmt.Errorf("Failed to load script: %s", i.cfg.ScriptURL))
	}
	if err := i.host.WhenDefined(ctx, i.cfg.ScriptURL, i.cfg.TagName); err != nil {
		if ctx.Err() != nil {
			return i.State()
		}
		return i.fail(fmt.Errorf("Custom element %q was not defined by the script", i.cfg.TagName))
	}
	return i.set(StateReady, nil)
}

// Unmount clears the container and stops observing state changes. Scripts
// added to the page stay there since other instances may rely on them.
func (i *Instance) Unmount() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.unmounted = true
}

// Mounted reports whether Unmount has not been called.
func (i *Instance) Mounted() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return !i.unmounted
}

func (i *Instance) fail(err error) State {
	i.logger.Debug("appblock.error", "error", err)
	return i.set(StateError, err)
}

func (i *Instance) set(next State, err error) State {
	i.mu.Lock()
	if i.unmounted || !canTransition(i.state, next) {
		current := i.state
		i.mu.Unlock()
		return current
	}
	i.state = next
	i.err = err
	listeners := slices.Clone(i.listeners)
	i.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return next
}

// Markup renders the instance for its current state. In StateError nothing
// is rendered unless diagnostics is set.
func (i *Instance) Markup(diagnostics bool) template.HTML {
	i.mu.Lock()
	state, err, unmounted := i.state, i.err, i.unmounted
	i.mu.Unlock()

	if unmounted {
		return ""
	}
	switch state {
	case StateReady:
		return i.element()
	case StateError:
		if !diagnostics {
			return ""
		}
		return diagnostic(i.cfg.AppID, err)
	default:
		return loadingMarkup
	}
}

const loadingMarkup template.HTML = `<div class="app-block-loading animate-pulse"><span>Loading app...</span></div>`

func diagnostic(appID string, err error) template.HTML {
	if appID == "" {
		appID = "N/A"
	}
	message := "unknown error"
	if err != nil {
		message = err.Error()
	}
	return template.HTML(`<div class="app-block-error" role="alert"><p><strong>App Block Error:</strong> ` +
		html.EscapeString(message) + `</p><p>App ID: ` + html.EscapeString(appID) + `</p></div>`)
}

var attrNamePattern = regexp.MustCompile(`^[a-zA-Z_:][-a-zA-Z0-9_:.]*$`)

func (i *Instance) element() template.HTML {
	var b strings.Builder
	b.WriteString(`<div data-app-block="`)
	b.WriteString(html.EscapeString(i.cfg.AppID))
	b.WriteString(`" class="app-block-container"><`)
	b.WriteString(i.cfg.TagName)
	for _, key := range slices.Sorted(maps.Keys(i.cfg.Props)) {
		if !attrNamePattern.MatchString(key) || strings.HasPrefix(strings.ToLower(key), "on") {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(AttributeValue(templatevars.Resolve(i.cfg.Props[key], i.vars))))
		b.WriteByte('"')
	}
	b.WriteString(`></`)
	b.WriteString(i.cfg.TagName)
	b.WriteString(`></div>`)
	return template.HTML(b.String())
}

// AttributeValue encodes a prop for use as an attribute: primitives as text,
// everything else as JSON.
func AttributeValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v)
	case json.Number:
		return v.String()
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
