package console

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// Level is a log severity.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "INFO"
}

// ParseLevel maps a level name to a Level, defaulting to LevelInfo.
func ParseLevel(name string) Level {
	for i, candidate := range levelNames {
		if strings.EqualFold(strings.TrimSpace(name), candidate) {
			return Level(i)
		}
	}
	if strings.EqualFold(strings.TrimSpace(name), "warning") {
		return LevelWarn
	}
	return LevelInfo
}

// Options configures the console provider.
type Options struct {
	Writer   io.Writer
	TimeFunc func() time.Time
	MinLevel Level
}

// Provider writes key=value lines to a writer. It is used in development and
// by tests that assert on log output.
type Provider struct {
	w     io.Writer
	clock func() time.Time
	min   Level
	mu    sync.Mutex
}

var _ interfaces.LoggerProvider = (*Provider)(nil)

// NewProvider builds a console provider; stdout and time.Now are the defaults.
func NewProvider(opts Options) *Provider {
	p := &Provider{w: opts.Writer, clock: opts.TimeFunc, min: opts.MinLevel}
	if p.w == nil {
		p.w = os.Stdout
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	return p
}

func (p *Provider) GetLogger(name string) interfaces.Logger {
	return &logger{p: p, fields: map[string]any{"logger": name}}
}

type logger struct {
	p      *Provider
	fields map[string]any
	ctx    context.Context
}

var _ interfaces.FieldsLogger = (*logger)(nil)

func (l *logger) Trace(msg string, args ...any) { l.write(LevelTrace, msg, args) }
func (l *logger) Debug(msg string, args ...any) { l.write(LevelDebug, msg, args) }
func (l *logger) Info(msg string, args ...any)  { l.write(LevelInfo, msg, args) }
func (l *logger) Warn(msg string, args ...any)  { l.write(LevelWarn, msg, args) }
func (l *logger) Error(msg string, args ...any) { l.write(LevelError, msg, args) }
func (l *logger) Fatal(msg string, args ...any) { l.write(LevelFatal, msg, args) }

func (l *logger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	merged := maps.Clone(l.fields)
	maps.Copy(merged, fields)
	return &logger{p: l.p, fields: merged, ctx: l.ctx}
}

func (l *logger) WithContext(ctx context.Context) interfaces.Logger {
	return &logger{p: l.p, fields: l.fields, ctx: ctx}
}

func (l *logger) write(level Level, msg string, args []any) {
	if level < l.p.min {
		return
	}
	fields := maps.Clone(l.fields)
	maps.Copy(fields, logging.ContextFields(l.ctx))
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			fields["!BADKEY"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = fmt.Sprintf("arg_%d", i/2)
		}
		fields[key] = args[i+1]
	}

	var b strings.Builder
	b.WriteString(l.p.clock().UTC().Format(time.RFC3339Nano))
	b.WriteByte(' ')
	b.WriteString(level.String())
	b.WriteByte(' ')
	b.WriteString(msg)
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(render(fields[key]))
	}
	b.WriteByte('\n')

	l.p.mu.Lock()
	defer l.p.mu.Unlock()
	_, _ = io.WriteString(l.p.w, b.String())
}

func render(value any) string {
	var s string
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		s = v
	case time.Time:
		s = v.UTC().Format(time.RFC3339Nano)
	case error:
		s = v.Error()
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	if s == "" {
		return `""`
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
