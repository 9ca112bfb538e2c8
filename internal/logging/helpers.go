package logging

import (
	"maps"

	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// WithFields attaches fields when the logger supports them and returns the
// logger untouched otherwise.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fl, ok := logger.(interfaces.FieldsLogger); ok {
		return fl.WithFields(maps.Clone(fields))
	}
	return logger
}

// WithStore scopes a logger to a storefront slug.
func WithStore(logger interfaces.Logger, slug string) interfaces.Logger {
	if slug == "" {
		return logger
	}
	return WithFields(logger, map[string]any{"store": slug})
}
