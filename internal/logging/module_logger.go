package logging

import (
	"context"

	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// Module names handed to the logger provider.
const (
	RootModule     = "storefront"
	RenderModule   = "storefront.render"
	BridgeModule   = "storefront.bridge"
	EditorModule   = "storefront.editor"
	APIModule      = "storefront.api"
	AppBlockModule = "storefront.appblock"
	CartModule     = "storefront.cart"
	HTTPModule     = "storefront.http"
)

// ModuleLogger returns the provider's logger for module annotated with a
// "module" field. A nil provider yields NoOp.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = RootModule
	}
	var logger interfaces.Logger = noopLogger{}
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}
	return WithFields(logger, map[string]any{"module": module})
}

// OrNoOp returns logger, or NoOp when logger is nil.
func OrNoOp(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return noopLogger{}
	}
	return logger
}

// NoOp returns a logger that discards everything.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var (
	_ interfaces.Logger       = noopLogger{}
	_ interfaces.FieldsLogger = noopLogger{}
)

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger     { return n }
func (n noopLogger) WithContext(context.Context) interfaces.Logger { return n }
