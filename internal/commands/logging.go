package commands

import (
	"strings"

	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// CommandLogger returns the logger for the handlers of one command area,
// e.g. "layouts" logs as storefront.editor.commands.layouts.
func CommandLogger(provider interfaces.LoggerProvider, area string) interfaces.Logger {
	area = strings.ToLower(strings.TrimSpace(area))
	if area == "" {
		return logging.ModuleLogger(provider, logging.EditorModule)
	}
	logger := logging.ModuleLogger(provider, logging.EditorModule+".commands."+area)
	return logging.WithFields(logger, map[string]any{"command_area": area})
}
