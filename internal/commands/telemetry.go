package commands

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// TelemetryStatus is the outcome class of one execution.
type TelemetryStatus string

const (
	TelemetryStatusSuccess      TelemetryStatus = "success"
	TelemetryStatusFailed       TelemetryStatus = "failed"
	TelemetryStatusContextError TelemetryStatus = "context_error"
)

// TelemetryInfo is handed to Telemetry after every execution. Logger already
// carries the command, operation and message fields.
type TelemetryInfo struct {
	Command   string
	Operation string
	Fields    map[string]any
	Duration  time.Duration
	Error     error
	Status    TelemetryStatus
	Logger    interfaces.Logger
}

type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// LatencyTelemetry logs every outcome with its duration. Successful runs
// slower than slowAfter are logged as warnings; zero disables that.
func LatencyTelemetry[T command.Message](slowAfter time.Duration) Telemetry[T] {
	return func(_ context.Context, _ T, info TelemetryInfo) {
		args := []any{"duration_ms", info.Duration.Milliseconds(), "status", string(info.Status)}
		switch {
		case info.Status != TelemetryStatusSuccess:
			info.Logger.Error("command.execute.failed", append(args, "error", info.Error)...)
		case slowAfter > 0 && info.Duration > slowAfter:
			info.Logger.Warn("command.execute.slow", append(args, "slow_after_ms", slowAfter.Milliseconds())...)
		default:
			info.Logger.Info("command.execute.success", args...)
		}
	}
}
