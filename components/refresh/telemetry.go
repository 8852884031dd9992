package refresh

import (
	"context"

	"go.uber.org/zap"
)

// Telemetry records refresh events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// LoggerTelemetry writes telemetry events as debug log entries.
type LoggerTelemetry struct {
	Logger *zap.Logger
}

// NewLoggerTelemetry returns a Telemetry backed by logger.
func NewLoggerTelemetry(logger *zap.Logger) *LoggerTelemetry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggerTelemetry{Logger: logger}
}

// Record logs the event with its payload as structured fields.
func (t *LoggerTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	fields := make([]zap.Field, 0, len(payload))
	for key, value := range payload {
		fields = append(fields, zap.Any(key, value))
	}
	t.Logger.Debug(event, fields...)
}
