package commands

import (
	"context"

	refresh "github.com/goliatone/go-datasource-refresh/components/refresh"
)

// Telemetry is shared with the refresh service so one sink can observe both.
type Telemetry = refresh.Telemetry

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}
