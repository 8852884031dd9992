package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// InitializeInput starts the extension session.
type InitializeInput struct{}

type initializer interface {
	Initialize(ctx context.Context) error
}

// InitializeCommand waits for the host and collects the dashboard's data sources.
type InitializeCommand struct {
	service   initializer
	telemetry Telemetry
}

// NewInitializeCommand creates the command.
func NewInitializeCommand(service initializer, telemetry Telemetry) *InitializeCommand {
	return &InitializeCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[InitializeInput] = (*InitializeCommand)(nil)

// Execute initializes the session. Failures are final; the service does not retry.
func (c *InitializeCommand) Execute(ctx context.Context, _ InitializeInput) error {
	if c.service == nil {
		return errors.New("initialize command requires service")
	}
	err := c.service.Initialize(ctx)
	c.telemetry.Record(ctx, "refresh.initialize", map[string]any{"ok": err == nil})
	return err
}
