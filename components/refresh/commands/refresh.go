package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
	"go.uber.org/zap"

	refresh "github.com/goliatone/go-datasource-refresh/components/refresh"
)

// RefreshAllInput triggers a refresh of every collected data source.
type RefreshAllInput struct {
	RunID string `json:"run_id,omitempty"`
}

type refreshService interface {
	RefreshAll(ctx context.Context) error
	DataSources() (refresh.DataSourceSet, error)
}

// RefreshAllCommand presses the refresh button: it marks the button busy,
// refreshes everything, and always restores the idle state.
type RefreshAllCommand struct {
	service   refreshService
	button    *refresh.Button
	logger    *zap.Logger
	telemetry Telemetry
}

// NewRefreshAllCommand creates the command. A nil button gets a private one.
func NewRefreshAllCommand(service refreshService, button *refresh.Button, logger *zap.Logger, telemetry Telemetry) *RefreshAllCommand {
	if button == nil {
		button = refresh.NewButton(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshAllCommand{
		service:   service,
		button:    button,
		logger:    logger,
		telemetry: normalizeTelemetry(telemetry),
	}
}

var _ gocommand.Commander[RefreshAllInput] = (*RefreshAllCommand)(nil)

// Execute runs one refresh cycle.
func (c *RefreshAllCommand) Execute(ctx context.Context, msg RefreshAllInput) (err error) {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	sources, err := c.service.DataSources()
	if err != nil {
		return err
	}
	runID := msg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	if err := c.button.Press(ctx, runID, sources.Len()); err != nil {
		return err
	}
	defer func() {
		if releaseErr := c.button.Release(ctx, runID, sources.Len(), err); releaseErr != nil {
			c.logger.Warn("refresh_button_release_failed", zap.String("run_id", runID), zap.Error(releaseErr))
		}
	}()

	if err = c.service.RefreshAll(ctx); err != nil {
		c.logger.Error("refresh_failed", zap.String("run_id", runID), zap.Error(err))
		return err
	}
	c.logger.Info("refresh_succeeded", zap.String("run_id", runID), zap.Int("data_sources", sources.Len()))
	c.telemetry.Record(ctx, "refresh.run", map[string]any{
		"run_id":       runID,
		"data_sources": sources.Len(),
	})
	return nil
}
