package httpapi

import (
	"context"
	"errors"
	"net/http"

	gocommand "github.com/goliatone/go-command"

	refresh "github.com/goliatone/go-datasource-refresh/components/refresh"
	"github.com/goliatone/go-datasource-refresh/components/refresh/commands"
	"github.com/goliatone/go-datasource-refresh/components/refresh/queries"
)

// Executor is the transport-neutral surface shared by net/http and go-router.
type Executor interface {
	Refresh(ctx context.Context, input commands.RefreshAllInput) error
	SaveSetting(ctx context.Context, input commands.SaveSettingInput) error
	SelectTarget(ctx context.Context, input commands.SelectRefreshTargetInput) error
	State(ctx context.Context) (map[string]any, error)
	Settings(ctx context.Context) (refresh.FormState, error)
}

// CommandExecutor adapts go-command commanders and queriers to Executor.
type CommandExecutor struct {
	RefreshCommander      gocommand.Commander[commands.RefreshAllInput]
	SaveSettingCommander  gocommand.Commander[commands.SaveSettingInput]
	SelectTargetCommander gocommand.Commander[commands.SelectRefreshTargetInput]
	StateQuerier          gocommand.Querier[queries.StateInput, map[string]any]
	SettingsQuerier       gocommand.Querier[queries.SettingsInput, refresh.FormState]
}

var _ Executor = (*CommandExecutor)(nil)

var errNotConfigured = errors.New("httpapi: operation not configured")

func (e *CommandExecutor) Refresh(ctx context.Context, input commands.RefreshAllInput) error {
	if e.RefreshCommander == nil {
		return errNotConfigured
	}
	return e.RefreshCommander.Execute(ctx, input)
}

func (e *CommandExecutor) SaveSetting(ctx context.Context, input commands.SaveSettingInput) error {
	if e.SaveSettingCommander == nil {
		return errNotConfigured
	}
	return e.SaveSettingCommander.Execute(ctx, input)
}

func (e *CommandExecutor) SelectTarget(ctx context.Context, input commands.SelectRefreshTargetInput) error {
	if e.SelectTargetCommander == nil {
		return errNotConfigured
	}
	return e.SelectTargetCommander.Execute(ctx, input)
}

func (e *CommandExecutor) State(ctx context.Context) (map[string]any, error) {
	if e.StateQuerier == nil {
		return nil, errNotConfigured
	}
	return e.StateQuerier.Query(ctx, queries.StateInput{})
}

func (e *CommandExecutor) Settings(ctx context.Context) (refresh.FormState, error) {
	if e.SettingsQuerier == nil {
		return refresh.FormState{}, errNotConfigured
	}
	return e.SettingsQuerier.Query(ctx, queries.SettingsInput{})
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, refresh.ErrRefreshInProgress):
		return http.StatusConflict
	case errors.Is(err, refresh.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, refresh.ErrUnknownSetting),
		errors.Is(err, refresh.ErrInvalidSetting),
		errors.Is(err, refresh.ErrInvalidTarget):
		return http.StatusBadRequest
	case errors.Is(err, errNotConfigured):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
