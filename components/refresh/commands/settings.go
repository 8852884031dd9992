package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// SaveSettingInput stores one form field value.
type SaveSettingInput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SelectRefreshTargetInput checks one of the exclusive type options.
type SelectRefreshTargetInput struct {
	Option string `json:"option"`
}

type settingsForm interface {
	UpdateField(ctx context.Context, key, value string) error
	SelectType(ctx context.Context, option string) error
}

// SaveSettingCommand persists a field change.
type SaveSettingCommand struct {
	form      settingsForm
	telemetry Telemetry
}

// NewSaveSettingCommand creates the command.
func NewSaveSettingCommand(form settingsForm, telemetry Telemetry) *SaveSettingCommand {
	return &SaveSettingCommand{form: form, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveSettingInput] = (*SaveSettingCommand)(nil)

// Execute sets and saves the field.
func (c *SaveSettingCommand) Execute(ctx context.Context, msg SaveSettingInput) error {
	if c.form == nil {
		return errors.New("settings command requires form")
	}
	if msg.Key == "" {
		return errors.New("settings command requires key")
	}
	if err := c.form.UpdateField(ctx, msg.Key, msg.Value); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "refresh.settings.field", map[string]any{"key": msg.Key})
	return nil
}

// SelectRefreshTargetCommand persists the type selector.
type SelectRefreshTargetCommand struct {
	form      settingsForm
	telemetry Telemetry
}

// NewSelectRefreshTargetCommand creates the command.
func NewSelectRefreshTargetCommand(form settingsForm, telemetry Telemetry) *SelectRefreshTargetCommand {
	return &SelectRefreshTargetCommand{form: form, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SelectRefreshTargetInput] = (*SelectRefreshTargetCommand)(nil)

// Execute stores the selected option.
func (c *SelectRefreshTargetCommand) Execute(ctx context.Context, msg SelectRefreshTargetInput) error {
	if c.form == nil {
		return errors.New("settings command requires form")
	}
	if err := c.form.SelectType(ctx, msg.Option); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "refresh.settings.type", map[string]any{"option": msg.Option})
	return nil
}
