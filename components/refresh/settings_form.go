package refresh

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	// ErrUnknownSetting is returned for keys that are not bound to the form.
	ErrUnknownSetting = errors.New("refresh: unknown setting")
	// ErrInvalidSetting is returned when a field value fails validation.
	ErrInvalidSetting = errors.New("refresh: invalid setting value")
	// ErrInvalidTarget is returned for type selector values outside the options.
	ErrInvalidTarget  = errors.New("refresh: invalid refresh target option")
)

var errMissingSettings = errors.New("refresh: settings store not configured")

// FormState is the settings form as loaded from the store.
type FormState struct {
	Fields  map[string]string `json:"fields"`
	Type    string            `json:"type"`
	Checked map[string]bool   `json:"checked"`
}

// SettingsFormOptions configures a SettingsForm.
type SettingsFormOptions struct {
	Settings  Settings
	Validator PayloadValidator
	Logger    *zap.Logger
	Telemetry Telemetry
}

// SettingsForm binds the form fields to the settings store: values load on
// open and every change is written and saved immediately.
type SettingsForm struct {
	settings  Settings
	validator PayloadValidator
	logger    *zap.Logger
	telemetry Telemetry
}

// NewSettingsForm builds a form binding.
func NewSettingsForm(opts SettingsFormOptions) *SettingsForm {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator()
	}
	return &SettingsForm{
		settings:  opts.Settings,
		validator: opts.Validator,
		logger:    opts.Logger,
		telemetry: normalizeTelemetry(opts.Telemetry),
	}
}

// Load reads every bound field and the type selector.
func (f *SettingsForm) Load() (FormState, error) {
	if f.settings == nil {
		return FormState{}, errMissingSettings
	}
	state := FormState{
		Fields:  make(map[string]string, len(FieldKeys())),
		Checked: make(map[string]bool, len(TypeOptions())),
	}
	for _, key := range FieldKeys() {
		state.Fields[key] = f.settings.Get(key)
		f.logger.Debug("setting_loaded", zap.String("key", key))
	}
	state.Type = f.settings.Get(KeyType)
	for _, option := range TypeOptions() {
		state.Checked[option] = option == state.Type
	}
	f.logger.Debug("setting_loaded", zap.String("key", KeyType))
	return state, nil
}

// UpdateField stores value under key and saves the store.
func (f *SettingsForm) UpdateField(ctx context.Context, key, value string) error {
	if f.settings == nil {
		return errMissingSettings
	}
	if !KnownKey(key) || key == KeyType {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	if err := f.validator.Validate(SchemaSettingField, map[string]any{"key": key, "value": value}); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSetting, err)
	}
	return f.persist(ctx, key, value)
}

// SelectType checks one of the exclusive type options.
func (f *SettingsForm) SelectType(ctx context.Context, option string) error {
	if f.settings == nil {
		return errMissingSettings
	}
	if err := f.validator.Validate(SchemaSettingTarget, map[string]any{"option": option}); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	return f.persist(ctx, KeyType, option)
}

func (f *SettingsForm) persist(ctx context.Context, key, value string) error {
	f.settings.Set(key, value)
	if err := f.settings.Save(ctx); err != nil {
		return fmt.Errorf("refresh: save setting %s: %w", key, err)
	}
	f.logger.Info("setting_saved", zap.String("key", key))
	f.telemetry.Record(ctx, "refresh.settings.save", map[string]any{"key": key})
	return nil
}
