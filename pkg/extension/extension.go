package extension

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	refresh "github.com/goliatone/go-datasource-refresh/components/refresh"
	"github.com/goliatone/go-datasource-refresh/components/refresh/commands"
	"github.com/goliatone/go-datasource-refresh/components/refresh/httpapi"
	"github.com/goliatone/go-datasource-refresh/components/refresh/queries"
)

// Config wires a host and its sign-in client into a ready-to-serve extension.
type Config struct {
	Host          refresh.Host
	SignInClient  refresh.SignInClient
	DefaultServer string
	Renderer      refresh.Renderer
	BasePath      string
	Events        string
	Logger        *zap.Logger
	Telemetry     refresh.Telemetry
}

// Extension bundles the session, button, form, and transports sharing them.
type Extension struct {
	cfg        Config
	service    *refresh.Service
	button     *refresh.Button
	broadcast  *refresh.BroadcastHook
	form       *refresh.SettingsForm
	controller *refresh.Controller
	initialize *commands.InitializeCommand
	executor   *httpapi.CommandExecutor
}

// New builds the extension. The host is required.
func New(cfg Config) (*Extension, error) {
	if cfg.Host == nil {
		return nil, errors.New("extension: host is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.BasePath == "" {
		cfg.BasePath = "/extension"
	}
	if cfg.Telemetry == nil {
		cfg.Telemetry = refresh.NewLoggerTelemetry(cfg.Logger)
	}

	service := refresh.NewService(refresh.Options{
		Host:          cfg.Host,
		SignInClient:  cfg.SignInClient,
		DefaultServer: cfg.DefaultServer,
		Logger:        cfg.Logger,
		Telemetry:     cfg.Telemetry,
	})
	broadcast := refresh.NewBroadcastHook()
	button := refresh.NewButton(broadcast)
	form := refresh.NewSettingsForm(refresh.SettingsFormOptions{
		Settings:  cfg.Host.Settings(),
		Logger:    cfg.Logger,
		Telemetry: cfg.Telemetry,
	})
	controller := refresh.NewController(refresh.ControllerOptions{
		Service:  service,
		Button:   button,
		Form:     form,
		Renderer: cfg.Renderer,
		BasePath: cfg.BasePath,
		Events:   cfg.Events,
	})
	executor := &httpapi.CommandExecutor{
		RefreshCommander:      commands.NewRefreshAllCommand(service, button, cfg.Logger, cfg.Telemetry),
		SaveSettingCommander:  commands.NewSaveSettingCommand(form, cfg.Telemetry),
		SelectTargetCommander: commands.NewSelectRefreshTargetCommand(form, cfg.Telemetry),
		StateQuerier:          queries.NewStateQuery(controller),
		SettingsQuerier:       queries.NewSettingsQuery(form),
	}
	return &Extension{
		cfg:        cfg,
		service:    service,
		button:     button,
		broadcast:  broadcast,
		form:       form,
		controller: controller,
		initialize: commands.NewInitializeCommand(service, cfg.Telemetry),
		executor:   executor,
	}, nil
}

// Bootstrap initializes the session. The outcome is final.
func (e *Extension) Bootstrap(ctx context.Context) error {
	return e.initialize.Execute(ctx, commands.InitializeInput{})
}

// Refresh presses the refresh button once.
func (e *Extension) Refresh(ctx context.Context) error {
	return e.executor.Refresh(ctx, commands.RefreshAllInput{})
}

// Service returns the session.
func (e *Extension) Service() *refresh.Service { return e.service }

// Controller returns the page controller.
func (e *Extension) Controller() *refresh.Controller { return e.controller }

// Executor returns the command surface shared by transports.
func (e *Extension) Executor() httpapi.Executor { return e.executor }

// Broadcast returns the button event hook.
func (e *Extension) Broadcast() *refresh.BroadcastHook { return e.broadcast }

// Form returns the settings form binding.
func (e *Extension) Form() *refresh.SettingsForm { return e.form }

// BasePath returns the mount point of the HTTP surface.
func (e *Extension) BasePath() string { return e.cfg.BasePath }

// Handler returns the net/http surface mounted at BasePath.
func (e *Extension) Handler() http.Handler {
	handlers := &httpapi.Handlers{
		Executor:  e.executor,
		Page:      e.controller,
		Broadcast: e.broadcast,
		Logger:    e.cfg.Logger,
	}
	return handlers.Mux(e.cfg.BasePath)
}

// Close ends event streams and waits for detached sign-in calls.
func (e *Extension) Close() {
	e.broadcast.Close()
	e.service.Background().Wait()
}
