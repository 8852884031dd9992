package refresh

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// SignInRequest carries the credentials posted to the analytics server.
type SignInRequest struct {
	Server   string
	Site     string
	Email    string
	Password string
}

// SignInResponse is the raw outcome of a sign-in call. Document holds the
// decoded XML body when the server returned one.
type SignInResponse struct {
	StatusCode int
	Status     string
	Body       []byte
	Document   map[string]any
}

// SignInClient performs the sign-in request against the remote server.
type SignInClient interface {
	SignIn(ctx context.Context, req SignInRequest) (SignInResponse, error)
}

// SettingsSignInOptions configures a SettingsSignIn trigger.
type SettingsSignInOptions struct {
	Settings Settings
	Client   SignInClient
	// DefaultServer is used when the server setting is blank.
	DefaultServer string
	Logger        *zap.Logger
	Telemetry     Telemetry
}

// SettingsSignIn builds a sign-in request from persisted settings each time it
// fires. The response is logged and discarded.
type SettingsSignIn struct {
	settings      Settings
	client        SignInClient
	defaultServer string
	logger        *zap.Logger
	telemetry     Telemetry
}

// NewSettingsSignIn wires the trigger.
func NewSettingsSignIn(opts SettingsSignInOptions) *SettingsSignIn {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &SettingsSignIn{
		settings:      opts.Settings,
		client:        opts.Client,
		defaultServer: opts.DefaultServer,
		logger:        opts.Logger,
		telemetry:     normalizeTelemetry(opts.Telemetry),
	}
}

var _ SignInTrigger = (*SettingsSignIn)(nil)

// Trigger signs in when the settings carry any credential or target hint and
// silently skips otherwise.
func (s *SettingsSignIn) Trigger(ctx context.Context) error {
	if s.client == nil {
		return errors.New("refresh: sign-in client not configured")
	}
	cfg := LoadSettingsConfig(s.settings)
	if !cfg.Configured() {
		s.logger.Info("server_settings_not_configured")
		return nil
	}

	server := cfg.Server
	if server == "" {
		server = s.defaultServer
	}
	s.logger.Info("reloading_server_datasets",
		zap.String("server", server),
		zap.String("site", cfg.Site),
		zap.String("entity_name", cfg.EntityName),
		zap.String("target", string(cfg.Target())),
	)

	resp, err := s.client.SignIn(ctx, SignInRequest{
		Server:   server,
		Site:     cfg.Site,
		Email:    cfg.Email,
		Password: cfg.Password,
	})
	if err != nil {
		return err
	}
	s.logger.Info("server_signin_response",
		zap.Int("status_code", resp.StatusCode),
		zap.String("status", resp.Status),
		zap.Any("document", resp.Document),
		zap.ByteString("body", resp.Body),
	)
	s.telemetry.Record(ctx, "refresh.signin", map[string]any{
		"server":      server,
		"site":        cfg.Site,
		"status_code": resp.StatusCode,
	})
	return nil
}
