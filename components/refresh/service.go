package refresh

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrMissingHost is returned when the service has no host environment.
	ErrMissingHost    = errors.New("refresh: host not configured")
	// ErrHostNotReady wraps host initialization failures.
	ErrHostNotReady   = errors.New("refresh: host initialization failed")
	// ErrNotInitialized is returned by RefreshAll before a successful Initialize.
	ErrNotInitialized = errors.New("refresh: extension not initialized")
)

// Options configures the refresh Service. Collaborators are interfaces so
// hosts and transports can be swapped freely.
type Options struct {
	Host          Host
	// SignIn overrides the settings-driven trigger built from SignInClient.
	SignIn        SignInTrigger
	SignInClient  SignInClient
	DefaultServer string
	Background    *Background
	Telemetry     Telemetry
	Logger        *zap.Logger
}

// Service is one extension session: initialize once, then refresh on demand.
type Service struct {
	opts       Options
	dispatcher *Dispatcher

	mu          sync.RWMutex
	initialized bool
	initErr     error
	dashboard   Dashboard
	sources     DataSourceSet
}

// NewService builds a Service with safe defaults.
func NewService(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.Background == nil {
		opts.Background = NewBackground(opts.Logger)
	}
	if opts.SignIn == nil && opts.SignInClient != nil && opts.Host != nil {
		opts.SignIn = NewSettingsSignIn(SettingsSignInOptions{
			Settings:      opts.Host.Settings(),
			Client:        opts.SignInClient,
			DefaultServer: opts.DefaultServer,
			Logger:        opts.Logger,
			Telemetry:     opts.Telemetry,
		})
	}
	return &Service{
		opts: opts,
		dispatcher: NewDispatcher(DispatcherOptions{
			SignIn:     opts.SignIn,
			Background: opts.Background,
			Logger:     opts.Logger,
		}),
	}
}

// Initialize waits for the host, then collects the dashboard's unique data
// sources. The outcome is final for the session: later calls return the
// first result without retrying.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return s.initErr
	}
	s.initialized = true
	s.initErr = s.initialize(ctx)
	if s.initErr != nil {
		s.opts.Logger.Error("initialization_failed", zap.Error(s.initErr))
	}
	return s.initErr
}

func (s *Service) initialize(ctx context.Context) error {
	if s.opts.Host == nil {
		return ErrMissingHost
	}
	dashboard, err := s.opts.Host.Initialize(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHostNotReady, err)
	}
	sources, err := Collect(ctx, dashboard)
	if err != nil {
		return err
	}
	s.dashboard = dashboard
	s.sources = sources
	s.opts.Logger.Info("data_sources_collected",
		zap.String("dashboard", dashboard.Name()),
		zap.Int("worksheets", len(dashboard.Worksheets())),
		zap.Strings("data_source_ids", sources.IDs()),
	)
	s.opts.Telemetry.Record(ctx, "refresh.collect", map[string]any{
		"dashboard":    dashboard.Name(),
		"data_sources": sources.Len(),
	})
	return nil
}

// RefreshAll refreshes every collected data source. It is the single entry
// point behind the refresh button.
func (s *Service) RefreshAll(ctx context.Context) error {
	sources, err := s.collected()
	if err != nil {
		return err
	}
	if err := s.dispatcher.RefreshAll(ctx, sources); err != nil {
		s.opts.Telemetry.Record(ctx, "refresh.failed", map[string]any{
			"data_sources": sources.Len(),
			"error":        err.Error(),
		})
		return err
	}
	s.opts.Logger.Info("data_sources_refreshed", zap.Int("data_sources", sources.Len()))
	s.opts.Telemetry.Record(ctx, "refresh.completed", map[string]any{
		"data_sources": sources.Len(),
	})
	return nil
}

// DataSources returns a copy of the collected set.
func (s *Service) DataSources() (DataSourceSet, error) {
	return s.collected()
}

// DashboardName returns the name of the initialized dashboard.
func (s *Service) DashboardName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dashboard == nil {
		return ""
	}
	return s.dashboard.Name()
}

// Settings returns the host's settings store, or nil without a host.
func (s *Service) Settings() Settings {
	if s.opts.Host == nil {
		return nil
	}
	return s.opts.Host.Settings()
}

// Background exposes the detached task runner used for the sign-in trigger.
func (s *Service) Background() *Background {
	return s.opts.Background
}

func (s *Service) collected() (DataSourceSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	if s.initErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotInitialized, s.initErr)
	}
	return maps.Clone(s.sources), nil
}
