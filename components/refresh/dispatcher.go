package refresh

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SignInTrigger prompts the upstream analytics server to reload its datasets.
type SignInTrigger interface {
	Trigger(ctx context.Context) error
}

// Dispatcher refreshes every data source of a set concurrently.
type Dispatcher struct {
	signIn     SignInTrigger
	background *Background
	logger     *zap.Logger
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	SignIn     SignInTrigger
	Background *Background
	Logger     *zap.Logger
}

// NewDispatcher builds a dispatcher. A nil SignIn disables the sign-in trigger.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Background == nil {
		opts.Background = NewBackground(opts.Logger)
	}
	return &Dispatcher{
		signIn:     opts.SignIn,
		background: opts.Background,
		logger:     opts.Logger,
	}
}

type refreshResult struct {
	id  string
	err error
}

// RefreshAll fires the sign-in trigger in the background, then refreshes every
// data source at once. It returns nil once all refreshes succeed, or the first
// failure as soon as it is observed. Refreshes still in flight after a failure
// are left to finish on their own. They run on a context detached from ctx, so
// a caller that stops waiting never cancels them.
func (d *Dispatcher) RefreshAll(ctx context.Context, sources DataSourceSet) error {
	if d.signIn != nil {
		d.background.Go(ctx, "server_dataset_reload", d.signIn.Trigger)
	}
	if len(sources) == 0 {
		return nil
	}

	// buffered so abandoned refreshes can always deliver and exit
	results := make(chan refreshResult, len(sources))
	detached := context.WithoutCancel(ctx)
	for id, source := range sources {
		go func() {
			results <- refreshResult{id: id, err: source.Refresh(detached)}
		}()
	}
	for range len(sources) {
		var res refreshResult
		select {
		case <-ctx.Done():
			return fmt.Errorf("refresh: waiting for data sources: %w", ctx.Err())
		case res = <-results:
		}
		if res.err != nil {
			return fmt.Errorf("refresh: data source %s: %w", res.id, res.err)
		}
		d.logger.Debug("data_source_refreshed", zap.String("data_source_id", res.id))
	}
	return nil
}

// Background exposes the runner used for detached tasks.
func (d *Dispatcher) Background() *Background {
	return d.background
}
