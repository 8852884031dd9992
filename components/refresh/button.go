package refresh

import (
	"context"
	"errors"
	"sync"
)

// Button labels mirror the extension page.
const (
	LabelIdle = "Refresh Datasources"
	LabelBusy = "Refreshing..."
)

// ErrRefreshInProgress is returned when the button is pressed while disabled.
var ErrRefreshInProgress = errors.New("refresh: refresh already in progress")

// Button tracks the busy indicator around "refresh all". It is owned by the
// caller of the service, not by the dispatcher.
type Button struct {
	mu    sync.RWMutex
	state RefreshEvent
	hook  RefreshHook
}

// NewButton returns an idle button that reports transitions to hook.
func NewButton(hook RefreshHook) *Button {
	if hook == nil {
		hook = noopRefreshHook{}
	}
	return &Button{
		state: idleEvent(),
		hook:  hook,
	}
}

// State returns the current button state.
func (b *Button) State() RefreshEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Press marks the button busy. It fails with ErrRefreshInProgress when the
// button is already disabled.
func (b *Button) Press(ctx context.Context, runID string, dataSources int) error {
	b.mu.Lock()
	if b.state.Disabled {
		b.mu.Unlock()
		return ErrRefreshInProgress
	}
	b.state = RefreshEvent{
		RunID:       runID,
		Status:      ButtonBusy,
		Label:       LabelBusy,
		Disabled:    true,
		DataSources: dataSources,
		Reason:      "start",
	}
	event := b.state
	b.mu.Unlock()
	return b.hook.RefreshUpdated(ctx, event)
}

// Release restores the idle state, recording the outcome of the run.
func (b *Button) Release(ctx context.Context, runID string, dataSources int, runErr error) error {
	event := idleEvent()
	event.RunID = runID
	event.DataSources = dataSources
	event.Reason = "success"
	if runErr != nil {
		event.Reason = "failure"
		event.Error = runErr.Error()
	}
	b.mu.Lock()
	b.state = event
	b.mu.Unlock()
	return b.hook.RefreshUpdated(ctx, event)
}

func idleEvent() RefreshEvent {
	return RefreshEvent{Status: ButtonIdle, Label: LabelIdle}
}

type noopRefreshHook struct{}

func (noopRefreshHook) RefreshUpdated(context.Context, RefreshEvent) error {
	return nil
}
