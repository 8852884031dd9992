package host

import (
	"context"
	"sync"
	"sync/atomic"

	refresh "github.com/goliatone/go-datasource-refresh/components/refresh"
)

// MemoryHost serves a fixed dashboard. It backs demos and tests.
type MemoryHost struct {
	Dashboard *MemoryDashboard
	Store     refresh.Settings
	// InitErr, when set, is returned by Initialize.
	InitErr error
}

var _ refresh.Host = (*MemoryHost)(nil)

// Initialize returns the configured dashboard.
func (h *MemoryHost) Initialize(ctx context.Context) (refresh.Dashboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.InitErr != nil {
		return nil, h.InitErr
	}
	return h.Dashboard, nil
}

// Settings returns the attached store.
func (h *MemoryHost) Settings() refresh.Settings {
	return h.Store
}

// MemoryDashboard is a named list of worksheets.
type MemoryDashboard struct {
	name       string
	worksheets []refresh.Worksheet
}

// NewMemoryDashboard builds a dashboard from worksheets.
func NewMemoryDashboard(name string, worksheets ...*MemoryWorksheet) *MemoryDashboard {
	out := make([]refresh.Worksheet, len(worksheets))
	for i, ws := range worksheets {
		out[i] = ws
	}
	return &MemoryDashboard{name: name, worksheets: out}
}

func (d *MemoryDashboard) Name() string                    { return d.name }
func (d *MemoryDashboard) Worksheets() []refresh.Worksheet { return d.worksheets }

// MemoryWorksheet lists a fixed set of data sources.
type MemoryWorksheet struct {
	name    string
	sources []refresh.DataSource
	// Err, when set, fails DataSources.
	Err error
}

// NewMemoryWorksheet builds a worksheet over sources.
func NewMemoryWorksheet(name string, sources ...*MemoryDataSource) *MemoryWorksheet {
	out := make([]refresh.DataSource, len(sources))
	for i, src := range sources {
		out[i] = src
	}
	return &MemoryWorksheet{name: name, sources: out}
}

func (w *MemoryWorksheet) Name() string { return w.name }

// DataSources returns the worksheet's sources.
func (w *MemoryWorksheet) DataSources(ctx context.Context) ([]refresh.DataSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.Err != nil {
		return nil, w.Err
	}
	return w.sources, nil
}

// MemoryDataSource counts refresh calls and can be told to fail.
type MemoryDataSource struct {
	id    string
	name  string
	calls atomic.Int64

	mu  sync.RWMutex
	err error
}

// NewMemoryDataSource builds a data source that refreshes successfully.
func NewMemoryDataSource(id, name string) *MemoryDataSource {
	return &MemoryDataSource{id: id, name: name}
}

func (d *MemoryDataSource) ID() string   { return d.id }
func (d *MemoryDataSource) Name() string { return d.name }

// Refresh records the call and returns the configured error.
func (d *MemoryDataSource) Refresh(context.Context) error {
	d.calls.Add(1)
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.err
}

// FailWith makes later refreshes return err.
func (d *MemoryDataSource) FailWith(err error) {
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
}

// Calls reports how many times Refresh ran.
func (d *MemoryDataSource) Calls() int {
	return int(d.calls.Load())
}
