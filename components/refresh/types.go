package refresh

import (
	"context"
	"sort"
)

// Host is the dashboard environment the extension runs inside. Implementations
// own the dashboard, its worksheets, and the settings store.
type Host interface {
	Initialize(ctx context.Context) (Dashboard, error)
	Settings() Settings
}

// Dashboard exposes the worksheets placed on the current dashboard.
type Dashboard interface {
	Name() string
	Worksheets() []Worksheet
}

// Worksheet lists the data sources it references.
type Worksheet interface {
	Name() string
	DataSources(ctx context.Context) ([]DataSource, error)
}

// DataSource is a host-owned handle that can re-pull its data from origin.
type DataSource interface {
	ID() string
	Name() string
	Refresh(ctx context.Context) error
}

// Settings is the flat key-value store scoped to the extension instance.
// Get and Set are synchronous; Save persists pending writes.
type Settings interface {
	Get(key string) string
	Set(key, value string)
	Save(ctx context.Context) error
	Keys() []string
}

// RefreshHook notifies transports about button state changes.
type RefreshHook interface {
	RefreshUpdated(ctx context.Context, event RefreshEvent) error
}

// DataSourceSet maps data source identifiers to the data source. Each
// identifier appears once even when several worksheets share a source.
type DataSourceSet map[string]DataSource

// Len reports the number of unique data sources.
func (s DataSourceSet) Len() int {
	return len(s)
}

// IDs returns the identifiers in lexical order.
func (s DataSourceSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Summaries describes the set for transports.
func (s DataSourceSet) Summaries() []DataSourceSummary {
	out := make([]DataSourceSummary, 0, len(s))
	for _, id := range s.IDs() {
		out = append(out, DataSourceSummary{ID: id, Name: s[id].Name()})
	}
	return out
}

// DataSourceSummary is the serializable view of a data source.
type DataSourceSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ButtonStatus is the busy/idle state of the refresh button.
type ButtonStatus string

const (
	ButtonIdle ButtonStatus = "idle"
	ButtonBusy ButtonStatus = "busy"
)

// RefreshEvent describes a button state transition.
type RefreshEvent struct {
	RunID       string       `json:"run_id,omitempty"`
	Status      ButtonStatus `json:"status"`
	Label       string       `json:"label"`
	Disabled    bool         `json:"disabled"`
	DataSources int          `json:"data_sources"`
	Error       string       `json:"error,omitempty"`
	Reason      string       `json:"reason,omitempty"`
}
