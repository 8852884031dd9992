package refresh

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
)

type stubSource struct {
	id    string
	name  string
	err   error
	gate  chan struct{}
	calls atomic.Int32
}

func newSource(id string) *stubSource {
	return &stubSource{id: id, name: "source " + id}
}

func (s *stubSource) ID() string   { return s.id }
func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Refresh(ctx context.Context) error {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	return s.err
}

type stubWorksheet struct {
	name    string
	sources []DataSource
	err     error
}

func (w *stubWorksheet) Name() string { return w.name }

func (w *stubWorksheet) DataSources(ctx context.Context) ([]DataSource, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.sources, nil
}

func worksheet(name string, sources ...DataSource) *stubWorksheet {
	return &stubWorksheet{name: name, sources: sources}
}

type stubDashboard struct {
	name       string
	worksheets []Worksheet
}

func (d *stubDashboard) Name() string            { return d.name }
func (d *stubDashboard) Worksheets() []Worksheet { return d.worksheets }

func dashboardOf(worksheets ...*stubWorksheet) *stubDashboard {
	out := make([]Worksheet, len(worksheets))
	for i, ws := range worksheets {
		out[i] = ws
	}
	return &stubDashboard{name: "Sales", worksheets: out}
}

type stubHost struct {
	dashboard Dashboard
	settings  Settings
	err       error
	calls     int
}

func (h *stubHost) Initialize(context.Context) (Dashboard, error) {
	h.calls++
	if h.err != nil {
		return nil, h.err
	}
	return h.dashboard, nil
}

func (h *stubHost) Settings() Settings { return h.settings }

type mapSettings struct {
	mu      sync.Mutex
	data    map[string]string
	saves   int
	saveErr error
}

func newMapSettings(seed map[string]string) *mapSettings {
	data := map[string]string{}
	for k, v := range seed {
		data[k] = v
	}
	return &mapSettings{data: data}
}

func (m *mapSettings) Get(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

func (m *mapSettings) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *mapSettings) Save(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	return m.saveErr
}

func (m *mapSettings) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type stubTrigger struct {
	calls atomic.Int32
	err   error
}

func (s *stubTrigger) Trigger(context.Context) error {
	s.calls.Add(1)
	return s.err
}

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingTelemetry) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

type recordingHook struct {
	mu     sync.Mutex
	events []RefreshEvent
}

func (r *recordingHook) RefreshUpdated(_ context.Context, event RefreshEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}
