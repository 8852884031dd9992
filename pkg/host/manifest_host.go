package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	refresh "github.com/goliatone/go-datasource-refresh/components/refresh"
)

// ManifestHostOptions configures a ManifestHost.
type ManifestHostOptions struct {
	Manifest   *DashboardManifest
	Settings   refresh.Settings
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// ManifestHost serves a dashboard declared in a manifest. Data sources
// refresh by POSTing to their webhook.
type ManifestHost struct {
	manifest *DashboardManifest
	settings refresh.Settings
	client   *http.Client
	logger   *zap.Logger
}

// NewManifestHost wires the host.
func NewManifestHost(opts ManifestHostOptions) *ManifestHost {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &ManifestHost{
		manifest: opts.Manifest,
		settings: opts.Settings,
		client:   opts.HTTPClient,
		logger:   opts.Logger,
	}
}

var _ refresh.Host = (*ManifestHost)(nil)

// Initialize builds the dashboard from the manifest. Entries sharing an id
// share one data source, declared by its first occurrence.
func (h *ManifestHost) Initialize(ctx context.Context) (refresh.Dashboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.manifest == nil {
		return nil, errors.New("host: manifest not configured")
	}
	shared := make(map[string]*WebhookDataSource)
	worksheets := make([]*MemoryWorksheet, 0, len(h.manifest.Worksheets))
	for _, ws := range h.manifest.Worksheets {
		sources := make([]refresh.DataSource, 0, len(ws.DataSources))
		for _, entry := range ws.DataSources {
			src, ok := shared[entry.ID]
			if !ok {
				src = &WebhookDataSource{entry: entry, client: h.client, logger: h.logger}
				shared[entry.ID] = src
			}
			sources = append(sources, src)
		}
		worksheets = append(worksheets, &MemoryWorksheet{name: ws.Name, sources: sources})
	}
	h.logger.Info("manifest_dashboard_ready",
		zap.String("dashboard", h.manifest.Name),
		zap.String("source", h.manifest.Source),
		zap.Int("worksheets", len(worksheets)),
	)
	return NewMemoryDashboard(h.manifest.Name, worksheets...), nil
}

// Settings returns the attached store.
func (h *ManifestHost) Settings() refresh.Settings {
	return h.settings
}

// WebhookDataSource refreshes by POSTing a JSON notification.
type WebhookDataSource struct {
	entry  ManifestDataSource
	client *http.Client
	logger *zap.Logger
}

type refreshNotification struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

func (d *WebhookDataSource) ID() string { return d.entry.ID }

func (d *WebhookDataSource) Name() string {
	if d.entry.Name == "" {
		return d.entry.ID
	}
	return d.entry.Name
}

// Refresh posts to the webhook. Sources without a webhook succeed at once.
func (d *WebhookDataSource) Refresh(ctx context.Context) error {
	if d.entry.RefreshURL == "" {
		d.logger.Debug("data_source_refresh_skipped", zap.String("id", d.entry.ID))
		return nil
	}
	body, err := json.Marshal(refreshNotification{
		ID:          d.entry.ID,
		Name:        d.entry.Name,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("host: encode refresh for %s: %w", d.entry.ID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.entry.RefreshURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("host: build refresh for %s: %w", d.entry.ID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("host: refresh %s: %w", d.entry.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("host: refresh %s: remote status %d", d.entry.ID, resp.StatusCode)
	}
	d.logger.Debug("data_source_refresh_sent", zap.String("id", d.entry.ID), zap.Int("status_code", resp.StatusCode))
	return nil
}
