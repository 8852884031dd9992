package refresh

import (
	core "github.com/goliatone/go-datasource-refresh/components/refresh"
)

// Service exposes the underlying components/refresh.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// Host, Settings, and the dashboard model re-exported for host implementers.
type (
	Host       = core.Host
	Settings   = core.Settings
	Dashboard  = core.Dashboard
	Worksheet  = core.Worksheet
	DataSource = core.DataSource
)

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}
