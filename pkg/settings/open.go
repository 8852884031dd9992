package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	refresh "github.com/goliatone/go-datasource-refresh/components/refresh"
)

// Supported store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// ErrUnsupportedDriver is returned for unknown store drivers.
var ErrUnsupportedDriver = errors.New("settings: unsupported store driver")

// Config selects a store driver and its location.
type Config struct {
	Driver string
	// Location is the YAML path for the file driver and the DSN for sqlite.
	Location string
}

type opener func(context.Context, Config) (refresh.Settings, error)

var openers = map[string]opener{
	DriverMemory: func(context.Context, Config) (refresh.Settings, error) {
		return NewMemoryStore(nil), nil
	},
	DriverFile: func(_ context.Context, cfg Config) (refresh.Settings, error) {
		return NewFileStore(cfg.Location)
	},
	DriverSQLite: func(ctx context.Context, cfg Config) (refresh.Settings, error) {
		return OpenSQLite(ctx, cfg.Location)
	},
}

// Open builds the store named by cfg.Driver. A blank driver means memory.
func Open(ctx context.Context, cfg Config) (refresh.Settings, error) {
	driver := strings.TrimSpace(cfg.Driver)
	if driver == "" {
		driver = DriverMemory
	}
	open, ok := openers[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
	return open(ctx, Config{Driver: driver, Location: strings.TrimSpace(cfg.Location)})
}
