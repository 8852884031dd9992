package settings

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/ettle/strcase"

	refresh "github.com/goliatone/go-datasource-refresh/components/refresh"
)

// EnvPrefix is prepended to the upper snake case form of each setting key.
const EnvPrefix = "REFRESH_"

// EnvSettings seeds settings from the process environment.
type EnvSettings struct {
	Server     string `env:"REFRESH_SETTINGS_SERVER"`
	Email      string `env:"REFRESH_SETTINGS_EMAIL_ADDRESS"`
	Password   string `env:"REFRESH_SETTINGS_PASSWORD"`
	PAT        string `env:"REFRESH_SETTINGS_PAT"`
	Site       string `env:"REFRESH_SETTINGS_SITE"`
	EntityName string `env:"REFRESH_SETTINGS_ENTITY_NAME"`
	Type       string `env:"REFRESH_SETTINGS_TYPE"`
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strcase.ToSNAKE(key)
}

// LoadEnv parses the overlay from environ, or from the process environment
// when environ is nil.
func LoadEnv(environ map[string]string) (EnvSettings, error) {
	var cfg EnvSettings
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return EnvSettings{}, fmt.Errorf("settings: parse env: %w", err)
	}
	return cfg, nil
}

// Values returns the non-empty overrides keyed by setting key.
func (e EnvSettings) Values() map[string]string {
	all := map[string]string{
		refresh.KeyServer:       e.Server,
		refresh.KeyEmailAddress: e.Email,
		refresh.KeyPassword:     e.Password,
		refresh.KeyPAT:          e.PAT,
		refresh.KeySite:         e.Site,
		refresh.KeyEntityName:   e.EntityName,
		refresh.KeyType:         e.Type,
	}
	out := make(map[string]string, len(all))
	for key, value := range all {
		if value != "" {
			out[key] = value
		}
	}
	return out
}

// Overlay wraps store so Get prefers the environment values. The overrides
// live only in the wrapper: Set, Save and Keys go straight to store, so
// environment secrets are never persisted.
func (e EnvSettings) Overlay(store refresh.Settings) *Overlay {
	return &Overlay{store: store, values: e.Values()}
}

// Overlay is a read-through view of a settings store with environment overrides.
type Overlay struct {
	store  refresh.Settings
	values map[string]string
}

var _ refresh.Settings = (*Overlay)(nil)

func (o *Overlay) Get(key string) string {
	if value, ok := o.values[key]; ok {
		return value
	}
	return o.store.Get(key)
}

func (o *Overlay) Set(key, value string)          { o.store.Set(key, value) }
func (o *Overlay) Save(ctx context.Context) error { return o.store.Save(ctx) }
func (o *Overlay) Keys() []string                 { return o.store.Keys() }

// Overridden returns the overridden keys in form order.
func (o *Overlay) Overridden() []string {
	keys := make([]string, 0, len(o.values))
	for _, key := range refresh.AllKeys() {
		if _, ok := o.values[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// Store returns the wrapped store.
func (o *Overlay) Store() refresh.Settings {
	return o.store
}
