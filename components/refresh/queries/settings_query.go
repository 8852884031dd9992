package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	refresh "github.com/goliatone/go-datasource-refresh/components/refresh"
)

// SettingsInput requests the settings form values.
type SettingsInput struct{}

type formLoader interface {
	Load() (refresh.FormState, error)
}

// SettingsQuery loads the bound settings fields.
type SettingsQuery struct {
	form formLoader
}

// NewSettingsQuery builds the query.
func NewSettingsQuery(form formLoader) *SettingsQuery {
	return &SettingsQuery{form: form}
}

var _ gocommand.Querier[SettingsInput, refresh.FormState] = (*SettingsQuery)(nil)

// Query returns the current form state.
func (q *SettingsQuery) Query(_ context.Context, _ SettingsInput) (refresh.FormState, error) {
	return q.form.Load()
}
