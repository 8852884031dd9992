package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
)

// StateInput requests the button state and collected data sources.
type StateInput struct{}

type statePayloader interface {
	StatePayload(ctx context.Context) (map[string]any, error)
}

// StateQuery reports the refresh button state.
type StateQuery struct {
	controller statePayloader
}

// NewStateQuery builds the query.
func NewStateQuery(controller statePayloader) *StateQuery {
	return &StateQuery{controller: controller}
}

var _ gocommand.Querier[StateInput, map[string]any] = (*StateQuery)(nil)

// Query returns the state payload.
func (q *StateQuery) Query(ctx context.Context, _ StateInput) (map[string]any, error) {
	return q.controller.StatePayload(ctx)
}
