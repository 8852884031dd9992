package tableau

import (
	"context"
	"sync"

	refresh "github.com/goliatone/go-datasource-refresh/components/refresh"
)

// MockClient records sign-in requests and answers with a fixed response.
type MockClient struct {
	mu       sync.Mutex
	response refresh.SignInResponse
	err      error
	requests []refresh.SignInRequest
}

// NewMockClient builds a mock that replies with response and err.
func NewMockClient(response refresh.SignInResponse, err error) *MockClient {
	return &MockClient{response: response, err: err}
}

var _ refresh.SignInClient = (*MockClient)(nil)

// SignIn records req.
func (c *MockClient) SignIn(_ context.Context, req refresh.SignInRequest) (refresh.SignInResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	return c.response, c.err
}

// Requests returns a copy of every recorded request.
func (c *MockClient) Requests() []refresh.SignInRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]refresh.SignInRequest(nil), c.requests...)
}
