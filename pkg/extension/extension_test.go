package extension_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	refresh "github.com/goliatone/go-datasource-refresh/components/refresh"
	"github.com/goliatone/go-datasource-refresh/pkg/extension"
	"github.com/goliatone/go-datasource-refresh/pkg/host"
	"github.com/goliatone/go-datasource-refresh/pkg/settings"
	"github.com/goliatone/go-datasource-refresh/pkg/tableau"
)

func newExtension(t *testing.T) (*extension.Extension, []*host.MemoryDataSource, *settings.MemoryStore, *tableau.MockClient) {
	t.Helper()
	a := host.NewMemoryDataSource("A", "Orders")
	b := host.NewMemoryDataSource("B", "Leads")
	c := host.NewMemoryDataSource("C", "Quota")
	store := settings.NewMemoryStore(nil)
	client := tableau.NewMockClient(refresh.SignInResponse{StatusCode: http.StatusOK}, nil)
	ext, err := extension.New(extension.Config{
		Host: &host.MemoryHost{
			Dashboard: host.NewMemoryDashboard("Sales",
				host.NewMemoryWorksheet("Revenue", a, b),
				host.NewMemoryWorksheet("Pipeline", b, c),
				host.NewMemoryWorksheet("Summary", a),
			),
			Store: store,
		},
		SignInClient:  client,
		DefaultServer: "https://origin.example.com",
	})
	require.NoError(t, err)
	t.Cleanup(ext.Close)
	return ext, []*host.MemoryDataSource{a, b, c}, store, client
}

func TestNewRequiresHost(t *testing.T) {
	_, err := extension.New(extension.Config{})
	require.Error(t, err)
}

func TestExtensionRefreshCycle(t *testing.T) {
	ext, sources, store, client := newExtension(t)
	ctx := context.Background()
	require.NoError(t, ext.Bootstrap(ctx))

	require.NoError(t, ext.Form().UpdateField(ctx, refresh.KeySite, "marketing"))
	require.NoError(t, ext.Refresh(ctx))
	ext.Service().Background().Wait()

	for _, src := range sources {
		assert.Equal(t, 1, src.Calls(), "data source %s", src.ID())
	}
	assert.Equal(t, "marketing", store.Get(refresh.KeySite))
	require.Len(t, client.Requests(), 1)
	assert.Equal(t, "https://origin.example.com", client.Requests()[0].Server)
	assert.False(t, ext.Controller().Button().State().Disabled)
}

func TestExtensionHTTPSurface(t *testing.T) {
	ext, sources, store, _ := newExtension(t)
	require.NoError(t, ext.Bootstrap(context.Background()))
	server := httptest.NewServer(ext.Handler())
	defer server.Close()

	resp, err := http.Post(server.URL+"/extension/refresh/settings", "application/json",
		strings.NewReader(`{"key":"settings-pat","value":"token"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "token", store.Get(refresh.KeyPAT))

	resp, err = http.Post(server.URL+"/extension/refresh/settings/type", "application/json",
		strings.NewReader(`{"option":"settings-type-project"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(server.URL+"/extension/refresh/run", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	for _, src := range sources {
		assert.Equal(t, 1, src.Calls())
	}

	resp, err = http.Get(server.URL + "/extension/refresh/_state")
	require.NoError(t, err)
	defer resp.Body.Close()
	var state struct {
		Dashboard   string                      `json:"dashboard"`
		DataSources []refresh.DataSourceSummary `json:"data_sources"`
		Button      refresh.RefreshEvent        `json:"button"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, "Sales", state.Dashboard)
	assert.Len(t, state.DataSources, 3)
	assert.Equal(t, "success", state.Button.Reason)
}

func TestExtensionRefreshBeforeBootstrap(t *testing.T) {
	ext, _, _, _ := newExtension(t)
	require.ErrorIs(t, ext.Refresh(context.Background()), refresh.ErrNotInitialized)
}
