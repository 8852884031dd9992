package tableau

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	refresh "github.com/goliatone/go-datasource-refresh/components/refresh"
	"github.com/goliatone/go-datasource-refresh/pkg/settings"
)

const signInURL = "https://tableau.example.com/api/3.10/auth/signin"

func TestSiteOnlySettingsIssueOneSignIn(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	var body string
	var authHeader string
	httpmock.RegisterResponder(http.MethodPost, signInURL, func(req *http.Request) (*http.Response, error) {
		data, _ := io.ReadAll(req.Body)
		body = string(data)
		authHeader = req.Header.Get(AuthHeader)
		resp := httpmock.NewStringResponse(http.StatusOK, `<tsResponse><credentials token="abc"/></tsResponse>`)
		resp.Header.Set("Content-Type", "application/xml")
		return resp, nil
	})

	store := settings.NewMemoryStore(map[string]string{refresh.KeySite: "marketing"})
	core, logs := observer.New(zap.InfoLevel)
	trigger := refresh.NewSettingsSignIn(refresh.SettingsSignInOptions{
		Settings:      store,
		Client:        NewHTTPClient(HTTPConfig{DefaultServer: "https://tableau.example.com/"}),
		DefaultServer: "https://tableau.example.com/",
		Logger:        zap.New(core),
	})

	require.NoError(t, trigger.Trigger(context.Background()))
	require.Equal(t, 1, httpmock.GetTotalCallCount())
	assert.Contains(t, body, `<site contentUrl="marketing" />`)
	assert.Contains(t, body, `<credentials name="" password="" >`)
	assert.Empty(t, authHeader)
	assert.Equal(t, 1, logs.FilterMessage("reloading_server_datasets").Len())
	assert.Equal(t, 1, logs.FilterMessage("server_signin_response").Len())
}

func TestUnconfiguredSettingsSkipSignIn(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	store := settings.NewMemoryStore(map[string]string{
		refresh.KeyServer:       "https://tableau.example.com",
		refresh.KeyEmailAddress: "ana@example.com",
	})
	core, logs := observer.New(zap.InfoLevel)
	trigger := refresh.NewSettingsSignIn(refresh.SettingsSignInOptions{
		Settings: store,
		Client:   NewHTTPClient(HTTPConfig{}),
		Logger:   zap.New(core),
	})

	require.NoError(t, trigger.Trigger(context.Background()))
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
	assert.Equal(t, 1, logs.FilterMessage("server_settings_not_configured").Len())
}

func TestSignInRemoteErrorKeepsDocument(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, signInURL,
		httpmock.NewStringResponder(http.StatusUnauthorized, `<tsResponse><error code="401001"/></tsResponse>`))

	client := NewHTTPClient(HTTPConfig{})
	resp, err := client.SignIn(context.Background(), refresh.SignInRequest{
		Server:   "https://tableau.example.com",
		Email:    "ana@example.com",
		Password: "secret",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Document, "tsResponse")
}

func TestSignInRequiresServer(t *testing.T) {
	client := NewHTTPClient(HTTPConfig{})
	_, err := client.SignIn(context.Background(), refresh.SignInRequest{Site: "marketing"})
	require.Error(t, err)
}

func TestRequestSendsSessionHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/3.10/sites" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get(AuthHeader); got != "session-1" {
			t.Errorf("expected session header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(server.Close)

	client := NewHTTPClient(HTTPConfig{DefaultServer: server.URL + "/"})
	resp, err := client.Request(context.Background(), http.MethodGet, "", "/api/3.10/sites", "", "session-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, resp.Document)
}

func TestJoinURL(t *testing.T) {
	cases := map[string][2]string{
		"https://a.example.com/api/3.10/auth/signin": {"https://a.example.com", SignInPath},
		"https://b.example.com/api/3.10/auth/signin": {"https://b.example.com/", "/" + SignInPath},
	}
	for want, in := range cases {
		if got := JoinURL(in[0], in[1]); got != want {
			t.Fatalf("JoinURL(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestSignInBodyEmbedsValuesVerbatim(t *testing.T) {
	body := SignInBody(`a&b@example.com`, `p"w`, "site")
	if !strings.Contains(body, `name="a&b@example.com"`) || !strings.Contains(body, `password="p"w"`) {
		t.Fatalf("expected raw values, got %s", body)
	}
}

func TestParseXML(t *testing.T) {
	doc, err := ParseXML(strings.NewReader(`<tsResponse><site id="s1"/></tsResponse>`))
	require.NoError(t, err)
	assert.Contains(t, doc, "tsResponse")
}

func TestMockClientRecordsRequests(t *testing.T) {
	mock := NewMockClient(refresh.SignInResponse{StatusCode: http.StatusOK}, nil)
	resp, err := mock.SignIn(context.Background(), refresh.SignInRequest{Site: "marketing"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, mock.Requests(), 1)
	assert.Equal(t, "marketing", mock.Requests()[0].Site)
}
