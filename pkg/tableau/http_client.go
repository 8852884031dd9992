package tableau

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	refresh "github.com/goliatone/go-datasource-refresh/components/refresh"
)

// SignInPath is the REST endpoint used to open a server session.
const SignInPath = "api/3.10/auth/signin"

// AuthHeader carries a session token on authenticated calls.
const AuthHeader = "X-Tableau-Auth"

// HTTPConfig configures the REST client.
type HTTPConfig struct {
	// DefaultServer is used when a request does not name a server.
	DefaultServer string
	HTTPClient    *http.Client
}

// HTTPClient talks to a Tableau server or Tableau Online over its REST API.
type HTTPClient struct {
	defaultServer string
	client        *http.Client
}

// NewHTTPClient builds a client. The server is resolved per request.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{
		defaultServer: cfg.DefaultServer,
		client:        httpClient,
	}
}

var _ refresh.SignInClient = (*HTTPClient)(nil)

// SignIn posts the credentials document. No session header is sent.
func (c *HTTPClient) SignIn(ctx context.Context, req refresh.SignInRequest) (refresh.SignInResponse, error) {
	body := SignInBody(req.Email, req.Password, req.Site)
	return c.do(ctx, http.MethodPost, req.Server, SignInPath, body, "")
}

// Request returns the raw outcome of an arbitrary REST call, sending
// sessionID in the auth header when it is set.
func (c *HTTPClient) Request(ctx context.Context, method, server, subURL, body, sessionID string) (refresh.SignInResponse, error) {
	return c.do(ctx, method, server, subURL, body, sessionID)
}

func (c *HTTPClient) do(ctx context.Context, method, server, subURL, body, sessionID string) (refresh.SignInResponse, error) {
	if server == "" {
		server = c.defaultServer
	}
	if server == "" {
		return refresh.SignInResponse{}, errors.New("tableau: server is required")
	}
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, JoinURL(server, subURL), reader)
	if err != nil {
		return refresh.SignInResponse{}, fmt.Errorf("tableau: build request: %w", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/xml")
	}
	if sessionID != "" {
		req.Header.Set(AuthHeader, sessionID)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return refresh.SignInResponse{}, fmt.Errorf("tableau: http request: %w", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return refresh.SignInResponse{}, fmt.Errorf("tableau: read response: %w", err)
	}
	out := refresh.SignInResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       buf.Bytes(),
	}
	if isXML(resp.Header.Get("Content-Type"), out.Body) {
		if doc, err := ParseXML(bytes.NewReader(out.Body)); err == nil {
			out.Document = doc
		}
	}
	if resp.StatusCode >= 300 {
		return out, fmt.Errorf("tableau: remote error %d: %s", resp.StatusCode, buf.String())
	}
	return out, nil
}

// SignInBody renders the credentials document. Values are embedded as given.
func SignInBody(email, password, site string) string {
	return "<tsRequest>\n" +
		"  <credentials name=\"" + email + "\" password=\"" + password + "\" >\n" +
		"    <site contentUrl=\"" + site + "\" />\n" +
		"  </credentials>\n" +
		"</tsRequest>"
}

// JoinURL joins server and subURL with exactly one slash.
func JoinURL(server, subURL string) string {
	return strings.TrimRight(server, "/") + "/" + strings.TrimLeft(subURL, "/")
}

func isXML(contentType string, body []byte) bool {
	if strings.Contains(contentType, "xml") {
		return true
	}
	return bytes.HasPrefix(bytes.TrimSpace(body), []byte("<"))
}
