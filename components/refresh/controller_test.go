package refresh

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRenderer struct {
	lastTemplate string
	lastPayload  map[string]any
	err          error
}

func (r *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	r.lastTemplate = name
	if payload, ok := data.(map[string]any); ok {
		r.lastPayload = payload
	}
	if len(out) > 0 && out[0] != nil {
		out[0].Write([]byte("<html></html>"))
	}
	return "<html></html>", r.err
}

func initializedService(t *testing.T, sources ...*stubSource) *Service {
	t.Helper()
	ds := make([]DataSource, len(sources))
	for i, s := range sources {
		ds[i] = s
	}
	svc := NewService(Options{Host: &stubHost{dashboard: dashboardOf(worksheet("Only", ds...))}})
	require.NoError(t, svc.Initialize(context.Background()))
	return svc
}

func TestControllerStatePayload(t *testing.T) {
	controller := NewController(ControllerOptions{Service: initializedService(t, newSource("B"), newSource("A"))})
	payload, err := controller.StatePayload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Sales", payload["dashboard"])
	assert.Equal(t, []DataSourceSummary{{ID: "A", Name: "source A"}, {ID: "B", Name: "source B"}}, payload["data_sources"])
	button, ok := payload["button"].(RefreshEvent)
	require.True(t, ok)
	assert.Equal(t, LabelIdle, button.Label)
}

func TestControllerStatePayloadReportsInitError(t *testing.T) {
	svc := NewService(Options{Host: &stubHost{err: errors.New("no host")}})
	_ = svc.Initialize(context.Background())
	controller := NewController(ControllerOptions{Service: svc})
	payload, err := controller.StatePayload(context.Background())
	require.NoError(t, err)
	assert.Contains(t, payload["init_error"], "no host")
	assert.Empty(t, payload["data_sources"])
}

func TestControllerRenderTemplate(t *testing.T) {
	renderer := &stubRenderer{}
	form := NewSettingsForm(SettingsFormOptions{Settings: newMapSettings(map[string]string{
		KeySite: "marketing",
		KeyType: TypeWorkbook,
	})})
	controller := NewController(ControllerOptions{
		Service:  initializedService(t, newSource("A")),
		Form:     form,
		Renderer: renderer,
		BasePath: "/extension",
	})

	var buf bytes.Buffer
	require.NoError(t, controller.RenderTemplate(context.Background(), &buf))
	assert.Equal(t, defaultPageTemplate, renderer.lastTemplate)
	assert.NotZero(t, buf.Len())

	payload := renderer.lastPayload
	assert.Equal(t, "/extension", payload["base_path"])
	assert.Equal(t, EventsSSE, payload["events"])
	fields, ok := payload["fields"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, fields, len(FieldKeys()))
	for _, field := range fields {
		if field["key"] == KeySite {
			assert.Equal(t, "marketing", field["value"])
		}
		if field["key"] == KeyPassword {
			assert.Equal(t, "password", field["input"])
		}
	}
	options, ok := payload["type_options"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, options, 2)
	assert.Equal(t, false, options[0]["checked"])
	assert.Equal(t, true, options[1]["checked"])
	sources, ok := payload["data_sources"].([]map[string]any)
	require.True(t, ok)
	assert.Equal(t, "A", sources[0]["id"])
}

func TestControllerRequiresCollaborators(t *testing.T) {
	_, err := NewController(ControllerOptions{}).StatePayload(context.Background())
	require.Error(t, err)
	err = NewController(ControllerOptions{Service: initializedService(t)}).RenderTemplate(context.Background(), io.Discard)
	require.Error(t, err)
}

func TestControllerRenderErrorPropagates(t *testing.T) {
	boom := errors.New("template missing")
	controller := NewController(ControllerOptions{
		Service:  initializedService(t),
		Renderer: &stubRenderer{err: boom},
	})
	require.ErrorIs(t, controller.RenderTemplate(context.Background(), io.Discard), boom)
}

func TestEmbeddedPageRendersOutsideSourceTree(t *testing.T) {
	t.Chdir(t.TempDir())

	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)
	form := NewSettingsForm(SettingsFormOptions{Settings: newMapSettings(map[string]string{KeySite: "marketing"})})
	controller := NewController(ControllerOptions{
		Service:  initializedService(t, newSource("A")),
		Form:     form,
		Renderer: renderer,
		BasePath: "/extension",
	})

	var buf bytes.Buffer
	require.NoError(t, controller.RenderTemplate(context.Background(), &buf))
	page := buf.String()
	assert.Contains(t, page, LabelIdle)
	assert.Contains(t, page, `data-base-path="/extension"`)
	assert.Contains(t, page, `value="marketing"`)
	assert.Contains(t, page, "source A")
}
