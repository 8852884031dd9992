package refresh

import (
	"context"
	"errors"
	"io"
)

const defaultPageTemplate = "refresh"

// Event transports the page can subscribe with.
const (
	EventsSSE       = "sse"
	EventsWebSocket = "ws"
)

var fieldLabels = map[string]string{
	KeyServer:       "Server",
	KeyEmailAddress: "Email address",
	KeyPassword:     "Password",
	KeyPAT:          "Personal access token",
	KeySite:         "Site",
	KeyEntityName:   "Entity name",
	TypeDataSource:  "Data source",
	TypeWorkbook:    "Workbook",
}

type sessionView interface {
	DataSources() (DataSourceSet, error)
	DashboardName() string
}

// ControllerOptions wires the page controller.
type ControllerOptions struct {
	Service  sessionView
	Button   *Button
	Form     *SettingsForm
	Renderer Renderer
	Template string
	BasePath string
	// Events selects the page's live update transport. Defaults to EventsSSE.
	Events   string
}

// Controller builds the extension page and its JSON state.
type Controller struct {
	opts ControllerOptions
}

// NewController wires the collaborators into a controller.
func NewController(opts ControllerOptions) *Controller {
	if opts.Template == "" {
		opts.Template = defaultPageTemplate
	}
	if opts.Button == nil {
		opts.Button = NewButton(nil)
	}
	if opts.Events == "" {
		opts.Events = EventsSSE
	}
	return &Controller{opts: opts}
}

// Button returns the button whose state the controller reports.
func (c *Controller) Button() *Button {
	return c.opts.Button
}

// StatePayload reports the button state and the collected data sources.
// Initialization failures are reported in the payload rather than returned.
func (c *Controller) StatePayload(context.Context) (map[string]any, error) {
	if c.opts.Service == nil {
		return nil, errors.New("refresh: controller requires service")
	}
	payload := map[string]any{
		"button":       c.opts.Button.State(),
		"dashboard":    c.opts.Service.DashboardName(),
		"data_sources": []DataSourceSummary{},
	}
	sources, err := c.opts.Service.DataSources()
	if err != nil {
		payload["init_error"] = err.Error()
		return payload, nil
	}
	payload["data_sources"] = sources.Summaries()
	return payload, nil
}

// PagePayload extends the state payload with the settings form.
func (c *Controller) PagePayload(ctx context.Context) (map[string]any, error) {
	payload, err := c.StatePayload(ctx)
	if err != nil {
		return nil, err
	}
	button := c.opts.Button.State()
	payload["button"] = map[string]any{
		"label":    button.Label,
		"disabled": button.Disabled,
		"status":   string(button.Status),
	}
	payload["base_path"] = c.opts.BasePath
	payload["events"] = c.opts.Events
	sources := []map[string]any{}
	if summaries, ok := payload["data_sources"].([]DataSourceSummary); ok {
		for _, summary := range summaries {
			sources = append(sources, map[string]any{"id": summary.ID, "name": summary.Name})
		}
	}
	payload["data_sources"] = sources
	fields := []map[string]any{}
	options := []map[string]any{}
	if c.opts.Form != nil {
		state, err := c.opts.Form.Load()
		if err != nil {
			return nil, err
		}
		for _, key := range FieldKeys() {
			input := "text"
			if key == KeyPassword {
				input = "password"
			}
			fields = append(fields, map[string]any{
				"key":   key,
				"label": fieldLabels[key],
				"value": state.Fields[key],
				"input": input,
			})
		}
		for _, option := range TypeOptions() {
			options = append(options, map[string]any{
				"id":      option,
				"label":   fieldLabels[option],
				"checked": state.Checked[option],
			})
		}
	}
	payload["fields"] = fields
	payload["type_options"] = options
	return payload, nil
}

// RenderTemplate renders the extension page into out.
func (c *Controller) RenderTemplate(ctx context.Context, out io.Writer) error {
	if c.opts.Renderer == nil {
		return errors.New("refresh: controller requires renderer")
	}
	payload, err := c.PagePayload(ctx)
	if err != nil {
		return err
	}
	_, err = c.opts.Renderer.Render(c.opts.Template, payload, out)
	return err
}
