package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	refresh "github.com/goliatone/go-datasource-refresh/components/refresh"
	"github.com/goliatone/go-datasource-refresh/components/refresh/commands"
)

type pageRenderer interface {
	RenderTemplate(ctx context.Context, out io.Writer) error
}

// Handlers exposes the extension endpoints over net/http.
type Handlers struct {
	Executor  Executor
	Page      pageRenderer
	Broadcast *refresh.BroadcastHook
	Logger    *zap.Logger
}

func (h *Handlers) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h *Handlers) fail(w http.ResponseWriter, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger().Error("request_failed", zap.String("op", op), zap.Error(err))
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// HandlePage renders the extension page.
func (h *Handlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	if h.Page == nil {
		http.Error(w, "page renderer not configured", http.StatusNotImplemented)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.Page.RenderTemplate(r.Context(), w); err != nil {
		h.fail(w, "page", err)
	}
}

// HandleState reports the button state and collected data sources.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	payload, err := h.Executor.State(r.Context())
	if err != nil {
		h.fail(w, "state", err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// HandleRefresh runs "refresh all". An empty body is accepted.
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var payload commands.RefreshAllInput
	if err := decodeOptional(r, &payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Executor.Refresh(r.Context(), payload); err != nil {
		h.fail(w, "refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

// HandleSettings returns the settings form values.
func (h *Handlers) HandleSettings(w http.ResponseWriter, r *http.Request) {
	state, err := h.Executor.Settings(r.Context())
	if err != nil {
		h.fail(w, "settings", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// HandleSaveSetting stores one form field.
func (h *Handlers) HandleSaveSetting(w http.ResponseWriter, r *http.Request) {
	var payload commands.SaveSettingInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Executor.SaveSetting(r.Context(), payload); err != nil {
		h.fail(w, "save_setting", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSelectTarget stores the type selector option.
func (h *Handlers) HandleSelectTarget(w http.ResponseWriter, r *http.Request) {
	var payload commands.SelectRefreshTargetInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Executor.SelectTarget(r.Context(), payload); err != nil {
		h.fail(w, "select_target", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleEvents streams button transitions as Server-Sent Events.
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if h.Broadcast == nil {
		http.Error(w, "broadcast not configured", http.StatusNotImplemented)
		return
	}
	h.Broadcast.ServeSSE(w, r)
}

// Mux registers every handler under basePath.
func (h *Handlers) Mux(basePath string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+basePath+"/refresh", h.HandlePage)
	mux.HandleFunc("GET "+basePath+"/refresh/_state", h.HandleState)
	mux.HandleFunc("POST "+basePath+"/refresh/run", h.HandleRefresh)
	mux.HandleFunc("GET "+basePath+"/refresh/settings", h.HandleSettings)
	mux.HandleFunc("POST "+basePath+"/refresh/settings", h.HandleSaveSetting)
	mux.HandleFunc("POST "+basePath+"/refresh/settings/type", h.HandleSelectTarget)
	mux.HandleFunc("GET "+basePath+"/refresh/events", h.HandleEvents)
	return mux
}

func decodeOptional(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
