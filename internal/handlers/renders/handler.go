package renders

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/handlers"
	"gitlab.com/renderfarm.net/internal/handlers/response"
	"gitlab.com/renderfarm.net/internal/static/errs"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
	tcphandlers "gitlab.com/renderfarm.net/internal/tcp/handlers"
)

// LiveRenders reads the online renders mirrored to the cache
type LiveRenders interface {
	GetOnlineRenders(ctx context.Context) ([]domain.RenderRecord, error)
}

// RenderHandler handles render API requests
type RenderHandler struct {
	engine  handlers.Engine
	live    LiveRenders
	actions map[string]defs.MsgType
	logger  primary.Logger
}

// NewRenderHandler creates a new render handler. live may be nil when no
// cache is configured.
func NewRenderHandler(engine handlers.Engine, live LiveRenders, logger primary.Logger) *RenderHandler {
	actions := make(map[string]defs.MsgType, len(tcphandlers.RenderActionTypes))
	for _, t := range tcphandlers.RenderActionTypes {
		actions[t.String()] = t
	}
	return &RenderHandler{
		engine:  engine,
		live:    live,
		actions: actions,
		logger:  logger,
	}
}

// RegisterRoutes registers the API routes for RenderHandler
func (h *RenderHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/renders", h.ListRenders).Methods("GET")
	router.HandleFunc("/api/renders/live", h.LiveRenders).Methods("GET")
	router.HandleFunc("/api/renders/{renderId:[0-9]+}", h.GetRender).Methods("GET")
	router.HandleFunc("/api/renders/{renderId:[0-9]+}", h.DeleteRender).Methods("DELETE")
	router.HandleFunc("/api/renders/{renderId:[0-9]+}/log", h.GetLog).Methods("GET")
	router.HandleFunc("/api/renders/{renderId:[0-9]+}/tasks_log", h.GetTasksLog).Methods("GET")
	router.HandleFunc("/api/renders/{renderId:[0-9]+}/actions", h.Action).Methods("POST")
}

// ListRenders handles render list requests
func (h *RenderHandler) ListRenders(w http.ResponseWriter, r *http.Request) {
	body, err := handlers.Encode(r.Context(), h.engine, func() (interface{}, error) {
		return map[string]interface{}{"renders": h.engine.Renders().Summaries(nil)}, nil
	})
	if err != nil {
		h.logger.Error("Failed to list renders", "error", err)
		handlers.ResponseFromError(w, err)
		return
	}
	response.WriteRaw(w, http.StatusOK, body)
}

// LiveRenders lists online renders from the cache without touching the
// engine
func (h *RenderHandler) LiveRenders(w http.ResponseWriter, r *http.Request) {
	if h.live == nil {
		handlers.ResponseError(w, "Render cache is not configured", http.StatusServiceUnavailable)
		return
	}
	records, err := h.live.GetOnlineRenders(r.Context())
	if err != nil {
		h.logger.Error("Failed to read live renders", "error", err)
		handlers.ResponseError(w, "Failed to read live renders", http.StatusBadGateway)
		return
	}
	if records == nil {
		records = []domain.RenderRecord{}
	}
	response.WriteSuccess(w, map[string][]domain.RenderRecord{"renders": records})
}

type renderDetails struct {
	defs.RenderSummary
	Info string `json:"info"`
}

// GetRender handles single render requests
func (h *RenderHandler) GetRender(w http.ResponseWriter, r *http.Request) {
	h.withRender(w, r, func(rn renderView) interface{} {
		return renderDetails{RenderSummary: rn.Summary(), Info: rn.Info()}
	})
}

// GetLog returns the render event log
func (h *RenderHandler) GetLog(w http.ResponseWriter, r *http.Request) {
	h.withRender(w, r, func(rn renderView) interface{} {
		return map[string][]string{"lines": nonNil(rn.Log())}
	})
}

// GetTasksLog returns the log of task starts and finishes
func (h *RenderHandler) GetTasksLog(w http.ResponseWriter, r *http.Request) {
	h.withRender(w, r, func(rn renderView) interface{} {
		return map[string][]string{"lines": nonNil(rn.TasksLog())}
	})
}

type renderView interface {
	Summary() defs.RenderSummary
	Info() string
	Log() []string
	TasksLog() []string
}

func nonNil(lines []string) []string {
	if lines == nil {
		return []string{}
	}
	return lines
}

func (h *RenderHandler) withRender(w http.ResponseWriter, r *http.Request, view func(renderView) interface{}) {
	id, ok := handlers.PathID(r, "renderId")
	if !ok {
		handlers.ResponseError(w, "Invalid render ID", http.StatusBadRequest)
		return
	}
	body, err := handlers.Encode(r.Context(), h.engine, func() (interface{}, error) {
		rn := h.engine.Renders().Get(id)
		if rn == nil {
			return nil, errs.ErrRenderNotFound
		}
		return view(rn), nil
	})
	if err != nil {
		handlers.ResponseFromError(w, err)
		return
	}
	response.WriteRaw(w, http.StatusOK, body)
}

// DeleteRender removes an offline render
func (h *RenderHandler) DeleteRender(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathID(r, "renderId")
	if !ok {
		handlers.ResponseError(w, "Invalid render ID", http.StatusBadRequest)
		return
	}
	author := defs.GeneralData{
		IDs:      []int32{id},
		UserName: r.URL.Query().Get("user"),
		HostName: r.RemoteAddr,
	}

	var err error
	if doErr := h.engine.Do(r.Context(), func() {
		err = h.engine.Renders().Delete(id, author)
	}); doErr != nil {
		handlers.ResponseFromError(w, doErr)
		return
	}
	if err != nil {
		handlers.ResponseFromError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Action applies an administrative action to the render
func (h *RenderHandler) Action(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathID(r, "renderId")
	if !ok {
		handlers.ResponseError(w, "Invalid render ID", http.StatusBadRequest)
		return
	}
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", "error", err)
		handlers.ResponseError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	t, ok := h.actions[req.Type]
	if !ok {
		handlers.ResponseError(w, "Unknown action "+req.Type, http.StatusBadRequest)
		return
	}
	data := req.general(id, r.RemoteAddr)

	var err error
	if doErr := h.engine.Do(r.Context(), func() {
		err = h.engine.Renders().Action(t, data)
	}); doErr != nil {
		handlers.ResponseFromError(w, doErr)
		return
	}
	if err != nil {
		h.logger.Warn("Render action failed", "type", req.Type, "id", id, "error", err)
		handlers.ResponseFromError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
