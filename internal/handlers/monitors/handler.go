package monitors

import (
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/handlers"
	"gitlab.com/renderfarm.net/internal/handlers/response"
	"gitlab.com/renderfarm.net/internal/static/errs"
)

// MonitorHandler lists connected monitors
type MonitorHandler struct {
	engine handlers.Engine
	logger primary.Logger
}

func NewMonitorHandler(engine handlers.Engine, logger primary.Logger) *MonitorHandler {
	return &MonitorHandler{engine: engine, logger: logger}
}

func (h *MonitorHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/monitors", h.ListMonitors).Methods("GET")
	router.HandleFunc("/api/monitors/{monitorId:[0-9]+}", h.GetMonitor).Methods("GET")
}

func (h *MonitorHandler) ListMonitors(w http.ResponseWriter, r *http.Request) {
	body, err := handlers.Encode(r.Context(), h.engine, func() (interface{}, error) {
		return map[string]interface{}{"monitors": h.engine.Monitors().List()}, nil
	})
	if err != nil {
		h.logger.Error("Failed to list monitors", "error", err)
		handlers.ResponseFromError(w, err)
		return
	}
	response.WriteRaw(w, http.StatusOK, body)
}

func (h *MonitorHandler) GetMonitor(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathID(r, "monitorId")
	if !ok {
		handlers.ResponseError(w, "Invalid monitor ID", http.StatusBadRequest)
		return
	}
	body, err := handlers.Encode(r.Context(), h.engine, func() (interface{}, error) {
		info, ok := h.engine.Monitors().Get(id)
		if !ok {
			return nil, errs.ErrMonitorNotFound
		}
		return info, nil
	})
	if err != nil {
		handlers.ResponseFromError(w, err)
		return
	}
	response.WriteRaw(w, http.StatusOK, body)
}
