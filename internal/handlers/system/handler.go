package system

import (
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/renderfarm.net/internal/adapter/farm"
	"gitlab.com/renderfarm.net/internal/handlers"
	"gitlab.com/renderfarm.net/internal/handlers/response"
	"gitlab.com/renderfarm.net/internal/tcp/publishers"
)

// ServerLog exposes the recent server log
type ServerLog interface {
	Entries() []string
}

// DispatchFailures exposes undelivered outbound messages
type DispatchFailures interface {
	Count() int64
	Recent() []publishers.Failure
}

// PersistQueue exposes the update queue counters
type PersistQueue interface {
	Depth() int
	Failures() int64
}

// Dependencies are optional, a nil one answers 503.
type Dependencies struct {
	Farm     *farm.Farm
	Log      ServerLog
	Failures DispatchFailures
	Persist  PersistQueue
}

type Handler struct {
	deps Dependencies
}

func NewHandler(deps Dependencies) *Handler {
	return &Handler{deps: deps}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/farm/usage", h.FarmUsage).Methods("GET")
	router.HandleFunc("/api/log", h.ServerLog).Methods("GET")
	router.HandleFunc("/api/dispatch/failures", h.DispatchFailures).Methods("GET")
	router.HandleFunc("/api/persist", h.PersistStatus).Methods("GET")
	router.HandleFunc("/healthz", h.Health).Methods("GET")
}

func unavailable(w http.ResponseWriter, what string) {
	handlers.ResponseError(w, what+" is not configured", http.StatusServiceUnavailable)
}

func (h *Handler) FarmUsage(w http.ResponseWriter, r *http.Request) {
	if h.deps.Farm == nil {
		unavailable(w, "Farm topology")
		return
	}
	response.WriteSuccess(w, map[string][]farm.Usage{"services": h.deps.Farm.Usage()})
}

func (h *Handler) ServerLog(w http.ResponseWriter, r *http.Request) {
	if h.deps.Log == nil {
		unavailable(w, "Server log")
		return
	}
	response.WriteSuccess(w, map[string][]string{"lines": h.deps.Log.Entries()})
}

func (h *Handler) DispatchFailures(w http.ResponseWriter, r *http.Request) {
	if h.deps.Failures == nil {
		unavailable(w, "Dispatch failure log")
		return
	}
	response.WriteSuccess(w, map[string]interface{}{
		"count":  h.deps.Failures.Count(),
		"recent": h.deps.Failures.Recent(),
	})
}

func (h *Handler) PersistStatus(w http.ResponseWriter, r *http.Request) {
	if h.deps.Persist == nil {
		unavailable(w, "Update queue")
		return
	}
	response.WriteSuccess(w, map[string]interface{}{
		"depth":    h.deps.Persist.Depth(),
		"failures": h.deps.Persist.Failures(),
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response.WriteSuccess(w, map[string]string{"status": "ok"})
}
