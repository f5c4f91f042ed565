package handlers

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/mux"

	"gitlab.com/renderfarm.net/internal/adapter/metrics"
	"gitlab.com/renderfarm.net/internal/core/ports/primary"
)

type MiddlewareProvider struct {
	logger primary.Logger
}

func New(logger primary.Logger) *MiddlewareProvider {
	return &MiddlewareProvider{logger: logger}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// LoggingMiddleware logs every request and counts it by route template
func (m *MiddlewareProvider) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := routeName(r)
		metrics.RecordHTTPRequest(route, r.Method, rec.status)
		m.logger.Debug("HTTP request", "method", r.Method, "route", route, "status", rec.status,
			"duration", time.Since(start).String())
	})
}

// RecoverMiddleware turns a handler panic into a 500
func (m *MiddlewareProvider) RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				m.logger.Error("HTTP handler panic", "path", r.URL.Path, "panic", p, "stack", string(debug.Stack()))
				ResponseError(w, "Internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
