package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"gitlab.com/renderfarm.net/internal/core/services/job"
	"gitlab.com/renderfarm.net/internal/core/services/monitor"
	"gitlab.com/renderfarm.net/internal/core/services/render"
	"gitlab.com/renderfarm.net/internal/handlers/response"
	"gitlab.com/renderfarm.net/internal/static/errs"
)

// Engine gives API handlers access to the state owned by the scheduler
// engine. Registry, store and container may only be touched inside Do.
type Engine interface {
	Do(ctx context.Context, fn func()) error
	Renders() *render.Registry
	Jobs() *job.Store
	Monitors() *monitor.Container
}

// Encode runs fn on the engine and encodes its result there, so the
// response never shares memory with engine state.
func Encode(ctx context.Context, engine Engine, fn func() (interface{}, error)) ([]byte, error) {
	var (
		body []byte
		err  error
	)
	if doErr := engine.Do(ctx, func() {
		var v interface{}
		if v, err = fn(); err != nil {
			return
		}
		body, err = json.Marshal(v)
	}); doErr != nil {
		return nil, doErr
	}
	return body, err
}

// PathID parses a numeric route variable
func PathID(r *http.Request, key string) (int32, bool) {
	v, err := strconv.ParseInt(mux.Vars(r)[key], 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(v), true
}

// StatusOf maps service errors to HTTP status codes
func StatusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrRenderNotFound),
		errors.Is(err, errs.ErrMonitorNotFound),
		errors.Is(err, errs.ErrJobNotFound),
		errors.Is(err, errs.ErrRenderZombie):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrRenderOnline):
		return http.StatusConflict
	case errors.Is(err, errs.ErrUnknownAction),
		errors.Is(err, errs.ErrJobEmpty):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrEngineStopped),
		errors.Is(err, errs.ErrEngineBusy),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func ResponseError(w http.ResponseWriter, message string, code int) {
	response.WriteError(w, response.ErrorMessage{Message: message, StatusCode: code})
}

// ResponseFromError writes err with the status StatusOf picks for it
func ResponseFromError(w http.ResponseWriter, err error) {
	ResponseError(w, err.Error(), StatusOf(err))
}
