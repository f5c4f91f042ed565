package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/renderfarm.net/internal/adapter/farm"
	"gitlab.com/renderfarm.net/internal/adapter/logging"
	"gitlab.com/renderfarm.net/internal/config"
	"gitlab.com/renderfarm.net/internal/core/services/job"
	"gitlab.com/renderfarm.net/internal/core/services/monitor"
	"gitlab.com/renderfarm.net/internal/core/services/render"
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/handlers/system"
	"gitlab.com/renderfarm.net/internal/schedulerengine"
	"gitlab.com/renderfarm.net/internal/tcp/connectionmanager"
	"gitlab.com/renderfarm.net/internal/tcp/publishers"
)

type fakeLive struct {
	records []domain.RenderRecord
	err     error
}

func (f *fakeLive) GetOnlineRenders(context.Context) ([]domain.RenderRecord, error) {
	return f.records, f.err
}

type apiFixture struct {
	handler http.Handler
	engine  *schedulerengine.SchedulerEngine
}

func newAPI(t *testing.T, live *fakeLive) *apiFixture {
	t.Helper()
	log := logging.NewNopLogger()
	cm := connectionmanager.NewConnectionManager(log, 16)
	failures := publishers.NewFailureLog(8, log)
	dispatcher := publishers.NewDispatcher(cm, failures, log)

	monitors := monitor.NewContainer(dispatcher, log)
	jobs := job.NewStore(nil, monitors, log)
	renders, err := render.NewRegistry(&render.Env{
		Dispatcher: dispatcher,
		Notifier:   monitors,
		Jobs:       jobs,
		Logger:     log,
		Cfg:        &config.RenderCfg{ZombieTime: time.Minute, LogLinesMax: 20},
	})
	require.NoError(t, err)
	jobs.SetRenders(renders)

	engine := schedulerengine.NewSchedulerEngine(&config.ScheduleSvcCfg{
		RefreshInterval: time.Hour,
		SolveInterval:   time.Hour,
		FlushInterval:   time.Hour,
		InboxSize:       16,
	}, renders, jobs, monitors, log)
	ctx, cancel := context.WithCancel(context.Background())
	go engine.Run(ctx)
	t.Cleanup(cancel)

	f, err := farm.New(farm.File{Limits: []farm.ServiceLimit{{Service: "blender", MaxCount: 4}}})
	require.NoError(t, err)

	var liveRenders interface {
		GetOnlineRenders(context.Context) ([]domain.RenderRecord, error)
	}
	if live != nil {
		liveRenders = live
	}
	srv := NewServer(0, "renderfarm-test", *NewServiceProvider(engine, liveRenders, system.Dependencies{
		Farm:     f,
		Failures: failures,
	}), log)
	require.NoError(t, srv.Init())
	return &apiFixture{handler: srv.Handler(), engine: engine}
}

func (a *apiFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *apiFixture) register(t *testing.T, name string) int32 {
	t.Helper()
	var (
		id  int32
		err error
	)
	require.NoError(t, a.engine.Do(context.Background(), func() {
		var r *render.Render
		r, err = a.engine.Renders().Register(domain.RenderSnapshot{
			Name:    name,
			Address: domain.Address{ConnID: uuid.New(), Remote: "10.0.0.5:4000"},
			Host:    domain.Host{Capacity: 100, MaxTasks: 2},
		})
		if err == nil {
			id = r.ID()
		}
	}))
	require.NoError(t, err)
	return id
}

func TestJobsAPI(t *testing.T) {
	api := newAPI(t, nil)

	rec := api.do(t, "POST", "/api/jobs", map[string]interface{}{
		"name":      "shot_010",
		"user_name": "alice",
		"blocks":    []map[string]interface{}{{"name": "render", "service": "blender", "capacity": 10, "frames": 3}},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	var created struct {
		JobID int32 `json:"jobId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int32(1), created.JobID)

	rec = api.do(t, "GET", "/api/jobs/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var job domain.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	require.Len(t, job.Blocks, 1)
	assert.Len(t, job.Blocks[0].Tasks, 3)
	assert.Equal(t, "frame 2", job.Blocks[0].Tasks[1].Name)

	rec = api.do(t, "POST", "/api/jobs", map[string]interface{}{"name": "empty"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusNoContent, api.do(t, "DELETE", "/api/jobs/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, "GET", "/api/jobs/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, "DELETE", "/api/jobs/1", nil).Code)
}

func TestRendersAPI(t *testing.T) {
	api := newAPI(t, nil)
	id := api.register(t, "farm01")

	rec := api.do(t, "GET", "/api/renders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Renders []struct {
			ID       int32  `json:"id"`
			Name     string `json:"name"`
			Priority int    `json:"priority"`
		} `json:"renders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Renders, 1)
	assert.Equal(t, "farm01", list.Renders[0].Name)

	rec = api.do(t, "POST", "/api/renders/1/actions", map[string]interface{}{"type": "RenderSetPriority", "number": 80, "user": "admin"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = api.do(t, "GET", "/api/renders/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var details struct {
		ID       int32  `json:"id"`
		Priority int    `json:"priority"`
		Info     string `json:"info"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
	assert.Equal(t, id, details.ID)
	assert.Equal(t, 80, details.Priority)
	assert.NotEmpty(t, details.Info)

	rec = api.do(t, "GET", "/api/renders/1/log", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Priority set to 80")

	assert.Equal(t, http.StatusBadRequest,
		api.do(t, "POST", "/api/renders/1/actions", map[string]interface{}{"type": "RenderUpdate"}).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, "GET", "/api/renders/9", nil).Code)
	assert.Equal(t, http.StatusConflict, api.do(t, "DELETE", "/api/renders/1", nil).Code)
}

func TestLiveRenders(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, newAPI(t, nil).do(t, "GET", "/api/renders/live", nil).Code)

	api := newAPI(t, &fakeLive{records: []domain.RenderRecord{{ID: 3, Name: "farm03"}}})
	rec := api.do(t, "GET", "/api/renders/live", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "farm03")

	broken := newAPI(t, &fakeLive{err: errors.New("connection refused")})
	assert.Equal(t, http.StatusBadGateway, broken.do(t, "GET", "/api/renders/live", nil).Code)
}

func TestSystemRoutes(t *testing.T) {
	api := newAPI(t, nil)

	rec := api.do(t, "GET", "/api/farm/usage", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"service":"blender"`)

	assert.Equal(t, http.StatusOK, api.do(t, "GET", "/api/dispatch/failures", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, api.do(t, "GET", "/api/log", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, "GET", "/api/monitors", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, "GET", "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, "GET", "/metrics", nil).Code)
}
