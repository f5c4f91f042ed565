package schedulerengine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/renderfarm.net/internal/adapter/logging"
	"gitlab.com/renderfarm.net/internal/config"
	"gitlab.com/renderfarm.net/internal/core/services/job"
	"gitlab.com/renderfarm.net/internal/core/services/monitor"
	"gitlab.com/renderfarm.net/internal/core/services/render"
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/static/errs"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

type chanDispatcher chan message.Message

func (c chanDispatcher) Dispatch(m message.Message) {
	select {
	case c <- m:
	default:
	}
}

func newEngine(t *testing.T, out chanDispatcher) *SchedulerEngine {
	log := logging.NewNopLogger()
	monitors := monitor.NewContainer(out, log)
	jobs := job.NewStore(nil, monitors, log)
	renders, err := render.NewRegistry(&render.Env{
		Dispatcher: out,
		Notifier:   monitors,
		Jobs:       jobs,
		Logger:     log,
		Cfg:        &config.RenderCfg{ZombieTime: time.Minute, LogLinesMax: 10},
	})
	require.NoError(t, err)
	jobs.SetRenders(renders)
	return NewSchedulerEngine(&config.ScheduleSvcCfg{
		RefreshInterval: time.Hour,
		SolveInterval:   10 * time.Millisecond,
		FlushInterval:   10 * time.Millisecond,
		InboxSize:       8,
	}, renders, jobs, monitors, log)
}

func snapshot(name string) domain.RenderSnapshot {
	return domain.RenderSnapshot{
		Name:    name,
		Address: domain.Address{ConnID: uuid.New(), Remote: name},
		Host:    domain.Host{Capacity: 100, MaxTasks: 2, Services: []domain.Service{{Name: "blender"}}},
	}
}

func TestEngineSolvesAndFlushes(t *testing.T) {
	out := make(chanDispatcher, 64)
	e := newEngine(t, out)
	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)
	defer cancel()

	monAddr := domain.Address{ConnID: uuid.New(), Remote: "monitor"}
	var regErr, jobErr error
	require.NoError(t, e.Do(ctx, func() {
		id := e.Monitors().Register(domain.MonitorInfo{Address: monAddr})
		e.Monitors().Subscribe(id, []defs.MsgType{defs.MsgMonitorJobsChanged})
		_, regErr = e.Renders().Register(snapshot("farm01"))
		_, jobErr = e.Jobs().AddJob(&domain.Job{Name: "shot", Blocks: []*domain.Block{{
			Service: "blender", Capacity: 10, Tasks: []*domain.Task{{Name: "f1"}},
		}}})
	}))
	require.NoError(t, regErr)
	require.NoError(t, jobErr)

	seen := map[defs.MsgType]bool{}
	deadline := time.After(2 * time.Second)
	for !seen[defs.MsgTask] || !seen[defs.MsgMonitorJobsChanged] {
		select {
		case m := <-out:
			seen[m.Type()] = true
		case <-deadline:
			t.Fatalf("timed out, seen %v", seen)
		}
	}
}

func TestEngineRefresh(t *testing.T) {
	e := newEngine(t, make(chanDispatcher, 64))
	start := time.Now()
	r, err := e.Renders().Register(snapshot("farm01"))
	require.NoError(t, err)
	_, err = e.Renders().Register(snapshot("farm02"))
	require.NoError(t, err)

	var got CycleStats
	e.SetCycleObserver(func(st CycleStats) { got = st })

	st := e.Refresh(start.Add(2 * time.Minute))
	assert.Equal(t, CycleStats{Total: 2, Online: 0, Stale: 2}, st)
	assert.Equal(t, st, got)

	require.NoError(t, e.Renders().Delete(r.ID(), defs.GeneralData{UserName: "admin"}))
	st = e.Refresh(start.Add(3 * time.Minute))
	assert.Equal(t, CycleStats{Total: 1, Online: 0, Swept: 1}, st)
}

func TestEngineStop(t *testing.T) {
	e := newEngine(t, make(chanDispatcher, 64))
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(stopped)
	}()

	require.NoError(t, e.Do(context.Background(), func() { panic("boom") }), "panics are recovered")
	ran := false
	require.NoError(t, e.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)

	cancel()
	<-stopped
	assert.ErrorIs(t, e.Post(context.Background(), func() {}), errs.ErrEngineStopped)
	assert.ErrorIs(t, e.Do(context.Background(), func() {}), errs.ErrEngineStopped)
}
