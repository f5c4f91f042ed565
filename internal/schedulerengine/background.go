package schedulerengine

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/renderfarm.net/internal/config"
	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/core/services/job"
	"gitlab.com/renderfarm.net/internal/core/services/monitor"
	"gitlab.com/renderfarm.net/internal/core/services/render"
	"gitlab.com/renderfarm.net/internal/static/errs"
)

// CycleStats describes one refresh cycle.
type CycleStats struct {
	Total  int
	Online int
	Stale  int
	Swept  int
}

// SchedulerEngine is the single goroutine that owns renders, jobs and
// monitors. Everything else reaches them through Post and Do.
type SchedulerEngine struct {
	SchedulerCfg *config.ScheduleSvcCfg
	renders      *render.Registry
	jobs         *job.Store
	monitors     *monitor.Container
	logger       primary.Logger
	inbox        chan func()
	done         chan struct{}
	now          func() time.Time
	onCycle      func(CycleStats)
}

func NewSchedulerEngine(
	SchedulerCfg *config.ScheduleSvcCfg,
	renders *render.Registry,
	jobs *job.Store,
	monitors *monitor.Container,
	logger primary.Logger,
) *SchedulerEngine {
	size := SchedulerCfg.InboxSize
	if size < 1 {
		size = 1
	}
	return &SchedulerEngine{
		SchedulerCfg: SchedulerCfg,
		renders:      renders,
		jobs:         jobs,
		monitors:     monitors,
		logger:       logger,
		inbox:        make(chan func(), size),
		done:         make(chan struct{}),
		now:          time.Now,
		onCycle:      func(CycleStats) {},
	}
}

// SetCycleObserver is called after every refresh cycle.
func (s *SchedulerEngine) SetCycleObserver(fn func(CycleStats)) {
	if fn != nil {
		s.onCycle = fn
	}
}

func (s *SchedulerEngine) Renders() *render.Registry    { return s.renders }
func (s *SchedulerEngine) Jobs() *job.Store             { return s.jobs }
func (s *SchedulerEngine) Monitors() *monitor.Container { return s.monitors }

// Run processes submitted work and the periodic cycles until ctx is done.
// Pending monitor events are flushed before it returns.
func (s *SchedulerEngine) Run(ctx context.Context) {
	defer close(s.done)

	refresh := time.NewTicker(s.SchedulerCfg.RefreshInterval)
	defer refresh.Stop()
	solve := time.NewTicker(s.SchedulerCfg.SolveInterval)
	defer solve.Stop()
	flush := time.NewTicker(s.SchedulerCfg.FlushInterval)
	defer flush.Stop()

	s.logger.Info("Scheduler engine started",
		"refresh", s.SchedulerCfg.RefreshInterval,
		"solve", s.SchedulerCfg.SolveInterval,
		"flush", s.SchedulerCfg.FlushInterval)
	for {
		select {
		case <-ctx.Done():
			s.drain()
			s.Flush()
			s.logger.Info("Scheduler engine stopped")
			return
		case fn := <-s.inbox:
			s.exec(fn)
		case <-refresh.C:
			s.Refresh(s.now())
		case <-solve.C:
			s.Solve()
		case <-flush.C:
			s.Flush()
		}
	}
}

// drain runs work that was accepted before shutdown.
func (s *SchedulerEngine) drain() {
	for {
		select {
		case fn := <-s.inbox:
			s.exec(fn)
		default:
			return
		}
	}
}

func (s *SchedulerEngine) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered from panic in scheduler engine", "panic", fmt.Sprint(r))
		}
	}()
	fn()
}

// Post submits work without waiting for it to run. It blocks while the
// inbox is full.
func (s *SchedulerEngine) Post(ctx context.Context, fn func()) error {
	select {
	case <-s.done:
		return errs.ErrEngineStopped
	default:
	}
	select {
	case s.inbox <- fn:
		return nil
	case <-s.done:
		return errs.ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn on the engine goroutine and waits for it.
func (s *SchedulerEngine) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := s.Post(ctx, func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-s.done:
		select {
		case <-finished:
			return nil
		default:
			return errs.ErrEngineStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresh takes stale renders offline and removes deleted ones.
func (s *SchedulerEngine) Refresh(now time.Time) CycleStats {
	var st CycleStats
	st.Stale = s.renders.RefreshAll(now)
	st.Swept = s.renders.SweepZombies()
	st.Total, st.Online = s.renders.Count()
	if st.Stale > 0 || st.Swept > 0 {
		s.logger.Info("Render refresh", "stale", st.Stale, "swept", st.Swept, "online", st.Online)
	}
	s.onCycle(st)
	return st
}

// Solve hands ready tasks to renders and then clears the busy flag of
// renders that got nothing.
func (s *SchedulerEngine) Solve() int {
	n := s.jobs.Solve(s.renders.All())
	s.renders.ReconcileIdle()
	if n > 0 {
		s.logger.Debug("Tasks assigned", "count", n)
	}
	return n
}

// Flush sends pending events to monitors.
func (s *SchedulerEngine) Flush() int {
	return s.monitors.Flush()
}
