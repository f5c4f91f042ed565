package render

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"gitlab.com/renderfarm.net/internal/adapter/logging"
	"gitlab.com/renderfarm.net/internal/config"
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

type fakeDispatcher struct{ msgs []message.Message }

func (d *fakeDispatcher) Dispatch(m message.Message) { d.msgs = append(d.msgs, m) }

func (d *fakeDispatcher) types() []defs.MsgType {
	out := make([]defs.MsgType, len(d.msgs))
	for i, m := range d.msgs {
		out[i] = m.Type()
	}
	return out
}

type fakeNotifier struct{ events []domain.Event }

func (n *fakeNotifier) AddEvent(e domain.Event) { n.events = append(n.events, e) }

type scheduledUpdate struct {
	rec   domain.RenderRecord
	attrs []domain.Attr
}

type fakeUpdates struct {
	updates []scheduledUpdate
	deletes []domain.RenderRecord
}

func (u *fakeUpdates) ScheduleUpdate(rec domain.RenderRecord, attrs ...domain.Attr) {
	u.updates = append(u.updates, scheduledUpdate{rec: rec, attrs: attrs})
}

func (u *fakeUpdates) ScheduleDelete(rec domain.RenderRecord) { u.deletes = append(u.deletes, rec) }

type appliedStatus struct {
	renderID int32
	key      domain.TaskKey
	status   domain.TaskStatus
}

// fakeJobs releases tasks back through the registry like the real store.
type fakeJobs struct {
	reg     *Registry
	applied []appliedStatus
}

func (j *fakeJobs) FindTask(domain.TaskKey) (*domain.TaskExec, bool) { return nil, false }

func (j *fakeJobs) ApplyTaskStatus(renderID int32, key domain.TaskKey, status domain.TaskStatus) bool {
	j.applied = append(j.applied, appliedStatus{renderID, key, status})
	if j.reg != nil {
		if r := j.reg.Get(renderID); r != nil {
			r.ReleaseTask(key)
		}
	}
	return true
}

type fakeFarm struct {
	policies map[string]domain.HostPolicy
	limits   map[string]int
	used     map[string]int
}

func (f *fakeFarm) ResolveHostPolicy(name string) (domain.HostPolicy, bool) {
	p, ok := f.policies[name]
	return p, ok
}

func (f *fakeFarm) ServiceLimitCheck(service, _ string) bool {
	limit, ok := f.limits[service]
	return !ok || f.used[service] < limit
}

func (f *fakeFarm) ServiceLimitAdd(service, _ string)     { f.used[service]++ }
func (f *fakeFarm) ServiceLimitRelease(service, _ string) { f.used[service]-- }

type fakeLogs struct {
	entries []string
	flushed map[string][]string
}

func (l *fakeLogs) AppendEntry(_ int32, text string) { l.entries = append(l.entries, text) }

func (l *fakeLogs) FlushToStorage(lines []string, _ string, name string, _ int) {
	l.flushed[name] = lines
}

type fakeWaker struct{ calls map[string][]string }

func (w *fakeWaker) Wake(name string, macs []string) { w.calls[name] = macs }

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	env   *Env
	reg   *Registry
	disp  *fakeDispatcher
	notes *fakeNotifier
	upd   *fakeUpdates
	jobs  *fakeJobs
	farm  *fakeFarm
	logs  *fakeLogs
	waker *fakeWaker
	clock *testClock
	obs   *observer.ObservedLogs
}

func newFixture() *fixture {
	core, obs := observer.New(zap.DebugLevel)
	f := &fixture{
		disp:  &fakeDispatcher{},
		notes: &fakeNotifier{},
		upd:   &fakeUpdates{},
		jobs:  &fakeJobs{},
		farm:  &fakeFarm{policies: map[string]domain.HostPolicy{}, limits: map[string]int{}, used: map[string]int{}},
		logs:  &fakeLogs{flushed: map[string][]string{}},
		waker: &fakeWaker{calls: map[string][]string{}},
		clock: &testClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		obs:   obs,
	}
	f.env = &Env{
		Dispatcher: f.disp,
		Notifier:   f.notes,
		Updates:    f.upd,
		Jobs:       f.jobs,
		Farm:       f.farm,
		Logs:       f.logs,
		Waker:      f.waker,
		Logger:     logging.NewZapLoggerWithCore(core),
		Cfg: &config.RenderCfg{
			ZombieTime:      60 * time.Second,
			DefaultCapacity: 1100,
			DefaultMaxTasks: 10,
			LogLinesMax:     50,
			LogsDir:         "logs",
			LogsRotate:      3,
		},
		Now: func() time.Time { return f.clock.Now() },
	}
	reg, err := NewRegistry(f.env)
	if err != nil {
		panic(err)
	}
	f.reg = reg
	f.jobs.reg = reg
	return f
}

// reset forgets everything recorded so far.
func (f *fixture) reset() {
	f.disp.msgs = nil
	f.notes.events = nil
	f.upd.updates = nil
	f.upd.deletes = nil
	f.jobs.applied = nil
}

func snapshot(name string, capacity, maxTasks int, netIFs ...domain.NetIF) domain.RenderSnapshot {
	return domain.RenderSnapshot{
		Name:     name,
		UserName: "render",
		Version:  "3.2.0",
		Address:  domain.Address{ConnID: uuid.New(), Remote: "10.0.0.5:40000"},
		Host: domain.Host{
			Capacity: capacity,
			MaxTasks: maxTasks,
			Services: []domain.Service{{Name: "blender"}, {Name: "nuke", Count: 1}},
		},
		NetIFs: netIFs,
	}
}

func task(job, num int32, service string, capacity int) *domain.TaskExec {
	return &domain.TaskExec{
		JobID:    job,
		TaskNum:  num,
		JobName:  "shot_010",
		Name:     "frame",
		UserName: "alice",
		Service:  service,
		Capacity: capacity,
	}
}
