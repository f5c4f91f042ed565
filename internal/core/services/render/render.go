package render

import (
	"fmt"
	"strings"
	"time"

	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
)

const noFarmHost = "no farm host"

// Render is one worker node. All methods must be called from the
// scheduler engine goroutine.
type Render struct {
	id         int32
	name       string
	userName   string
	version    string
	address    domain.Address
	state      domain.RenderState
	locked     bool
	priority   int
	annotation string

	host    domain.Host
	hres    domain.HostRes
	netIFs  []domain.NetIF
	farm    string
	farmDsc string

	// Admin overrides, -1 means use the host value.
	capacity int
	maxTasks int

	servicesDisabled []string
	serviceCounts    []int
	serviceDisabled  []bool

	tasks        []*domain.TaskExec
	capacityUsed int

	timeRegister time.Time
	timeLaunch   time.Time
	timeUpdate   time.Time
	timeTasks    time.Time
	timeWOL      time.Time

	log      *activityLog
	tasksLog *activityLog
	env      *Env
}

func newRender(id int32, name string, env *Env) *Render {
	lines := env.cfg().LogLinesMax
	return &Render{
		id:       id,
		name:     name,
		capacity: -1,
		maxTasks: -1,
		farm:     noFarmHost,
		log:      newActivityLog(lines),
		tasksLog: newActivityLog(lines),
		env:      env,
	}
}

// FromRecord rebuilds an offline render from storage.
func FromRecord(rec domain.RenderRecord, env *Env) *Render {
	r := newRender(rec.ID, rec.Name, env)
	r.userName = rec.UserName
	r.version = rec.Version
	r.state = rec.State &^ (domain.StateOnline | domain.StateBusy | domain.StateZombie)
	r.priority = rec.Priority
	r.annotation = rec.Annotation
	r.capacity = rec.Capacity
	r.maxTasks = rec.MaxTasks
	r.servicesDisabled = splitServices(rec.ServicesDisabled)
	r.netIFs = append([]domain.NetIF(nil), rec.NetIFs...)
	r.timeRegister = rec.TimeRegister
	r.timeUpdate = rec.TimeUpdate
	r.timeWOL = rec.TimeWOL
	r.applyFarmHost(nil)
	r.appendLog("Registered offline.")
	return r
}

func (r *Render) ID() int32                 { return r.id }
func (r *Render) Name() string              { return r.name }
func (r *Render) UserName() string          { return r.userName }
func (r *Render) Address() domain.Address   { return r.address }
func (r *Render) State() domain.RenderState { return r.state }
func (r *Render) HostRes() domain.HostRes   { return r.hres }
func (r *Render) Priority() int             { return r.priority }
func (r *Render) Annotation() string        { return r.annotation }
func (r *Render) CapacityUsed() int         { return r.capacityUsed }
func (r *Render) TasksCount() int           { return len(r.tasks) }
func (r *Render) TimeUpdate() time.Time     { return r.timeUpdate }
func (r *Render) TimeTasks() time.Time      { return r.timeTasks }
func (r *Render) TimeWOL() time.Time        { return r.timeWOL }

func (r *Render) IsOnline() bool      { return r.state.Has(domain.StateOnline) }
func (r *Render) IsOffline() bool     { return !r.IsOnline() }
func (r *Render) IsBusy() bool        { return r.state.Has(domain.StateBusy) }
func (r *Render) IsZombie() bool      { return r.state.Has(domain.StateZombie) }
func (r *Render) IsHidden() bool      { return r.state.Has(domain.StateHidden) }
func (r *Render) IsNIMBY() bool       { return r.state.Has(domain.StateNIMBY) }
func (r *Render) IsNimby() bool       { return r.state.Has(domain.StateNimby) }
func (r *Render) IsWOLSleeping() bool { return r.state.Has(domain.StateWOLSleeping) }
func (r *Render) IsWOLFalling() bool  { return r.state.Has(domain.StateWOLFalling) }
func (r *Render) IsWOLWaking() bool   { return r.state.Has(domain.StateWOLWaking) }
func (r *Render) IsLocked() bool      { return r.locked }

// SetLocked excludes the render from the zombie sweep.
func (r *Render) SetLocked(locked bool) { r.locked = locked }

func (r *Render) set(flag domain.RenderState, on bool) {
	if on {
		r.state |= flag
	} else {
		r.state &^= flag
	}
}

// Capacity is the admin override or the host capacity.
func (r *Render) Capacity() int {
	if r.capacity >= 0 {
		return r.capacity
	}
	return r.host.Capacity
}

// MaxTasks is the admin override or the host limit.
func (r *Render) MaxTasks() int {
	if r.maxTasks >= 0 {
		return r.maxTasks
	}
	return r.host.MaxTasks
}

func (r *Render) CapacityFree() int { return r.Capacity() - r.capacityUsed }

// Tasks returns copies of the running tasks.
func (r *Render) Tasks() []domain.TaskExec {
	out := make([]domain.TaskExec, len(r.tasks))
	for i, t := range r.tasks {
		out[i] = *t
	}
	return out
}

// HasTask reports whether the task is running here.
func (r *Render) HasTask(key domain.TaskKey) bool {
	return r.taskIndex(key) >= 0
}

func (r *Render) taskIndex(key domain.TaskKey) int {
	for i, t := range r.tasks {
		if t.Key() == key {
			return i
		}
	}
	return -1
}

// MACs returns the hardware addresses of the known interfaces.
func (r *Render) MACs() []string {
	macs := make([]string, 0, len(r.netIFs))
	for _, n := range r.netIFs {
		if n.MAC != "" {
			macs = append(macs, n.MAC)
		}
	}
	return macs
}

// Record is the persistence snapshot of the render.
func (r *Render) Record() domain.RenderRecord {
	return domain.RenderRecord{
		ID:               r.id,
		Name:             r.name,
		UserName:         r.userName,
		Version:          r.version,
		Address:          r.address.Remote,
		State:            r.state,
		Priority:         r.priority,
		Annotation:       r.annotation,
		Capacity:         r.capacity,
		MaxTasks:         r.maxTasks,
		ServicesDisabled: strings.Join(r.servicesDisabled, ";"),
		NetIFs:           append([]domain.NetIF(nil), r.netIFs...),
		TimeRegister:     r.timeRegister,
		TimeLaunch:       r.timeLaunch,
		TimeUpdate:       r.timeUpdate,
		TimeWOL:          r.timeWOL,
		TasksCount:       len(r.tasks),
		CapacityUsed:     r.capacityUsed,
	}
}

// Summary is the list row sent to monitors.
func (r *Render) Summary() defs.RenderSummary {
	names := make([]string, 0, len(r.host.Services))
	for i, s := range r.host.Services {
		if !r.serviceDisabled[i] {
			names = append(names, s.Name)
		}
	}
	var updated int64
	if !r.timeUpdate.IsZero() {
		updated = r.timeUpdate.Unix()
	}
	return defs.RenderSummary{
		ID:           r.id,
		Name:         r.name,
		UserName:     r.userName,
		State:        r.state.String(),
		Priority:     r.priority,
		Annotation:   r.annotation,
		Address:      r.address.Remote,
		Capacity:     r.Capacity(),
		CapacityUsed: r.capacityUsed,
		MaxTasks:     r.MaxTasks(),
		Tasks:        len(r.tasks),
		Services:     strings.Join(names, ","),
		Version:      r.version,
		TimeUpdate:   updated,
	}
}

// Log returns the activity log, oldest line first.
func (r *Render) Log() []string { return r.log.snapshot() }

// TasksLog returns the task history, oldest line first.
func (r *Render) TasksLog() []string { return r.tasksLog.snapshot() }

func (r *Render) appendLog(text string) {
	r.log.append(r.env.now(), text)
}

func (r *Render) appendTasksLog(text string) {
	r.tasksLog.append(r.env.now(), text)
}

func (r *Render) changed() { r.env.event(domain.RenderChanged(r.id)) }

func (r *Render) persist(attrs ...domain.Attr) { r.env.persist(r.Record(), attrs...) }

// Info is the human readable description sent for info requests.
func (r *Render) Info() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Render %q id=%d user=%s state=[%s]\n", r.name, r.id, r.userName, r.state)
	fmt.Fprintf(&b, "Version: %s Address: %s\n", r.version, r.address)
	fmt.Fprintf(&b, "Farm host: %s %s\n", r.farm, r.farmDsc)
	fmt.Fprintf(&b, "Capacity: %d/%d Tasks: %d/%d Priority: %d\n",
		r.capacityUsed, r.Capacity(), len(r.tasks), r.MaxTasks(), r.priority)
	if r.annotation != "" {
		fmt.Fprintf(&b, "Annotation: %s\n", r.annotation)
	}
	for _, t := range r.tasks {
		fmt.Fprintf(&b, "   %s\n", t)
	}
	b.WriteString(r.ServicesString())
	return b.String()
}

func (r *Render) resourcesString() string {
	h := r.hres
	return fmt.Sprintf("CPU %dx%dMHz load %d%%, mem %d/%dMB, swap %dMB, hdd %dGB free, net %d/%dKB/s",
		h.CPUNum, h.CPUMHz, h.CPULoad, h.MemFreeMB, h.MemTotalMB, h.SwapUsedMB, h.HDDFreeGB, h.NetRecvKBs, h.NetSendKBs)
}
