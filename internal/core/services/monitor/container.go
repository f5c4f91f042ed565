package monitor

import (
	"sort"

	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/core/ports/secondary"
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

var (
	_ IMonitorService    = (*Container)(nil)
	_ secondary.Notifier = (*Container)(nil)
)

var eventTypes = map[domain.EntityKind][3]defs.MsgType{
	domain.EntityJob:     {defs.MsgMonitorJobsAdd, defs.MsgMonitorJobsChanged, defs.MsgMonitorJobsDel},
	domain.EntityUser:    {defs.MsgMonitorUsersAdd, defs.MsgMonitorUsersChanged, defs.MsgMonitorUsersDel},
	domain.EntityRender:  {defs.MsgMonitorRendersAdd, defs.MsgMonitorRendersChanged, defs.MsgMonitorRendersDel},
	domain.EntityMonitor: {defs.MsgMonitorMonitorsAdd, defs.MsgMonitorMonitorsChanged, defs.MsgMonitorMonitorsDel},
	domain.EntityTalk:    {defs.MsgMonitorTalksAdd, defs.MsgNull, defs.MsgMonitorTalksDel},
}

// EventType maps an event to the message type monitors subscribe to.
func EventType(e domain.Event) (defs.MsgType, bool) {
	types, ok := eventTypes[e.Entity]
	if !ok || e.Change < domain.ChangeAdded || e.Change > domain.ChangeDeleted {
		return defs.MsgNull, false
	}
	t := types[e.Change]
	return t, t != defs.MsgNull
}

type monitor struct {
	info   domain.MonitorInfo
	events map[defs.MsgType]bool
	// jobs is nil while the monitor watches every job
	jobs map[int32]bool
}

func (m *monitor) wants(t defs.MsgType, id int32) bool {
	if !m.events[t] {
		return false
	}
	if t.IsJobEvent() && m.jobs != nil {
		return m.jobs[id]
	}
	return true
}

func (m *monitor) snapshot() domain.MonitorInfo {
	info := m.info
	info.Events = make([]string, 0, len(m.events))
	for t := range m.events {
		info.Events = append(info.Events, t.String())
	}
	sort.Strings(info.Events)
	info.JobIDs = make([]int32, 0, len(m.jobs))
	for id := range m.jobs {
		info.JobIDs = append(info.JobIDs, id)
	}
	sort.Slice(info.JobIDs, func(i, j int) bool { return info.JobIDs[i] < info.JobIDs[j] })
	return info
}

// Container holds the registered monitors and the events waiting to be
// sent to them. It is owned by the scheduler engine goroutine.
type Container struct {
	monitors   map[int32]*monitor
	pending    []domain.Event
	lastID     int32
	dispatcher secondary.Dispatcher
	logger     primary.Logger
	onFlush    func(t defs.MsgType, n int)
}

// NewContainer creates an empty monitor container
func NewContainer(dispatcher secondary.Dispatcher, logger primary.Logger) *Container {
	return &Container{
		monitors:   make(map[int32]*monitor),
		dispatcher: dispatcher,
		logger:     logger,
		onFlush:    func(defs.MsgType, int) {},
	}
}

// SetFlushObserver is called with every delivered event message type and
// the number of ids it carried.
func (c *Container) SetFlushObserver(fn func(t defs.MsgType, n int)) {
	if fn != nil {
		c.onFlush = fn
	}
}

// Register adds a monitor and returns its id
func (c *Container) Register(info domain.MonitorInfo) int32 {
	c.lastID++
	info.ID = c.lastID
	c.monitors[info.ID] = &monitor{info: info, events: make(map[defs.MsgType]bool)}
	c.logger.Info("Monitor registered", "id", info.ID, "user", info.UserName, "host", info.HostName,
		"address", info.Address.String())
	c.AddEvent(domain.Event{Entity: domain.EntityMonitor, Change: domain.ChangeAdded, ID: info.ID})
	return info.ID
}

// Deregister removes a monitor
func (c *Container) Deregister(id int32) bool {
	m, ok := c.monitors[id]
	if !ok {
		c.logger.Warn("Deregister of unknown monitor", "id", id)
		return false
	}
	delete(c.monitors, id)
	c.logger.Info("Monitor deregistered", "id", id, "user", m.info.UserName, "host", m.info.HostName)
	c.AddEvent(domain.Event{Entity: domain.EntityMonitor, Change: domain.ChangeDeleted, ID: id})
	return true
}

// DeregisterAddress removes the monitor bound to a connection if it is
// still the one registered with that id.
func (c *Container) DeregisterAddress(id int32, addr domain.Address) bool {
	m, ok := c.monitors[id]
	if !ok || m.info.Address.ConnID != addr.ConnID {
		return false
	}
	return c.Deregister(id)
}

// Subscribe adds event types a monitor wants to receive
func (c *Container) Subscribe(id int32, types []defs.MsgType) bool {
	m, ok := c.monitors[id]
	if !ok {
		c.logger.Warn("Subscribe of unknown monitor", "id", id)
		return false
	}
	for _, t := range types {
		if !t.IsEvent() {
			c.logger.Warn("Monitor subscribed to a non event type", "id", id, "type", t.String())
			continue
		}
		m.events[t] = true
	}
	return true
}

// Unsubscribe removes event types
func (c *Container) Unsubscribe(id int32, types []defs.MsgType) bool {
	m, ok := c.monitors[id]
	if !ok {
		c.logger.Warn("Unsubscribe of unknown monitor", "id", id)
		return false
	}
	for _, t := range types {
		delete(m.events, t)
	}
	return true
}

// SetJobIDs changes the watched job ids. An empty set makes the monitor
// watch every job again.
func (c *Container) SetJobIDs(id int32, op defs.MsgType, jobIDs []int32) bool {
	m, ok := c.monitors[id]
	if !ok {
		c.logger.Warn("Job ids for unknown monitor", "id", id)
		return false
	}
	switch op {
	case defs.MsgMonitorJobsIdsSet:
		m.jobs = make(map[int32]bool, len(jobIDs))
		for _, j := range jobIDs {
			m.jobs[j] = true
		}
	case defs.MsgMonitorJobsIdsAdd:
		if m.jobs == nil {
			m.jobs = make(map[int32]bool, len(jobIDs))
		}
		for _, j := range jobIDs {
			m.jobs[j] = true
		}
	case defs.MsgMonitorJobsIdsDel:
		for _, j := range jobIDs {
			delete(m.jobs, j)
		}
	default:
		c.logger.Error("Unknown job ids operation", "id", id, "type", op.String())
		return false
	}
	if len(m.jobs) == 0 {
		m.jobs = nil
	}
	return true
}

// AddEvent queues an event. A repeat of the latest queued event for the
// same entity is dropped.
func (c *Container) AddEvent(e domain.Event) {
	if _, ok := EventType(e); !ok {
		c.logger.Warn("Event without a monitor message type", "entity", e.Entity, "change", e.Change, "id", e.ID)
		return
	}
	for i := len(c.pending) - 1; i >= 0; i-- {
		p := c.pending[i]
		if p.Entity == e.Entity && p.ID == e.ID {
			if p.Change == e.Change {
				return
			}
			break
		}
	}
	c.pending = append(c.pending, e)
}

// Pending returns the number of queued events.
func (c *Container) Pending() int { return len(c.pending) }

// Flush sends queued events to the subscribed monitors and clears the
// queue. Consecutive events of one type are batched into one message, so
// each monitor sees events in the order they were raised. It returns the
// number of messages dispatched.
func (c *Container) Flush() int {
	if len(c.pending) == 0 {
		return 0
	}
	events := c.pending
	c.pending = nil

	sent := 0
	for _, id := range c.ids() {
		m := c.monitors[id]
		var (
			batchType defs.MsgType
			batch     []int32
		)
		send := func() {
			if len(batch) == 0 {
				return
			}
			if c.send(m, batchType, batch) {
				sent++
			}
			batch = nil
		}
		for _, e := range events {
			t, _ := EventType(e)
			if !m.wants(t, e.ID) {
				continue
			}
			if t != batchType {
				send()
				batchType = t
			}
			batch = append(batch, e.ID)
		}
		send()
	}
	return sent
}

func (c *Container) send(m *monitor, t defs.MsgType, ids []int32) bool {
	msg, err := message.Marshal(t, &defs.EventIDsData{IDs: ids})
	if err != nil {
		c.logger.Error("Failed to encode monitor event", "type", t.String(), "error", err)
		return false
	}
	msg.Route().SetAddress(m.info.Address)
	if c.dispatcher == nil {
		c.logger.Error("Dispatcher is not set, monitor event dropped", "monitor", m.info.ID, "type", t.String())
		return false
	}
	c.dispatcher.Dispatch(msg)
	c.onFlush(t, len(ids))
	return true
}

func (c *Container) ids() []int32 {
	ids := make([]int32, 0, len(c.monitors))
	for id := range c.monitors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Get returns a monitor by id
func (c *Container) Get(id int32) (domain.MonitorInfo, bool) {
	m, ok := c.monitors[id]
	if !ok {
		return domain.MonitorInfo{}, false
	}
	return m.snapshot(), true
}

// List returns every monitor ordered by id
func (c *Container) List() []domain.MonitorInfo {
	out := make([]domain.MonitorInfo, 0, len(c.monitors))
	for _, id := range c.ids() {
		out = append(out, c.monitors[id].snapshot())
	}
	return out
}

// Summaries lists monitors for MsgMonitorsList.
func (c *Container) Summaries() []defs.MonitorSummary {
	out := make([]defs.MonitorSummary, 0, len(c.monitors))
	for _, id := range c.ids() {
		m := c.monitors[id]
		out = append(out, defs.MonitorSummary{
			ID:       m.info.ID,
			UserName: m.info.UserName,
			HostName: m.info.HostName,
			Address:  m.info.Address.Remote,
		})
	}
	return out
}
