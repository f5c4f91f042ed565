package monitor

import (
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
)

// IMonitorService defines the monitor subscriptions and event fan-out
type IMonitorService interface {
	// Register adds a monitor and returns its id
	Register(info domain.MonitorInfo) int32

	// Deregister removes a monitor
	Deregister(id int32) bool

	// Subscribe adds event types a monitor wants to receive
	Subscribe(id int32, types []defs.MsgType) bool

	// Unsubscribe removes event types
	Unsubscribe(id int32, types []defs.MsgType) bool

	// SetJobIDs replaces, extends or shrinks the watched job ids
	SetJobIDs(id int32, op defs.MsgType, jobIDs []int32) bool

	// AddEvent queues an event for the next flush
	AddEvent(e domain.Event)

	// Flush delivers queued events to the subscribed monitors
	Flush() int

	Get(id int32) (domain.MonitorInfo, bool)
	List() []domain.MonitorInfo
}
