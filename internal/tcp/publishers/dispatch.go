package publishers

import (
	"errors"
	"sync"
	"time"

	"gitlab.com/renderfarm.net/internal/adapter/metrics"
	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/core/ports/secondary"
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/static/errs"
	"gitlab.com/renderfarm.net/internal/tcp/connectionmanager"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

var _ secondary.Dispatcher = (*Dispatcher)(nil)

// FailureCollector is told about messages that could not be delivered.
type FailureCollector interface {
	RecordDispatchFailure(m message.Message, addr domain.Address, err error)
}

// Dispatcher queues outbound messages on the connections named by their
// route. It never blocks and never retries.
type Dispatcher struct {
	ConnectionMgr *connectionmanager.ConnectionManager
	Failures      FailureCollector
	Logger        primary.Logger
}

func NewDispatcher(connectionMgr *connectionmanager.ConnectionManager, failures FailureCollector, logger primary.Logger) *Dispatcher {
	return &Dispatcher{
		ConnectionMgr: connectionMgr,
		Failures:      failures,
		Logger:        logger,
	}
}

// Dispatch implements the Dispatcher interface
func (d *Dispatcher) Dispatch(m message.Message) {
	if m == nil {
		d.Logger.Warn("Dispatch of nil message")
		return
	}
	targets := m.Route().Targets()
	if len(targets) == 0 {
		d.Logger.Warn("Message has no address", "type", m.Type().String())
		d.fail(m, domain.Address{}, errs.ErrConnectionNotFound)
		return
	}
	for _, addr := range targets {
		conn, ok := d.ConnectionMgr.Get(addr.ConnID)
		if !ok {
			d.fail(m, addr, errs.ErrConnectionNotFound)
			continue
		}
		if err := conn.Enqueue(m); err != nil {
			d.fail(m, addr, err)
			continue
		}
		metrics.RecordMessageDispatched(m.Type())
	}
}

func (d *Dispatcher) fail(m message.Message, addr domain.Address, err error) {
	m.Route().SetSendFailed()
	if d.Failures != nil {
		d.Failures.RecordDispatchFailure(m, addr, err)
	}
}

// Failure is one undelivered message.
type Failure struct {
	Time    time.Time `json:"time"`
	Type    string    `json:"type"`
	Address string    `json:"address"`
	Reason  string    `json:"reason"`
}

// FailureLog counts dispatch failures and keeps the most recent ones.
type FailureLog struct {
	mu     sync.Mutex
	count  int64
	recent []Failure
	limit  int
	logger primary.Logger
}

func NewFailureLog(limit int, logger primary.Logger) *FailureLog {
	if limit < 1 {
		limit = 1
	}
	return &FailureLog{limit: limit, logger: logger}
}

// RecordDispatchFailure implements the FailureCollector interface
func (f *FailureLog) RecordDispatchFailure(m message.Message, addr domain.Address, err error) {
	reason := failureReason(err)
	metrics.RecordDispatchFailure(m.Type(), reason)
	f.logger.Warn("Failed to dispatch message", "type", m.Type().String(), "address", addr.String(), "reason", reason, "error", err)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	f.recent = append(f.recent, Failure{
		Time:    time.Now(),
		Type:    m.Type().String(),
		Address: addr.String(),
		Reason:  reason,
	})
	if len(f.recent) > f.limit {
		f.recent = f.recent[len(f.recent)-f.limit:]
	}
}

// Count returns the number of failures since start
func (f *FailureLog) Count() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// Recent returns the latest failures, oldest first
func (f *FailureLog) Recent() []Failure {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Failure(nil), f.recent...)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, errs.ErrConnectionNotFound):
		return "no_connection"
	case errors.Is(err, errs.ErrOutboxFull):
		return "outbox_full"
	case errors.Is(err, errs.ErrConnectionClosed):
		return "closed"
	default:
		return "write"
	}
}
