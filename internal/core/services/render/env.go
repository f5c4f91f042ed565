package render

import (
	"time"

	"gitlab.com/renderfarm.net/internal/config"
	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/core/ports/secondary"
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

// Env holds the collaborators shared by all renders. Every field may be
// nil: a missing collaborator is logged as an error and the side effect is
// skipped.
type Env struct {
	Dispatcher secondary.Dispatcher
	Notifier   secondary.Notifier
	Updates    secondary.UpdateQueue
	Jobs       secondary.JobStore
	Farm       secondary.FarmTopology
	Logs       secondary.LogSink
	Waker      secondary.Waker
	Logger     primary.Logger
	Cfg        *config.RenderCfg
	Now        func() time.Time
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}

func (e *Env) logger() primary.Logger {
	if e == nil || e.Logger == nil {
		return nopLogger{}
	}
	return e.Logger
}

func (e *Env) now() time.Time {
	if e == nil || e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Env) cfg() *config.RenderCfg {
	if e == nil || e.Cfg == nil {
		return defaultCfg
	}
	return e.Cfg
}

var defaultCfg = &config.RenderCfg{
	ZombieTime:      60 * time.Second,
	DefaultCapacity: 1100,
	DefaultMaxTasks: 10,
	LogLinesMax:     200,
	LogsDir:         "logs/renders",
	LogsRotate:      10,
}

func (e *Env) dispatch(m message.Message) bool {
	if e == nil || e.Dispatcher == nil {
		e.logger().Error("Dispatcher is not set, message dropped", "type", m.Type())
		return false
	}
	e.Dispatcher.Dispatch(m)
	return true
}

func (e *Env) event(ev domain.Event) {
	if e == nil || e.Notifier == nil {
		return
	}
	e.Notifier.AddEvent(ev)
}

func (e *Env) persist(rec domain.RenderRecord, attrs ...domain.Attr) {
	if e == nil || e.Updates == nil {
		e.logger().Error("Update queue is not set, render not persisted", "render", rec.Name)
		return
	}
	e.Updates.ScheduleUpdate(rec, attrs...)
}

func (e *Env) persistDelete(rec domain.RenderRecord) {
	if e == nil || e.Updates == nil {
		e.logger().Error("Update queue is not set, render not deleted from storage", "render", rec.Name)
		return
	}
	e.Updates.ScheduleDelete(rec)
}

func (e *Env) serverLog(id int32, text string) {
	if e == nil || e.Logs == nil {
		e.logger().Info(text, "render_id", id)
		return
	}
	e.Logs.AppendEntry(id, text)
}
