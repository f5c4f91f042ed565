package render

import (
	"time"

	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
)

// IRenderRegistry defines the render operations used by the scheduler
// engine and the inbound handlers.
type IRenderRegistry interface {
	// Register brings a render online, creating it on first contact
	Register(snap domain.RenderSnapshot) (*Render, error)

	// Restore loads offline renders from storage
	Restore(records []domain.RenderRecord) int

	Get(id int32) *Render
	GetByName(name string) *Render
	FindNode(id int32) (*Render, bool)
	All() []*Render

	// Action applies an administrative action to the listed renders
	Action(t defs.MsgType, data defs.GeneralData) error

	// Delete removes an offline render
	Delete(id int32, author defs.GeneralData) error

	// RefreshAll takes stale renders offline
	RefreshAll(now time.Time) int

	SweepZombies() int
	ReconcileIdle()
	CloseLostTask(renderID int32, key domain.TaskKey)
	Summaries(ids []int32) []defs.RenderSummary
}
