package job

import (
	"gitlab.com/renderfarm.net/internal/core/services/render"
	"gitlab.com/renderfarm.net/internal/domain"
)

// IJobService defines the job store operations used by the engine, the
// handlers and the renders
type IJobService interface {
	// AddJob queues a job and returns its id
	AddJob(job *domain.Job) (int32, error)

	// DeleteJob stops the running tasks of a job and removes it
	DeleteJob(id int32) bool

	// GetJob retrieves a job by id
	GetJob(id int32) (*domain.Job, bool)

	// ListJobs returns every job in queue order
	ListJobs() []*domain.Job

	// FindTask returns the execution record of a task
	FindTask(key domain.TaskKey) (*domain.TaskExec, bool)

	// ApplyTaskStatus applies a task status reported for a render
	ApplyTaskStatus(renderID int32, key domain.TaskKey, status domain.TaskStatus) bool

	// UpdatePercent records task progress
	UpdatePercent(renderID int32, key domain.TaskKey, percent int) bool

	// Solve hands ready tasks to renders that can run them
	Solve(renders []*render.Render) int
}

// RenderFinder looks renders up by id.
type RenderFinder interface {
	FindNode(id int32) (*render.Render, bool)
}
