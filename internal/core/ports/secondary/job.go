package secondary

import (
	"gitlab.com/renderfarm.net/internal/domain"
)

// JobStore is the authoritative task store renders hand tasks back to.
type JobStore interface {
	// FindTask returns the execution record of a task.
	FindTask(key domain.TaskKey) (*domain.TaskExec, bool)

	// ApplyTaskStatus applies a status reported for a task running on the
	// given render. It returns false when the task is unknown.
	ApplyTaskStatus(renderID int32, key domain.TaskKey, status domain.TaskStatus) bool
}
