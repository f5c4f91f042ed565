package domain

import "time"

// TaskState is the server side state of a task.
type TaskState string

const (
	TaskReady   TaskState = "READY"
	TaskRunning TaskState = "RUNNING"
	TaskDone    TaskState = "DONE"
	TaskError   TaskState = "ERROR"
)

// Job is a render job: a list of blocks, each a list of tasks.
type Job struct {
	ID        int32     `json:"id"`
	Name      string    `json:"name"`
	UserName  string    `json:"user_name"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
	Blocks    []*Block  `json:"blocks"`
}

// Block groups tasks that share a service and a capacity cost.
type Block struct {
	Num      int32   `json:"num"`
	Name     string  `json:"name"`
	Service  string  `json:"service"`
	Capacity int     `json:"capacity"`
	Command  string  `json:"command"`
	Tasks    []*Task `json:"tasks"`
}

type Task struct {
	Num      int32     `json:"num"`
	Name     string    `json:"name"`
	State    TaskState `json:"state"`
	Percent  int       `json:"percent"`
	RenderID int32     `json:"render_id"`
	Errors   int       `json:"errors"`
}

// Done reports whether every task of the job finished.
func (j *Job) Done() bool {
	for _, b := range j.Blocks {
		for _, t := range b.Tasks {
			if t.State != TaskDone {
				return false
			}
		}
	}
	return true
}
