package domain

import "fmt"

// TaskKey identifies a running task on a render. Number distinguishes
// service runs of the same task.
type TaskKey struct {
	JobID    int32 `json:"job_id" cbor:"job_id"`
	BlockNum int32 `json:"block_num" cbor:"block_num"`
	TaskNum  int32 `json:"task_num" cbor:"task_num"`
	Number   int32 `json:"number" cbor:"number"`
}

func (k TaskKey) String() string {
	return fmt.Sprintf("[%d][%d][%d](%d)", k.JobID, k.BlockNum, k.TaskNum, k.Number)
}

// TaskExec is everything a render needs to run one task.
type TaskExec struct {
	JobID    int32  `json:"job_id" cbor:"job_id"`
	BlockNum int32  `json:"block_num" cbor:"block_num"`
	TaskNum  int32  `json:"task_num" cbor:"task_num"`
	Number   int32  `json:"number" cbor:"number"`
	JobName  string `json:"job_name" cbor:"job_name"`
	Name     string `json:"name" cbor:"name"`
	UserName string `json:"user_name" cbor:"user_name"`
	Service  string `json:"service" cbor:"service"`
	Command  string `json:"command" cbor:"command"`
	Capacity int    `json:"capacity" cbor:"capacity"`
}

func (t *TaskExec) Key() TaskKey {
	return TaskKey{JobID: t.JobID, BlockNum: t.BlockNum, TaskNum: t.TaskNum, Number: t.Number}
}

func (t *TaskExec) String() string {
	return fmt.Sprintf("%s %s[%s] %s cap=%d user=%s", t.Key(), t.JobName, t.Name, t.Service, t.Capacity, t.UserName)
}

// TaskStatus is a task update reported by a render or imposed by the server.
type TaskStatus int32

const (
	UPNull TaskStatus = iota
	UPNoTaskRunning
	UPNoJob
	UPStarted
	UPPercent
	UPWarning
	UPFinishedSuccess
	UPFinishedError
	UPFinishedKilled
	UPFinishedParserError
	UPFinishedParserBadResult
	UPFinishedParserSuccess
	UPFinishedFailedPost
	UPRenderDeregister
	UPRenderExit
	UPRenderZombie
	UPStop
	UPEject
	UPLast
)

var taskStatusNames = [...]string{
	UPNull:                    "null",
	UPNoTaskRunning:           "no_task_running",
	UPNoJob:                   "no_job",
	UPStarted:                 "started",
	UPPercent:                 "percent",
	UPWarning:                 "warning",
	UPFinishedSuccess:         "finished_success",
	UPFinishedError:           "finished_error",
	UPFinishedKilled:          "finished_killed",
	UPFinishedParserError:     "finished_parser_error",
	UPFinishedParserBadResult: "finished_parser_bad_result",
	UPFinishedParserSuccess:   "finished_parser_success",
	UPFinishedFailedPost:      "finished_failed_post",
	UPRenderDeregister:        "render_deregister",
	UPRenderExit:              "render_exit",
	UPRenderZombie:            "render_zombie",
	UPStop:                    "stop",
	UPEject:                   "eject",
}

func (s TaskStatus) String() string {
	if s >= UPNull && s < UPLast {
		return taskStatusNames[s]
	}
	return fmt.Sprintf("TaskStatus(%d)", int32(s))
}

// IsRunning reports a progress update for a task that keeps running.
func (s TaskStatus) IsRunning() bool {
	return s == UPStarted || s == UPPercent || s == UPWarning
}

// IsSuccess reports a successful finish.
func (s TaskStatus) IsSuccess() bool {
	return s == UPFinishedSuccess || s == UPFinishedParserSuccess
}

// IsError reports a finish that counts as a task error.
func (s TaskStatus) IsError() bool {
	switch s {
	case UPFinishedError, UPFinishedKilled, UPFinishedParserError,
		UPFinishedParserBadResult, UPFinishedFailedPost:
		return true
	}
	return false
}

// IsRetract reports a status that takes the task back from the render
// without it finishing, so it becomes ready again.
func (s TaskStatus) IsRetract() bool {
	switch s {
	case UPNoTaskRunning, UPNoJob, UPRenderDeregister, UPRenderExit,
		UPRenderZombie, UPStop, UPEject:
		return true
	}
	return false
}
