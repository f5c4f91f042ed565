package render

import (
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
)

// CanRunTask reports whether the render may take one more task of the
// given service and capacity.
func (r *Render) CanRunTask(service string, capacity int) bool {
	if r.IsOffline() || r.IsNIMBY() || r.IsNimby() || r.IsWOLFalling() || r.IsWOLSleeping() {
		return false
	}
	if r.MaxTasks() > 0 && len(r.tasks) >= r.MaxTasks() {
		return false
	}
	if capacity > r.CapacityFree() {
		return false
	}
	return r.CanRunService(service)
}

// AssignTask adds a task to the render. With announce set the task is sent
// to the render client, otherwise the render is only marked as captured by
// it.
func (r *Render) AssignTask(task *domain.TaskExec, announce bool) bool {
	if task == nil {
		r.env.logger().Error("Task is nil", "op", "assign_task", "render", r.name, "id", r.id)
		return false
	}
	if r.IsOffline() {
		r.env.logger().Error("Render is offline", "op", "assign_task", "render", r.name, "id", r.id)
		return false
	}

	t := *task
	if !r.IsBusy() {
		r.set(domain.StateBusy, true)
		r.timeTasks = r.env.now()
		r.persist(domain.AttrState)
	}
	r.tasks = append(r.tasks, &t)
	r.capacityUsed += t.Capacity
	if r.capacityUsed > r.Capacity() {
		r.env.logger().Warn("Capacity used exceeds capacity",
			"render", r.name, "id", r.id, "capacity_used", r.capacityUsed, "capacity", r.Capacity())
	}
	r.ReserveService(t.Service)
	r.changed()

	if announce {
		r.sendData(defs.MsgTask, &t)
		r.appendTasksLog("Starting task: " + t.String())
	} else {
		r.appendTasksLog("Captured by task: " + t.String())
	}
	return true
}

// StartTask sends another service run of a task the render already holds.
func (r *Render) StartTask(task *domain.TaskExec) bool {
	if r.IsOffline() {
		r.env.logger().Error("Render is offline", "op", "start_task", "render", r.name, "id", r.id)
		return false
	}
	if task == nil || !r.HasTask(task.Key()) {
		r.env.logger().Error("No such task", "op", "start_task", "render", r.name, "id", r.id)
		return false
	}
	r.sendData(defs.MsgTask, task)
	r.appendLog("Starting service: " + task.String())
	return true
}

// ReleaseTask removes a finished or retracted task. The busy flag is kept
// until ReconcileIdle runs.
func (r *Render) ReleaseTask(key domain.TaskKey) bool {
	i := r.taskIndex(key)
	if i < 0 {
		r.env.logger().Warn("Release of unknown task", "render", r.name, "id", r.id, "task", key.String())
		return false
	}
	t := r.tasks[i]
	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)

	if r.capacityUsed < t.Capacity {
		r.env.logger().Warn("Capacity used is less than task capacity",
			"render", r.name, "id", r.id, "capacity_used", r.capacityUsed, "task_capacity", t.Capacity)
		r.capacityUsed = 0
	} else {
		r.capacityUsed -= t.Capacity
	}
	r.ReleaseService(t.Service)

	if t.Number != 0 {
		r.appendTasksLog("Finished service: " + t.String())
	} else {
		r.appendTasksLog("Finished task: " + t.String())
	}
	r.changed()
	return true
}

// ReconcileIdle clears the busy flag of a render left without tasks after
// a scheduling cycle.
func (r *Render) ReconcileIdle() bool {
	if !r.IsBusy() || len(r.tasks) > 0 {
		return false
	}
	r.set(domain.StateBusy, false)
	r.timeTasks = r.env.now()
	r.persist(domain.AttrState)
	r.changed()
	return true
}

// EjectTasks hands running tasks back to the job store with the given
// status. Tasks of keepUser are left running when it is not empty.
func (r *Render) EjectTasks(status domain.TaskStatus, keepUser string) int {
	if len(r.tasks) == 0 {
		return 0
	}
	var keys []domain.TaskKey
	for _, t := range r.tasks {
		if keepUser != "" && t.UserName == keepUser {
			continue
		}
		keys = append(keys, t.Key())
		r.appendLog("Ejecting task: " + t.String())
	}

	if r.env == nil || r.env.Jobs == nil {
		r.env.logger().Error("Job store is not set, releasing tasks locally",
			"op", "eject_tasks", "render", r.name, "id", r.id, "tasks", len(keys))
		for _, k := range keys {
			r.ReleaseTask(k)
		}
		return len(keys)
	}
	for _, k := range keys {
		if !r.env.Jobs.ApplyTaskStatus(r.id, k, status) {
			r.env.logger().Warn("Ejected task is unknown to the job store", "render", r.name, "task", k.String())
		}
		// the job store normally releases the task back through ReleaseTask
		if r.HasTask(k) {
			r.ReleaseTask(k)
		}
	}
	return len(keys)
}

// StopTask asks the render client to stop a running task.
func (r *Render) StopTask(key domain.TaskKey) bool {
	if r.IsOffline() {
		return false
	}
	return r.sendData(defs.MsgRenderStopTask, &defs.TaskPosData{Task: key})
}

// CloseLostTask tells the render client to drop a task the server no
// longer tracks.
func (r *Render) CloseLostTask(key domain.TaskKey) bool {
	if r.IsOffline() {
		return false
	}
	r.env.logger().Error("Closing lost task", "render", r.name, "id", r.id, "task", key.String())
	return r.sendData(defs.MsgRenderCloseTask, &defs.TaskPosData{Task: key})
}
