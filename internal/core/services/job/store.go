package job

import (
	"fmt"
	"sort"
	"time"

	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/core/ports/secondary"
	"gitlab.com/renderfarm.net/internal/core/services/render"
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/static/errs"
)

const defaultMaxErrors = 3

var (
	_ IJobService        = (*Store)(nil)
	_ secondary.JobStore = (*Store)(nil)
)

// Store keeps jobs in memory. It is owned by the scheduler engine
// goroutine.
type Store struct {
	jobs      map[int32]*domain.Job
	lastID    int32
	renders   RenderFinder
	notifier  secondary.Notifier
	logger    primary.Logger
	maxErrors int
	now       func() time.Time
}

// NewStore creates an empty job store
func NewStore(renders RenderFinder, notifier secondary.Notifier, logger primary.Logger) *Store {
	return &Store{
		jobs:      make(map[int32]*domain.Job),
		renders:   renders,
		notifier:  notifier,
		logger:    logger,
		maxErrors: defaultMaxErrors,
		now:       time.Now,
	}
}

// SetMaxErrors sets how many errors make a task fail instead of retrying.
func (s *Store) SetMaxErrors(n int) {
	if n > 0 {
		s.maxErrors = n
	}
}

// SetRenders wires the render lookup once the registry exists.
func (s *Store) SetRenders(renders RenderFinder) { s.renders = renders }

func (s *Store) event(change domain.ChangeKind, id int32) {
	if s.notifier != nil {
		s.notifier.AddEvent(domain.Event{Entity: domain.EntityJob, Change: change, ID: id})
	}
}

// AddJob queues a job and returns its id
func (s *Store) AddJob(job *domain.Job) (int32, error) {
	if job == nil || len(job.Blocks) == 0 {
		return 0, fmt.Errorf("add job: %w", errs.ErrJobEmpty)
	}
	for _, b := range job.Blocks {
		if len(b.Tasks) == 0 {
			return 0, fmt.Errorf("add job %q block %q: %w", job.Name, b.Name, errs.ErrJobEmpty)
		}
	}
	s.lastID++
	job.ID = s.lastID
	job.CreatedAt = s.now()
	for i, b := range job.Blocks {
		b.Num = int32(i)
		for j, t := range b.Tasks {
			t.Num = int32(j)
			t.State = domain.TaskReady
			t.RenderID = 0
			t.Percent = 0
		}
	}
	s.jobs[job.ID] = job
	s.logger.Info("Job added", "jobId", job.ID, "name", job.Name, "user", job.UserName)
	s.event(domain.ChangeAdded, job.ID)
	return job.ID, nil
}

// DeleteJob stops the running tasks of a job and removes it
func (s *Store) DeleteJob(id int32) bool {
	job, ok := s.jobs[id]
	if !ok {
		return false
	}
	for _, b := range job.Blocks {
		for _, t := range b.Tasks {
			if t.State != domain.TaskRunning {
				continue
			}
			key := domain.TaskKey{JobID: id, BlockNum: b.Num, TaskNum: t.Num}
			if r, ok := s.findRender(t.RenderID); ok {
				r.StopTask(key)
				r.ReleaseTask(key)
			}
		}
	}
	delete(s.jobs, id)
	s.logger.Info("Job deleted", "jobId", id)
	s.event(domain.ChangeDeleted, id)
	return true
}

// GetJob retrieves a job by id
func (s *Store) GetJob(id int32) (*domain.Job, bool) {
	job, ok := s.jobs[id]
	return job, ok
}

// ListJobs returns jobs ordered by priority, highest first, then by id
func (s *Store) ListJobs() []*domain.Job {
	out := make([]*domain.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].Priority != out[k].Priority {
			return out[i].Priority > out[k].Priority
		}
		return out[i].ID < out[k].ID
	})
	return out
}

func (s *Store) lookup(key domain.TaskKey) (*domain.Job, *domain.Block, *domain.Task, bool) {
	job, ok := s.jobs[key.JobID]
	if !ok || key.BlockNum < 0 || int(key.BlockNum) >= len(job.Blocks) {
		return nil, nil, nil, false
	}
	b := job.Blocks[key.BlockNum]
	if key.TaskNum < 0 || int(key.TaskNum) >= len(b.Tasks) {
		return nil, nil, nil, false
	}
	return job, b, b.Tasks[key.TaskNum], true
}

func exec(job *domain.Job, b *domain.Block, t *domain.Task, number int32) *domain.TaskExec {
	return &domain.TaskExec{
		JobID:    job.ID,
		BlockNum: b.Num,
		TaskNum:  t.Num,
		Number:   number,
		JobName:  job.Name,
		Name:     t.Name,
		UserName: job.UserName,
		Service:  b.Service,
		Command:  b.Command,
		Capacity: b.Capacity,
	}
}

// FindTask returns the execution record of a task
func (s *Store) FindTask(key domain.TaskKey) (*domain.TaskExec, bool) {
	job, b, t, ok := s.lookup(key)
	if !ok {
		return nil, false
	}
	return exec(job, b, t, key.Number), true
}

func (s *Store) findRender(id int32) (*render.Render, bool) {
	if s.renders == nil || id == 0 {
		return nil, false
	}
	return s.renders.FindNode(id)
}

func (s *Store) release(renderID int32, key domain.TaskKey) {
	if r, ok := s.findRender(renderID); ok && r.HasTask(key) {
		r.ReleaseTask(key)
	}
}

// ApplyTaskStatus applies a status reported for a task running on the
// given render. It returns false when the task is unknown or runs
// elsewhere, the caller then closes it on the render.
func (s *Store) ApplyTaskStatus(renderID int32, key domain.TaskKey, status domain.TaskStatus) bool {
	job, _, t, ok := s.lookup(key)
	if !ok {
		s.logger.Warn("Status for unknown task", "renderId", renderID, "task", key.String(), "status", status.String())
		return false
	}
	if t.State != domain.TaskRunning || t.RenderID != renderID {
		s.logger.Warn("Status for task not running on render", "renderId", renderID, "task", key.String(),
			"state", t.State, "taskRenderId", t.RenderID)
		return false
	}

	switch {
	case status == domain.UPNull:
		return true
	case status.IsRunning():
		if status == domain.UPWarning {
			s.logger.Warn("Task reported a warning", "task", key.String(), "renderId", renderID)
		}
	case status.IsSuccess():
		t.State = domain.TaskDone
		t.Percent = 100
		t.RenderID = 0
		s.release(renderID, key)
	case status.IsError():
		t.Errors++
		t.RenderID = 0
		if t.Errors >= s.maxErrors {
			t.State = domain.TaskError
		} else {
			t.State = domain.TaskReady
		}
		s.logger.Warn("Task finished with error", "task", key.String(), "status", status.String(), "errors", t.Errors)
		s.release(renderID, key)
	case status.IsRetract():
		t.State = domain.TaskReady
		t.Percent = 0
		t.RenderID = 0
		s.release(renderID, key)
	default:
		s.logger.Error("Unhandled task status", "task", key.String(), "status", status.String())
		return false
	}
	s.event(domain.ChangeChanged, job.ID)
	return true
}

// UpdatePercent records task progress
func (s *Store) UpdatePercent(renderID int32, key domain.TaskKey, percent int) bool {
	job, _, t, ok := s.lookup(key)
	if !ok || t.State != domain.TaskRunning || t.RenderID != renderID {
		return false
	}
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	if t.Percent != percent {
		t.Percent = percent
		s.event(domain.ChangeChanged, job.ID)
	}
	return true
}

// Solve gives each ready task to the first render that can run it. Jobs
// are taken by priority then age and renders in the order given.
func (s *Store) Solve(renders []*render.Render) int {
	assigned := 0
	for _, job := range s.ListJobs() {
		changed := false
		for _, b := range job.Blocks {
			for _, t := range b.Tasks {
				if t.State != domain.TaskReady {
					continue
				}
				for _, r := range renders {
					if !r.CanRunTask(b.Service, b.Capacity) {
						continue
					}
					if !r.AssignTask(exec(job, b, t, 0), true) {
						continue
					}
					t.State = domain.TaskRunning
					t.RenderID = r.ID()
					t.Percent = 0
					assigned++
					changed = true
					break
				}
			}
		}
		if changed {
			s.event(domain.ChangeChanged, job.ID)
		}
	}
	return assigned
}
