package dbqueue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"gitlab.com/renderfarm.net/internal/adapter/metrics"
	"gitlab.com/renderfarm.net/internal/config"
	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/core/ports/secondary"
	"gitlab.com/renderfarm.net/internal/domain"
)

var _ secondary.UpdateQueue = (*Queue)(nil)

type request struct {
	rec    domain.RenderRecord
	attrs  []domain.Attr
	delete bool
}

// Queue writes render records to storage in the background. Requests for
// one render always land on the same worker, so they are written in the
// order they were scheduled.
type Queue struct {
	writers  []secondary.RenderWriter
	shards   []chan request
	timeout  time.Duration
	logger   primary.Logger
	failures atomic.Int64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewQueue starts the workers. Every request is written to all writers.
func NewQueue(cfg *config.PersistCfg, logger primary.Logger, writers ...secondary.RenderWriter) *Queue {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	size := cfg.QueueSize / workers
	if size < 1 {
		size = 1
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	q := &Queue{
		writers: writers,
		shards:  make([]chan request, workers),
		timeout: timeout,
		logger:  logger,
	}
	for i := range q.shards {
		q.shards[i] = make(chan request, size)
		q.wg.Add(1)
		go q.work(q.shards[i])
	}
	return q
}

// ScheduleUpdate implements the UpdateQueue interface
func (q *Queue) ScheduleUpdate(rec domain.RenderRecord, attrs ...domain.Attr) {
	q.enqueue(request{rec: rec, attrs: append([]domain.Attr(nil), attrs...)})
}

// ScheduleDelete implements the UpdateQueue interface
func (q *Queue) ScheduleDelete(rec domain.RenderRecord) {
	q.enqueue(request{rec: rec, delete: true})
}

func (q *Queue) enqueue(req request) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.fail("closed", req, nil)
		return
	}
	shard := q.shards[int(uint32(req.rec.ID))%len(q.shards)]
	select {
	case shard <- req:
		metrics.SetPersistQueueDepth(q.depth())
	default:
		q.fail("queue_full", req, nil)
	}
}

func (q *Queue) fail(reason string, req request, err error) {
	q.failures.Add(1)
	metrics.RecordPersistFailure(reason)
	q.logger.Warn("Render persistence failed", "reason", reason, "id", req.rec.ID, "render", req.rec.Name,
		"delete", req.delete, "error", err)
}

func (q *Queue) work(ch chan request) {
	defer q.wg.Done()
	for req := range ch {
		for _, w := range q.writers {
			q.write(w, req)
		}
		metrics.SetPersistQueueDepth(q.depth())
	}
}

func (q *Queue) write(w secondary.RenderWriter, req request) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	var err error
	if req.delete {
		err = w.DeleteRender(ctx, req.rec.ID)
	} else {
		err = w.SaveRender(ctx, req.rec, req.attrs)
	}
	if err != nil {
		q.fail("write", req, err)
	}
}

func (q *Queue) depth() int {
	n := 0
	for _, ch := range q.shards {
		n += len(ch)
	}
	return n
}

// Failures returns how many requests were dropped or failed to write
func (q *Queue) Failures() int64 { return q.failures.Load() }

// Depth returns the number of requests waiting to be written
func (q *Queue) Depth() int { return q.depth() }

// Close stops accepting requests and waits until the queued ones are
// written or ctx is done.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		for _, ch := range q.shards {
			close(ch)
		}
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
