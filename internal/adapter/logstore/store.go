package logstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/core/ports/secondary"
)

var _ secondary.LogSink = (*Store)(nil)

const (
	logSuffix     = ".log"
	rotatedSuffix = ".zst"
)

type flushJob struct {
	lines  []string
	dir    string
	name   string
	rotate int
}

// Store keeps the recent server log in memory and writes render logs to
// disk on a background goroutine. Older generations of a render log are
// kept zstd compressed as name.log.1.zst, name.log.2.zst and so on.
type Store struct {
	logger  primary.Logger
	encoder *zstd.Encoder
	jobs    chan flushJob
	wg      sync.WaitGroup
	now     func() time.Time

	mu      sync.Mutex
	entries []string
	max     int
	closed  bool
}

// NewStore starts the writer. maxEntries bounds the in-memory server log.
func NewStore(logger primary.Logger, maxEntries, queueSize int) (*Store, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	if maxEntries < 1 {
		maxEntries = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	s := &Store{
		logger:  logger,
		encoder: encoder,
		jobs:    make(chan flushJob, queueSize),
		now:     time.Now,
		max:     maxEntries,
	}
	s.wg.Add(1)
	go s.work()
	return s, nil
}

// AppendEntry implements the LogSink interface
func (s *Store) AppendEntry(renderID int32, text string) {
	s.logger.Info("Render event", "id", renderID, "text", text)

	line := fmt.Sprintf("%s render=%d %s", s.now().Format(time.RFC3339), renderID, text)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, line)
	if len(s.entries) > s.max {
		s.entries = s.entries[len(s.entries)-s.max:]
	}
}

// Entries returns the recent server log, oldest first
func (s *Store) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.entries...)
}

// FlushToStorage implements the LogSink interface. It never blocks: when
// the writer is behind the log is dropped.
func (s *Store) FlushToStorage(lines []string, dir, name string, rotate int) {
	job := flushJob{lines: append([]string(nil), lines...), dir: dir, name: name, rotate: rotate}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Warn("Log store closed, render log dropped", "render", name)
		return
	}
	select {
	case s.jobs <- job:
	default:
		s.logger.Warn("Log store queue full, render log dropped", "render", name)
	}
}

func (s *Store) work() {
	defer s.wg.Done()
	for job := range s.jobs {
		if err := s.write(job); err != nil {
			s.logger.Error("Failed to write render log", "render", job.name, "dir", job.dir, "error", err)
		}
	}
}

// Path returns where the current log of a render is written
func Path(dir, name string) string {
	return filepath.Join(dir, sanitize(name)+logSuffix)
}

// RotatedPath returns the path of an older generation, n starting at 1
func RotatedPath(dir, name string, n int) string {
	return fmt.Sprintf("%s.%d%s", Path(dir, name), n, rotatedSuffix)
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, name)
}

func (s *Store) write(job flushJob) error {
	if err := os.MkdirAll(job.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}
	current := Path(job.dir, job.name)
	if job.rotate > 0 {
		if err := s.rotate(job.dir, job.name, job.rotate); err != nil {
			return err
		}
	}

	data := strings.Join(job.lines, "\n")
	if data != "" {
		data += "\n"
	}
	if err := os.WriteFile(current, []byte(data), 0o644); err != nil {
		return fmt.Errorf("failed to write log: %w", err)
	}
	return nil
}

// rotate shifts the compressed generations up by one and compresses the
// current file into generation 1. The oldest generation falls off.
func (s *Store) rotate(dir, name string, keep int) error {
	current := Path(dir, name)
	if _, err := os.Stat(current); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(RotatedPath(dir, name, keep)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove oldest log: %w", err)
	}
	for n := keep - 1; n >= 1; n-- {
		err := os.Rename(RotatedPath(dir, name, n), RotatedPath(dir, name, n+1))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to rotate log: %w", err)
		}
	}

	data, err := os.ReadFile(current)
	if err != nil {
		return fmt.Errorf("failed to read log: %w", err)
	}
	if err := os.WriteFile(RotatedPath(dir, name, 1), s.encoder.EncodeAll(data, nil), 0o644); err != nil {
		return fmt.Errorf("failed to write rotated log: %w", err)
	}
	return nil
}

// ReadRotated decompresses an older generation of a render log
func ReadRotated(dir, name string, n int) ([]byte, error) {
	compressed, err := os.ReadFile(RotatedPath(dir, name, n))
	if err != nil {
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()
	return decoder.DecodeAll(compressed, nil)
}

// Close stops accepting logs and waits for pending writes until ctx is done
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.jobs)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return s.encoder.Close()
	case <-ctx.Done():
		return ctx.Err()
	}
}
