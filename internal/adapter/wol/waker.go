package wol

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/core/ports/secondary"
)

var _ secondary.Waker = (*CommandWaker)(nil)

// RunFunc runs one wake command and returns its combined output.
type RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CommandWaker runs the configured wake command with the host MAC addresses
// appended. Commands run off the caller's goroutine.
type CommandWaker struct {
	command []string
	timeout time.Duration
	run     RunFunc
	logger  primary.Logger

	wg sync.WaitGroup
}

// Option configures a CommandWaker
type Option func(*CommandWaker)

// WithRunFunc replaces the process runner
func WithRunFunc(run RunFunc) Option {
	return func(w *CommandWaker) {
		w.run = run
	}
}

func NewCommandWaker(command string, timeout time.Duration, logger primary.Logger, opts ...Option) *CommandWaker {
	w := &CommandWaker{
		command: strings.Fields(command),
		timeout: timeout,
		run:     execRun,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Wake implements the Waker interface
func (w *CommandWaker) Wake(name string, macs []string) {
	if len(w.command) == 0 {
		w.logger.Warn("Wake command is not configured", "render", name)
		return
	}
	if len(macs) == 0 {
		w.logger.Warn("No MAC addresses to wake", "render", name)
		return
	}

	args := append(append([]string(nil), w.command[1:]...), macs...)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.exec(name, args); err != nil {
			w.logger.Error("Wake command failed", "render", name, "error", err)
		}
	}()
}

func (w *CommandWaker) exec(name string, args []string) error {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	w.logger.Info("Running wake command", "render", name, "command", w.command[0], "args", args)
	out, err := w.run(ctx, w.command[0], args...)
	if err != nil {
		return fmt.Errorf("%s: %w: %s", w.command[0], err, strings.TrimSpace(string(out)))
	}
	w.logger.Debug("Wake command finished", "render", name, "output", strings.TrimSpace(string(out)))
	return nil
}

// Wait blocks until running commands finish or ctx is done
func (w *CommandWaker) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
