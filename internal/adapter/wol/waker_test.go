package wol

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"gitlab.com/renderfarm.net/internal/adapter/logging"
)

type call struct {
	name     string
	args     []string
	deadline bool
}

type recorder struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (r *recorder) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	_, ok := ctx.Deadline()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{name: name, args: args, deadline: ok})
	return []byte("sent"), r.err
}

func wait(t *testing.T, w *CommandWaker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Wait(ctx))
}

func TestWakeAppendsMACs(t *testing.T) {
	rec := &recorder{}
	w := NewCommandWaker("wakeonlan -i 10.0.0.255", time.Second, logging.NewNopLogger(), WithRunFunc(rec.run))

	w.Wake("farm01", []string{"aa:bb:cc:dd:ee:01", "aa:bb:cc:dd:ee:02"})
	wait(t, w)

	require.Len(t, rec.calls, 1)
	assert.Equal(t, "wakeonlan", rec.calls[0].name)
	assert.Equal(t, []string{"-i", "10.0.0.255", "aa:bb:cc:dd:ee:01", "aa:bb:cc:dd:ee:02"}, rec.calls[0].args)
	assert.True(t, rec.calls[0].deadline)
}

func TestWakeSkipsWithoutCommandOrMACs(t *testing.T) {
	rec := &recorder{}
	empty := NewCommandWaker("  ", time.Second, logging.NewNopLogger(), WithRunFunc(rec.run))
	empty.Wake("farm01", []string{"aa:bb:cc:dd:ee:01"})
	wait(t, empty)

	w := NewCommandWaker("wakeonlan", time.Second, logging.NewNopLogger(), WithRunFunc(rec.run))
	w.Wake("farm01", nil)
	wait(t, w)

	assert.Empty(t, rec.calls)
}

func TestWakeFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	rec := &recorder{err: errors.New("exit status 1")}
	w := NewCommandWaker("wakeonlan", 0, logging.NewZapLoggerWithCore(core), WithRunFunc(rec.run))

	w.Wake("farm01", []string{"aa:bb:cc:dd:ee:01"})
	wait(t, w)

	require.Len(t, rec.calls, 1)
	assert.False(t, rec.calls[0].deadline)
	assert.Equal(t, 1, logs.FilterMessage("Wake command failed").Len())
}
