package handlers

import (
	"context"

	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/core/services/job"
	"gitlab.com/renderfarm.net/internal/core/services/monitor"
	"gitlab.com/renderfarm.net/internal/core/services/render"
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/static/errs"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

// Engine runs operations on the goroutine that owns the farm state. The
// registries it returns may only be touched from inside Do and Post.
type Engine interface {
	Do(ctx context.Context, fn func()) error
	Post(ctx context.Context, fn func()) error
	Renders() *render.Registry
	Jobs() *job.Store
	Monitors() *monitor.Container
}

// Implementation of message handlers
// Each handler deals with one group of message types

func replyControl(peer primary.Peer, t defs.MsgType, value int32) bool {
	m, err := message.NewControl(t, value)
	if err != nil {
		return false
	}
	return peer.Reply(m)
}

func replyData(peer primary.Peer, t defs.MsgType, v any) error {
	m, err := message.Marshal(t, v)
	if err != nil {
		return err
	}
	if !peer.Reply(m) {
		return errs.ErrOutboxFull
	}
	return nil
}

// boundRender returns the render id the peer registered as.
func boundRender(peer primary.Peer) (int32, error) {
	kind, id := peer.Client()
	if kind != domain.ClientRender {
		return 0, errs.ErrRegistrationExpected
	}
	return id, nil
}

func controlValue(msg message.Message) int32 {
	if c, ok := msg.(*message.Control); ok {
		return c.Value()
	}
	return 0
}
