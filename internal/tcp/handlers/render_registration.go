package handlers

import (
	"context"

	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

var _ primary.MessageHandler = (*RenderRegistrationHandler)(nil)

// RenderRegistrationHandler handles render registration messages. The
// reply is MsgRenderId with the new id, or -1 when the render is refused.
type RenderRegistrationHandler struct {
	Engine Engine
	Logger primary.Logger
}

// HandleMessage implements the MessageHandler interface
func (h *RenderRegistrationHandler) HandleMessage(ctx context.Context, peer primary.Peer, msg message.Message) error {
	var data defs.RenderRegisterData
	if err := message.Unmarshal(msg, &data); err != nil {
		h.Logger.Error("Failed to parse render registration", "remote", peer.Address().String(), "error", err)
		return err
	}
	snap := data.Snapshot(peer.Address())

	var (
		id     int32
		regErr error
	)
	if err := h.Engine.Do(ctx, func() {
		r, err := h.Engine.Renders().Register(snap)
		if err != nil {
			regErr = err
			return
		}
		id = r.ID()
	}); err != nil {
		return err
	}

	if regErr != nil {
		h.Logger.Warn("Render registration rejected", "render", data.Name, "remote", peer.Address().String(), "error", regErr)
		replyControl(peer, defs.MsgRenderId, -1)
		return nil
	}

	peer.Bind(domain.ClientRender, id)
	replyControl(peer, defs.MsgRenderId, id)
	h.Logger.Info("Render registered", "render", data.Name, "id", id, "version", data.Version,
		"remote", peer.Address().String())
	return nil
}

var _ primary.MessageHandler = (*RenderDeregisterHandler)(nil)

// RenderDeregisterHandler takes a render offline at its own request
type RenderDeregisterHandler struct {
	Engine Engine
	Logger primary.Logger
}

// HandleMessage implements the MessageHandler interface
func (h *RenderDeregisterHandler) HandleMessage(ctx context.Context, peer primary.Peer, msg message.Message) error {
	id, err := boundRender(peer)
	if err != nil {
		return err
	}
	if v := controlValue(msg); v != id {
		h.Logger.Warn("Render deregister for another render", "bound", id, "requested", v)
		return nil
	}

	addr := peer.Address()
	var done bool
	if err := h.Engine.Do(ctx, func() {
		done = h.Engine.Renders().DeregisterAddress(id, addr)
	}); err != nil {
		return err
	}
	peer.Bind(domain.ClientUnknown, 0)
	h.Logger.Info("Render deregistered", "id", id, "offline", done)
	return nil
}
