package handlers

import (
	"context"

	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

var _ primary.MessageHandler = (*RenderUpdateHandler)(nil)

// RenderUpdateHandler handles periodic render resource updates. The reply
// carries the render id, or 0 when the server no longer knows the render
// as online and it has to register again.
type RenderUpdateHandler struct {
	Engine Engine
	Logger primary.Logger
}

// HandleMessage implements the MessageHandler interface
func (h *RenderUpdateHandler) HandleMessage(ctx context.Context, peer primary.Peer, msg message.Message) error {
	id, err := boundRender(peer)
	if err != nil {
		return err
	}

	var data defs.RenderUpdateData
	if err := message.Unmarshal(msg, &data); err != nil {
		h.Logger.Error("Failed to parse render update", "id", id, "error", err)
		return err
	}
	if data.RenderID != id {
		h.Logger.Warn("Render update for another render", "bound", id, "requested", data.RenderID)
		replyControl(peer, defs.MsgRenderId, 0)
		return nil
	}

	var ok bool
	if err := h.Engine.Do(ctx, func() {
		if r := h.Engine.Renders().Get(id); r != nil {
			ok = r.Update(&data.HostRes)
		}
	}); err != nil {
		return err
	}

	if !ok {
		h.Logger.Warn("Update from render that is not online", "id", id)
		replyControl(peer, defs.MsgRenderId, 0)
		return nil
	}
	replyControl(peer, defs.MsgRenderId, id)
	return nil
}
