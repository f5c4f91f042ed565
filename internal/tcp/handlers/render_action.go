package handlers

import (
	"context"

	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

// RenderActionTypes are the administrative render actions accepted from
// monitors and tools.
var RenderActionTypes = []defs.MsgType{
	defs.MsgRenderAnnotate,
	defs.MsgRenderSetPriority,
	defs.MsgRenderHideShow,
	defs.MsgRenderSetCapacity,
	defs.MsgRenderSetMaxTasks,
	defs.MsgRenderSetService,
	defs.MsgRenderRestoreDefaults,
	defs.MsgRenderSetNIMBY,
	defs.MsgRenderSetNimby,
	defs.MsgRenderSetFree,
	defs.MsgRenderSetUser,
	defs.MsgRenderEjectTasks,
	defs.MsgRenderEjectNotMyTasks,
	defs.MsgRenderExit,
	defs.MsgRenderReboot,
	defs.MsgRenderShutdown,
	defs.MsgRenderDelete,
	defs.MsgRenderWOLSleep,
	defs.MsgRenderWOLWake,
}

var _ primary.MessageHandler = (*RenderActionHandler)(nil)

// RenderActionHandler applies an administrative action to the listed renders
type RenderActionHandler struct {
	Engine Engine
	Logger primary.Logger
}

// HandleMessage implements the MessageHandler interface
func (h *RenderActionHandler) HandleMessage(ctx context.Context, peer primary.Peer, msg message.Message) error {
	var data defs.GeneralData
	if err := message.Unmarshal(msg, &data); err != nil {
		h.Logger.Error("Failed to parse render action", "type", msg.Type().String(), "error", err)
		return err
	}

	t := msg.Type()
	return h.Engine.Post(ctx, func() {
		if err := h.Engine.Renders().Action(t, data); err != nil {
			h.Logger.Warn("Render action failed", "type", t.String(), "ids", data.IDs, "author", data.Author(), "error", err)
		}
	})
}
