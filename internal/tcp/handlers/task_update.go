package handlers

import (
	"context"

	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

var _ primary.MessageHandler = (*TaskUpdateHandler)(nil)

// TaskUpdateHandler handles task state and percent updates from renders.
// A task the server does not know as running on that render is closed on
// the render.
type TaskUpdateHandler struct {
	Engine Engine
	Logger primary.Logger
}

// HandleMessage implements the MessageHandler interface
func (h *TaskUpdateHandler) HandleMessage(ctx context.Context, peer primary.Peer, msg message.Message) error {
	id, err := boundRender(peer)
	if err != nil {
		return err
	}

	var data defs.TaskUpData
	if err := message.Unmarshal(msg, &data); err != nil {
		h.Logger.Error("Failed to parse task update", "id", id, "error", err)
		return err
	}
	if data.RenderID != id {
		h.Logger.Warn("Task update for another render", "bound", id, "requested", data.RenderID, "task", data.Task.String())
		return nil
	}

	t := msg.Type()
	return h.Engine.Post(ctx, func() {
		var known bool
		switch t {
		case defs.MsgTaskUpdatePercent:
			known = h.Engine.Jobs().UpdatePercent(id, data.Task, data.Percent)
		default:
			known = h.Engine.Jobs().ApplyTaskStatus(id, data.Task, data.Status)
		}
		if !known {
			h.Logger.Warn("Update of a task the render does not run", "id", id, "task", data.Task.String(),
				"status", data.Status.String())
			h.Engine.Renders().CloseLostTask(id, data.Task)
		}
	})
}
