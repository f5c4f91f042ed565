package handlers

import (
	"context"
	"fmt"

	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

var _ primary.MessageHandler = (*RendersListHandler)(nil)

// RendersListHandler answers render list requests with MsgRendersList.
// MsgRendersListRequest lists every render, the Ids variants only the
// requested ones.
type RendersListHandler struct {
	Engine Engine
	Logger primary.Logger
}

// HandleMessage implements the MessageHandler interface
func (h *RendersListHandler) HandleMessage(ctx context.Context, peer primary.Peer, msg message.Message) error {
	var ids []int32
	if msg.Type().IsData() {
		var data defs.EventIDsData
		if err := message.Unmarshal(msg, &data); err != nil {
			h.Logger.Error("Failed to parse renders list request", "error", err)
			return err
		}
		if len(data.IDs) == 0 {
			return replyData(peer, defs.MsgRendersList, defs.RendersListData{})
		}
		ids = data.IDs
	}

	var list []defs.RenderSummary
	if err := h.Engine.Do(ctx, func() {
		list = h.Engine.Renders().Summaries(ids)
	}); err != nil {
		return err
	}
	return replyData(peer, defs.MsgRendersList, defs.RendersListData{Renders: list})
}

var _ primary.MessageHandler = (*RenderInfoHandler)(nil)

// RenderInfoHandler answers log, tasks log and info requests for one render
type RenderInfoHandler struct {
	Engine Engine
	Logger primary.Logger
}

// HandleMessage implements the MessageHandler interface
func (h *RenderInfoHandler) HandleMessage(ctx context.Context, peer primary.Peer, msg message.Message) error {
	id := controlValue(msg)
	t := msg.Type()

	var (
		found bool
		lines []string
		info  string
	)
	if err := h.Engine.Do(ctx, func() {
		r := h.Engine.Renders().Get(id)
		if r == nil {
			return
		}
		found = true
		switch t {
		case defs.MsgRenderLogRequestId:
			lines = r.Log()
		case defs.MsgRenderTasksLogRequestId:
			lines = r.TasksLog()
		default:
			info = r.Info()
		}
	}); err != nil {
		return err
	}

	if !found {
		h.Logger.Warn("Request for unknown render", "type", t.String(), "id", id)
		return replyData(peer, defs.MsgString, defs.StringData{Text: fmt.Sprintf("Render with id=%d does not exist.", id)})
	}
	if t == defs.MsgRenderInfoRequestId {
		return replyData(peer, defs.MsgString, defs.StringData{Text: info})
	}
	if len(lines) == 0 {
		lines = []string{"No log lines."}
	}
	return replyData(peer, defs.MsgStringList, defs.StringListData{Lines: lines})
}
