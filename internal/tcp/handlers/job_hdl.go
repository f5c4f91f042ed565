package handlers

import (
	"context"

	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

var _ primary.MessageHandler = (*JobRegistrationHandler)(nil)

// JobRegistrationHandler queues a submitted job. The reply is MsgConfirm
// with the job id, 0 when the job was refused.
type JobRegistrationHandler struct {
	Engine Engine
	Logger primary.Logger
}

// HandleMessage implements the MessageHandler interface
func (h *JobRegistrationHandler) HandleMessage(ctx context.Context, peer primary.Peer, msg message.Message) error {
	var job domain.Job
	if err := message.Unmarshal(msg, &job); err != nil {
		h.Logger.Error("Failed to parse job", "remote", peer.Address().String(), "error", err)
		return err
	}

	var (
		id     int32
		addErr error
	)
	if err := h.Engine.Do(ctx, func() {
		id, addErr = h.Engine.Jobs().AddJob(&job)
	}); err != nil {
		return err
	}
	if addErr != nil {
		h.Logger.Warn("Job rejected", "job", job.Name, "user", job.UserName, "error", addErr)
		replyControl(peer, defs.MsgConfirm, 0)
		return nil
	}

	h.Logger.Info("Job registered", "id", id, "job", job.Name, "user", job.UserName)
	replyControl(peer, defs.MsgConfirm, id)
	return nil
}

var _ primary.MessageHandler = (*JobDeleteHandler)(nil)

// JobDeleteHandler deletes the listed jobs
type JobDeleteHandler struct {
	Engine Engine
	Logger primary.Logger
}

// HandleMessage implements the MessageHandler interface
func (h *JobDeleteHandler) HandleMessage(ctx context.Context, peer primary.Peer, msg message.Message) error {
	var data defs.GeneralData
	if err := message.Unmarshal(msg, &data); err != nil {
		h.Logger.Error("Failed to parse job delete", "error", err)
		return err
	}
	return h.Engine.Post(ctx, func() {
		for _, id := range data.IDs {
			if !h.Engine.Jobs().DeleteJob(id) {
				h.Logger.Warn("Delete of unknown job", "id", id, "author", data.Author())
			}
		}
	})
}
