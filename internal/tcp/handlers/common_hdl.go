package handlers

import (
	"context"

	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

var _ primary.MessageHandler = (*MagicNumberHandler)(nil)

// MagicNumberHandler changes the compatibility token of the server.
// Peers still using the old one get MsgMagicMismatch from then on.
type MagicNumberHandler struct {
	Logger primary.Logger
}

// HandleMessage implements the MessageHandler interface
func (h *MagicNumberHandler) HandleMessage(ctx context.Context, peer primary.Peer, msg message.Message) error {
	v := controlValue(msg)
	if v == 0 {
		h.Logger.Warn("Magic number zero ignored", "remote", peer.Address().String())
		return nil
	}
	old := message.Magic()
	message.SetMagic(v)
	h.Logger.Info("Magic number changed", "old", old, "new", v, "remote", peer.Address().String())
	replyControl(peer, defs.MsgConfirm, v)
	return nil
}

var _ primary.MessageHandler = (*ConfirmHandler)(nil)

// ConfirmHandler accepts confirmations and keepalives
type ConfirmHandler struct{}

// HandleMessage implements the MessageHandler interface
func (h *ConfirmHandler) HandleMessage(ctx context.Context, peer primary.Peer, msg message.Message) error {
	return nil
}
