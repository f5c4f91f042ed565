package handlers

import (
	"context"
	"time"

	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/static/errs"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

// boundMonitor checks the peer registered as the given monitor.
func boundMonitor(peer primary.Peer, id int32) error {
	kind, bound := peer.Client()
	if kind != domain.ClientMonitor {
		return errs.ErrRegistrationExpected
	}
	if bound != id {
		return errs.ErrMonitorNotFound
	}
	return nil
}

var _ primary.MessageHandler = (*MonitorRegistrationHandler)(nil)

// MonitorRegistrationHandler registers a monitor and replies MsgMonitorId
type MonitorRegistrationHandler struct {
	Engine Engine
	Logger primary.Logger
}

// HandleMessage implements the MessageHandler interface
func (h *MonitorRegistrationHandler) HandleMessage(ctx context.Context, peer primary.Peer, msg message.Message) error {
	var data defs.MonitorRegisterData
	if err := message.Unmarshal(msg, &data); err != nil {
		h.Logger.Error("Failed to parse monitor registration", "remote", peer.Address().String(), "error", err)
		return err
	}

	info := domain.MonitorInfo{
		UserName:     data.UserName,
		HostName:     data.HostName,
		Version:      data.Version,
		Address:      peer.Address(),
		TimeRegister: time.Now(),
	}
	var id int32
	if err := h.Engine.Do(ctx, func() {
		id = h.Engine.Monitors().Register(info)
	}); err != nil {
		return err
	}

	peer.Bind(domain.ClientMonitor, id)
	replyControl(peer, defs.MsgMonitorId, id)
	return nil
}

var _ primary.MessageHandler = (*MonitorDeregisterHandler)(nil)

// MonitorDeregisterHandler removes the monitor of the connection
type MonitorDeregisterHandler struct {
	Engine Engine
	Logger primary.Logger
}

// HandleMessage implements the MessageHandler interface
func (h *MonitorDeregisterHandler) HandleMessage(ctx context.Context, peer primary.Peer, msg message.Message) error {
	id := controlValue(msg)
	if err := boundMonitor(peer, id); err != nil {
		h.Logger.Warn("Monitor deregister rejected", "id", id, "error", err)
		return nil
	}

	addr := peer.Address()
	if err := h.Engine.Do(ctx, func() {
		h.Engine.Monitors().DeregisterAddress(id, addr)
	}); err != nil {
		return err
	}
	peer.Bind(domain.ClientUnknown, 0)
	return nil
}

var _ primary.MessageHandler = (*MonitorSubscribeHandler)(nil)

// MonitorSubscribeHandler handles event subscribe and unsubscribe requests
type MonitorSubscribeHandler struct {
	Engine Engine
	Logger primary.Logger
}

// HandleMessage implements the MessageHandler interface
func (h *MonitorSubscribeHandler) HandleMessage(ctx context.Context, peer primary.Peer, msg message.Message) error {
	var data defs.MonitorSubscribeData
	if err := message.Unmarshal(msg, &data); err != nil {
		h.Logger.Error("Failed to parse monitor subscription", "error", err)
		return err
	}
	if err := boundMonitor(peer, data.MonitorID); err != nil {
		h.Logger.Warn("Monitor subscription rejected", "id", data.MonitorID, "error", err)
		return nil
	}

	subscribe := msg.Type() == defs.MsgMonitorSubscribe
	return h.Engine.Post(ctx, func() {
		if subscribe {
			h.Engine.Monitors().Subscribe(data.MonitorID, data.Events)
		} else {
			h.Engine.Monitors().Unsubscribe(data.MonitorID, data.Events)
		}
	})
}

var _ primary.MessageHandler = (*MonitorJobIDsHandler)(nil)

// MonitorJobIDsHandler changes the set of jobs a monitor watches
type MonitorJobIDsHandler struct {
	Engine Engine
	Logger primary.Logger
}

// HandleMessage implements the MessageHandler interface
func (h *MonitorJobIDsHandler) HandleMessage(ctx context.Context, peer primary.Peer, msg message.Message) error {
	var data defs.MonitorJobIDsData
	if err := message.Unmarshal(msg, &data); err != nil {
		h.Logger.Error("Failed to parse monitor job ids", "error", err)
		return err
	}
	if err := boundMonitor(peer, data.MonitorID); err != nil {
		h.Logger.Warn("Monitor job ids rejected", "id", data.MonitorID, "error", err)
		return nil
	}

	op := msg.Type()
	return h.Engine.Post(ctx, func() {
		h.Engine.Monitors().SetJobIDs(data.MonitorID, op, data.JobIDs)
	})
}

var _ primary.MessageHandler = (*MonitorsListHandler)(nil)

// MonitorsListHandler answers MsgMonitorsListRequest
type MonitorsListHandler struct {
	Engine Engine
	Logger primary.Logger
}

// HandleMessage implements the MessageHandler interface
func (h *MonitorsListHandler) HandleMessage(ctx context.Context, peer primary.Peer, msg message.Message) error {
	var list []defs.MonitorSummary
	if err := h.Engine.Do(ctx, func() {
		list = h.Engine.Monitors().Summaries()
	}); err != nil {
		return err
	}
	return replyData(peer, defs.MsgMonitorsList, defs.MonitorsListData{Monitors: list})
}
