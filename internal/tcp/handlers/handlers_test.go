package handlers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/renderfarm.net/internal/adapter/logging"
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/static/errs"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

type fakePeer struct {
	addr    domain.Address
	kind    domain.ClientKind
	id      int32
	replies []message.Message
}

func newPeer() *fakePeer {
	return &fakePeer{addr: domain.Address{ConnID: uuid.New(), Remote: "10.0.0.9:4000"}}
}

func (p *fakePeer) Address() domain.Address { return p.addr }
func (p *fakePeer) Reply(m message.Message) bool {
	p.replies = append(p.replies, m)
	return true
}
func (p *fakePeer) Bind(kind domain.ClientKind, id int32) { p.kind, p.id = kind, id }
func (p *fakePeer) Client() (domain.ClientKind, int32)    { return p.kind, p.id }

func TestRenderMessagesNeedRegistration(t *testing.T) {
	log := logging.NewNopLogger()
	peer := newPeer()

	upd, err := message.Marshal(defs.MsgRenderUpdate, defs.RenderUpdateData{RenderID: 1})
	require.NoError(t, err)
	h := &RenderUpdateHandler{Logger: log}
	assert.ErrorIs(t, h.HandleMessage(context.Background(), peer, upd), errs.ErrRegistrationExpected)

	task, err := message.Marshal(defs.MsgTaskUpdateState, defs.TaskUpData{RenderID: 1})
	require.NoError(t, err)
	th := &TaskUpdateHandler{Logger: log}
	assert.ErrorIs(t, th.HandleMessage(context.Background(), peer, task), errs.ErrRegistrationExpected)
	assert.Empty(t, peer.replies)
}

func TestRenderUpdateForAnotherRender(t *testing.T) {
	peer := newPeer()
	peer.Bind(domain.ClientRender, 2)

	upd, err := message.Marshal(defs.MsgRenderUpdate, defs.RenderUpdateData{RenderID: 3})
	require.NoError(t, err)
	h := &RenderUpdateHandler{Logger: logging.NewNopLogger()}
	require.NoError(t, h.HandleMessage(context.Background(), peer, upd))

	require.Len(t, peer.replies, 1)
	assert.Equal(t, defs.MsgRenderId, peer.replies[0].Type())
	assert.Zero(t, peer.replies[0].Header().Value)
}

func TestMonitorRequestsNeedTheirMonitor(t *testing.T) {
	peer := newPeer()
	assert.ErrorIs(t, boundMonitor(peer, 1), errs.ErrRegistrationExpected)

	peer.Bind(domain.ClientMonitor, 1)
	assert.NoError(t, boundMonitor(peer, 1))
	assert.ErrorIs(t, boundMonitor(peer, 2), errs.ErrMonitorNotFound)

	sub, err := message.Marshal(defs.MsgMonitorSubscribe, defs.MonitorSubscribeData{MonitorID: 2})
	require.NoError(t, err)
	h := &MonitorSubscribeHandler{Logger: logging.NewNopLogger()}
	assert.NoError(t, h.HandleMessage(context.Background(), peer, sub))
}

func TestMagicNumberHandler(t *testing.T) {
	old := message.Magic()
	defer message.SetMagic(old)

	peer := newPeer()
	h := &MagicNumberHandler{Logger: logging.NewNopLogger()}

	zero, err := message.NewControl(defs.MsgMagicNumber, 0)
	require.NoError(t, err)
	require.NoError(t, h.HandleMessage(context.Background(), peer, zero))
	assert.Equal(t, old, message.Magic())

	m, err := message.NewControl(defs.MsgMagicNumber, 77)
	require.NoError(t, err)
	require.NoError(t, h.HandleMessage(context.Background(), peer, m))
	assert.Equal(t, int32(77), message.Magic())
	require.Len(t, peer.replies, 1)
	assert.Equal(t, defs.MsgConfirm, peer.replies[0].Type())
}
