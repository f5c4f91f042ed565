package publishers

import (
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/renderfarm.net/internal/adapter/logging"
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/tcp/connectionmanager"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

func newTestDispatcher(limit int) (*Dispatcher, *FailureLog, *connectionmanager.ConnectionManager) {
	logger := logging.NewNopLogger()
	cm := connectionmanager.NewConnectionManager(logger, 4)
	failures := NewFailureLog(limit, logger)
	cm.SetFailureHandler(failures.RecordDispatchFailure)
	return NewDispatcher(cm, failures, logger), failures, cm
}

func TestDispatchFanOut(t *testing.T) {
	d, failures, cm := newTestDispatcher(8)
	defer cm.CloseAll()

	s1, c1 := net.Pipe()
	s2, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()
	a := cm.Add(s1)
	b := cm.Add(s2)

	m, err := message.Marshal(defs.MsgMonitorRendersChanged, defs.EventIDsData{IDs: []int32{1, 2}})
	require.NoError(t, err)
	m.Route().AddAddress(a.Address())
	m.Route().AddAddress(b.Address())
	d.Dispatch(m)

	for _, c := range []net.Conn{c1, c2} {
		got, err := message.Read(c)
		require.NoError(t, err)
		var ids defs.EventIDsData
		require.NoError(t, message.Unmarshal(got, &ids))
		assert.Equal(t, []int32{1, 2}, ids.IDs)
	}
	assert.False(t, m.Route().WasSendFailed())
	assert.Zero(t, failures.Count())
}

func TestDispatchUnknownAddress(t *testing.T) {
	d, failures, _ := newTestDispatcher(8)

	m, err := message.NewControl(defs.MsgRenderId, 5)
	require.NoError(t, err)
	m.Route().SetAddress(domain.Address{ConnID: uuid.New(), Remote: "10.0.0.1:5000"})
	d.Dispatch(m)

	assert.True(t, m.Route().WasSendFailed())
	assert.Equal(t, int64(1), failures.Count())
	recent := failures.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, "no_connection", recent[0].Reason)
	assert.Equal(t, "10.0.0.1:5000", recent[0].Address)
}

func TestDispatchWithoutRoute(t *testing.T) {
	d, failures, _ := newTestDispatcher(8)

	m, err := message.NewControl(defs.MsgConfirm, 0)
	require.NoError(t, err)
	d.Dispatch(m)
	d.Dispatch(nil)

	assert.True(t, m.Route().WasSendFailed())
	assert.Equal(t, int64(1), failures.Count())
}

func TestFailureLogIsBounded(t *testing.T) {
	failures := NewFailureLog(2, logging.NewNopLogger())
	for i := int32(0); i < 5; i++ {
		m, err := message.NewControl(defs.MsgRenderId, i)
		require.NoError(t, err)
		failures.RecordDispatchFailure(m, domain.Address{}, assert.AnError)
	}
	assert.Equal(t, int64(5), failures.Count())
	recent := failures.Recent()
	assert.Len(t, recent, 2)
	assert.Equal(t, "write", recent[1].Reason)
}
