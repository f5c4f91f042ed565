package tcp

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/renderfarm.net/internal/adapter/logging"
	"gitlab.com/renderfarm.net/internal/config"
	"gitlab.com/renderfarm.net/internal/core/services/job"
	"gitlab.com/renderfarm.net/internal/core/services/monitor"
	"gitlab.com/renderfarm.net/internal/core/services/render"
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/schedulerengine"
	"gitlab.com/renderfarm.net/internal/tcp/connectionmanager"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
	"gitlab.com/renderfarm.net/internal/tcp/message"
	"gitlab.com/renderfarm.net/internal/tcp/publishers"
)

type testServer struct {
	srv    *TCPServer
	engine *schedulerengine.SchedulerEngine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logging.NewNopLogger()
	cm := connectionmanager.NewConnectionManager(log, 16)
	failures := publishers.NewFailureLog(16, log)
	cm.SetFailureHandler(failures.RecordDispatchFailure)
	dispatcher := publishers.NewDispatcher(cm, failures, log)

	monitors := monitor.NewContainer(dispatcher, log)
	jobs := job.NewStore(nil, monitors, log)
	renders, err := render.NewRegistry(&render.Env{
		Dispatcher: dispatcher,
		Notifier:   monitors,
		Jobs:       jobs,
		Logger:     log,
		Cfg:        &config.RenderCfg{ZombieTime: time.Minute, LogLinesMax: 20},
	})
	require.NoError(t, err)
	jobs.SetRenders(renders)

	engine := schedulerengine.NewSchedulerEngine(&config.ScheduleSvcCfg{
		RefreshInterval: time.Hour,
		SolveInterval:   time.Hour,
		FlushInterval:   10 * time.Millisecond,
		InboxSize:       16,
	}, renders, jobs, monitors, log)
	ctx, cancel := context.WithCancel(context.Background())
	go engine.Run(ctx)

	srv := NewTCPServer(engine, log, WithConnectionManager(cm), WithRegistrationTimeout(5*time.Second))
	t.Cleanup(func() {
		stopCtx, stop := context.WithTimeout(context.Background(), time.Second)
		defer stop()
		_ = srv.Stop(stopCtx)
		cancel()
	})
	return &testServer{srv: srv, engine: engine}
}

// dial hands one end of a pipe to the server and returns the other
func (ts *testServer) dial(t *testing.T) net.Conn {
	t.Helper()
	serverSide, client := net.Pipe()
	go ts.srv.HandleConnection(serverSide)
	t.Cleanup(func() { client.Close() })
	return client
}

func send(t *testing.T, conn net.Conn, mt defs.MsgType, v any) {
	t.Helper()
	m, err := message.Marshal(mt, v)
	require.NoError(t, err)
	require.NoError(t, conn.SetWriteDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, message.Write(conn, m))
}

func sendControl(t *testing.T, conn net.Conn, mt defs.MsgType, value int32) {
	t.Helper()
	m, err := message.NewControl(mt, value)
	require.NoError(t, err)
	require.NoError(t, conn.SetWriteDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, message.Write(conn, m))
}

func receive(t *testing.T, conn net.Conn) message.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	m, err := message.Read(conn)
	require.NoError(t, err)
	return m
}

func registerRender(t *testing.T, conn net.Conn, name string) int32 {
	t.Helper()
	send(t, conn, defs.MsgRenderRegister, defs.RenderRegisterData{
		Name:    name,
		Version: "3.2.0",
		Host:    domain.Host{Capacity: 100, MaxTasks: 2, Services: []domain.Service{{Name: "blender"}}},
	})
	reply := receive(t, conn)
	require.Equal(t, defs.MsgRenderId, reply.Type())
	return reply.Header().Value
}

func (ts *testServer) render(t *testing.T, id int32) (online bool, exists bool) {
	t.Helper()
	require.NoError(t, ts.engine.Do(context.Background(), func() {
		if r := ts.engine.Renders().Get(id); r != nil {
			exists, online = true, r.IsOnline()
		}
	}))
	return online, exists
}

func TestRenderRegistersAndGoesOfflineOnDisconnect(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)

	id := registerRender(t, conn, "farm01")
	assert.Equal(t, int32(1), id)
	online, exists := ts.render(t, id)
	assert.True(t, exists)
	assert.True(t, online)

	// a second render with the same name is refused
	other := ts.dial(t)
	assert.Equal(t, int32(-1), registerRender(t, other, "farm01"))

	send(t, conn, defs.MsgRenderUpdate, defs.RenderUpdateData{RenderID: id, HostRes: domain.HostRes{CPULoad: 40}})
	reply := receive(t, conn)
	assert.Equal(t, defs.MsgRenderId, reply.Type())
	assert.Equal(t, id, reply.Header().Value)

	conn.Close()
	assert.Eventually(t, func() bool {
		online, _ := ts.render(t, id)
		return !online
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUpdateBeforeRegistrationClosesConnection(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)

	send(t, conn, defs.MsgRenderUpdate, defs.RenderUpdateData{RenderID: 1})
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := message.Read(conn)
	assert.ErrorIs(t, err, io.EOF)
}

func TestVersionMismatchIsAnsweredAndClosed(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)

	m, err := message.NewControl(defs.MsgConfirm, 0)
	require.NoError(t, err)
	buf := message.Encode(m)
	binary.BigEndian.PutUint32(buf[0:4], 99)
	require.NoError(t, conn.SetWriteDeadline(time.Now().Add(2*time.Second)))
	_, err = conn.Write(buf)
	require.NoError(t, err)

	reply := receive(t, conn)
	assert.Equal(t, defs.MsgVersionMismatch, reply.Type())
	assert.Equal(t, defs.Version, reply.Header().Value)

	_, err = message.Read(conn)
	assert.ErrorIs(t, err, io.EOF)
}

func TestMonitorReceivesRenderEvents(t *testing.T) {
	ts := newTestServer(t)
	mon := ts.dial(t)

	send(t, mon, defs.MsgMonitorRegister, defs.MonitorRegisterData{UserName: "alice", HostName: "ws1"})
	reply := receive(t, mon)
	require.Equal(t, defs.MsgMonitorId, reply.Type())
	monID := reply.Header().Value

	send(t, mon, defs.MsgMonitorSubscribe, defs.MonitorSubscribeData{
		MonitorID: monID,
		Events:    []defs.MsgType{defs.MsgMonitorRendersAdd},
	})

	// answered after the subscription ran on the engine
	sendControl(t, mon, defs.MsgMonitorsListRequest, 0)
	list := receive(t, mon)
	require.Equal(t, defs.MsgMonitorsList, list.Type())
	var monitors defs.MonitorsListData
	require.NoError(t, message.Unmarshal(list, &monitors))
	require.Len(t, monitors.Monitors, 1)
	assert.Equal(t, "alice", monitors.Monitors[0].UserName)

	conn := ts.dial(t)
	id := registerRender(t, conn, "farm01")

	event := receive(t, mon)
	require.Equal(t, defs.MsgMonitorRendersAdd, event.Type())
	var ids defs.EventIDsData
	require.NoError(t, message.Unmarshal(event, &ids))
	assert.Equal(t, []int32{id}, ids.IDs)
}

func TestRenderRequests(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)
	id := registerRender(t, conn, "farm01")

	tool := ts.dial(t)
	sendControl(t, tool, defs.MsgRendersListRequest, 0)
	list := receive(t, tool)
	require.Equal(t, defs.MsgRendersList, list.Type())
	var renders defs.RendersListData
	require.NoError(t, message.Unmarshal(list, &renders))
	require.Len(t, renders.Renders, 1)
	assert.Equal(t, "farm01", renders.Renders[0].Name)

	sendControl(t, tool, defs.MsgRenderLogRequestId, id)
	logReply := receive(t, tool)
	require.Equal(t, defs.MsgStringList, logReply.Type())
	var lines defs.StringListData
	require.NoError(t, message.Unmarshal(logReply, &lines))
	assert.NotEmpty(t, lines.Lines)

	sendControl(t, tool, defs.MsgRenderInfoRequestId, 42)
	info := receive(t, tool)
	require.Equal(t, defs.MsgString, info.Type())
	var text defs.StringData
	require.NoError(t, message.Unmarshal(info, &text))
	assert.Contains(t, text.Text, "id=42")
}

func TestLostTaskAndExitAction(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)
	id := registerRender(t, conn, "farm01")

	// the server never gave this task to the render
	key := domain.TaskKey{JobID: 5, BlockNum: 0, TaskNum: 1}
	send(t, conn, defs.MsgTaskUpdateState, defs.TaskUpData{RenderID: id, Task: key, Status: domain.UPFinishedSuccess})
	closeTask := receive(t, conn)
	require.Equal(t, defs.MsgRenderCloseTask, closeTask.Type())
	var pos defs.TaskPosData
	require.NoError(t, message.Unmarshal(closeTask, &pos))
	assert.Equal(t, key, pos.Task)

	tool := ts.dial(t)
	send(t, tool, defs.MsgRenderExit, defs.GeneralData{IDs: []int32{id}, UserName: "admin", HostName: "ws1"})

	exit := receive(t, conn)
	assert.Equal(t, defs.MsgClientExitRequest, exit.Type())
	assert.Eventually(t, func() bool {
		online, _ := ts.render(t, id)
		return !online
	}, 2*time.Second, 10*time.Millisecond)
}
