package render

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/static/errs"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
)

var admin = defs.GeneralData{UserName: "admin", HostName: "ws1"}

func TestRegisterNewRender(t *testing.T) {
	f := newFixture()
	r, err := f.reg.Register(snapshot("Farm01", 100, 4))
	require.NoError(t, err)

	assert.Equal(t, int32(1), r.ID())
	assert.True(t, r.IsOnline())
	assert.Equal(t, []domain.Event{domain.RenderAdded(1), domain.RenderChanged(1)}, f.notes.events)
	require.Len(t, f.upd.updates, 1)
	assert.Empty(t, f.upd.updates[0].attrs, "first registration writes the whole record")
	assert.Same(t, r, f.reg.GetByName("farm01"))

	r2, err := f.reg.Register(snapshot("farm02", 100, 4))
	require.NoError(t, err)
	assert.Equal(t, int32(2), r2.ID())
}

func TestRegisterKnownRender(t *testing.T) {
	f := newFixture()
	r, err := f.reg.Register(snapshot("farm01", 100, 4))
	require.NoError(t, err)

	_, err = f.reg.Register(snapshot("farm01", 100, 4))
	assert.ErrorIs(t, err, errs.ErrRenderAlreadyOnline)

	r.Offline(domain.UPNull, false)
	f.reset()
	again, err := f.reg.Register(snapshot("farm01", 200, 4))
	require.NoError(t, err)
	assert.Same(t, r, again)
	assert.Equal(t, 200, again.Capacity())
	assert.Equal(t, []domain.Event{domain.RenderChanged(r.ID())}, f.notes.events)

	_, err = f.reg.Register(snapshot("", 100, 4))
	assert.ErrorIs(t, err, errs.ErrRenderNameEmpty)
}

func TestRestore(t *testing.T) {
	f := newFixture()
	n := f.reg.Restore([]domain.RenderRecord{
		{ID: 7, Name: "farm07", Priority: 10, Capacity: 300, MaxTasks: -1, ServicesDisabled: "nuke", State: domain.StateOnline | domain.StateNIMBY},
		{ID: 3, Name: "farm03", Capacity: -1, MaxTasks: -1},
		{ID: 8, Name: "FARM03"},
	})
	assert.Equal(t, 2, n)

	r := f.reg.Get(7)
	require.NotNil(t, r)
	assert.True(t, r.IsOffline())
	assert.True(t, r.IsNIMBY())
	assert.Equal(t, 300, r.Capacity())
	assert.Equal(t, "nuke", r.Record().ServicesDisabled)

	all := f.reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, int32(7), all[0].ID(), "higher priority first")

	next, err := f.reg.Register(snapshot("farm09", 100, 4))
	require.NoError(t, err)
	assert.Equal(t, int32(8), next.ID())
}

func TestDeleteRender(t *testing.T) {
	f := newFixture()
	r, err := f.reg.Register(snapshot("farm01", 100, 4))
	require.NoError(t, err)

	assert.ErrorIs(t, f.reg.Delete(r.ID(), admin), errs.ErrRenderOnline)
	assert.ErrorIs(t, f.reg.Delete(99, admin), errs.ErrRenderNotFound)

	r.Offline(domain.UPNull, false)
	f.reset()
	require.NoError(t, f.reg.Delete(r.ID(), admin))
	assert.True(t, r.IsZombie())
	assert.Equal(t, []domain.Event{domain.RenderDeleted(r.ID())}, f.notes.events)
	require.Len(t, f.upd.deletes, 1)
	assert.Equal(t, r.ID(), f.upd.deletes[0].ID)
	assert.NotEmpty(t, f.logs.flushed["farm01"])

	assert.ErrorIs(t, f.reg.Delete(r.ID(), admin), errs.ErrRenderZombie)
	r.Action(defs.MsgRenderDelete, admin)
	assert.Len(t, f.upd.deletes, 1, "zombie is deleted from storage once")
	assert.Len(t, f.notes.events, 1)

	_, err = f.reg.Register(snapshot("farm01", 100, 4))
	assert.ErrorIs(t, err, errs.ErrRenderZombie)

	assert.Equal(t, 1, f.reg.SweepZombies())
	assert.Nil(t, f.reg.Get(r.ID()))
	assert.Zero(t, f.reg.SweepZombies())
}

func TestActionsEmitOnlyRealChanges(t *testing.T) {
	f := newFixture()
	r, err := f.reg.Register(snapshot("farm01", 100, 4))
	require.NoError(t, err)
	f.reset()

	act := admin
	act.IDs = []int32{r.ID()}
	act.Number = 50
	require.NoError(t, f.reg.Action(defs.MsgRenderSetPriority, act))
	require.NoError(t, f.reg.Action(defs.MsgRenderSetPriority, act))
	assert.Equal(t, 50, r.Priority())
	assert.Len(t, f.notes.events, 1)
	require.Len(t, f.upd.updates, 1)
	assert.Equal(t, []domain.Attr{domain.AttrPriority}, f.upd.updates[0].attrs)
	assert.Contains(t, r.Log()[len(r.Log())-1], "Priority set to 50 by admin@ws1")

	act.String = "GPU broken"
	require.NoError(t, f.reg.Action(defs.MsgRenderAnnotate, act))
	assert.Equal(t, "GPU broken", r.Annotation())

	act.String = "blender"
	act.Number = 0
	require.NoError(t, f.reg.Action(defs.MsgRenderSetService, act))
	assert.False(t, r.CanRunService("blender"))
	assert.Contains(t, r.ServicesString(), "blender (DISABLED)")

	require.NoError(t, f.reg.Action(defs.MsgRenderRestoreDefaults, act))
	assert.True(t, r.CanRunService("blender"))
	assert.False(t, r.IsDirty())
	events := len(f.notes.events)
	require.NoError(t, f.reg.Action(defs.MsgRenderRestoreDefaults, act))
	assert.Len(t, f.notes.events, events)

	act.Number = 1
	require.NoError(t, f.reg.Action(defs.MsgRenderHideShow, act))
	assert.True(t, r.IsHidden())

	assert.ErrorIs(t, f.reg.Action(defs.MsgTask, act), errs.ErrUnknownAction)
	act.IDs = []int32{42}
	assert.ErrorIs(t, f.reg.Action(defs.MsgRenderSetPriority, act), errs.ErrRenderNotFound)
}

func TestHostValueClearsOverride(t *testing.T) {
	tests := []struct {
		name   string
		msg    defs.MsgType
		host   int32
		custom int32
		get    func(*Render) int
	}{
		{name: "capacity", msg: defs.MsgRenderSetCapacity, host: 100, custom: 250, get: (*Render).Capacity},
		{name: "max tasks", msg: defs.MsgRenderSetMaxTasks, host: 4, custom: 8, get: (*Render).MaxTasks},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			r, err := f.reg.Register(snapshot("farm01", 100, 4))
			require.NoError(t, err)
			f.reset()

			act := admin
			act.IDs = []int32{r.ID()}
			act.Number = tt.host
			require.NoError(t, f.reg.Action(tt.msg, act))
			assert.Empty(t, f.notes.events)
			assert.Empty(t, f.upd.updates)
			assert.False(t, r.IsDirty())

			act.Number = tt.custom
			require.NoError(t, f.reg.Action(tt.msg, act))
			assert.Equal(t, int(tt.custom), tt.get(r))
			assert.True(t, r.IsDirty())
			assert.Len(t, f.notes.events, 1)
			require.Len(t, f.upd.updates, 1)

			act.Number = tt.host
			require.NoError(t, f.reg.Action(tt.msg, act))
			assert.Equal(t, int(tt.host), tt.get(r))
			assert.False(t, r.IsDirty())
			assert.Len(t, f.upd.updates, 2)
		})
	}
}

func TestEjectNotMyTasks(t *testing.T) {
	f := newFixture()
	r, err := f.reg.Register(snapshot("farm01", 100, 4))
	require.NoError(t, err)
	mine := task(1, 1, "blender", 10)
	other := task(2, 1, "blender", 10)
	other.UserName = "bob"
	require.True(t, r.AssignTask(mine, true))
	require.True(t, r.AssignTask(other, true))
	f.reset()

	act := admin
	act.IDs = []int32{r.ID()}
	act.UserName = "alice"
	require.NoError(t, f.reg.Action(defs.MsgRenderEjectNotMyTasks, act))

	require.Len(t, f.jobs.applied, 1)
	assert.Equal(t, other.Key(), f.jobs.applied[0].key)
	assert.Equal(t, domain.UPEject, f.jobs.applied[0].status)
	assert.True(t, r.HasTask(mine.Key()))
	assert.False(t, r.HasTask(other.Key()))
}

func TestExitAction(t *testing.T) {
	f := newFixture()
	r, err := f.reg.Register(snapshot("farm01", 100, 4))
	require.NoError(t, err)
	require.True(t, r.AssignTask(task(1, 1, "blender", 10), true))
	f.reset()

	act := admin
	act.IDs = []int32{r.ID()}
	require.NoError(t, f.reg.Action(defs.MsgRenderReboot, act))

	assert.True(t, r.IsOffline())
	assert.Equal(t, []defs.MsgType{defs.MsgClientRebootRequest}, f.disp.types())
	require.Len(t, f.jobs.applied, 1)
	assert.Equal(t, domain.UPRenderExit, f.jobs.applied[0].status)

	require.NoError(t, f.reg.Action(defs.MsgRenderExit, act))
	assert.Len(t, f.disp.msgs, 1, "exit of an offline render is ignored")
}

func TestSummaries(t *testing.T) {
	f := newFixture()
	r, err := f.reg.Register(snapshot("farm01", 100, 4))
	require.NoError(t, err)
	_, err = f.reg.Register(snapshot("farm02", 100, 4))
	require.NoError(t, err)
	require.True(t, r.AssignTask(task(1, 1, "blender", 25), true))

	all := f.reg.Summaries(nil)
	assert.Len(t, all, 2)

	one := f.reg.Summaries([]int32{r.ID(), 77})
	require.Len(t, one, 1)
	assert.Equal(t, "farm01", one[0].Name)
	assert.Equal(t, 25, one[0].CapacityUsed)
	assert.Equal(t, 1, one[0].Tasks)
	assert.Equal(t, "blender,nuke", one[0].Services)
	assert.Equal(t, "online busy", one[0].State)

	total, online := f.reg.Count()
	assert.Equal(t, 2, total)
	assert.Equal(t, 2, online)
}

func TestDeregisterAddress(t *testing.T) {
	f := newFixture()
	r, err := f.reg.Register(snapshot("farm01", 100, 4))
	require.NoError(t, err)
	first := r.Address()

	assert.False(t, f.reg.DeregisterAddress(r.ID(), domain.Address{ConnID: uuid.New()}))
	assert.True(t, r.IsOnline())

	assert.True(t, f.reg.DeregisterAddress(r.ID(), first))
	assert.True(t, r.IsOffline())
	assert.False(t, f.reg.DeregisterAddress(r.ID(), first))

	// re-registered on a new connection, the old one closing late is ignored
	again, err := f.reg.Register(snapshot("farm01", 100, 4))
	require.NoError(t, err)
	assert.False(t, f.reg.DeregisterAddress(again.ID(), first))
	assert.True(t, again.IsOnline())
	assert.False(t, f.reg.DeregisterAddress(99, first))
}
