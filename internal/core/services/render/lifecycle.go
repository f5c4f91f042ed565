package render

import (
	"fmt"
	"time"

	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
	"gitlab.com/renderfarm.net/internal/tcp/message"
)

// Online brings an offline render online with the peer's snapshot.
func (r *Render) Online(snap *domain.RenderSnapshot) bool {
	if r.IsOnline() {
		r.env.logger().Error("Render is already online", "op", "online", "render", r.name, "id", r.id)
		return false
	}
	if snap == nil {
		r.env.logger().Error("Render snapshot is nil", "op", "online", "render", r.name, "id", r.id)
		return false
	}

	r.set(domain.StateBusy|domain.StateWOLSleeping|domain.StateWOLWaking, false)
	r.address = snap.Address
	if len(snap.NetIFs) > 0 {
		r.netIFs = append([]domain.NetIF(nil), snap.NetIFs...)
	}
	r.timeLaunch = snap.LaunchTime
	r.version = snap.Version
	if r.userName == "" {
		r.userName = snap.UserName
	}
	r.timeTasks = time.Time{}
	host := snap.Host.Clone()
	r.applyFarmHost(&host)
	r.set(domain.StateOnline, true)
	r.hres = snap.HostRes
	r.timeUpdate = r.env.now()

	r.appendLog(fmt.Sprintf("Online v'%s'.", r.version))
	r.changed()
	r.persist()
	return true
}

// Offline takes the render offline. Running tasks are handed back to the
// job store with the given status when it is not UPNull.
func (r *Render) Offline(status domain.TaskStatus, toZombie bool) {
	if r.IsOffline() && !toZombie {
		r.env.logger().Info("Render is already offline", "op", "offline", "render", r.name, "id", r.id)
		return
	}
	if r.IsZombie() {
		r.env.logger().Info("Render is already a zombie", "op", "offline", "render", r.name, "id", r.id)
		return
	}

	r.set(domain.StateOnline|domain.StateBusy, false)
	if r.IsWOLFalling() {
		r.set(domain.StateWOLFalling, false)
		r.set(domain.StateWOLSleeping, true)
	}

	if status != domain.UPNull {
		r.EjectTasks(status, "")
	}

	r.appendLog(r.resourcesString())

	if toZombie {
		r.env.serverLog(r.id, "Render Deleting: "+r.String())
		r.appendLog("Waiting for deletion.")
		r.set(domain.StateZombie, true)
		if r.env != nil && r.env.Logs != nil {
			c := r.env.cfg()
			r.env.Logs.FlushToStorage(r.log.snapshot(), c.LogsDir, r.name, c.LogsRotate)
		}
		r.env.event(domain.RenderDeleted(r.id))
		return
	}

	r.env.serverLog(r.id, "Render Offline: "+r.String())
	r.appendLog("Offline.")
	r.timeLaunch = time.Time{}
	r.changed()
	r.persist(domain.AttrState)
}

// Deregister is sent by a render that is exiting on its own.
func (r *Render) Deregister() {
	if r.IsOffline() {
		r.appendLog("Render deregister request - offline already.")
		return
	}
	r.appendLog("Render deregister request.")
	r.Offline(domain.UPRenderDeregister, false)
}

// Update refreshes the live resources of an online render.
func (r *Render) Update(hres *domain.HostRes) bool {
	if r.IsOffline() {
		return false
	}
	if hres == nil {
		r.env.logger().Error("Render update is nil", "op", "update", "render", r.name, "id", r.id)
		return false
	}
	r.hres = *hres
	r.timeUpdate = r.env.now()
	return true
}

// Refresh takes a silent render offline once the zombie time has passed.
// Locked renders are skipped.
func (r *Render) Refresh(now time.Time, zombieTime time.Duration) bool {
	if r.locked || r.IsOffline() {
		return false
	}
	if now.Sub(r.timeUpdate) <= zombieTime {
		return false
	}
	r.appendLog(fmt.Sprintf("ZOMBIETIME: %d seconds.", int(zombieTime.Seconds())))
	r.env.logger().Warn("Render went stale", "render", r.name, "id", r.id, "last_update", r.timeUpdate)
	r.Offline(domain.UPRenderZombie, false)
	return true
}

// ExitClient asks the render client to exit, reboot or shut down and takes
// it offline.
func (r *Render) ExitClient(t defs.MsgType) {
	if r.IsOffline() {
		return
	}
	r.sendControl(t, 0)
	r.Offline(domain.UPRenderExit, false)
}

func (r *Render) sendControl(t defs.MsgType, value int32) bool {
	m, err := message.NewControl(t, value)
	if err != nil {
		r.env.logger().Error("Failed to build message", "type", t, "render", r.name, "error", err)
		return false
	}
	m.Route().SetAddress(r.address)
	return r.env.dispatch(m)
}

func (r *Render) sendData(t defs.MsgType, v any) bool {
	m, err := message.Marshal(t, v)
	if err != nil {
		r.env.logger().Error("Failed to encode payload", "type", t, "render", r.name, "error", err)
		return false
	}
	m.Route().SetAddress(r.address)
	return r.env.dispatch(m)
}

func (r *Render) String() string {
	return fmt.Sprintf("%q id=%d %s [%s] %s", r.name, r.id, r.userName, r.state, r.address)
}
