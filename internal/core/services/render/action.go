package render

import (
	"fmt"

	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
)

// Action applies an administrative action. It returns false when the
// message type is not a render action. Monitors are told about the render
// only when something really changed.
func (r *Render) Action(t defs.MsgType, g defs.GeneralData) bool {
	author := g.Author()
	authorNote := author
	if g.String != "" {
		authorNote += " " + g.String
	}

	switch t {
	case defs.MsgRenderAnnotate:
		if r.annotation == g.String {
			return true
		}
		r.annotation = g.String
		r.appendLog(fmt.Sprintf("Annotation set to %q by %s", g.String, author))
		r.persist(domain.AttrAnnotation)

	case defs.MsgRenderSetPriority:
		if r.priority == int(g.Number) {
			return true
		}
		r.priority = int(g.Number)
		r.appendLog(fmt.Sprintf("Priority set to %d by %s", g.Number, author))
		r.persist(domain.AttrPriority)

	case defs.MsgRenderHideShow:
		hide := g.Number != 0
		if r.IsHidden() == hide {
			return true
		}
		r.set(domain.StateHidden, hide)
		if hide {
			r.appendLog("Set hidden by " + author)
		} else {
			r.appendLog("Unset hidden by " + author)
		}
		r.persist(domain.AttrState)

	case defs.MsgRenderSetCapacity:
		capacity := overrideOf(int(g.Number), r.host.Capacity)
		if r.capacity == capacity {
			return true
		}
		r.capacity = capacity
		r.appendLog(fmt.Sprintf("Capacity set to %d by %s", g.Number, author))
		r.persist(domain.AttrCapacity)

	case defs.MsgRenderSetMaxTasks:
		maxTasks := overrideOf(int(g.Number), r.host.MaxTasks)
		if r.maxTasks == maxTasks {
			return true
		}
		r.maxTasks = maxTasks
		r.appendLog(fmt.Sprintf("Max tasks set to %d by %s", g.Number, author))
		r.persist(domain.AttrMaxTasks)

	case defs.MsgRenderSetService:
		enable := g.Number != 0
		if r.isServiceDisabled(g.String) != enable {
			return true
		}
		r.SetService(g.String, enable)
		state := "disabled"
		if enable {
			state = "enabled"
		}
		r.appendLog(fmt.Sprintf("Service %q %s by %s", g.String, state, author))
		r.persist(domain.AttrServicesDisabled)

	case defs.MsgRenderRestoreDefaults:
		if !r.IsDirty() {
			return true
		}
		r.RestoreDefaults()
		r.appendLog("Default farm host settings restored by " + author)
		r.persist(domain.AttrMaxTasks, domain.AttrCapacity, domain.AttrServicesDisabled)

	case defs.MsgRenderSetNIMBY:
		if r.IsNIMBY() && !r.IsNimby() {
			return true
		}
		r.set(domain.StateNIMBY, true)
		r.set(domain.StateNimby, false)
		r.appendLog("NIMBY set by " + authorNote)
		r.persist(domain.AttrState)

	case defs.MsgRenderSetNimby:
		if r.IsNimby() && !r.IsNIMBY() {
			return true
		}
		r.set(domain.StateNimby, true)
		r.set(domain.StateNIMBY, false)
		r.appendLog("nimby set by " + authorNote)
		r.persist(domain.AttrState)

	case defs.MsgRenderSetFree:
		if !r.IsNIMBY() && !r.IsNimby() {
			return true
		}
		r.set(domain.StateNIMBY|domain.StateNimby, false)
		r.appendLog("Set free by " + authorNote)
		r.persist(domain.AttrState)

	case defs.MsgRenderSetUser:
		if r.userName == g.String {
			return true
		}
		r.userName = g.String
		r.appendLog(fmt.Sprintf("User set to %q by %s", g.String, author))
		r.persist(domain.AttrUserName)

	case defs.MsgRenderEjectTasks:
		if r.IsBusy() {
			r.appendLog("Task(s) ejected by " + authorNote)
			r.EjectTasks(domain.UPEject, "")
		}
		return true

	case defs.MsgRenderEjectNotMyTasks:
		if r.IsBusy() {
			r.appendLog("Task(s) ejected by " + authorNote)
			r.EjectTasks(domain.UPEject, g.UserName)
		}
		return true

	case defs.MsgRenderExit:
		return r.exitAction(defs.MsgClientExitRequest, "Exit by "+authorNote)

	case defs.MsgRenderReboot:
		return r.exitAction(defs.MsgClientRebootRequest, "Reboot computer by "+authorNote)

	case defs.MsgRenderShutdown:
		return r.exitAction(defs.MsgClientShutdownRequest, "Shutdown computer by "+authorNote)

	case defs.MsgRenderDelete:
		if r.IsZombie() {
			return true
		}
		if r.IsOnline() {
			r.env.logger().Warn("Can't delete online render", "render", r.name, "id", r.id, "author", author)
			return true
		}
		r.appendLog("Deleted by " + authorNote)
		r.Offline(domain.UPNull, true)
		r.env.persistDelete(r.Record())
		return true

	case defs.MsgRenderWOLSleep:
		r.appendLog("Ask to fall asleep by " + authorNote)
		r.RequestSleep()
		return true

	case defs.MsgRenderWOLWake:
		r.appendLog("Ask to wake up by " + authorNote)
		r.RequestWake()
		return true

	default:
		return false
	}

	r.changed()
	return true
}

func (r *Render) exitAction(t defs.MsgType, line string) bool {
	if r.IsOffline() {
		return true
	}
	r.appendLog(line)
	r.ExitClient(t)
	return true
}

func (r *Render) isServiceDisabled(name string) bool {
	for _, s := range r.servicesDisabled {
		if s == name {
			return true
		}
	}
	return false
}

// overrideOf normalizes an admin value: the host value or a negative one
// means no override.
func overrideOf(v, host int) int {
	if v < 0 || v == host {
		return -1
	}
	return v
}
