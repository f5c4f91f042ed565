package render

import (
	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
)

// RequestSleep asks an idle online render to put its host to sleep.
func (r *Render) RequestSleep() bool {
	var reason string
	switch {
	case r.IsWOLSleeping():
		reason = "Render is already sleeping."
	case r.IsWOLFalling():
		reason = "Render is already falling asleep."
	case r.IsWOLWaking():
		reason = "Can't sleep waking up render."
	case r.IsOffline():
		reason = "Can't sleep offline render."
	case r.IsBusy():
		reason = "Can't perform Wake-On-Lan operations. Render is busy."
	case len(r.netIFs) == 0:
		reason = "Can't perform Wake-On-Lan operations. No network interfaces information."
	}
	if reason != "" {
		r.appendLog(reason)
		r.env.logger().Warn("Sleep request rejected", "render", r.name, "id", r.id, "reason", reason)
		return false
	}

	r.set(domain.StateWOLFalling, true)
	r.timeWOL = r.env.now()
	r.persist(domain.AttrState)
	r.changed()
	r.sendControl(defs.MsgClientWOLSleepRequest, 0)
	return true
}

// RequestWake runs the wake command for a sleeping render host. An offline
// render cannot receive messages so the command goes out of band.
func (r *Render) RequestWake() bool {
	var reason string
	switch {
	case r.IsOnline():
		reason = "Can't wake up online render."
	case r.IsWOLFalling():
		reason = "Can't wake up render which is just falling asleep."
	case r.IsWOLWaking():
		reason = "Render is already waking up."
	case len(r.MACs()) == 0:
		reason = "Can't perform Wake-On-Lan operations. No network interfaces information."
	case r.env == nil || r.env.Waker == nil:
		reason = "Wake-On-Lan command runner is not set."
	}
	if reason != "" {
		r.appendLog(reason)
		r.env.logger().Warn("Wake request rejected", "render", r.name, "id", r.id, "reason", reason)
		return false
	}

	r.set(domain.StateWOLWaking, true)
	r.timeWOL = r.env.now()
	r.persist(domain.AttrState)
	r.changed()
	r.env.Waker.Wake(r.name, r.MACs())
	return true
}
