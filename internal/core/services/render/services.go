package render

import (
	"fmt"
	"strings"

	"gitlab.com/renderfarm.net/internal/domain"
)

func splitServices(s string) []string {
	var out []string
	for _, name := range strings.Split(s, ";") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// applyFarmHost reconciles the host with the farm policy for the render
// name. Running counters survive for services that are still present.
func (r *Render) applyFarmHost(host *domain.Host) {
	old := make(map[string]int, len(r.host.Services))
	for i, s := range r.host.Services {
		if i < len(r.serviceCounts) {
			old[s.Name] = r.serviceCounts[i]
		}
	}

	if host != nil {
		r.host = host.Clone()
	}
	c := r.env.cfg()
	if r.host.Capacity == 0 {
		r.host.Capacity = c.DefaultCapacity
	}
	if r.host.MaxTasks == 0 {
		r.host.MaxTasks = c.DefaultMaxTasks
	}

	r.farm, r.farmDsc = noFarmHost, ""
	if r.env != nil && r.env.Farm != nil {
		if p, ok := r.env.Farm.ResolveHostPolicy(r.name); ok {
			r.farm, r.farmDsc = p.FarmHost, p.Description
			if p.Capacity > 0 {
				r.host.Capacity = p.Capacity
			}
			if p.MaxTasks > 0 {
				r.host.MaxTasks = p.MaxTasks
			}
			if len(p.Services) > 0 {
				r.host.Services = append([]domain.Service(nil), p.Services...)
			}
		}
	}

	r.serviceCounts = make([]int, len(r.host.Services))
	for i, s := range r.host.Services {
		r.serviceCounts[i] = old[s.Name]
	}
	r.disableServices()
}

func (r *Render) disableServices() {
	r.serviceDisabled = make([]bool, len(r.host.Services))
	for _, name := range r.servicesDisabled {
		for i, s := range r.host.Services {
			if s.Name == name {
				r.serviceDisabled[i] = true
			}
		}
	}
	r.checkDirty()
}

// checkDirty drops overrides that match the host values.
func (r *Render) checkDirty() {
	if r.capacity == r.host.Capacity {
		r.capacity = -1
	}
	if r.maxTasks == r.host.MaxTasks {
		r.maxTasks = -1
	}
}

// IsDirty reports whether any admin override is set.
func (r *Render) IsDirty() bool {
	return r.capacity >= 0 || r.maxTasks >= 0 || len(r.servicesDisabled) > 0
}

func (r *Render) serviceIndex(name string) int {
	for i, s := range r.host.Services {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// CanRunService checks the farm-wide limit and the host limit of a service.
func (r *Render) CanRunService(name string) bool {
	if r.env != nil && r.env.Farm != nil && !r.env.Farm.ServiceLimitCheck(name, r.name) {
		return false
	}
	i := r.serviceIndex(name)
	if i < 0 || r.serviceDisabled[i] {
		return false
	}
	if limit := r.host.Services[i].Count; limit > 0 {
		return r.serviceCounts[i] < limit
	}
	return true
}

// ReserveService counts one more running task of the service.
func (r *Render) ReserveService(name string) {
	if r.env != nil && r.env.Farm != nil {
		r.env.Farm.ServiceLimitAdd(name, r.name)
	}
	i := r.serviceIndex(name)
	if i < 0 {
		return
	}
	r.serviceCounts[i]++
	if limit := r.host.Services[i].Count; limit > 0 && r.serviceCounts[i] > limit {
		r.env.logger().Warn("Service count exceeds host limit",
			"render", r.name, "service", name, "count", r.serviceCounts[i], "max", limit)
	}
}

// ReleaseService counts one running task of the service less.
func (r *Render) ReleaseService(name string) {
	if r.env != nil && r.env.Farm != nil {
		r.env.Farm.ServiceLimitRelease(name, r.name)
	}
	i := r.serviceIndex(name)
	if i < 0 {
		return
	}
	if r.serviceCounts[i] < 1 {
		r.env.logger().Warn("Service count is already zero", "render", r.name, "service", name)
		return
	}
	r.serviceCounts[i]--
}

// ServiceCount returns the running count of a service on this render.
func (r *Render) ServiceCount(name string) int {
	if i := r.serviceIndex(name); i >= 0 {
		return r.serviceCounts[i]
	}
	return 0
}

// SetService enables or disables a service on this render.
func (r *Render) SetService(name string, enable bool) {
	var list []string
	for _, s := range r.servicesDisabled {
		if s != name {
			list = append(list, s)
		}
	}
	if !enable {
		list = append(list, name)
	}
	r.servicesDisabled = list
	r.disableServices()
}

// RestoreDefaults drops all admin overrides.
func (r *Render) RestoreDefaults() {
	r.capacity = -1
	r.maxTasks = -1
	r.servicesDisabled = nil
	r.disableServices()
}

// ServicesString describes services with their usage and limits.
func (r *Render) ServicesString() string {
	if len(r.host.Services) == 0 {
		return "No services."
	}
	var b strings.Builder
	b.WriteString("Services:")
	for i, s := range r.host.Services {
		b.WriteString("\n   ")
		b.WriteString(s.Name)
		if r.serviceDisabled[i] {
			b.WriteString(" (DISABLED)")
		}
		if r.serviceCounts[i] > 0 || s.Count > 0 {
			b.WriteString(": ")
			if r.serviceCounts[i] > 0 {
				fmt.Fprintf(&b, "%d", r.serviceCounts[i])
			}
			if s.Count > 0 {
				fmt.Fprintf(&b, " / max=%d", s.Count)
			}
		}
	}
	if len(r.servicesDisabled) > 0 {
		b.WriteString("\nDisabled services:\n   ")
		b.WriteString(strings.Join(r.servicesDisabled, ";"))
	}
	return b.String()
}
