package domain

// Service is a task category a host can run. Count is the per-host
// concurrency ceiling, zero means unlimited.
type Service struct {
	Name  string `json:"name" cbor:"name" yaml:"name"`
	Count int    `json:"count" cbor:"count" yaml:"count"`
}

// Host is the hardware descriptor of a render.
type Host struct {
	Capacity int       `json:"capacity" cbor:"capacity"`
	MaxTasks int       `json:"max_tasks" cbor:"max_tasks"`
	OS       string    `json:"os" cbor:"os"`
	Services []Service `json:"services" cbor:"services"`
}

// Clone returns a deep copy of h.
func (h Host) Clone() Host {
	out := h
	out.Services = append([]Service(nil), h.Services...)
	return out
}

// NetIF is one network interface of a render host.
type NetIF struct {
	Name string `json:"name" cbor:"name"`
	MAC  string `json:"mac" cbor:"mac"`
}

// HostPolicy is the farm configuration matched for a host name.
type HostPolicy struct {
	FarmHost    string
	Description string
	Capacity    int
	MaxTasks    int
	Services    []Service
}
