package secondary

import "gitlab.com/renderfarm.net/internal/domain"

// FarmTopology provides per-host policy and farm-wide service limits.
type FarmTopology interface {
	ResolveHostPolicy(hostname string) (domain.HostPolicy, bool)
	ServiceLimitCheck(service, hostname string) bool
	ServiceLimitAdd(service, hostname string)
	ServiceLimitRelease(service, hostname string)
}

// LogSink receives server log entries and durable render log flushes.
type LogSink interface {
	AppendEntry(renderID int32, text string)
	FlushToStorage(lines []string, dir, name string, rotate int)
}

// Waker sends the out-of-band wake command for a sleeping host.
type Waker interface {
	Wake(name string, macs []string)
}
