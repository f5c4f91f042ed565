package farm

import (
	"fmt"
	"os"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"

	"gitlab.com/renderfarm.net/internal/core/ports/secondary"
	"gitlab.com/renderfarm.net/internal/domain"
)

var _ secondary.FarmTopology = (*Farm)(nil)

// File is the YAML farm description.
type File struct {
	Hosts  []HostEntry    `yaml:"hosts"`
	Limits []ServiceLimit `yaml:"limits"`
}

// HostEntry applies to every render whose name matches Pattern.
type HostEntry struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Pattern     string           `yaml:"pattern"`
	Capacity    int              `yaml:"capacity"`
	MaxTasks    int              `yaml:"max_tasks"`
	Services    []domain.Service `yaml:"services"`
}

// ServiceLimit bounds a service across the farm. Zero means no bound.
type ServiceLimit struct {
	Service  string `yaml:"service"`
	MaxCount int    `yaml:"max_count"`
	MaxHosts int    `yaml:"max_hosts"`
}

type hostRule struct {
	re     *regexp.Regexp
	policy domain.HostPolicy
}

type limitState struct {
	ServiceLimit
	count int
	hosts map[string]int
}

// Farm resolves host policies by name pattern and counts running services
// against farm wide limits. The first matching host entry wins.
type Farm struct {
	mu     sync.Mutex
	rules  []hostRule
	limits map[string]*limitState
}

// Load reads a farm file. An empty path gives an empty farm.
func Load(path string) (*Farm, error) {
	if path == "" {
		return New(File{})
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read farm file: %w", err)
	}
	return Parse(data)
}

// Parse builds a farm from YAML
func Parse(data []byte) (*Farm, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse farm file: %w", err)
	}
	return New(f)
}

func New(f File) (*Farm, error) {
	farm := &Farm{limits: make(map[string]*limitState)}
	for i, h := range f.Hosts {
		if h.Pattern == "" {
			return nil, fmt.Errorf("farm host %d (%s): empty pattern", i, h.Name)
		}
		re, err := regexp.Compile("^(?:" + h.Pattern + ")$")
		if err != nil {
			return nil, fmt.Errorf("farm host %d (%s): %w", i, h.Name, err)
		}
		name := h.Name
		if name == "" {
			name = h.Pattern
		}
		farm.rules = append(farm.rules, hostRule{re: re, policy: domain.HostPolicy{
			FarmHost:    name,
			Description: h.Description,
			Capacity:    h.Capacity,
			MaxTasks:    h.MaxTasks,
			Services:    append([]domain.Service(nil), h.Services...),
		}})
	}
	for _, l := range f.Limits {
		if l.Service == "" {
			return nil, fmt.Errorf("farm limit without service")
		}
		farm.limits[l.Service] = &limitState{ServiceLimit: l, hosts: make(map[string]int)}
	}
	return farm, nil
}

// ResolveHostPolicy implements the FarmTopology interface
func (f *Farm) ResolveHostPolicy(hostname string) (domain.HostPolicy, bool) {
	for _, r := range f.rules {
		if r.re.MatchString(hostname) {
			p := r.policy
			p.Services = append([]domain.Service(nil), r.policy.Services...)
			return p, true
		}
	}
	return domain.HostPolicy{}, false
}

// ServiceLimitCheck reports whether one more run of service fits on hostname
func (f *Farm) ServiceLimitCheck(service, hostname string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limits[service]
	if !ok {
		return true
	}
	if l.MaxCount > 0 && l.count >= l.MaxCount {
		return false
	}
	if l.MaxHosts > 0 && l.hosts[hostname] == 0 && len(l.hosts) >= l.MaxHosts {
		return false
	}
	return true
}

// ServiceLimitAdd counts a started run
func (f *Farm) ServiceLimitAdd(service, hostname string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.limits[service]; ok {
		l.count++
		l.hosts[hostname]++
	}
}

// ServiceLimitRelease counts a finished run
func (f *Farm) ServiceLimitRelease(service, hostname string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limits[service]
	if !ok {
		return
	}
	if l.count > 0 {
		l.count--
	}
	if n := l.hosts[hostname]; n > 1 {
		l.hosts[hostname] = n - 1
	} else {
		delete(l.hosts, hostname)
	}
}

// Usage is the current use of one service limit.
type Usage struct {
	Service  string `json:"service"`
	Count    int    `json:"count"`
	MaxCount int    `json:"max_count"`
	Hosts    int    `json:"hosts"`
	MaxHosts int    `json:"max_hosts"`
}

// Usage lists every limit
func (f *Farm) Usage() []Usage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Usage, 0, len(f.limits))
	for _, l := range f.limits {
		out = append(out, Usage{
			Service:  l.Service,
			Count:    l.count,
			MaxCount: l.MaxCount,
			Hosts:    len(l.hosts),
			MaxHosts: l.MaxHosts,
		})
	}
	return out
}
