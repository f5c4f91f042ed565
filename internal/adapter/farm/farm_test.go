package farm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/renderfarm.net/internal/domain"
)

const farmYAML = `
hosts:
  - name: gpu
    description: GPU nodes
    pattern: "gpu[0-9]+"
    capacity: 2000
    max_tasks: 2
    services:
      - name: redshift
        count: 1
  - name: cpu
    pattern: "farm.*"
    capacity: 1100
limits:
  - service: nuke
    max_count: 2
    max_hosts: 1
`

func TestResolveHostPolicy(t *testing.T) {
	f, err := Parse([]byte(farmYAML))
	require.NoError(t, err)

	p, ok := f.ResolveHostPolicy("gpu07")
	require.True(t, ok)
	assert.Equal(t, "gpu", p.FarmHost)
	assert.Equal(t, "GPU nodes", p.Description)
	assert.Equal(t, 2000, p.Capacity)
	assert.Equal(t, []domain.Service{{Name: "redshift", Count: 1}}, p.Services)

	p, ok = f.ResolveHostPolicy("farm01")
	require.True(t, ok)
	assert.Equal(t, "cpu", p.FarmHost)
	assert.Empty(t, p.Services)

	_, ok = f.ResolveHostPolicy("gpu07x")
	assert.False(t, ok, "patterns match the whole name")
	_, ok = f.ResolveHostPolicy("workstation")
	assert.False(t, ok)
}

func TestServiceLimits(t *testing.T) {
	f, err := Parse([]byte(farmYAML))
	require.NoError(t, err)

	assert.True(t, f.ServiceLimitCheck("blender", "farm01"), "unlimited service")

	require.True(t, f.ServiceLimitCheck("nuke", "farm01"))
	f.ServiceLimitAdd("nuke", "farm01")
	assert.False(t, f.ServiceLimitCheck("nuke", "farm02"), "host limit reached")
	assert.True(t, f.ServiceLimitCheck("nuke", "farm01"))
	f.ServiceLimitAdd("nuke", "farm01")
	assert.False(t, f.ServiceLimitCheck("nuke", "farm01"), "count limit reached")

	f.ServiceLimitRelease("nuke", "farm01")
	f.ServiceLimitRelease("nuke", "farm01")
	f.ServiceLimitRelease("nuke", "farm01")
	assert.True(t, f.ServiceLimitCheck("nuke", "farm02"))

	usage := f.Usage()
	require.Len(t, usage, 1)
	assert.Equal(t, Usage{Service: "nuke", MaxCount: 2, MaxHosts: 1}, usage[0])
}

func TestLoad(t *testing.T) {
	f, err := Load("")
	require.NoError(t, err)
	_, ok := f.ResolveHostPolicy("farm01")
	assert.False(t, ok)

	path := filepath.Join(t.TempDir(), "farm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(farmYAML), 0o644))
	f, err = Load(path)
	require.NoError(t, err)
	_, ok = f.ResolveHostPolicy("farm01")
	assert.True(t, ok)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestInvalidFarm(t *testing.T) {
	_, err := Parse([]byte("hosts:\n  - name: broken\n    pattern: \"farm[\"\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("hosts:\n  - name: nopattern\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("limits:\n  - max_count: 3\n"))
	assert.Error(t, err)
}
