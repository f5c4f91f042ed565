package renderrepository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/renderfarm.net/internal/domain"
)

func record() domain.RenderRecord {
	return domain.RenderRecord{
		ID:               3,
		Name:             "farm03",
		UserName:         "render",
		State:            domain.StateOnline | domain.StateNIMBY,
		Priority:         10,
		Capacity:         500,
		MaxTasks:         -1,
		ServicesDisabled: "nuke",
		NetIFs:           []domain.NetIF{{Name: "eth0", MAC: "00:11:22:33:44:55"}},
		TimeWOL:          time.Unix(1700000000, 0),
	}
}

func TestColumnsWholeRecord(t *testing.T) {
	cols, vals, err := columns(record(), nil)
	require.NoError(t, err)
	require.Len(t, vals, len(cols))
	assert.Equal(t, []string{"id", "name"}, cols[:2])
	assert.Contains(t, cols, "net_ifs")

	for i, c := range cols {
		if c == "net_ifs" {
			assert.JSONEq(t, `[{"name":"eth0","mac":"00:11:22:33:44:55"}]`, vals[i].(string))
		}
		if c == "state" {
			assert.Equal(t, int64(domain.StateOnline|domain.StateNIMBY), vals[i])
		}
	}
}

func TestColumnsAttributes(t *testing.T) {
	cols, vals, err := columns(record(), []domain.Attr{domain.AttrPriority, domain.AttrState, domain.AttrPriority})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "priority", "state", "time_wol"}, cols)
	assert.Equal(t, []interface{}{int32(3), "farm03", 10, int64(domain.StateOnline | domain.StateNIMBY), time.Unix(1700000000, 0)}, vals)

	_, _, err = columns(record(), []domain.Attr{"bogus"})
	assert.Error(t, err)
}
