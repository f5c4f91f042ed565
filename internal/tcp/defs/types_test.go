package defs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMsgTypePartition(t *testing.T) {
	assert.False(t, MsgNull.IsData())
	assert.False(t, MsgReserved09.IsData())
	assert.True(t, MsgData.IsData())
	assert.True(t, MsgRenderRegister.IsData())
	assert.Equal(t, MsgReserved09+1, MsgData)

	assert.True(t, MsgJobHideShow.IsValid())
	assert.False(t, MsgLast.IsValid())
	assert.False(t, MsgType(-1).IsValid())
}

func TestMsgTypeEventRanges(t *testing.T) {
	assert.True(t, MsgMonitorJobsChanged.IsJobEvent())
	assert.False(t, MsgMonitorJobsChanged.IsCommonEvent())
	assert.True(t, MsgMonitorRendersDel.IsCommonEvent())
	assert.True(t, MsgMonitorRendersDel.IsEvent())
	assert.False(t, MsgMonitorJobEventsBegin.IsEvent())
	assert.False(t, MsgRenderRegister.IsEvent())
}

func TestMsgTypeString(t *testing.T) {
	assert.Equal(t, "RenderRegister", MsgRenderRegister.String())
	assert.Equal(t, "DATA", MsgData.String())
	assert.Equal(t, "MsgType(9999)", MsgType(9999).String())
	for i := MsgNull; i < MsgLast; i++ {
		assert.NotEmpty(t, i.String(), "missing name for %d", int32(i))
	}
}
