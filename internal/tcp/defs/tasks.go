package defs

import "gitlab.com/renderfarm.net/internal/domain"

// Protocol data structures
type (
	// TaskUpData is sent by a render with MsgTaskUpdateState and
	// MsgTaskUpdatePercent.
	TaskUpData struct {
		RenderID int32             `cbor:"render_id"`
		Task     domain.TaskKey    `cbor:"task"`
		Status   domain.TaskStatus `cbor:"status"`
		Percent  int               `cbor:"percent"`
	}

	// TaskPosData addresses a task on a render for MsgRenderStopTask and
	// MsgRenderCloseTask.
	TaskPosData struct {
		Task domain.TaskKey `cbor:"task"`
	}
)
