package secondary

import (
	"context"

	"gitlab.com/renderfarm.net/internal/domain"
)

// UpdateQueue accepts fire-and-forget persistence requests. Calls never
// block; a request that cannot be queued is counted as a failure.
type UpdateQueue interface {
	// ScheduleUpdate persists the listed attributes, or the whole record
	// when attrs is empty.
	ScheduleUpdate(rec domain.RenderRecord, attrs ...domain.Attr)

	// ScheduleDelete removes the render from storage.
	ScheduleDelete(rec domain.RenderRecord)
}

// RenderWriter is a storage backend behind the update queue.
type RenderWriter interface {
	SaveRender(ctx context.Context, rec domain.RenderRecord, attrs []domain.Attr) error
	DeleteRender(ctx context.Context, id int32) error
}

// RenderLoader restores renders at startup.
type RenderLoader interface {
	LoadRenders(ctx context.Context) ([]domain.RenderRecord, error)
}
