package renderport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/core/ports/secondary"
	"gitlab.com/renderfarm.net/internal/domain"
)

const (
	renderKeyPrefix  = "render:"
	renderOnlineKey  = "render:online"
	renderExpiration = 24 * time.Hour
)

var _ secondary.RenderWriter = (*RenderRepository)(nil)

// RenderRepository mirrors render records into Redis for dashboards and
// other readers outside the server. Online renders are indexed in a set.
type RenderRepository struct {
	redisClient *redis.Client
	logger      primary.Logger
	expiration  time.Duration
}

// NewRenderRepository creates a new Redis render repository
func NewRenderRepository(redisClient *redis.Client, logger primary.Logger) *RenderRepository {
	return &RenderRepository{
		redisClient: redisClient,
		logger:      logger,
		expiration:  renderExpiration,
	}
}

func renderKey(id int32) string {
	return renderKeyPrefix + strconv.Itoa(int(id))
}

// SaveRender stores the whole record. The attribute list is ignored: the
// mirror always holds the latest full copy.
func (r *RenderRepository) SaveRender(ctx context.Context, rec domain.RenderRecord, _ []domain.Attr) error {
	renderJSON, err := json.Marshal(rec)
	if err != nil {
		r.logger.Error("Failed to marshal render", "id", rec.ID, "error", err)
		return fmt.Errorf("failed to marshal render: %w", err)
	}

	id := strconv.Itoa(int(rec.ID))
	pipe := r.redisClient.TxPipeline()
	pipe.Set(ctx, renderKey(rec.ID), renderJSON, r.expiration)
	if rec.IsOnline() {
		pipe.SAdd(ctx, renderOnlineKey, id)
	} else {
		pipe.SRem(ctx, renderOnlineKey, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to save render", "id", rec.ID, "error", err)
		return fmt.Errorf("failed to save render: %w", err)
	}
	return nil
}

// DeleteRender removes the render and its index entry
func (r *RenderRepository) DeleteRender(ctx context.Context, id int32) error {
	pipe := r.redisClient.TxPipeline()
	pipe.Del(ctx, renderKey(id))
	pipe.SRem(ctx, renderOnlineKey, strconv.Itoa(int(id)))
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to delete render", "id", id, "error", err)
		return fmt.Errorf("failed to delete render: %w", err)
	}
	return nil
}

// GetRender retrieves a render by id, nil when it is not stored
func (r *RenderRepository) GetRender(ctx context.Context, id int32) (*domain.RenderRecord, error) {
	renderJSON, err := r.redisClient.Get(ctx, renderKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error("Failed to get render", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get render: %w", err)
	}

	var rec domain.RenderRecord
	if err := json.Unmarshal(renderJSON, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal render: %w", err)
	}
	return &rec, nil
}

// GetOnlineRenders retrieves every render in the online index. Entries
// whose record expired are dropped from the index.
func (r *RenderRepository) GetOnlineRenders(ctx context.Context) ([]domain.RenderRecord, error) {
	ids, err := r.redisClient.SMembers(ctx, renderOnlineKey).Result()
	if err != nil {
		r.logger.Error("Failed to get online render ids", "error", err)
		return nil, fmt.Errorf("failed to get online render ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = renderKeyPrefix + id
	}
	data, err := r.redisClient.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve render data: %w", err)
	}

	records := make([]domain.RenderRecord, 0, len(data))
	for i, d := range data {
		s, ok := d.(string)
		if !ok {
			if err := r.redisClient.SRem(ctx, renderOnlineKey, ids[i]).Err(); err != nil {
				r.logger.Warn("Failed to remove expired render from index", "id", ids[i], "error", err)
			}
			continue
		}
		var rec domain.RenderRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal render data: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}
