package renderport

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"

	"gitlab.com/renderfarm.net/internal/adapter/logging"
	"gitlab.com/renderfarm.net/internal/domain"
)

func TestRenderKey(t *testing.T) {
	assert.Equal(t, "render:42", renderKey(42))
}

func TestUnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	repo := NewRenderRepository(client, logging.NewNopLogger())

	ctx := context.Background()
	assert.Error(t, repo.SaveRender(ctx, domain.RenderRecord{ID: 1, Name: "farm01"}, nil))
	assert.Error(t, repo.DeleteRender(ctx, 1))
	_, err := repo.GetRender(ctx, 1)
	assert.Error(t, err)
}
