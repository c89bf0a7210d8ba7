//go:build integration

package kvstore

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestRedisStore_Query(t *testing.T) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	s, err := NewRedis(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	seed := redis.NewClient(opts)
	t.Cleanup(func() { _ = seed.Close() })

	require.NoError(t, seed.RPush(ctx, "hiya:+1555",
		`{"phone":"+1555","name":"Alice","confidence":"0.9"}`,
		`{"phone":"+1555","name":null}`,
	).Err())

	recs, err := s.Query(ctx, Key{Table: "hiya", Phone: "+1555"})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Alice", *recs[0].Name)
	assert.Equal(t, "0.9", *recs[0].Confidence)
	assert.Nil(t, recs[1].Name)

	empty, err := s.Query(ctx, Key{Table: "hiya", Phone: "+1999"})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
