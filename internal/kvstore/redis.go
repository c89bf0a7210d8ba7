package kvstore

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// RedisStore reads records stored as JSON list entries under
// "<table>:<phone>" or "<table>:<phone>:<type>".
type RedisStore struct {
	client *redis.Client
}

// NewRedis connects to the Redis server at url and verifies it responds.
func NewRedis(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, eris.Wrap(err, "kvstore: parse redis url")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrap(err, "kvstore: redis ping")
	}
	return &RedisStore{client: client}, nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Query returns the records in list order.
func (s *RedisStore) Query(ctx context.Context, key Key) ([]Record, error) {
	vals, err := s.client.LRange(ctx, redisKey(key), 0, -1).Result()
	if err != nil {
		return nil, eris.Wrapf(err, "kvstore: lrange %s", key.Table)
	}

	records := make([]Record, 0, len(vals))
	for _, v := range vals {
		var rec Record
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, eris.Wrapf(err, "kvstore: decode %s record", key.Table)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func redisKey(key Key) string {
	k := key.Table + ":" + key.Phone
	if key.Type != "" {
		k += ":" + key.Type
	}
	return k
}
