package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/matchrate/internal/config"
)

func TestOpen_DynamoStaticCredentials(t *testing.T) {
	s, err := Open(context.Background(),
		config.KVStoreConfig{Driver: "dynamodb", TypeAttribute: "kind"},
		config.AWSConfig{Region: "us-east-1", AccessKeyID: "AKIA", SecretAccessKey: "secret", Endpoint: "http://localhost:8000"},
	)
	require.NoError(t, err)
	require.IsType(t, &DynamoStore{}, s)
	assert.NoError(t, s.Close())
}

func TestOpen_DynamoNeedsRegion(t *testing.T) {
	_, err := Open(context.Background(), config.KVStoreConfig{Driver: "dynamodb"}, config.AWSConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region")
}

func TestOpen_RedisBadURL(t *testing.T) {
	_, err := Open(context.Background(), config.KVStoreConfig{Driver: "redis", RedisURL: "not a url"}, config.AWSConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis url")
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.KVStoreConfig{Driver: "memcached"}, config.AWSConfig{})
	assert.Error(t, err)
}
