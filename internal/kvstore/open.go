package kvstore

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/matchrate/internal/config"
)

// Open connects the backend selected by kv.Driver. The AWS section is only
// read for DynamoDB.
func Open(ctx context.Context, kv config.KVStoreConfig, aws config.AWSConfig) (Store, error) {
	switch kv.Driver {
	case "dynamodb", "":
		var opts []DynamoOption
		if kv.TypeAttribute != "" {
			opts = append(opts, WithTypeAttribute(kv.TypeAttribute))
		}
		return NewDynamoFromConfig(ctx, AWSConfig{
			Profile:         aws.Profile,
			Region:          aws.Region,
			AccessKeyID:     aws.AccessKeyID,
			SecretAccessKey: aws.SecretAccessKey,
			SessionToken:    aws.SessionToken,
			Endpoint:        aws.Endpoint,
		}, opts...)
	case "redis":
		return NewRedis(ctx, kv.RedisURL)
	default:
		return nil, eris.Errorf("kvstore: unknown driver %q", kv.Driver)
	}
}
