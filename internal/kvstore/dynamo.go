package kvstore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rotisserie/eris"
)

const (
	defaultPhoneAttribute = "phone"
	defaultTypeAttribute  = "type"
	confidenceAttribute   = "confidence"
)

// QueryAPI is the slice of the DynamoDB client the store needs.
type QueryAPI interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// AWSConfig carries explicit session settings. Static keys win over Profile;
// with neither, the SDK default chain is used.
type AWSConfig struct {
	Profile         string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Endpoint        string
}

// DynamoStore queries DynamoDB tables keyed by phone number.
type DynamoStore struct {
	api       QueryAPI
	phoneAttr string
	typeAttr  string
}

// DynamoOption configures a DynamoStore.
type DynamoOption func(*DynamoStore)

// WithTypeAttribute overrides the sort key attribute used for Key.Type.
func WithTypeAttribute(name string) DynamoOption {
	return func(s *DynamoStore) {
		if name != "" {
			s.typeAttr = name
		}
	}
}

// NewDynamo wraps an existing DynamoDB query client.
func NewDynamo(api QueryAPI, opts ...DynamoOption) *DynamoStore {
	s := &DynamoStore{
		api:       api,
		phoneAttr: defaultPhoneAttribute,
		typeAttr:  defaultTypeAttribute,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewDynamoFromConfig builds a DynamoDB client from explicit settings.
func NewDynamoFromConfig(ctx context.Context, cfg AWSConfig, opts ...DynamoOption) (*DynamoStore, error) {
	if cfg.Region == "" {
		return nil, eris.New("kvstore: aws region is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	switch {
	case cfg.AccessKeyID != "":
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	case cfg.Profile != "":
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, eris.Wrap(err, "kvstore: load aws config")
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewDynamo(client, opts...), nil
}

// Query returns every record stored for key, following pagination.
func (s *DynamoStore) Query(ctx context.Context, key Key) ([]Record, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(key.Table),
		KeyConditionExpression: aws.String("#p = :p"),
		ExpressionAttributeNames: map[string]string{
			"#p": s.phoneAttr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: key.Phone},
		},
	}
	if key.Type != "" {
		input.KeyConditionExpression = aws.String("#p = :p AND #t = :t")
		input.ExpressionAttributeNames["#t"] = s.typeAttr
		input.ExpressionAttributeValues[":t"] = &types.AttributeValueMemberS{Value: key.Type}
	}

	var records []Record
	for {
		out, err := s.api.Query(ctx, input)
		if err != nil {
			return nil, eris.Wrapf(err, "kvstore: query %s", key.Table)
		}
		for _, item := range out.Items {
			rec, err := decodeItem(item)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return records, nil
}

// Close is a no-op; the SDK client holds no long-lived connections.
func (s *DynamoStore) Close() error { return nil }

func decodeItem(item map[string]types.AttributeValue) (Record, error) {
	var rec Record
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return Record{}, eris.Wrap(err, "kvstore: decode item")
	}

	// Confidence is written as S by some loaders and N by others.
	switch v := item[confidenceAttribute].(type) {
	case *types.AttributeValueMemberS:
		rec.Confidence = aws.String(v.Value)
	case *types.AttributeValueMemberN:
		rec.Confidence = aws.String(v.Value)
	}
	return rec, nil
}
