package storage

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// IndexName is the secondary index that simulates a global time order:
// partition = AttrStream, sort = AttrDateTime, full projection.
const IndexName = "DateTimeIndex"

// DynamoConfig configures the DynamoDB store. Endpoint and static credentials
// are optional and exist for local DynamoDB; when empty the default AWS
// credential chain applies.
type DynamoConfig struct {
	Table     string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Dynamo is the production Store backed by DynamoDB.
type Dynamo struct {
	client *dynamodb.Client
	table  string
}

// NewDynamo builds a DynamoDB-backed store for the given config.
func NewDynamo(ctx context.Context, cfg DynamoConfig) (*Dynamo, error) {
	if cfg.Table == "" {
		return nil, errors.New("dynamo: table name is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-west-2"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		opts = append(opts, awsconfig.WithCredentialsProvider(aws.NewCredentialsCache(creds)))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Dynamo{client: client, table: cfg.Table}, nil
}

// Put writes one item in a single atomic call; an existing key is overwritten.
func (d *Dynamo) Put(ctx context.Context, rec Record) error {
	item := make(map[string]types.AttributeValue, len(rec))
	for k, v := range rec {
		item[k] = &types.AttributeValueMemberS{Value: v}
	}
	_, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	if err != nil {
		return classify("put", err)
	}
	return nil
}

// QueryStream issues one descending range query against the index partition.
func (d *Dynamo) QueryStream(ctx context.Context, streamKey string, limit int32) ([]Record, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key(AttrStream).Equal(expression.Value(streamKey))).
		Build()
	if err != nil {
		return nil, &StorageError{Op: "query", Cause: CauseInternal, Err: err}
	}
	out, err := d.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(d.table),
		IndexName:                 aws.String(IndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(limit),
	})
	if err != nil {
		return nil, classify("query", err)
	}
	recs := make([]Record, 0, len(out.Items))
	for _, item := range out.Items {
		rec := make(Record, len(item))
		for k, av := range item {
			if s, ok := av.(*types.AttributeValueMemberS); ok {
				rec[k] = s.Value
			}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// classify maps SDK failures to StorageError cause tags. Anything that is not
// an API-level rejection is treated as connectivity and therefore retryable.
func classify(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
			return &StorageError{Op: op, Cause: CauseThrottled, Err: err}
		case "InternalServerError", "ServiceUnavailable":
			return &StorageError{Op: op, Cause: CauseUnavailable, Err: err}
		case "ValidationException":
			return &StorageError{Op: op, Cause: CauseMalformedItem, Err: err}
		}
		return &StorageError{Op: op, Cause: CauseInternal, Err: err}
	}
	return &StorageError{Op: op, Cause: CauseUnavailable, Err: err}
}
