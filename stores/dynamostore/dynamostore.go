// Package dynamostore is the DynamoDB instantiation of the network backend
// template (spec §4.6). Connection setup is grounded on bifrost's
// core/providers/bedrock.go, which loads aws.Config via
// config.LoadDefaultConfig with an optional explicit credentials provider;
// the table schema (partition key "collection", sort key "key", a TTL
// attribute) follows DynamoDB's own native-TTL idiom, the same offload path
// spec §4.6 calls out ("push with native TTL when the backend supports
// it"). Uses github.com/aws/aws-sdk-go-v2/service/dynamodb.
package dynamostore

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/managedentry"
	"github.com/maximhq/kvs/store"
)

// Config configures Backend.
type Config struct {
	Client            *dynamodb.Client
	Region            string
	AccessKey         string
	SecretKey         string
	TableName         string
	DefaultCollection string
	MaxKeyLength      int
}

const ttlAttribute = "ttl_expires_at"

type rawBackend struct {
	client *dynamodb.Client
	table  string
}

func (r *rawBackend) SetupOnce(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)})
	if err != nil {
		return kverrors.Wrap(kverrors.KindStoreConnection, "setup", "dynamodb table unreachable", err, map[string]any{"table": r.table})
	}
	return nil
}

func (r *rawBackend) SetupCollectionOnce(ctx context.Context, collection string) error {
	return nil
}

func (r *rawBackend) GetManagedEntry(ctx context.Context, collection, key string) (*managedentry.Entry, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"collection": &types.AttributeValueMemberS{Value: collection},
			"key":        &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, kverrors.Wrap(kverrors.KindStoreConnection, "get", "dynamodb get_item failed", err, nil)
	}
	if out.Item == nil {
		return nil, nil
	}

	valueJSON, ok := out.Item["value_json"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, kverrors.New(kverrors.KindDeserialization, "get", "missing value_json attribute", nil)
	}
	return managedentry.LoadJSON(valueJSON.Value)
}

func (r *rawBackend) PutManagedEntry(ctx context.Context, collection, key string, entry *managedentry.Entry) error {
	payload, err := managedentry.DumpJSON(entry)
	if err != nil {
		return err
	}

	item := map[string]types.AttributeValue{
		"collection": &types.AttributeValueMemberS{Value: collection},
		"key":        &types.AttributeValueMemberS{Value: key},
		"value_json": &types.AttributeValueMemberS{Value: payload},
	}
	if entry.ExpiresAt != nil {
		item[ttlAttribute] = &types.AttributeValueMemberN{Value: formatUnixSeconds(*entry.ExpiresAt)}
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(r.table), Item: item})
	if err != nil {
		return kverrors.Wrap(kverrors.KindStoreConnection, "put", "dynamodb put_item failed", err, nil)
	}
	return nil
}

func (r *rawBackend) DeleteManagedEntry(ctx context.Context, collection, key string) (bool, error) {
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"collection": &types.AttributeValueMemberS{Value: collection},
			"key":        &types.AttributeValueMemberS{Value: key},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, kverrors.Wrap(kverrors.KindStoreConnection, "delete", "dynamodb delete_item failed", err, nil)
	}
	return len(out.Attributes) > 0, nil
}

func formatUnixSeconds(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

// Backend is the DynamoDB-backed network reference backend.
type Backend struct {
	*store.Base
	raw *rawBackend
}

// New opens (or adopts) a DynamoDB client per Config.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	client := cfg.Client
	if client == nil {
		var awsCfg aws.Config
		var err error
		if cfg.AccessKey == "" && cfg.SecretKey == "" {
			awsCfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
		} else {
			awsCfg, err = config.LoadDefaultConfig(ctx,
				config.WithRegion(cfg.Region),
				config.WithCredentialsProvider(aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
					return aws.Credentials{AccessKeyID: cfg.AccessKey, SecretAccessKey: cfg.SecretKey}, nil
				})),
			)
		}
		if err != nil {
			return nil, kverrors.Wrap(kverrors.KindConfiguration, "new", "failed to load aws config", err, nil)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	table := cfg.TableName
	if table == "" {
		table = "kvs_entries"
	}

	raw := &rawBackend{client: client, table: table}
	b := store.NewBase(raw, cfg.DefaultCollection, cfg.MaxKeyLength)
	return &Backend{Base: b, raw: raw}, nil
}

var _ store.Store = (*Backend)(nil)
