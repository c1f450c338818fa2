// Package ddblock provides a DynamoDB-backed advisory lock for a cache
// key, so a cluster of workers computing the same score matrix don't
// all pay for the same expensive recomputation when a cache entry is
// missing.
package ddblock

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrHeld is returned by Acquire when another worker already holds the
// lock for a key.
var ErrHeld = errors.New("ddblock: lock already held")

// Client is the subset of *dynamodb.Client this package calls.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Lock coordinates cache-population work for one run across a fleet of
// workers sharing the same table.
type Lock struct {
	client Client
	table  string
	owner  string
}

// New creates a Lock against table, identifying this process as owner
// in the lock row (useful for diagnosing a stuck lock).
func New(client Client, table, owner string) *Lock {
	return &Lock{client: client, table: table, owner: owner}
}

// Acquire takes the lock for key via a conditional put that only
// succeeds if no row exists yet. Returns ErrHeld if another worker
// already holds it.
func (l *Lock) Acquire(ctx context.Context, key string) error {
	_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.table),
		Item: map[string]types.AttributeValue{
			"cache_key": &types.AttributeValueMemberS{Value: key},
			"owner":     &types.AttributeValueMemberS{Value: l.owner},
		},
		ConditionExpression: aws.String("attribute_not_exists(cache_key)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrHeld
		}
		return fmt.Errorf("ddblock: acquire %q: %w", key, err)
	}
	return nil
}

// Release drops the lock row for key. Releasing a key this owner never
// held is a no-op: DeleteItem on a missing row is not an error.
func (l *Lock) Release(ctx context.Context, key string) error {
	_, err := l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(l.table),
		Key: map[string]types.AttributeValue{
			"cache_key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return fmt.Errorf("ddblock: release %q: %w", key, err)
	}
	return nil
}
