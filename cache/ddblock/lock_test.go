package ddblock

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	rows map[string]bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{rows: make(map[string]bool)}
}

func (f *fakeClient) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	key := in.Item["cache_key"].(*types.AttributeValueMemberS).Value
	if f.rows[key] {
		return nil, &types.ConditionalCheckFailedException{}
	}
	f.rows[key] = true
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	key := in.Key["cache_key"].(*types.AttributeValueMemberS).Value
	delete(f.rows, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestLock_AcquireThenHeldByOther(t *testing.T) {
	client := newFakeClient()
	a := New(client, "conann-locks", "worker-a")
	b := New(client, "conann-locks", "worker-b")

	require.NoError(t, a.Acquire(context.Background(), "sift1m_100_k10"))
	assert.ErrorIs(t, b.Acquire(context.Background(), "sift1m_100_k10"), ErrHeld)
}

func TestLock_ReleaseAllowsReacquire(t *testing.T) {
	client := newFakeClient()
	a := New(client, "conann-locks", "worker-a")

	require.NoError(t, a.Acquire(context.Background(), "k"))
	require.NoError(t, a.Release(context.Background(), "k"))
	require.NoError(t, a.Acquire(context.Background(), "k"))
}
