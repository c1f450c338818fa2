package s3store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is an in-memory stand-in for apiClient, keyed identically to
// how a real bucket would store objects under prefix + ".blk".
type fakeClient struct {
	objects map[string][]byte
}

func newFakeClient() *fakeClient {
	return &fakeClient{objects: make(map[string][]byte)}
}

func (f *fakeClient) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeClient) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (f *fakeClient) UploadPart(_ context.Context, in *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, fmt.Errorf("UploadPart not supported by fakeClient")
}

func (f *fakeClient) CreateMultipartUpload(_ context.Context, in *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, fmt.Errorf("CreateMultipartUpload not supported by fakeClient")
}

func (f *fakeClient) CompleteMultipartUpload(_ context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, fmt.Errorf("CompleteMultipartUpload not supported by fakeClient")
}

func (f *fakeClient) AbortMultipartUpload(_ context.Context, in *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return nil, fmt.Errorf("AbortMultipartUpload not supported by fakeClient")
}

func (f *fakeClient) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func TestStore_ScoresRoundTrip(t *testing.T) {
	client := newFakeClient()
	store := NewStore(client, "bucket", "runs/exp1")

	key := "sift1m_100_k10_scores"
	assert.False(t, store.Exists(key))

	want := [][]float32{{1, 2, 3}, {4, 5}}
	require.NoError(t, store.WriteScores(key, want))
	assert.True(t, store.Exists(key))

	got, err := store.ReadScores(key)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_PredsRoundTrip(t *testing.T) {
	client := newFakeClient()
	store := NewStore(client, "bucket", "runs/exp1")

	want := [][][]int64{{{1, 2}, {1}}}
	require.NoError(t, store.WritePreds("k", want))

	got, err := store.ReadPreds("k")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_ReadMissingKeyErrors(t *testing.T) {
	client := newFakeClient()
	store := NewStore(client, "bucket", "runs/exp1")

	_, err := store.ReadScores("missing")
	assert.Error(t, err)
}
