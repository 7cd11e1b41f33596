package objstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3API

	partErr   error
	puts      []string
	parts     []string
	completed []int32
	aborted   bool
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts = append(f.puts, string(data))

	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return &s3.CreateMultipartUploadOutput{UploadId: aws.String("up-1")}, nil
}

func (f *fakeS3) UploadPart(_ context.Context, in *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	if f.partErr != nil {
		return nil, f.partErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.parts = append(f.parts, string(data))

	return &s3.UploadPartOutput{ETag: aws.String(fmt.Sprintf("etag-%d", *in.PartNumber))}, nil
}

func (f *fakeS3) CompleteMultipartUpload(_ context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	for _, p := range in.MultipartUpload.Parts {
		f.completed = append(f.completed, *p.PartNumber)
	}

	return &s3.CompleteMultipartUploadOutput{}, nil
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	f.aborted = true

	return &s3.AbortMultipartUploadOutput{}, nil
}

func TestS3PutSplitsIntoParts(t *testing.T) {
	t.Parallel()

	client := &fakeS3{}
	b := &s3Backend{client: client, partSize: 5}

	payload := "abcdefghijkl"
	require.NoError(t, b.Put(context.Background(), "bucket", "key", strings.NewReader(payload), int64(len(payload))))

	assert.Empty(t, client.puts)
	assert.Equal(t, []string{"abcde", "fghij", "kl"}, client.parts)
	assert.Equal(t, []int32{1, 2, 3}, client.completed)
	assert.False(t, client.aborted)
}

func TestS3PutSmallObject(t *testing.T) {
	t.Parallel()

	client := &fakeS3{}
	b := &s3Backend{client: client, partSize: 5}

	require.NoError(t, b.Put(context.Background(), "bucket", "key", strings.NewReader("abc"), 3))
	assert.Equal(t, []string{"abc"}, client.puts)
	assert.Empty(t, client.parts)
}

func TestS3PutAbortsFailedUpload(t *testing.T) {
	t.Parallel()

	client := &fakeS3{partErr: assert.AnError}
	b := &s3Backend{client: client, partSize: 5}

	err := b.Put(context.Background(), "bucket", "key", strings.NewReader("abcdefgh"), 8)
	require.ErrorIs(t, err, assert.AnError)
	assert.True(t, client.aborted)
	assert.Empty(t, client.completed)
}

func TestS3PartSizeHasFloor(t *testing.T) {
	t.Parallel()

	b, err := newS3(context.Background(), map[string]string{"region": "eu-west-1"}, 1<<10)
	require.NoError(t, err)
	assert.Equal(t, int64(minPartSize), b.partSize)

	b, err = newS3(context.Background(), map[string]string{"region": "eu-west-1"}, 8<<20)
	require.NoError(t, err)
	assert.Equal(t, int64(8<<20), b.partSize)
}
