package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/envelope-sync/internal/config"
)

// fakeS3 is an in-memory bucket.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]string, 0)
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestS3Store_RoundTrip(t *testing.T) {
	fake := newFakeS3()
	s := NewS3StoreWithClient(fake, "bucket", "envelope-sync")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "household", "chunks/debts/0", []byte("blob")))
	_, stored := fake.objects["envelope-sync/household/chunks/debts/0"]
	assert.True(t, stored)

	body, err := s.Get(ctx, "household", "chunks/debts/0")
	require.NoError(t, err)
	assert.Equal(t, "blob", string(body))

	require.NoError(t, s.Delete(ctx, "household", "chunks/debts/0"))
	_, err = s.Get(ctx, "household", "chunks/debts/0")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestS3Store_ListStripsPrefixAndSorts(t *testing.T) {
	fake := newFakeS3()
	s := NewS3StoreWithClient(fake, "bucket", "")
	ctx := context.Background()

	for _, p := range []string{"chunks/bills/0", "chunks/bills/1", "manifest"} {
		require.NoError(t, s.Put(ctx, "household", p, []byte("x")))
	}
	require.NoError(t, s.Put(ctx, "household-2", "chunks/bills/9", []byte("x")))

	paths, err := s.List(ctx, "household", "chunks/")
	require.NoError(t, err)
	assert.Equal(t, []string{"chunks/bills/0", "chunks/bills/1"}, paths)
}

func TestS3Store_ErrorsMentionS3(t *testing.T) {
	fake := newFakeS3()
	fake.fail = errors.New("SlowDown: please reduce your request rate")
	s := NewS3StoreWithClient(fake, "bucket", "")

	_, err := s.Get(context.Background(), "household", "manifest")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDocumentNotFound)
	assert.Contains(t, err.Error(), "s3")

	assert.ErrorContains(t, s.Ping(context.Background()), "s3 head bucket")
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), s3Config(""))
	assert.Error(t, err)
}

func s3Config(bucket string) config.S3 {
	return config.S3{Bucket: bucket, Region: "eu-west-1"}
}
