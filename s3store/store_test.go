package s3store_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linhsuan/shortstack"
	"github.com/linhsuan/shortstack/s3store"
)

// fakeS3 scripts responses per operation and records the inputs it saw.
type fakeS3 struct {
	getOut  *s3.GetObjectOutput
	getErr  error
	putErr  error
	delErr  error
	headErr error

	listPages []*s3.ListObjectsV2Output
	listErr   error
	listCalls []*s3.ListObjectsV2Input

	deleteObjectsErr   error
	deleteObjectsCalls []*s3.DeleteObjectsInput

	putCalls  []*s3.PutObjectInput
	delCalls  []*s3.DeleteObjectInput
	headCalls []*s3.HeadObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, _ *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return f.getOut, f.getErr
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putCalls = append(f.putCalls, in)
	return &s3.PutObjectOutput{}, f.putErr
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.delCalls = append(f.delCalls, in)
	return &s3.DeleteObjectOutput{}, f.delErr
}

func (f *fakeS3) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.deleteObjectsCalls = append(f.deleteObjectsCalls, in)
	return &s3.DeleteObjectsOutput{}, f.deleteObjectsErr
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.listCalls = append(f.listCalls, in)
	if f.listErr != nil {
		return nil, f.listErr
	}
	page := f.listPages[0]
	if len(f.listPages) > 1 {
		f.listPages = f.listPages[1:]
	}
	return page, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.headCalls = append(f.headCalls, in)
	return &s3.HeadObjectOutput{}, f.headErr
}

func TestGet(t *testing.T) {
	modified := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	fake := &fakeS3{
		getOut: &s3.GetObjectOutput{
			Body:          io.NopCloser(strings.NewReader("hello")),
			ContentLength: aws.Int64(5),
			ContentType:   aws.String("text/plain"),
			ETag:          aws.String(`"abc123"`),
			LastModified:  aws.Time(modified),
		},
	}
	store := s3store.New(fake, "bucket")

	body, info, err := store.Get(context.Background(), "sites/s1/hello.txt")
	require.NoError(t, err)
	defer func() { _ = body.Close() }()

	assert.Equal(t, int64(5), info.Size)
	assert.Equal(t, "text/plain", info.ContentType)
	assert.Equal(t, "abc123", info.ETag)
	assert.Equal(t, modified, info.LastModified)

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestGet_UnknownKeyLengthIsMinusOne(t *testing.T) {
	fake := &fakeS3{
		getOut: &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("x"))},
	}
	store := s3store.New(fake, "bucket")

	body, info, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	_ = body.Close()
	assert.Equal(t, int64(-1), info.Size)
}

func TestGet_NoSuchKey(t *testing.T) {
	fake := &fakeS3{getErr: &types.NoSuchKey{}}
	store := s3store.New(fake, "bucket")

	_, _, err := store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, shortstack.ErrNotFound)
}

func TestPut(t *testing.T) {
	fake := &fakeS3{}
	store := s3store.New(fake, "bucket")

	err := store.Put(context.Background(), "sites/s1/a.css", "text/css", strings.NewReader("body{}"))
	require.NoError(t, err)

	require.Len(t, fake.putCalls, 1)
	assert.Equal(t, "bucket", aws.ToString(fake.putCalls[0].Bucket))
	assert.Equal(t, "sites/s1/a.css", aws.ToString(fake.putCalls[0].Key))
	assert.Equal(t, "text/css", aws.ToString(fake.putCalls[0].ContentType))
}

func TestDeleteBatch_ChunksSequentially(t *testing.T) {
	fake := &fakeS3{}
	store := s3store.New(fake, "bucket")

	keys := make([]string, 2500)
	for i := range keys {
		keys[i] = fmt.Sprintf("sites/s1/file-%04d", i)
	}

	n, err := store.DeleteBatch(context.Background(), keys)
	require.NoError(t, err)
	assert.Equal(t, 2500, n)

	require.Len(t, fake.deleteObjectsCalls, 3)
	assert.Len(t, fake.deleteObjectsCalls[0].Delete.Objects, 1000)
	assert.Len(t, fake.deleteObjectsCalls[1].Delete.Objects, 1000)
	assert.Len(t, fake.deleteObjectsCalls[2].Delete.Objects, 500)
	assert.Equal(t, "sites/s1/file-0000", aws.ToString(fake.deleteObjectsCalls[0].Delete.Objects[0].Key))
	assert.Equal(t, "sites/s1/file-2000", aws.ToString(fake.deleteObjectsCalls[2].Delete.Objects[0].Key))
}

func TestDeleteBatch_EmptyListIssuesNoCall(t *testing.T) {
	fake := &fakeS3{}
	store := s3store.New(fake, "bucket")

	n, err := store.DeleteBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, fake.deleteObjectsCalls)
}

func TestDeleteBatch_FailureReportsProgress(t *testing.T) {
	fake := &fakeS3{deleteObjectsErr: errors.New("access denied")}
	store := s3store.New(fake, "bucket")

	n, err := store.DeleteBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Zero(t, n)
}

func TestList_DrainsPagination(t *testing.T) {
	fake := &fakeS3{
		listPages: []*s3.ListObjectsV2Output{
			{
				Contents: []types.Object{
					{Key: aws.String("p/a"), Size: aws.Int64(1)},
					{Key: aws.String("p/b"), Size: aws.Int64(2)},
				},
				NextContinuationToken: aws.String("cursor-1"),
			},
			{
				Contents: []types.Object{
					{Key: aws.String("p/c"), Size: aws.Int64(3)},
				},
			},
		},
	}
	store := s3store.New(fake, "bucket")

	records, err := store.List(context.Background(), "p/")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "p/a", records[0].Key)
	assert.Equal(t, "p/c", records[2].Key)

	require.Len(t, fake.listCalls, 2)
	assert.Nil(t, fake.listCalls[0].ContinuationToken)
	assert.Equal(t, "cursor-1", aws.ToString(fake.listCalls[1].ContinuationToken))
	assert.Equal(t, "p/", aws.ToString(fake.listCalls[1].Prefix))
}

func TestExists(t *testing.T) {
	fake := &fakeS3{}
	store := s3store.New(fake, "bucket")

	ok, err := store.Exists(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExists_NotFoundIsFalse(t *testing.T) {
	fake := &fakeS3{headErr: &types.NotFound{}}
	store := s3store.New(fake, "bucket")

	ok, err := store.Exists(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExists_OtherErrorsPropagate(t *testing.T) {
	boom := errors.New("throttled")
	fake := &fakeS3{headErr: boom}
	store := s3store.New(fake, "bucket")

	_, err := store.Exists(context.Background(), "k")
	require.ErrorIs(t, err, boom)
}

func TestDeleteFolder(t *testing.T) {
	fake := &fakeS3{
		listPages: []*s3.ListObjectsV2Output{
			{
				Contents: []types.Object{
					{Key: aws.String("sites/s1/a"), Size: aws.Int64(1)},
					{Key: aws.String("sites/s1/b"), Size: aws.Int64(2)},
				},
			},
		},
	}
	store := s3store.New(fake, "bucket")

	n, err := store.DeleteFolder(context.Background(), "sites/s1/")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, fake.deleteObjectsCalls, 1)
}

func TestDeleteFolder_NoMatchesIssuesNoDelete(t *testing.T) {
	fake := &fakeS3{listPages: []*s3.ListObjectsV2Output{{}}}
	store := s3store.New(fake, "bucket")

	n, err := store.DeleteFolder(context.Background(), "sites/gone/")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, fake.deleteObjectsCalls)
}
