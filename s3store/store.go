// Package s3store provides the S3 object storage backend. It wraps the AWS
// SDK client behind the shortstack.ObjectStore capability surface: streamed
// reads, batched deletion chunked to the S3 per-call limit, and listings
// that drain pagination before returning.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/linhsuan/shortstack"
)

// batchLimit is the S3 DeleteObjects per-call item limit.
const batchLimit = 1000

// API is the subset of the S3 client the store uses. *s3.Client satisfies it.
type API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, opts ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Config holds S3 connection settings.
type Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	// Endpoint overrides the S3 endpoint for compatible stores. Empty uses AWS.
	Endpoint string `mapstructure:"endpoint"`
}

// Store implements shortstack.ObjectStore over an S3 bucket.
type Store struct {
	client API
	bucket string
}

// New creates a Store over an existing client.
func New(client API, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// NewClient builds an S3 client from config. Static credentials are used
// when provided, otherwise the default AWS credential chain applies.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return client, nil
}

// Get retrieves an object for streaming. Returns shortstack.ErrNotFound for
// unknown keys.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, shortstack.ObjectInfo, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, shortstack.ObjectInfo{}, fmt.Errorf("get %q: %w", key, shortstack.ErrNotFound)
		}
		return nil, shortstack.ObjectInfo{}, fmt.Errorf("get %q: %w", key, err)
	}

	info := shortstack.ObjectInfo{
		Size:        -1,
		ContentType: aws.ToString(out.ContentType),
		// S3 reports the ETag wrapped in quotes; callers add their own
		ETag: strings.Trim(aws.ToString(out.ETag), `"`),
	}
	if out.ContentLength != nil {
		info.Size = *out.ContentLength
	}
	if out.LastModified != nil {
		info.LastModified = *out.LastModified
	}

	return out.Body, info, nil
}

// Put stores content under key.
func (s *Store) Put(ctx context.Context, key, contentType string, content io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        content,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Delete removes a single object. S3 deletes are idempotent; deleting an
// absent key succeeds.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// DeleteBatch removes the given keys in sequential chunks of at most 1000
// per DeleteObjects call. An empty list issues no call.
func (s *Store) DeleteBatch(ctx context.Context, keys []string) (int, error) {
	deleted := 0

	for start := 0; start < len(keys); start += batchLimit {
		end := min(start+batchLimit, len(keys))
		chunk := keys[start:end]

		ids := make([]types.ObjectIdentifier, len(chunk))
		for i, key := range chunk {
			ids[i] = types.ObjectIdentifier{Key: aws.String(key)}
		}

		_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{
				Objects: ids,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return deleted, fmt.Errorf("delete batch: %w", err)
		}
		deleted += len(chunk)
	}

	return deleted, nil
}

// List returns every object under prefix, following continuation tokens
// until the listing is exhausted.
func (s *Store) List(ctx context.Context, prefix string) ([]shortstack.ObjectRecord, error) {
	var records []shortstack.ObjectRecord
	var token *string

	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", prefix, err)
		}

		for _, obj := range out.Contents {
			rec := shortstack.ObjectRecord{
				Key:  aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				rec.LastModified = *obj.LastModified
			}
			records = append(records, rec)
		}

		if out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}

	return records, nil
}

// Exists probes a key with a head request. Only "not found" maps to false;
// every other error propagates.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("head %q: %w", key, err)
	}
	return true, nil
}

// DeleteFolder removes every object under prefix and returns the total
// deleted. No matches means no delete call at all.
func (s *Store) DeleteFolder(ctx context.Context, prefix string) (int, error) {
	records, err := s.List(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("delete folder %q: %w", prefix, err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	keys := make([]string, len(records))
	for i, rec := range records {
		keys[i] = rec.Key
	}

	deleted, err := s.DeleteBatch(ctx, keys)
	if err != nil {
		return deleted, fmt.Errorf("delete folder %q: %w", prefix, err)
	}
	return deleted, nil
}

func isNoSuchKey(err error) bool {
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &noSuchKey)
}

func isNotFound(err error) bool {
	if isNoSuchKey(err) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}
