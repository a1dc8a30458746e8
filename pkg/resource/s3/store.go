// Package s3 implements a resource store on an S3 bucket.
//
// Files are objects and folders are key prefixes. Each folder is also
// materialised as a zero-byte marker object ("<prefix>/") so that empty
// folders survive and carry a modification time; prefixes created by other
// tools without a marker are still listed as folders. The object
// Content-Type is the resource tag.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/nkhine/itools/internal/logger"
	"github.com/nkhine/itools/pkg/resource"
)

const (
	// folderContentType tags folder marker objects.
	folderContentType = "application/x-directory"

	// maxDeleteBatch is the DeleteObjects limit.
	maxDeleteBatch = 1000
)

// API is the subset of the S3 client used by the store.
type API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Store is an S3-backed resource.Store.
type Store struct {
	client API
	bucket string
	prefix string
	retry  retryConfig
	closed atomic.Bool
}

var _ resource.Store = (*Store)(nil)

// New creates a store on an existing client.
func New(client API, bucket, prefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		retry:  defaultRetryConfig(),
	}
}

// NewFromConfig builds a client from cfg and creates a store on it.
func NewFromConfig(ctx context.Context, cfg Config) (*Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := New(client, cfg.Bucket, cfg.Prefix)
	s.retry.maxRetries = cfg.MaxRetries
	return s, nil
}

// Bucket returns the bucket name.
func (s *Store) Bucket() string { return s.bucket }

// Root returns the container at the configured prefix.
func (s *Store) Root() resource.Container {
	return &entry{s: s, key: s.prefix, kind: resource.KindFolder}
}

// Type returns "s3".
func (s *Store) Type() string { return "s3" }

// Close marks the store closed. The S3 client holds no resources.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() {
		return resource.ErrClosed
	}
	return nil
}

// calculateBackoff returns the backoff duration for a given attempt.
func (s *Store) calculateBackoff(attempt int) time.Duration {
	backoff := float64(s.retry.initialBackoff)
	for i := 0; i < attempt; i++ {
		backoff *= s.retry.backoffMultiplier
	}
	if backoff > float64(s.retry.maxBackoff) {
		backoff = float64(s.retry.maxBackoff)
	}
	return time.Duration(backoff)
}

// withRetry runs fn, retrying transient failures with exponential backoff.
func (s *Store) withRetry(ctx context.Context, op, key string, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil || !isRetryableError(err) || attempt >= s.retry.maxRetries {
			return err
		}
		backoff := s.calculateBackoff(attempt)
		logger.DebugCtx(ctx, "retrying s3 request",
			logger.KeyOperation, op,
			logger.KeyBucket, s.bucket,
			logger.KeyKey, key,
			"attempt", attempt+1,
			logger.Err(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// object describes a HeadObject result.
type object struct {
	contentType string
	mtime       time.Time
}

func (s *Store) head(ctx context.Context, key string) (*object, error) {
	var out *s3.HeadObjectOutput
	err := s.withRetry(ctx, "head", key, func() error {
		var err error
		out, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		return err
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("head %q: %w", key, resource.ErrNotFound)
		}
		return nil, fmt.Errorf("head %q: %w", key, err)
	}
	return &object{
		contentType: aws.ToString(out.ContentType),
		mtime:       aws.ToTime(out.LastModified),
	}, nil
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.withRetry(ctx, "get", key, func() error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		defer out.Body.Close()
		data, err = io.ReadAll(out.Body)
		return err
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("get %q: %w", key, resource.ErrNotFound)
		}
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return data, nil
}

func (s *Store) put(ctx context.Context, key string, data []byte, contentType string) error {
	err := s.withRetry(ctx, "put", key, func() error {
		in := &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		}
		if contentType != "" {
			in.ContentType = aws.String(contentType)
		}
		_, err := s.client.PutObject(ctx, in)
		return err
	})
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// list returns the direct children of dir (a key prefix ending in "/" or
// empty for the bucket root) as file names and folder names.
func (s *Store) list(ctx context.Context, dir string) (files, folders []string, err error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(dir),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("list %q: %w", dir, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), dir)
			if name != "" {
				files = append(files, name)
			}
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), dir), "/")
			if name != "" {
				folders = append(folders, name)
			}
		}
	}
	return files, folders, nil
}

// hasPrefix reports whether any object lives below dir.
func (s *Store) hasPrefix(ctx context.Context, dir string) (bool, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(dir),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("list %q: %w", dir, err)
	}
	return len(out.Contents) > 0, nil
}

// deleteKeys removes keys in DeleteObjects batches.
func (s *Store) deleteKeys(ctx context.Context, keys []string) error {
	for batch := range slices.Chunk(keys, maxDeleteBatch) {
		ids := make([]types.ObjectIdentifier, 0, len(batch))
		for _, k := range batch {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
		}
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("delete objects: %w", err)
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return fmt.Errorf("delete %q: %s", aws.ToString(e.Key), aws.ToString(e.Message))
		}
	}
	return nil
}

// keysBelow lists every key starting with dir.
func (s *Store) keysBelow(ctx context.Context, dir string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(dir),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", dir, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// setContentType rewrites an object's Content-Type in place.
func (s *Store) setContentType(ctx context.Context, key, contentType string) error {
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(s.bucket),
		Key:               aws.String(key),
		CopySource:        aws.String(url.PathEscape(s.bucket) + "/" + escapeKey(key)),
		ContentType:       aws.String(contentType),
		MetadataDirective: types.MetadataDirectiveReplace,
	})
	if err != nil {
		if isNotFoundError(err) {
			return fmt.Errorf("copy %q: %w", key, resource.ErrNotFound)
		}
		return fmt.Errorf("copy %q: %w", key, err)
	}
	return nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
