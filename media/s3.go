package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Store keeps blobs in an S3-compatible bucket (MinIO, AWS S3, R2, ...).
type S3Store struct {
	client *minio.Client
	bucket string
}

// NewS3Store connects to the bucket described by cfg.
func NewS3Store(cfg Config) (*S3Store, error) {
	if cfg.S3Endpoint == "" || cfg.S3Bucket == "" {
		return nil, errors.New("media: S3_ENDPOINT and S3_BUCKET are required for the s3 backend")
	}
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.S3Endpoint, "http://"), "https://")
	cl, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("media: s3 client: %w", err)
	}
	return &S3Store{client: cl, bucket: cfg.S3Bucket}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// Put uploads r as a single object.
func (s *S3Store) Put(ctx context.Context, key Key, r io.Reader, size int64, contentType string) error {
	if !key.Valid() {
		return fmt.Errorf("media: invalid key %q", key)
	}
	_, err := s.client.PutObject(ctx, s.bucket, string(key), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("media: put %s: %w", key, err)
	}
	return nil
}

// Open returns the object; minio objects are seekable so range requests work.
func (s *S3Store) Open(ctx context.Context, key Key) (io.ReadSeekCloser, Object, error) {
	if !key.Valid() {
		return nil, Object{}, ErrNotExist
	}
	obj, err := s.client.GetObject(ctx, s.bucket, string(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, Object{}, mapS3Error(err)
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, Object{}, mapS3Error(err)
	}
	return obj, Object{Key: key, Size: info.Size, ModTime: info.LastModified}, nil
}

// Delete removes the object. S3 deletes are idempotent, so existence is checked first.
func (s *S3Store) Delete(ctx context.Context, key Key) error {
	if !key.Valid() {
		return ErrNotExist
	}
	if _, err := s.client.StatObject(ctx, s.bucket, string(key), minio.StatObjectOptions{}); err != nil {
		return mapS3Error(err)
	}
	return s.client.RemoveObject(ctx, s.bucket, string(key), minio.RemoveObjectOptions{})
}

// List returns every object directly under prefix.
func (s *S3Store) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix + "/"}) {
		if info.Err != nil {
			return nil, info.Err
		}
		key := Key(info.Key)
		if !key.Valid() {
			continue
		}
		objects = append(objects, Object{Key: key, Size: info.Size, ModTime: info.LastModified})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func mapS3Error(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return ErrNotExist
	}
	return err
}
