package media

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapS3Error(t *testing.T) {
	assert.ErrorIs(t, mapS3Error(minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}), ErrNotExist)
	assert.ErrorIs(t, mapS3Error(minio.ErrorResponse{StatusCode: http.StatusNotFound}), ErrNotExist)

	denied := minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}
	assert.NotErrorIs(t, mapS3Error(denied), ErrNotExist)

	other := errors.New("connection reset")
	assert.Equal(t, other, mapS3Error(other))
}

func TestNewS3StoreRequiresEndpointAndBucket(t *testing.T) {
	_, err := NewS3Store(Config{Backend: "s3", S3Bucket: "media"})
	assert.Error(t, err)
	_, err = NewS3Store(Config{Backend: "s3", S3Endpoint: "localhost:9000"})
	assert.Error(t, err)
}

func TestNewS3StoreStripsScheme(t *testing.T) {
	s, err := NewS3Store(Config{S3Endpoint: "http://localhost:9000", S3Bucket: "media", S3AccessKey: "k", S3SecretKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, "media", s.bucket)
	assert.Equal(t, "localhost:9000", s.client.EndpointURL().Host)
}

func TestS3StoreRejectsInvalidKeys(t *testing.T) {
	s, err := NewS3Store(Config{S3Endpoint: "localhost:9000", S3Bucket: "media"})
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = s.Open(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, ErrNotExist)
	assert.ErrorIs(t, s.Delete(ctx, "gallery/"), ErrNotExist)
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), Config{Backend: "ftp"})
	assert.Error(t, err)
}

func TestNewDefaultsToFS(t *testing.T) {
	s, err := New(context.Background(), Config{Root: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FSStore{}, s)
}
