// Package media stores uploaded gallery images and blog attachments.
//
// Blobs are addressed by a Key of the form "<prefix>/<name>", which doubles as the
// server-relative URL the site serves them from ("/gallery/<name>").
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Prefixes under which the site stores blobs.
const (
	GalleryPrefix    = "gallery"
	BlogAssetsPrefix = "blog-assets"
)

// ErrNotExist is returned when a key has no blob behind it.
var ErrNotExist = errors.New("media: object does not exist")

// Key identifies a blob inside a Store.
type Key string

// Join builds a key from a prefix and a file name.
func Join(prefix, name string) Key {
	return Key(prefix + "/" + name)
}

// NewKey returns a collision-resistant key under prefix that keeps ext.
func NewKey(prefix, ext string) Key {
	return Join(prefix, GenerateName(ext))
}

// GenerateName builds "<unix millis>-<random><ext>".
func GenerateName(ext string) string {
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), random, strings.ToLower(ext))
}

// KeyFromURL converts a stored server-relative URL ("/gallery/x.jpg") back into a key.
func KeyFromURL(u string) (Key, bool) {
	k := Key(strings.TrimPrefix(u, "/"))
	return k, k.Valid()
}

// URL is the server-relative URL a blob is served from.
func (k Key) URL() string {
	return "/" + string(k)
}

// Prefix returns the first path segment of the key.
func (k Key) Prefix() string {
	p, _, _ := strings.Cut(string(k), "/")
	return p
}

// Name returns the file name part of the key.
func (k Key) Name() string {
	return path.Base(string(k))
}

// Valid reports whether k is exactly "<prefix>/<name>" with no traversal.
func (k Key) Valid() bool {
	s := string(k)
	if s == "" || strings.HasPrefix(s, "/") || strings.Contains(s, `\`) {
		return false
	}
	if path.Clean(s) != s {
		return false
	}
	prefix, name, ok := strings.Cut(s, "/")
	if !ok || prefix == "" || name == "" || strings.Contains(name, "/") {
		return false
	}
	return name != ".." && name != "." && prefix != ".." && !strings.HasPrefix(name, ".")
}

// Object describes a stored blob.
type Object struct {
	Key     Key
	Size    int64
	ModTime time.Time
}

// Store is blob storage for uploaded media.
type Store interface {
	// Put writes r under key. A failed Put leaves nothing behind.
	Put(ctx context.Context, key Key, r io.Reader, size int64, contentType string) error
	// Open returns a seekable reader for key, or ErrNotExist.
	Open(ctx context.Context, key Key) (io.ReadSeekCloser, Object, error)
	// Delete removes key, or returns ErrNotExist.
	Delete(ctx context.Context, key Key) error
	// List returns every blob directly under prefix.
	List(ctx context.Context, prefix string) ([]Object, error)
}

// Config selects and configures a Store backend.
type Config struct {
	Backend string `env:"MEDIA_BACKEND" envDefault:"fs"`
	Root    string `env:"MEDIA_ROOT" envDefault:"."`

	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3Bucket    string `env:"S3_BUCKET"`
	S3UseSSL    bool   `env:"S3_USE_SSL"`
}

// New opens the backend named by cfg.Backend.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "fs":
		root := cfg.Root
		if root == "" {
			root = "."
		}
		return NewFSStore(root)
	case "s3":
		s, err := NewS3Store(cfg)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("media: ensure bucket %q: %w", cfg.S3Bucket, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("media: unknown backend %q", cfg.Backend)
	}
}
