package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FSStore keeps blobs on the local filesystem, one directory per prefix.
type FSStore struct {
	root string
}

// NewFSStore creates an FSStore rooted at root, creating it if needed.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("media: create root: %w", err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) path(key Key) string {
	return filepath.Join(s.root, filepath.FromSlash(string(key)))
}

// Put writes to a hidden temp file next to the target and renames it into place.
func (s *FSStore) Put(ctx context.Context, key Key, r io.Reader, size int64, contentType string) error {
	if !key.Valid() {
		return fmt.Errorf("media: invalid key %q", key)
	}
	dst := s.path(key)
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("media: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("media: create temp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		cleanup()
		return fmt.Errorf("media: write %s: %w", key, err)
	}
	if err := ctx.Err(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("media: close %s: %w", key, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("media: chmod %s: %w", key, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("media: rename %s: %w", key, err)
	}
	return nil
}

// Open opens the blob for reading.
func (s *FSStore) Open(ctx context.Context, key Key) (io.ReadSeekCloser, Object, error) {
	if !key.Valid() {
		return nil, Object{}, ErrNotExist
	}
	f, err := os.Open(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Object{}, ErrNotExist
		}
		return nil, Object{}, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, Object{}, err
	}
	if info.IsDir() {
		f.Close()
		return nil, Object{}, ErrNotExist
	}
	return f, Object{Key: key, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Delete removes the blob.
func (s *FSStore) Delete(ctx context.Context, key Key) error {
	if !key.Valid() {
		return ErrNotExist
	}
	if err := os.Remove(s.path(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotExist
		}
		return err
	}
	return nil
}

// List returns the regular files under prefix sorted by key. In-progress
// uploads (dot files) are skipped.
func (s *FSStore) List(ctx context.Context, prefix string) ([]Object, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, prefix))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var objects []Object
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		objects = append(objects, Object{
			Key:     Join(prefix, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}
