package showcase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// ContentStore is the relational store behind the content API.
type ContentStore interface {
	ListImages(ctx context.Context) ([]Image, error)
	CountImages(ctx context.Context) (int, error)
	CreateImage(ctx context.Context, img *Image) error
	UpdateImageDescription(ctx context.Context, id int64, description string) error
	DeleteImage(ctx context.Context, id int64) (Image, error)

	ListPosts(ctx context.Context) ([]BlogPost, error)
	GetPost(ctx context.Context, id int64) (BlogPost, error)
	CreatePost(ctx context.Context, p *BlogPost) error
	UpdatePost(ctx context.Context, p *BlogPost) error
	DeletePost(ctx context.Context, id int64) (BlogPost, error)

	// MediaReferences returns every blob URL referenced by any row.
	MediaReferences(ctx context.Context) ([]string, error)
}

// Store wraps a SQLite database holding the images and blog_posts tables.
type Store struct {
	db *sqlx.DB
}

var _ ContentStore = (*Store)(nil)

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	// Pragmas go in the DSN so every pooled connection gets them: WAL lets
	// readers proceed during writes, busy_timeout makes writers wait instead
	// of failing with SQLITE_BUSY.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_time_format=sqlite"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStoreFromDB wraps an already-open database without migrating it.
func NewStoreFromDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db.DB, fsys)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// ListImages returns every image ordered by id ascending.
func (s *Store) ListImages(ctx context.Context) ([]Image, error) {
	images := []Image{}
	if err := s.db.SelectContext(ctx, &images,
		`SELECT id, path, description, width, height FROM images ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return images, nil
}

// CountImages returns the number of image rows.
func (s *Store) CountImages(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM images`); err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return n, nil
}

// CreateImage inserts img and sets its assigned ID.
func (s *Store) CreateImage(ctx context.Context, img *Image) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO images (path, description, width, height) VALUES (?, ?, ?, ?)`,
		img.Path, img.Description, img.Width, img.Height)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	img.ID = id
	return nil
}

// UpdateImageDescription sets the description of an image. Updating a missing
// id is not an error.
func (s *Store) UpdateImageDescription(ctx context.Context, id int64, description string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE images SET description = ? WHERE id = ?`, description, id); err != nil {
		return fmt.Errorf("update image %d: %w", id, err)
	}
	return nil
}

// DeleteImage removes an image row and returns it, or ErrNotFound.
func (s *Store) DeleteImage(ctx context.Context, id int64) (Image, error) {
	var img Image
	err := s.db.GetContext(ctx, &img,
		`DELETE FROM images WHERE id = ? RETURNING id, path, description, width, height`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Image{}, ErrNotFound
	}
	if err != nil {
		return Image{}, fmt.Errorf("delete image %d: %w", id, err)
	}
	return img, nil
}

const postColumns = `id, title, content, image, video, embedded_video, created_at, updated_at`

// ListPosts returns every post, newest first.
func (s *Store) ListPosts(ctx context.Context) ([]BlogPost, error) {
	posts := []BlogPost{}
	if err := s.db.SelectContext(ctx, &posts,
		`SELECT `+postColumns+` FROM blog_posts ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// GetPost returns a single post, or ErrNotFound.
func (s *Store) GetPost(ctx context.Context, id int64) (BlogPost, error) {
	var p BlogPost
	err := s.db.GetContext(ctx, &p, `SELECT `+postColumns+` FROM blog_posts WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return BlogPost{}, ErrNotFound
	}
	if err != nil {
		return BlogPost{}, fmt.Errorf("get post %d: %w", id, err)
	}
	return p, nil
}

// CreatePost inserts p, stamping CreatedAt/UpdatedAt and setting its ID.
func (s *Store) CreatePost(ctx context.Context, p *BlogPost) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO blog_posts (title, content, image, video, embedded_video, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Title, p.Content, p.Image, p.Video, p.EmbeddedVideo, now, now)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// UpdatePost replaces every mutable field of the post with p's values and
// refreshes UpdatedAt. Returns ErrNotFound if the post does not exist.
func (s *Store) UpdatePost(ctx context.Context, p *BlogPost) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE blog_posts SET title = ?, content = ?, image = ?, video = ?, embedded_video = ?, updated_at = ? WHERE id = ?`,
		p.Title, p.Content, p.Image, p.Video, p.EmbeddedVideo, now, p.ID)
	if err != nil {
		return fmt.Errorf("update post %d: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update post %d: %w", p.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	p.UpdatedAt = now
	return nil
}

// DeletePost removes a post row and returns it, or ErrNotFound.
func (s *Store) DeletePost(ctx context.Context, id int64) (BlogPost, error) {
	var p BlogPost
	err := s.db.GetContext(ctx, &p, `DELETE FROM blog_posts WHERE id = ? RETURNING `+postColumns, id)
	if errors.Is(err, sql.ErrNoRows) {
		return BlogPost{}, ErrNotFound
	}
	if err != nil {
		return BlogPost{}, fmt.Errorf("delete post %d: %w", id, err)
	}
	return p, nil
}

// MediaReferences returns every non-empty blob URL stored in either table.
func (s *Store) MediaReferences(ctx context.Context) ([]string, error) {
	refs := []string{}
	err := s.db.SelectContext(ctx, &refs, `
		SELECT path FROM images WHERE path <> ''
		UNION ALL SELECT image FROM blog_posts WHERE image IS NOT NULL AND image <> ''
		UNION ALL SELECT video FROM blog_posts WHERE video IS NOT NULL AND video <> ''`)
	if err != nil {
		return nil, fmt.Errorf("media references: %w", err)
	}
	return refs, nil
}
