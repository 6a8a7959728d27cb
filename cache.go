package showcase

import (
	"context"
	"sync"
	"time"
)

// ListingCache is an in-memory cache of the public gallery and blog listings
// with a TTL. Mutating handlers call Invalidate.
type ListingCache struct {
	mu      sync.RWMutex
	images  []Image
	posts   []BlogPost
	fetched time.Time
	ttl     time.Duration
	store   ContentStore
}

// NewListingCache creates a ListingCache backed by the given store.
func NewListingCache(s ContentStore, ttl time.Duration) *ListingCache {
	return &ListingCache{store: s, ttl: ttl}
}

func (c *ListingCache) valid() bool {
	return c.images != nil && c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *ListingCache) Invalidate() {
	c.mu.Lock()
	c.images = nil
	c.posts = nil
	c.mu.Unlock()
}

// ensureLoaded returns cached listings after ensuring the cache is fresh.
// It tries a read lock first and only takes the write lock to reload.
func (c *ListingCache) ensureLoaded(ctx context.Context) ([]Image, []BlogPost, error) {
	c.mu.RLock()
	if c.valid() {
		images, posts := c.images, c.posts
		c.mu.RUnlock()
		return images, posts, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.images, c.posts, nil
	}
	images, err := c.store.ListImages(ctx)
	if err != nil {
		return nil, nil, err
	}
	posts, err := c.store.ListPosts(ctx)
	if err != nil {
		return nil, nil, err
	}
	c.images = images
	c.posts = posts
	c.fetched = time.Now()
	return images, posts, nil
}

// Images returns the gallery listing, ascending by id.
func (c *ListingCache) Images(ctx context.Context) ([]Image, error) {
	images, _, err := c.ensureLoaded(ctx)
	return images, err
}

// Posts returns the blog listing, newest first.
func (c *ListingCache) Posts(ctx context.Context) ([]BlogPost, error) {
	_, posts, err := c.ensureLoaded(ctx)
	return posts, err
}
