// Package showcase is the backend of a small marketing site: a public gallery
// and blog listing served as JSON, and a password-protected admin API that
// uploads media and edits both collections.
//
// The relational rows live in SQLite (Store); uploaded files live in a
// media.Store (local directory or S3-compatible bucket) and are referenced
// from rows by server-relative URL.
package showcase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/showcase/media"
)

const shutdownTimeout = 10 * time.Second

// App wires together the content store, media store, cache, handlers, and
// middleware.
type App struct {
	Config Config
	Echo   *echo.Echo
	Store  ContentStore
	Media  media.Store
	Cache  *ListingCache
	Logger *zap.Logger

	loginLimiter *LoginLimiter
	metrics      *appMetrics
	customRoutes []func(*App)
	closers      []func() error
	initialized  bool
}

// New creates a new App with the given configuration.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	a := &App{
		Config:  cfg,
		Echo:    e,
		Logger:  zap.NewNop(),
		metrics: newAppMetrics(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init opens the stores that were not injected, seeds the gallery, and
// registers middleware and routes. It is safe to call more than once.
func (a *App) Init(ctx context.Context) error {
	if a.initialized {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return err
	}

	if a.Store == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("showcase: init store: %w", err)
		}
		a.Store = store
		a.closers = append(a.closers, store.Close)
	}

	if a.Media == nil {
		m, err := media.New(ctx, a.Config.Media)
		if err != nil {
			return fmt.Errorf("showcase: init media: %w", err)
		}
		a.Media = m
	}

	seeded, err := SeedGallery(ctx, a.Store, a.Media)
	if err != nil {
		return fmt.Errorf("showcase: seed gallery: %w", err)
	}
	if seeded > 0 {
		a.Logger.Info("seeded gallery from media store", zap.Int("images", seeded))
	}

	a.Cache = NewListingCache(a.Store, a.Config.ListingCacheTTL)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	a.initialized = true
	return nil
}

// Start initializes the app and serves until ctx is cancelled, then shuts
// the server down gracefully.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening", zap.String("addr", a.Config.Addr))
		if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("showcase: shutdown: %w", err)
	}
	return <-errCh
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/api/health", handleHealth)
	e.GET("/api/test", handleTest)
	e.GET("/api/gallery", a.handleGalleryList)
	e.GET("/api/blog", a.handleBlogList)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)
	if a.Config.MetricsPublic {
		e.GET("/metrics", a.metrics.handler())
	} else {
		e.GET("/metrics", a.metrics.handler(), requireAdmin)
	}
	e.GET("/admin", handleAdminShell)

	// Uploaded media
	e.GET("/"+media.GalleryPrefix+"/:name", a.serveMedia(media.GalleryPrefix))
	e.GET("/"+media.BlogAssetsPrefix+"/:name", a.serveMedia(media.BlogAssetsPrefix))

	// Session endpoints
	api := e.Group("/api/admin")
	api.POST("/login", a.handleLogin)
	api.POST("/logout", handleLogout)
	api.GET("/check", handleCheck)

	// Privileged routes
	admin := api.Group("", requireAdmin, a.adminBodyLimit())
	admin.POST("/images", a.handleImageCreate)
	admin.PUT("/images/:id", a.handleImageUpdate)
	admin.DELETE("/images/:id", a.handleImageDelete)
	admin.POST("/blog", a.handlePostCreate)
	admin.PUT("/blog/:id", a.handlePostUpdate)
	admin.DELETE("/blog/:id", a.handlePostDelete)
	admin.POST("/maintenance/sweep", a.handleSweep)

	// Site files
	e.Static("/", a.Config.StaticDir)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	var errs []error
	for _, fn := range a.closers {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}
