package showcase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/eringen/showcase/media"
)

// Config holds all configuration for a showcase site.
type Config struct {
	Name string `env:"SITE_NAME" envDefault:"Showcase"`
	URL  string `env:"SITE_URL" envDefault:"http://localhost:3000"`

	Addr         string `env:"ADDR" envDefault:":3000"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"data/gallery.db"`
	StaticDir    string `env:"STATIC_DIR" envDefault:"public"`

	Media media.Config

	AdminPassword string        `env:"ADMIN_PASSWORD"`
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"12h"`
	CookieSecure  bool          `env:"COOKIE_SECURE"`

	MaxImageSize int64 `env:"MAX_IMAGE_SIZE" envDefault:"5242880"`
	MaxVideoSize int64 `env:"MAX_VIDEO_SIZE" envDefault:"52428800"`

	ListingCacheTTL time.Duration `env:"LISTING_CACHE_TTL" envDefault:"5m"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	// MetricsPublic serves /metrics without an admin session.
	MetricsPublic bool `env:"METRICS_PUBLIC"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Dev      bool   `env:"DEV"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (Config, error) {
	// A missing .env is normal in production.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// setDefaults fills zero values for configs built in code rather than
// through LoadConfig.
func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "Showcase"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimRight(c.URL, "/")
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/gallery.db"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.Media.Backend == "" {
		c.Media.Backend = "fs"
	}
	if c.Media.Root == "" {
		c.Media.Root = "."
	}
	if c.SessionMaxAge == 0 {
		c.SessionMaxAge = 12 * time.Hour
	}
	if c.MaxImageSize == 0 {
		c.MaxImageSize = 5 << 20
	}
	if c.MaxVideoSize == 0 {
		c.MaxVideoSize = 50 << 20
	}
	if c.ListingCacheTTL == 0 {
		c.ListingCacheTTL = 5 * time.Minute
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	var errs []error
	if c.AdminPassword == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD is required"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	if c.SessionMaxAge < time.Second {
		errs = append(errs, errors.New("SESSION_MAX_AGE must be at least 1s"))
	}
	if c.MaxImageSize <= 0 || c.MaxVideoSize <= 0 {
		errs = append(errs, errors.New("upload size limits must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("showcase: %w", err)
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithStore injects a content store instead of opening DatabasePath.
func WithStore(s ContentStore) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithMediaStore injects a media store instead of building one from Config.Media.
func WithMediaStore(m media.Store) Option {
	return func(a *App) {
		a.Media = m
	}
}

// WithLogger sets the application logger (default zap.NewNop).
func WithLogger(log *zap.Logger) Option {
	return func(a *App) {
		a.Logger = log
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir overrides Config.StaticDir.
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.StaticDir = dir
	}
}
