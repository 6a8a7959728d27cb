package showcase

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const sessionName = "admin_session"

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Pre(middleware.NonWWWRedirect())
	e.Pre(middleware.RemoveTrailingSlash())

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			a.Logger.Info("request", fields...)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(a.metrics.middleware())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return isMediaPath(c.Request().URL.Path) || c.Request().URL.Path == "/metrics"
		},
	}))

	// No Content-Security-Policy: blog posts embed third-party video players.
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		HSTSMaxAge:         hstsMaxAge(a.Config.CookieSecure),
	}))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     a.Config.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowCredentials: !allowsAnyOrigin(a.Config.CORSOrigins),
	}))

	e.Use(session.Middleware(a.newSessionStore()))

	e.Use(cacheControlMiddleware)
}

func hstsMaxAge(secure bool) int {
	if secure {
		return 31536000
	}
	return 0
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func isMediaPath(path string) bool {
	return strings.HasPrefix(path, "/gallery/") || strings.HasPrefix(path, "/blog-assets/")
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		switch {
		case isMediaPath(path):
			// Blob names are never reused.
			c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		case path == "/feed.xml" || path == "/sitemap.xml":
			c.Response().Header().Set("Cache-Control", "public, max-age=3600")
		case strings.HasPrefix(path, "/api/"), strings.HasPrefix(path, "/admin"), path == "/metrics":
			c.Response().Header().Set("Cache-Control", "no-store")
		default:
			c.Response().Header().Set("Cache-Control", "public, max-age=3600")
		}
		return next(c)
	}
}

// adminBodyLimit caps request bodies on privileged routes just above the
// largest accepted upload so oversize files are rejected while streaming.
func (a *App) adminBodyLimit() echo.MiddlewareFunc {
	limit := a.Config.MaxVideoSize
	if a.Config.MaxImageSize > limit {
		limit = a.Config.MaxImageSize
	}
	return middleware.BodyLimit(fmt.Sprintf("%dK", limit/1024+1024))
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	// MaxAge also bounds the timestamp accepted by the cookie codec.
	store.MaxAge(int(a.Config.SessionMaxAge.Seconds()))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.Secure = a.Config.CookieSecure
	return store
}

// IsAdmin checks if the current session is authenticated. A missing,
// expired, or tampered cookie reads as anonymous.
func IsAdmin(c echo.Context) bool {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return false
	}
	auth, ok := sess.Values["authenticated"].(bool)
	return ok && auth
}

func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsAdmin(c) {
			return ErrUnauthorized
		}
		return next(c)
	}
}

func setAdminSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if sess == nil {
		return err
	}
	// A stale or forged cookie still yields a fresh session to overwrite it.
	sess.Values["authenticated"] = true
	return sess.Save(c.Request(), c.Response())
}

func clearAdminSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if sess == nil {
		return err
	}
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}
