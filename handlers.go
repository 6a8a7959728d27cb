package showcase

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/showcase/media"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC().Format(isoMillis),
	})
}

func handleTest(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message":   "API is working!",
		"timestamp": time.Now().UTC().Format(isoMillis),
		"cors":      "enabled",
	})
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.Posts(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

// serveMedia streams blobs under prefix from the media store, with range and
// conditional request support.
func (a *App) serveMedia(prefix string) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := media.Join(prefix, c.Param("name"))
		if !key.Valid() {
			return echo.ErrNotFound
		}
		rc, obj, err := a.Media.Open(c.Request().Context(), key)
		if errors.Is(err, media.ErrNotExist) {
			return echo.ErrNotFound
		}
		if err != nil {
			return err
		}
		defer rc.Close()
		http.ServeContent(c.Response(), c.Request(), key.Name(), obj.ModTime, rc)
		return nil
	}
}

func (a *App) handleSweep(c echo.Context) error {
	var req sweepRequest
	if err := c.Bind(&req); err != nil {
		return validationError("Invalid request body")
	}
	report, err := Sweep(c.Request().Context(), a.Store, a.Media, DefaultSweepGrace, req.DryRun, a.Logger)
	if err != nil {
		return err
	}
	a.metrics.orphansRemoved.Add(float64(report.Removed))
	return c.JSON(http.StatusOK, sweepResponse{Success: true, SweepReport: report})
}

// httpErrorHandler writes every API error as {success:false,error}. Non-API
// 404s get the HTML not-found page.
func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := errorStatus(err)
	if code >= 500 {
		a.Logger.Error("server error",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err),
		)
	}

	var rerr error
	switch {
	case c.Request().Method == http.MethodHead:
		rerr = c.NoContent(code)
	case code == http.StatusNotFound && !strings.HasPrefix(c.Request().URL.Path, "/api/"):
		rerr = RenderStatus(c, code, notFoundPage())
	default:
		rerr = c.JSON(code, errorResponse{Success: false, Error: msg})
	}
	if rerr != nil {
		a.Logger.Error("write error response", zap.Error(rerr))
	}
}
