package showcase

import (
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

func page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!doctype html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<meta name="robots" content="noindex"><title>`+templ.EscapeString(title)+`</title></head><body>`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// adminShell is the page the admin client script mounts into.
func adminShell(authenticated bool) templ.Component {
	state := "anonymous"
	if authenticated {
		state = "authenticated"
	}
	return page("Admin", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<main id="admin" data-session="`+templ.EscapeString(state)+`"></main>`+
			`<script src="/assets/js/admin.js" defer></script>`)
		return err
	}))
}

func notFoundPage() templ.Component {
	return page("Not found", templ.Raw(`<main><h1>404</h1><p>Page not found.</p><p><a href="/">Home</a></p></main>`))
}
