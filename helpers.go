package showcase

import (
	"mime"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// parseID reads the positive integer :id path parameter.
func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, validationError("Invalid id")
	}
	return id, nil
}

// BuildURL joins a base URL with path segments.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(append([]string{"/", u.Path}, pathSegments...)...)
	return u.String()
}

// postURL is where the site's blog page shows the post with the given id.
func postURL(base string, id int64) string {
	return BuildURL(base, "blog.html") + "#post-" + strconv.FormatInt(id, 10)
}

func contentTypeForURL(u string) string {
	ext := strings.ToLower(path.Ext(u))
	if ct, ok := imageTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
