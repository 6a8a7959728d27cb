package showcase

import (
	"encoding/xml"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.Posts(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

// sitePages returns the top-level HTML pages in the static directory with
// their modification times. A missing directory yields no pages.
func sitePages(dir string) map[string]time.Time {
	pages := make(map[string]time.Time)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return pages
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".html" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		pages[e.Name()] = info.ModTime()
	}
	return pages
}

func (a *App) renderSitemap(c echo.Context, posts []BlogPost) error {
	base := a.Config.URL
	pages := sitePages(a.Config.StaticDir)

	// The blog page changes whenever a post does.
	if mod, ok := pages["blog.html"]; ok {
		for _, p := range posts {
			if p.UpdatedAt.After(mod) {
				mod = p.UpdatedAt
			}
		}
		pages["blog.html"] = mod
	}

	names := make([]string, 0, len(pages))
	for name := range pages {
		names = append(names, name)
	}
	sort.Strings(names)

	urls := []sitemapURL{{Loc: BuildURL(base)}}
	for _, name := range names {
		loc := BuildURL(base, name)
		if name == "index.html" {
			urls[0].LastMod = pages[name].UTC().Format("2006-01-02")
			continue
		}
		if strings.HasPrefix(name, "404") || strings.HasPrefix(name, "admin") {
			continue
		}
		urls = append(urls, sitemapURL{
			Loc:     loc,
			LastMod: pages[name].UTC().Format("2006-01-02"),
		})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
