package showcase

import (
	"context"
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/showcase/media"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	PubDate     string    `xml:"pubDate"`
	GUID        string    `xml:"guid"`
	Enclosure   *rssMedia `xml:"enclosure,omitempty"`
}

type rssMedia struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

func (a *App) renderRSS(c echo.Context, posts []BlogPost) error {
	base := a.Config.URL
	sizes := a.blobSizes(c.Request().Context(), posts)
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		link := postURL(base, p.ID)
		item := rssItem{
			Title:       p.Title,
			Link:        link,
			Description: p.Content,
			PubDate:     p.CreatedAt.UTC().Format(time.RFC1123Z),
			GUID:        link,
		}
		if p.Image != nil && *p.Image != "" {
			item.Enclosure = &rssMedia{
				URL:    base + *p.Image,
				Length: sizes[*p.Image],
				Type:   contentTypeForURL(*p.Image),
			}
		}
		items = append(items, item)
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        base,
			Description: "Latest posts from " + a.Config.Name,
			Items:       items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(feed)
}

// blobSizes maps the stored URL of every blog asset to its size. It lists the
// store only when some post has an image; on failure lengths stay zero.
func (a *App) blobSizes(ctx context.Context, posts []BlogPost) map[string]int64 {
	need := false
	for _, p := range posts {
		if p.Image != nil && *p.Image != "" {
			need = true
			break
		}
	}
	if !need {
		return nil
	}
	objs, err := a.Media.List(ctx, media.BlogAssetsPrefix)
	if err != nil {
		a.Logger.Warn("list blog assets for feed", zap.Error(err))
		return nil
	}
	sizes := make(map[string]int64, len(objs))
	for _, o := range objs {
		sizes[o.Key.URL()] = o.Size
	}
	return sizes
}
