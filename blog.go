package showcase

import (
	"context"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/showcase/media"
)

type postRequest struct {
	Title         string `json:"title" form:"title"`
	Content       string `json:"content" form:"content"`
	EmbeddedVideo string `json:"embedded_video" form:"embedded_video"`
}

func (r *postRequest) validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" || strings.TrimSpace(r.Content) == "" {
		return validationError("Title and content are required")
	}
	return nil
}

// postUploads holds the blobs written for one create or update request.
type postUploads struct {
	image, video string
}

func (u postUploads) urls() []string {
	return []string{u.image, u.video}
}

// storePostMedia validates both optional files before writing either, so a
// rejected video never leaves a stored image behind.
func (a *App) storePostMedia(c echo.Context) (postUploads, error) {
	ctx := c.Request().Context()
	var form *multipart.Form
	if isMultipart(c.Request()) {
		f, err := c.MultipartForm()
		if err != nil {
			return postUploads{}, uploadError(err, "Invalid upload")
		}
		form = f
	}
	imageFile := optionalFile(form, "image")
	videoFile := optionalFile(form, "video")

	uc := a.blogConstraints()
	for _, fh := range []*multipart.FileHeader{imageFile, videoFile} {
		if fh == nil {
			continue
		}
		if _, err := uc.check(fh); err != nil {
			return postUploads{}, err
		}
	}

	var out postUploads
	if imageFile != nil {
		up, err := a.saveUpload(ctx, imageFile, media.BlogAssetsPrefix, uc, false)
		if err != nil {
			return postUploads{}, err
		}
		out.image = up.Key.URL()
	}
	if videoFile != nil {
		up, err := a.saveUpload(ctx, videoFile, media.BlogAssetsPrefix, uc, false)
		if err != nil {
			a.removeBlobs(ctx, out.image)
			return postUploads{}, err
		}
		out.video = up.Key.URL()
	}
	return out, nil
}

func (a *App) removeBlobs(ctx context.Context, urls ...string) {
	for _, u := range urls {
		a.removeBlob(ctx, u)
	}
}

func (a *App) handleBlogList(c echo.Context) error {
	posts, err := a.Cache.Posts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, blogResponse{Success: true, Posts: posts, Count: len(posts)})
}

func (a *App) handlePostCreate(c echo.Context) error {
	var req postRequest
	if err := c.Bind(&req); err != nil {
		return uploadError(err, "Invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	ctx := c.Request().Context()
	uploads, err := a.storePostMedia(c)
	if err != nil {
		return err
	}

	p := &BlogPost{
		Title:         req.Title,
		Content:       req.Content,
		Image:         nilIfEmpty(uploads.image),
		Video:         nilIfEmpty(uploads.video),
		EmbeddedVideo: nilIfEmpty(strings.TrimSpace(req.EmbeddedVideo)),
	}
	if err := a.Store.CreatePost(ctx, p); err != nil {
		a.removeBlobs(ctx, uploads.urls()...)
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusOK, createPostResponse{Success: true, ID: p.ID})
}

func (a *App) handlePostUpdate(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req postRequest
	if err := c.Bind(&req); err != nil {
		return uploadError(err, "Invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	ctx := c.Request().Context()
	p, err := a.Store.GetPost(ctx, id)
	if err != nil {
		return err
	}

	uploads, err := a.storePostMedia(c)
	if err != nil {
		return err
	}

	var replaced []string
	if uploads.image != "" {
		replaced = append(replaced, deref(p.Image))
		p.Image = &uploads.image
	}
	if uploads.video != "" {
		replaced = append(replaced, deref(p.Video))
		p.Video = &uploads.video
	}
	p.Title = req.Title
	p.Content = req.Content
	p.EmbeddedVideo = nilIfEmpty(strings.TrimSpace(req.EmbeddedVideo))

	if err := a.Store.UpdatePost(ctx, &p); err != nil {
		a.removeBlobs(ctx, uploads.urls()...)
		return err
	}
	a.Cache.Invalidate()
	a.removeBlobs(ctx, replaced...)
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

func (a *App) handlePostDelete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := a.Store.DeletePost(ctx, id)
	if err != nil {
		return err
	}
	a.Cache.Invalidate()
	a.removeBlobs(ctx, deref(p.Image), deref(p.Video))
	return c.JSON(http.StatusOK, successResponse{Success: true})
}
