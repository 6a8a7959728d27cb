package showcase

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/showcase/media"
)

func (a *App) handleGalleryList(c echo.Context) error {
	images, err := a.Cache.Images(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]imageJSON, 0, len(images))
	for _, img := range images {
		out = append(out, img.toJSON())
	}
	return c.JSON(http.StatusOK, galleryResponse{Success: true, Images: out, Count: len(out)})
}

func (a *App) handleImageCreate(c echo.Context) error {
	ctx := c.Request().Context()
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return validationError("No file uploaded")
		}
		return uploadError(err, "Invalid upload")
	}

	up, err := a.saveUpload(ctx, fh, media.GalleryPrefix, a.galleryConstraints(), true)
	if err != nil {
		return err
	}

	img := &Image{
		Path:        up.Key.URL(),
		Description: c.FormValue("description"),
		Width:       up.Width,
		Height:      up.Height,
	}
	if err := a.Store.CreateImage(ctx, img); err != nil {
		a.removeBlob(ctx, img.Path)
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusOK, createImageResponse{Success: true, imageJSON: img.toJSON()})
}

func (a *App) handleImageUpdate(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req updateImageRequest
	if err := c.Bind(&req); err != nil {
		return validationError("Invalid request body")
	}
	if err := a.Store.UpdateImageDescription(c.Request().Context(), id, req.Description); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

func (a *App) handleImageDelete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	img, err := a.Store.DeleteImage(ctx, id)
	if err != nil {
		return err
	}
	a.Cache.Invalidate()
	a.removeBlob(ctx, img.Path)
	return c.JSON(http.StatusOK, successResponse{Success: true})
}
