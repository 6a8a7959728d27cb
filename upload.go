package showcase

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"github.com/eringen/showcase/media"
)

// imageTypes is the gallery upload allow-list, keyed by lower-case extension.
var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// uploadConstraints limits a single uploaded file. A nil allowed map accepts
// any extension.
type uploadConstraints struct {
	allowed map[string]string
	maxSize int64
}

func (a *App) galleryConstraints() uploadConstraints {
	return uploadConstraints{allowed: imageTypes, maxSize: a.Config.MaxImageSize}
}

func (a *App) blogConstraints() uploadConstraints {
	return uploadConstraints{maxSize: a.Config.MaxVideoSize}
}

// maxExtLen bounds a kept extension, dot excluded.
const maxExtLen = 10

// cleanExt returns the lower-case extension of name when it is a dot followed
// by 1 to maxExtLen ASCII letters or digits, and "" otherwise. Only such
// extensions are safe to carry into a blob key and its URL.
func cleanExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > maxExtLen+1 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// check returns the normalized extension of fh or a typed rejection.
// An extension that is unsafe in a URL is dropped, not rejected.
func (uc uploadConstraints) check(fh *multipart.FileHeader) (string, error) {
	ext := cleanExt(fh.Filename)
	if uc.allowed != nil {
		if _, ok := uc.allowed[ext]; !ok {
			return "", ErrInvalidFileType
		}
	}
	if uc.maxSize > 0 && fh.Size > uc.maxSize {
		return "", ErrFileTooLarge
	}
	return ext, nil
}

func contentTypeFor(ext string, fh *multipart.FileHeader) string {
	if ct, ok := imageTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	if ct := fh.Header.Get(echo.HeaderContentType); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// imageSize reads the image header for its dimensions and rewinds f.
// Unknown formats report 0x0; only a failed rewind is an error.
func imageSize(f io.ReadSeeker) (int, int, error) {
	cfg, _, decodeErr := image.DecodeConfig(f)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, 0, fmt.Errorf("rewind upload: %w", err)
	}
	if decodeErr != nil {
		return 0, 0, nil
	}
	return cfg.Width, cfg.Height, nil
}

// storedUpload is the result of writing one multipart file to the media store.
type storedUpload struct {
	Key    media.Key
	Width  int
	Height int
}

// saveUpload validates fh and writes it under prefix with a fresh name.
func (a *App) saveUpload(ctx context.Context, fh *multipart.FileHeader, prefix string, uc uploadConstraints, measure bool) (storedUpload, error) {
	ext, err := uc.check(fh)
	if err != nil {
		return storedUpload{}, err
	}
	f, err := fh.Open()
	if err != nil {
		return storedUpload{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	var out storedUpload
	if measure {
		if out.Width, out.Height, err = imageSize(f); err != nil {
			return storedUpload{}, err
		}
	}
	out.Key = media.NewKey(prefix, ext)
	if err := a.Media.Put(ctx, out.Key, f, fh.Size, contentTypeFor(ext, fh)); err != nil {
		return storedUpload{}, fmt.Errorf("store upload: %w", err)
	}
	a.metrics.uploads.WithLabelValues(prefix).Inc()
	return out, nil
}

// optionalFile returns the named multipart file, or nil when it was not sent.
func optionalFile(form *multipart.Form, field string) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	files := form.File[field]
	if len(files) == 0 || files[0].Filename == "" {
		return nil
	}
	return files[0]
}

// removeBlob deletes the blob behind a stored URL, logging failures.
// It never returns an error: callers have already committed the row change.
func (a *App) removeBlob(ctx context.Context, url string) {
	if url == "" {
		return
	}
	key, ok := media.KeyFromURL(url)
	if !ok {
		a.Logger.Warn("skip deleting blob with unmanaged url", zap.String("url", url))
		return
	}
	err := a.Media.Delete(context.WithoutCancel(ctx), key)
	if err == nil || errors.Is(err, media.ErrNotExist) {
		return
	}
	a.metrics.blobDeleteErrs.Inc()
	a.Logger.Warn("delete blob", zap.String("key", string(key)), zap.Error(err))
}

// isMultipart reports whether the request carries a multipart body.
func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}
