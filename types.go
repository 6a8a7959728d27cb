package showcase

import "time"

// Image is a gallery entry. Path is the server-relative URL of the blob.
type Image struct {
	ID          int64  `db:"id"`
	Path        string `db:"path"`
	Description string `db:"description"`
	Width       int    `db:"width"`
	Height      int    `db:"height"`
}

// BlogPost is a blog entry. Image and Video are server-relative blob URLs;
// EmbeddedVideo is an external URL stored verbatim.
type BlogPost struct {
	ID            int64     `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Content       string    `db:"content" json:"content"`
	Image         *string   `db:"image" json:"image"`
	Video         *string   `db:"video" json:"video"`
	EmbeddedVideo *string   `db:"embedded_video" json:"embedded_video"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// --- Wire payloads ---

type loginRequest struct {
	Password string `json:"password" form:"password"`
}

type updateImageRequest struct {
	Description string `json:"description" form:"description"`
}

type sweepRequest struct {
	DryRun bool `json:"dry_run" form:"dry_run"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type checkResponse struct {
	Authenticated bool `json:"authenticated"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// imageJSON is the public shape of an Image.
type imageJSON struct {
	ID          int64  `json:"id"`
	Src         string `json:"src"`
	Description string `json:"description"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

func (img Image) toJSON() imageJSON {
	return imageJSON{
		ID:          img.ID,
		Src:         img.Path,
		Description: img.Description,
		Width:       img.Width,
		Height:      img.Height,
	}
}

type galleryResponse struct {
	Success bool        `json:"success"`
	Images  []imageJSON `json:"images"`
	Count   int         `json:"count"`
}

type createImageResponse struct {
	Success bool `json:"success"`
	imageJSON
}

type blogResponse struct {
	Success bool       `json:"success"`
	Posts   []BlogPost `json:"posts"`
	Count   int        `json:"count"`
}

type createPostResponse struct {
	Success bool  `json:"success"`
	ID      int64 `json:"id"`
}

type sweepResponse struct {
	Success bool `json:"success"`
	SweepReport
}
