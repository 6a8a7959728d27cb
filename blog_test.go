package showcase

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listBlog(t *testing.T, env *testEnv) blogResponse {
	t.Helper()
	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/blog", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body blogResponse
	decodeJSON(t, rec, &body)
	return body
}

func createPost(t *testing.T, env *testEnv, cookie *http.Cookie, fields map[string]string, files ...filePart) int64 {
	t.Helper()
	rec := env.do(multipartRequest(t, http.MethodPost, "/api/admin/blog", fields, files...), cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body createPostResponse
	decodeJSON(t, rec, &body)
	require.True(t, body.Success)
	require.NotZero(t, body.ID)
	return body.ID
}

func TestBlogEmpty(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/blog", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"posts":[],"count":0}`, rec.Body.String())
}

func TestBlogEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	imgData := []byte("first image bytes")

	first := createPost(t, env, cookie,
		map[string]string{"title": "Hello", "content": "<p>World</p>", "embedded_video": "https://www.youtube.com/embed/abc"},
		filePart{field: "image", filename: "cover.JPG", data: imgData})
	second := createPost(t, env, cookie, map[string]string{"title": "Second", "content": "Body"})

	list := listBlog(t, env)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, second, list.Posts[0].ID, "newest first")
	post := list.Posts[1]
	assert.Equal(t, first, post.ID)
	assert.Equal(t, "Hello", post.Title)
	require.NotNil(t, post.Image)
	assert.Regexp(t, `^/blog-assets/\d+-[0-9a-f]{12}\.jpg$`, *post.Image)
	assert.Nil(t, post.Video)
	require.NotNil(t, post.EmbeddedVideo)
	assert.Equal(t, "https://www.youtube.com/embed/abc", *post.EmbeddedVideo)
	assert.Nil(t, list.Posts[0].Image)

	blob := env.do(httptest.NewRequest(http.MethodGet, *post.Image, nil))
	require.Equal(t, http.StatusOK, blob.Code)
	assert.True(t, bytes.Equal(imgData, readAll(t, blob)))

	path := "/api/admin/blog/" + strconv.FormatInt(first, 10)

	// Update without files keeps the stored image.
	rec := env.do(multipartRequest(t, http.MethodPut, path, map[string]string{"title": "Hello again", "content": "<p>Edited</p>"}), cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := findPost(t, listBlog(t, env), first)
	assert.Equal(t, "Hello again", updated.Title)
	require.NotNil(t, updated.Image)
	assert.Equal(t, *post.Image, *updated.Image)
	assert.Nil(t, updated.EmbeddedVideo)
	assert.False(t, updated.UpdatedAt.Before(post.UpdatedAt))

	// A new image replaces the old one and the old blob is removed.
	rec = env.do(multipartRequest(t, http.MethodPut, path,
		map[string]string{"title": "Hello again", "content": "<p>Edited</p>"},
		filePart{field: "image", filename: "new.png", data: []byte("second image")},
		filePart{field: "video", filename: "clip.mp4", data: []byte("video")}), cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	replaced := findPost(t, listBlog(t, env), first)
	require.NotNil(t, replaced.Image)
	require.NotNil(t, replaced.Video)
	assert.NotEqual(t, *post.Image, *replaced.Image)
	assert.Equal(t, http.StatusNotFound, env.do(httptest.NewRequest(http.MethodGet, *post.Image, nil)).Code)
	assert.Len(t, env.mediaFiles(t, "blog-assets"), 2)

	// Deleting the post removes its blobs.
	rec = env.doJSON(http.MethodDelete, path, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.mediaFiles(t, "blog-assets"))
	list = listBlog(t, env)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, second, list.Posts[0].ID)

	rec = env.doJSON(http.MethodDelete, path, "", cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func findPost(t *testing.T, list blogResponse, id int64) BlogPost {
	t.Helper()
	for _, p := range list.Posts {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("post %d not in listing", id)
	return BlogPost{}
}

func TestCreatePostJSON(t *testing.T) {
	env := newTestEnv(t)
	rec := env.doJSON(http.MethodPost, "/api/admin/blog", `{"title":"JSON","content":"body"}`, env.login(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	list := listBlog(t, env)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "JSON", list.Posts[0].Title)
	assert.Contains(t, rec.Body.String(), `"id":`)
}

func TestCreatePostValidation(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{name: "missing title", fields: map[string]string{"content": "c"}},
		{name: "blank title", fields: map[string]string{"title": "   ", "content": "c"}},
		{name: "missing content", fields: map[string]string{"title": "t"}},
		{name: "blank content", fields: map[string]string{"title": "t", "content": "\n\t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := multipartRequest(t, http.MethodPost, "/api/admin/blog", tt.fields,
				filePart{field: "image", filename: "a.png", data: []byte("img")})
			rec := env.do(req, cookie)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"success":false,"error":"Title and content are required"}`, rec.Body.String())
		})
	}
	assert.Zero(t, listBlog(t, env).Count)
	assert.Empty(t, env.mediaFiles(t, "blog-assets"))
}

func TestCreatePostVideoTooLarge(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.MaxVideoSize = 8 })
	rec := env.do(multipartRequest(t, http.MethodPost, "/api/admin/blog",
		map[string]string{"title": "t", "content": "c"},
		filePart{field: "image", filename: "a.png", data: []byte("ok")},
		filePart{field: "video", filename: "v.mp4", data: bytes.Repeat([]byte("v"), 32)}), env.login(t))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, listBlog(t, env).Count)
	assert.Empty(t, env.mediaFiles(t, "blog-assets"))
}

func TestUpdatePostNotFoundOrInvalid(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	rec := env.doJSON(http.MethodPut, "/api/admin/blog/77", `{"title":"t","content":"c"}`, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	id := createPost(t, env, cookie, map[string]string{"title": "t", "content": "c"})
	rec = env.doJSON(http.MethodPut, "/api/admin/blog/"+strconv.FormatInt(id, 10), `{"title":"","content":"c"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "t", listBlog(t, env).Posts[0].Title)
}

func TestDeletePostUnknownID(t *testing.T) {
	env := newTestEnv(t)
	rec := env.doJSON(http.MethodDelete, "/api/admin/blog/5", "", env.login(t))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Not found"}`, rec.Body.String())
}

func TestCreatePostUnsafeFileNamesStreamBack(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	for _, name := range []string{`clip.mp4?x`, `clip.mp4\x`, `clip.a%zz`, `clip.mp4#frag`} {
		t.Run(name, func(t *testing.T) {
			data := []byte("video bytes for " + name)
			id := createPost(t, env, cookie,
				map[string]string{"title": "t", "content": "c"},
				filePart{field: "video", filename: name, data: data})

			post := findPost(t, listBlog(t, env), id)
			require.NotNil(t, post.Video)
			assert.Regexp(t, `^/blog-assets/\d+-[0-9a-f]{12}$`, *post.Video)

			rec := env.do(httptest.NewRequest(http.MethodGet, *post.Video, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, bytes.Equal(data, readAll(t, rec)))
		})
	}
}
