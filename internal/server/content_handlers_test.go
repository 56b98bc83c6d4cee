package server

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, G: 40, B: 90, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (e *testEnv) createCategory(t *testing.T, session *http.Cookie, name string) string {
	t.Helper()
	resp := e.doJSON(t, http.MethodPost, "/api/categories/create", fiber.Map{"name": name, "description": name + " posts"}, session)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode(t, resp)["category"].(map[string]any)["id"].(string)
}

func (e *testEnv) createPost(t *testing.T, session *http.Cookie, title, categoryID string) map[string]any {
	t.Helper()
	resp := e.doMultipart(t, http.MethodPost, "/api/posts/create", map[string]string{
		"title": title, "content": "Body of " + title, "category": categoryID,
	}, pngBytes(t, 32, 16), session)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "Post created successfully", body["message"])
	return body["post"].(map[string]any)
}

func TestCategoryEndpoints(t *testing.T) {
	e := newTestEnv(t)
	session, _ := e.register(t, "Ada", "ada@example.com")

	resp := e.doJSON(t, http.MethodPost, "/api/categories/create", fiber.Map{"name": "Go"}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	goID := e.createCategory(t, session, "Go")
	e.createCategory(t, session, "Rust")

	resp = e.doJSON(t, http.MethodPost, "/api/categories/create", fiber.Map{"name": "Go"}, session)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Category already exists!", errorMessage(t, resp))

	resp = e.doJSON(t, http.MethodGet, "/api/categories", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode(t, resp)["categories"], 2)

	resp = e.doJSON(t, http.MethodPut, "/api/categories/update/"+goID, fiber.Map{"name": "Golang"}, session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Category updated successfully", decode(t, resp)["message"])

	resp = e.doJSON(t, http.MethodPut, "/api/categories/update/"+goID, fiber.Map{"name": "Rust"}, session)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Duplicate field value: name. Please use another value.", errorMessage(t, resp))

	// The list cache is invalidated by writes.
	resp = e.doJSON(t, http.MethodGet, "/api/categories/"+goID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Golang", decode(t, resp)["category"].(map[string]any)["name"])

	resp = e.doJSON(t, http.MethodDelete, "/api/categories/delete/"+goID, nil, session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Category deleted successfully", decode(t, resp)["message"])

	resp = e.doJSON(t, http.MethodGet, "/api/categories/"+goID, nil, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Category not found!", errorMessage(t, resp))
}

func TestPostEndpoints(t *testing.T) {
	e := newTestEnv(t)
	author, authorID := e.register(t, "Ada", "ada@example.com")
	intruder, _ := e.register(t, "Mallory", "mallory@example.com")
	goID := e.createCategory(t, author, "Go")
	rustID := e.createCategory(t, author, "Rust")

	resp := e.doMultipart(t, http.MethodPost, "/api/posts/create", map[string]string{
		"title": "No image", "content": "x", "category": goID,
	}, nil, author)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Image is required!", errorMessage(t, resp))

	resp = e.doMultipart(t, http.MethodPost, "/api/posts/create", map[string]string{"title": "x"}, pngBytes(t, 4, 4), author)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Content is required, Category is required", errorMessage(t, resp))

	first := e.createPost(t, author, "Goroutines explained", goID)
	for i := 0; i < 6; i++ {
		e.createPost(t, author, fmt.Sprintf("Go tip %d", i), goID)
	}
	e.createPost(t, author, "Borrow checker", rustID)

	assert.Equal(t, "Ada", first["author"].(map[string]any)["name"])
	assert.Equal(t, authorID, first["author"].(map[string]any)["id"])
	assert.Equal(t, "Go", first["category"].(map[string]any)["name"])

	image := first["image"].(string)
	resp = e.doJSON(t, http.MethodGet, "/uploads/"+image, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.doJSON(t, http.MethodGet, "/api/posts", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Len(t, body["posts"], 6)
	pagination := body["pagination"].(map[string]any)
	assert.EqualValues(t, 8, pagination["totalPosts"])
	assert.EqualValues(t, 2, pagination["totalPages"])
	assert.Equal(t, true, pagination["hasNextPage"])

	resp = e.doJSON(t, http.MethodGet, "/api/posts?category="+rustID, nil, nil)
	body = decode(t, resp)
	require.Len(t, body["posts"], 1)
	assert.Equal(t, "Borrow checker", body["posts"].([]any)[0].(map[string]any)["title"])

	resp = e.doJSON(t, http.MethodGet, "/api/posts?search=GOROUTINE", nil, nil)
	assert.Len(t, decode(t, resp)["posts"], 1)

	resp = e.doJSON(t, http.MethodGet, "/api/posts?sortBy=title&sortOrder=asc&limit=1", nil, nil)
	body = decode(t, resp)
	assert.Equal(t, "Borrow checker", body["posts"].([]any)[0].(map[string]any)["title"])

	id := first["id"].(string)
	resp = e.doMultipart(t, http.MethodPut, "/api/posts/update/"+id, map[string]string{
		"title": "Hijacked", "content": "x", "category": goID,
	}, nil, intruder)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "You can only edit your own posts!", errorMessage(t, resp))

	resp = e.doMultipart(t, http.MethodPut, "/api/posts/update/"+id, map[string]string{
		"title": "Goroutines, revisited", "content": "Updated", "category": rustID,
	}, nil, author)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode(t, resp)["post"].(map[string]any)
	assert.Equal(t, "Goroutines, revisited", updated["title"])
	assert.Equal(t, image, updated["image"], "image is kept when none is uploaded")
	assert.Equal(t, "Rust", updated["category"].(map[string]any)["name"])

	resp = e.doJSON(t, http.MethodDelete, "/api/posts/delete/"+id, nil, intruder)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.doJSON(t, http.MethodDelete, "/api/posts/delete/"+id, nil, author)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Post deleted successfully", decode(t, resp)["message"])

	resp = e.doJSON(t, http.MethodGet, "/api/posts/"+id, nil, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Post not found", errorMessage(t, resp))

	resp = e.doJSON(t, http.MethodGet, "/uploads/"+image, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPostWithDeletedCategory(t *testing.T) {
	e := newTestEnv(t)
	session, _ := e.register(t, "Ada", "ada@example.com")
	categoryID := e.createCategory(t, session, "Temp")
	post := e.createPost(t, session, "Orphan", categoryID)

	resp := e.doJSON(t, http.MethodDelete, "/api/categories/delete/"+categoryID, nil, session)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.doJSON(t, http.MethodGet, "/api/posts/"+post["id"].(string), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, decode(t, resp)["post"].(map[string]any)["category"])
}

func TestCommentEndpoints(t *testing.T) {
	e := newTestEnv(t)
	author, _ := e.register(t, "Ada", "ada@example.com")
	other, _ := e.register(t, "Linus", "linus@example.com")
	post := e.createPost(t, author, "Threads", e.createCategory(t, author, "Go"))
	postID := post["id"].(string)

	resp := e.doJSON(t, http.MethodPost, "/api/comments/create", fiber.Map{"content": "   ", "postId": postID}, other)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Comment content is required!", errorMessage(t, resp))

	resp = e.doJSON(t, http.MethodPost, "/api/comments/create", fiber.Map{"content": "First!", "postId": postID}, other)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "Comment created successfully", body["message"])
	parent := body["comment"].(map[string]any)
	parentID := parent["id"].(string)
	assert.Equal(t, "Linus", parent["author"].(map[string]any)["name"])

	for i := 0; i < 3; i++ {
		resp = e.doJSON(t, http.MethodPost, "/api/comments/create", fiber.Map{
			"content": fmt.Sprintf("reply %d", i), "postId": postID, "parentCommentId": parentID,
		}, author)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp = e.doJSON(t, http.MethodPost, "/api/comments/create", fiber.Map{"content": "Second", "postId": postID}, author)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.doJSON(t, http.MethodGet, "/api/comments/post/"+postID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decode(t, resp)
	comments := body["comments"].([]any)
	require.Len(t, comments, 2)
	assert.Equal(t, "Second", comments[0].(map[string]any)["content"], "newest top-level comment first")
	replies := comments[1].(map[string]any)["replies"].([]any)
	require.Len(t, replies, 3)
	assert.Equal(t, "reply 0", replies[0].(map[string]any)["content"], "replies oldest first")
	assert.EqualValues(t, 2, body["pagination"].(map[string]any)["totalComments"])

	resp = e.doJSON(t, http.MethodGet, "/api/comments/"+parentID+"/replies?limit=2&page=2", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decode(t, resp)
	assert.Len(t, body["replies"], 1)
	assert.EqualValues(t, 3, body["pagination"].(map[string]any)["totalReplies"])

	resp = e.doJSON(t, http.MethodPut, "/api/comments/"+parentID, fiber.Map{"content": "edited"}, author)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "You can only edit your own comments!", errorMessage(t, resp))

	resp = e.doJSON(t, http.MethodPut, "/api/comments/"+parentID, fiber.Map{"content": "edited"}, other)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	edited := decode(t, resp)["comment"].(map[string]any)
	assert.Equal(t, true, edited["isEdited"])

	resp = e.doJSON(t, http.MethodDelete, "/api/comments/"+parentID, nil, other)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Comment deleted successfully", decode(t, resp)["message"])

	var remaining int64
	require.NoError(t, e.db.Table("comments").Where("post_id = ?", postID).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining, "replies are deleted with their parent")

	resp = e.doJSON(t, http.MethodGet, "/api/comments/post/not-a-post", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
