package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"feedsync/app/models"
	"feedsync/app/repositories"
	"feedsync/app/repositories/mock"
	"feedsync/app/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func setupTestFeedController(t *testing.T) (*FeedController, *services.FeedService, *mock.PostRepository, *mock.LikedRepository) {
	postRepo := mock.NewPostRepository()
	postRepo.Seed(
		&models.Post{ID: 1, Author: "ana", Content: "first", CreatedAt: "2024-01-01T10:00:00.000Z", Likes: 2},
		&models.Post{ID: 2, Author: "bo", Content: "second", CreatedAt: "2024-01-02T10:00:00.000Z"},
	)
	likedRepo := mock.NewLikedRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	feed := services.NewFeedService(postRepo, likedRepo, services.WithLogger(logger), services.WithClock(clock))
	require.NoError(t, feed.Load(context.Background()))
	t.Cleanup(func() { feed.Close() })

	return NewFeedController(feed, logger), feed, postRepo, likedRepo
}

func setupRouter(controller *FeedController) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/feed", controller.Index).Methods("GET")
	router.HandleFunc("/feed/reload", controller.Reload).Methods("POST")
	router.HandleFunc("/posts", controller.Create).Methods("POST")
	router.HandleFunc("/posts/{id:-?[0-9]+}", controller.Edit).Methods("PUT")
	router.HandleFunc("/posts/{id:-?[0-9]+}", controller.Delete).Methods("DELETE")
	router.HandleFunc("/posts/{id:-?[0-9]+}/like", controller.Like).Methods("POST")
	router.HandleFunc("/posts/{id:-?[0-9]+}/comments", controller.Comment).Methods("POST")
	return router
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) services.Snapshot {
	t.Helper()
	var snap services.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestFeedControllerIndex(t *testing.T) {
	controller, _, _, _ := setupTestFeedController(t)
	router := setupRouter(controller)

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	tag := w.Header().Get("ETag")
	require.NotEmpty(t, tag)

	snap := decodeSnapshot(t, w)
	require.Len(t, snap.Posts, 2)
	assert.Equal(t, 2, snap.Posts[0].ID)
	assert.Equal(t, 1, snap.Posts[1].ID)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.LikedPosts)

	t.Run("unchanged feed is not modified", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/feed", nil)
		req.Header.Set("If-None-Match", tag)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotModified, w.Code)
		assert.Empty(t, w.Body.Bytes())
	})

	t.Run("like changes the tag", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts/1/like", nil))
		require.Equal(t, http.StatusOK, w.Code)

		req := httptest.NewRequest(http.MethodGet, "/feed", nil)
		req.Header.Set("If-None-Match", tag)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEqual(t, tag, w.Header().Get("ETag"))
		snap := decodeSnapshot(t, w)
		assert.Equal(t, []int{1}, snap.LikedPosts)
		assert.True(t, snap.Posts[1].Liked)
	})
}

func TestFeedControllerReload(t *testing.T) {
	controller, _, postRepo, _ := setupTestFeedController(t)
	router := setupRouter(controller)

	t.Run("picks up server changes", func(t *testing.T) {
		postRepo.Seed(&models.Post{ID: 3, Author: "cy", Content: "third", CreatedAt: "2024-01-03T10:00:00.000Z"})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/feed/reload", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		snap := decodeSnapshot(t, w)
		require.Len(t, snap.Posts, 3)
		assert.Equal(t, 3, snap.Posts[0].ID)
	})

	t.Run("store failure", func(t *testing.T) {
		postRepo.ListErr = &repositories.StatusError{Method: "GET", Path: "/posts", StatusCode: 500}
		defer func() { postRepo.ListErr = nil }()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/feed/reload", nil))

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, decodeError(t, w), "Failed to load posts")
	})
}

func TestFeedControllerCreate(t *testing.T) {
	tests := []struct {
		name       string
		body       func() (io.Reader, string)
		wantStatus int
		check      func(t *testing.T, postRepo *mock.PostRepository)
	}{
		{
			name: "json with media url",
			body: func() (io.Reader, string) {
				return strings.NewReader(`{"author":"dee","content":"hello","mediaUrl":"https://img.example/a.png"}`), "application/json"
			},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, postRepo *mock.PostRepository) {
				require.Len(t, postRepo.Created, 1)
				assert.Equal(t, "dee", postRepo.Created[0].Author)
				assert.Equal(t, "https://img.example/a.png", postRepo.Created[0].Media.URL)
			},
		},
		{
			name: "multipart with image",
			body: func() (io.Reader, string) {
				var buf bytes.Buffer
				mw := multipart.NewWriter(&buf)
				mw.WriteField("author", "eve")
				mw.WriteField("content", "look")
				fw, _ := mw.CreateFormFile("media", "pic.png")
				fw.Write(pngHeader)
				mw.Close()
				return &buf, mw.FormDataContentType()
			},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, postRepo *mock.PostRepository) {
				require.Len(t, postRepo.Created, 1)
				media := postRepo.Created[0].Media
				assert.True(t, media.IsFile())
				assert.Equal(t, "pic.png", media.Filename)
				assert.Equal(t, pngHeader, media.Data)
			},
		},
		{
			name: "multipart without media",
			body: func() (io.Reader, string) {
				var buf bytes.Buffer
				mw := multipart.NewWriter(&buf)
				mw.WriteField("author", "fay")
				mw.WriteField("content", "plain")
				mw.WriteField("mediaUrl", "https://img.example/b.jpg")
				mw.Close()
				return &buf, mw.FormDataContentType()
			},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, postRepo *mock.PostRepository) {
				require.Len(t, postRepo.Created, 1)
				assert.False(t, postRepo.Created[0].Media.IsFile())
				assert.Equal(t, "https://img.example/b.jpg", postRepo.Created[0].Media.URL)
			},
		},
		{
			name: "multipart with non-image file",
			body: func() (io.Reader, string) {
				var buf bytes.Buffer
				mw := multipart.NewWriter(&buf)
				mw.WriteField("author", "gus")
				mw.WriteField("content", "notes")
				fw, _ := mw.CreateFormFile("media", "notes.txt")
				fw.Write([]byte("just some text"))
				mw.Close()
				return &buf, mw.FormDataContentType()
			},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, postRepo *mock.PostRepository) {
				assert.Zero(t, postRepo.CallCount("Create"))
			},
		},
		{
			name: "missing author",
			body: func() (io.Reader, string) {
				return strings.NewReader(`{"content":"hello"}`), "application/json"
			},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, postRepo *mock.PostRepository) {
				assert.Zero(t, postRepo.CallCount("Create"))
			},
		},
		{
			name: "malformed json",
			body: func() (io.Reader, string) {
				return strings.NewReader(`{"author":`), "application/json"
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller, _, postRepo, _ := setupTestFeedController(t)
			router := setupRouter(controller)

			body, contentType := tt.body()
			req := httptest.NewRequest(http.MethodPost, "/posts", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusCreated {
				snap := decodeSnapshot(t, w)
				assert.Len(t, snap.Posts, 3)
			}
			if tt.check != nil {
				tt.check(t, postRepo)
			}
		})
	}

	t.Run("store rejects", func(t *testing.T) {
		controller, _, postRepo, _ := setupTestFeedController(t)
		router := setupRouter(controller)
		postRepo.CreateErr = &repositories.StatusError{Method: "POST", Path: "/posts", StatusCode: 500}

		req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(`{"author":"a","content":"b"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, decodeError(t, w), "Failed to create post")
	})
}

func TestFeedControllerEdit(t *testing.T) {
	controller, feed, _, _ := setupTestFeedController(t)
	router := setupRouter(controller)

	t.Run("edit post", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/posts/1", strings.NewReader(`{"author":"ana","content":"edited"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		post, ok := feed.Post(1)
		require.True(t, ok)
		assert.Equal(t, "edited", post.Content)
	})

	t.Run("missing content", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/posts/1", strings.NewReader(`{"author":"ana"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown post", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/posts/99", strings.NewReader(`{"author":"x","content":"y"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestFeedControllerDelete(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCalls  int
	}{
		{name: "existing post", path: "/posts/1", wantStatus: http.StatusNoContent, wantCalls: 1},
		{name: "unknown post", path: "/posts/99", wantStatus: http.StatusNotFound, wantCalls: 1},
		{name: "zero id", path: "/posts/0", wantStatus: http.StatusBadRequest, wantCalls: 0},
		{name: "negative id", path: "/posts/-1", wantStatus: http.StatusBadRequest, wantCalls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller, _, postRepo, _ := setupTestFeedController(t)
			router := setupRouter(controller)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, tt.path, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalls, postRepo.CallCount("Delete"))
		})
	}
}

func TestFeedControllerLike(t *testing.T) {
	controller, _, _, likedRepo := setupTestFeedController(t)
	router := setupRouter(controller)

	like := func() likeResponse {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts/1/like", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var resp likeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	assert.Equal(t, likeResponse{ID: 1, Liked: true, Likes: 3}, like())
	assert.Equal(t, []int{1}, likedRepo.Stored())
	assert.Equal(t, likeResponse{ID: 1, Liked: false, Likes: 2}, like())
	assert.Empty(t, likedRepo.Stored())
}

func TestFeedControllerComment(t *testing.T) {
	controller, feed, _, _ := setupTestFeedController(t)
	router := setupRouter(controller)

	t.Run("add comment", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts/2/comments", strings.NewReader(`{"text":"nice"}`)))

		assert.Equal(t, http.StatusCreated, w.Code)
		var comment models.Comment
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comment))
		assert.Equal(t, "nice", comment.Text)
		assert.Equal(t, models.CommentAuthor, comment.Author)

		post, ok := feed.Post(2)
		require.True(t, ok)
		require.Len(t, post.Comments, 1)
		assert.Equal(t, "nice", post.Comments[0].Text)
	})

	t.Run("blank text", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts/2/comments", strings.NewReader(`{"text":"   "}`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown post", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts/42/comments", strings.NewReader(`{"text":"hi"}`)))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMatchesETag(t *testing.T) {
	tag := etag([]byte("body"))

	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{tag, true},
		{"W/" + tag, true},
		{`"other", ` + tag, true},
		{"*", true},
		{`"other"`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchesETag(tt.header, tag), "header %q", tt.header)
	}
	assert.NotEqual(t, tag, etag([]byte("body2")))
}
