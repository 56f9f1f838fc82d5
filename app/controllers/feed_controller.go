package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"feedsync/app/models"
	"feedsync/app/repositories"
	"feedsync/app/services"

	"github.com/gorilla/mux"
)

// maxFormMemory bounds the multipart form kept in memory; the image limit
// plus room for the text fields.
const maxFormMemory = models.MaxMediaBytes + 1<<20

// FeedController exposes the feed service over a local JSON API
type FeedController struct {
	feed *services.FeedService
	log  *slog.Logger
}

// NewFeedController creates a new FeedController
func NewFeedController(feed *services.FeedService, logger *slog.Logger) *FeedController {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedController{feed: feed, log: logger}
}

type createPostRequest struct {
	Author   string `json:"author"`
	Content  string `json:"content"`
	MediaURL string `json:"mediaUrl"`
}

type commentRequest struct {
	Text string `json:"text"`
}

type likeResponse struct {
	ID    int  `json:"id"`
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// Index returns the current feed snapshot. The ETag is a digest of the
// body, so an unchanged feed answers If-None-Match with 304.
func (fc *FeedController) Index(w http.ResponseWriter, r *http.Request) {
	fc.sendSnapshot(w, r, http.StatusOK)
}

// Reload resynchronizes with the remote store and returns the snapshot.
func (fc *FeedController) Reload(w http.ResponseWriter, r *http.Request) {
	if err := fc.feed.Load(r.Context()); err != nil {
		fc.sendError(w, "Failed to load posts: "+err.Error(), statusFor(err))
		return
	}
	fc.sendSnapshot(w, r, http.StatusOK)
}

// Create accepts either a multipart form (author, content and a media file
// or mediaUrl) or a JSON body.
func (fc *FeedController) Create(w http.ResponseWriter, r *http.Request) {
	post, err := fc.parseNewPost(r)
	if err != nil {
		fc.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := fc.feed.Create(r.Context(), post); err != nil {
		fc.sendError(w, "Failed to create post: "+err.Error(), statusFor(err))
		return
	}
	fc.sendSnapshot(w, r, http.StatusCreated)
}

// Edit handles updating an existing post
func (fc *FeedController) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := fc.postID(w, r)
	if !ok {
		return
	}

	var update models.PostUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		fc.sendError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := fc.feed.Edit(r.Context(), id, &update); err != nil {
		fc.sendError(w, "Failed to update post: "+err.Error(), statusFor(err))
		return
	}
	fc.sendSnapshot(w, r, http.StatusOK)
}

// Delete handles deleting a post
func (fc *FeedController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := fc.postID(w, r)
	if !ok {
		return
	}

	if err := fc.feed.Delete(r.Context(), id); err != nil {
		fc.sendError(w, "Failed to delete post: "+err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Like toggles the local like on a post.
func (fc *FeedController) Like(w http.ResponseWriter, r *http.Request) {
	id, ok := fc.postID(w, r)
	if !ok {
		return
	}

	liked, likes := fc.feed.ToggleLike(id)
	fc.sendJSON(w, http.StatusOK, likeResponse{ID: id, Liked: liked, Likes: likes})
}

// Comment appends a local comment to a post.
func (fc *FeedController) Comment(w http.ResponseWriter, r *http.Request) {
	id, ok := fc.postID(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fc.sendError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	comment, err := fc.feed.AddComment(id, req.Text)
	if err != nil {
		fc.sendError(w, "Failed to add comment: "+err.Error(), statusFor(err))
		return
	}
	fc.sendJSON(w, http.StatusCreated, comment)
}

func (fc *FeedController) parseNewPost(r *http.Request) (*models.NewPost, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req createPostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("Invalid JSON: %w", err)
		}
		return &models.NewPost{
			Author:  req.Author,
			Content: req.Content,
			Media:   models.Media{URL: req.MediaURL},
		}, nil
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, fmt.Errorf("Failed to parse form: %w", err)
	}
	post := &models.NewPost{
		Author:  r.FormValue("author"),
		Content: r.FormValue("content"),
		Media:   models.Media{URL: r.FormValue("mediaUrl")},
	}

	file, header, err := r.FormFile("media")
	if errors.Is(err, http.ErrMissingFile) {
		return post, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Failed to read media: %w", err)
	}
	defer file.Close()

	// One byte over the limit is enough for validation to reject it.
	data, err := io.ReadAll(io.LimitReader(file, models.MaxMediaBytes+1))
	if err != nil {
		return nil, fmt.Errorf("Failed to read media: %w", err)
	}
	post.Media.Data = data
	post.Media.Filename = header.Filename
	return post, nil
}

func (fc *FeedController) postID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		fc.sendError(w, "Invalid post ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// statusFor maps feed errors onto HTTP statuses. Anything not caused by
// the request is a failure of the remote store.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidID),
		errors.Is(err, services.ErrInvalidPost),
		errors.Is(err, services.ErrInvalidComment):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrPostNotFound),
		errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// Helper methods for consistent response handling

func (fc *FeedController) sendSnapshot(w http.ResponseWriter, r *http.Request, status int) {
	body, err := json.Marshal(fc.feed.Snapshot())
	if err != nil {
		fc.sendError(w, "Failed to encode feed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	tag := etag(body)
	w.Header().Set("ETag", tag)
	if status == http.StatusOK && r.Method == http.MethodGet && matchesETag(r.Header.Get("If-None-Match"), tag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func (fc *FeedController) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		fc.log.Error("failed to write response", "error", err)
	}
}

func (fc *FeedController) sendError(w http.ResponseWriter, message string, status int) {
	fc.log.Debug("request failed", "status", status, "message", message)
	fc.sendJSON(w, status, map[string]string{"error": message})
}
