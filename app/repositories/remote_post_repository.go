package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"feedsync/app/models"
)

// maxErrorBody bounds how much of a failed response is kept for logging.
const maxErrorBody = 4 << 10

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// RemotePostRepository implements PostRepository against the remote HTTP
// post store.
type RemotePostRepository struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// NewRemotePostRepository creates a client for the store at baseURL. A nil
// client gets one without a timeout; a nil logger uses slog.Default().
func NewRemotePostRepository(baseURL string, client *http.Client, logger *slog.Logger) *RemotePostRepository {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RemotePostRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     logger,
	}
}

// List fetches the full post collection. A well-formed body that is not a
// JSON array yields ErrNotSequence.
func (r *RemotePostRepository) List(ctx context.Context) ([]*models.Post, error) {
	resp, err := r.do(ctx, http.MethodGet, "/posts", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read posts: %w", err)
	}
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, fmt.Errorf("decode posts: malformed JSON (%d bytes)", len(body))
	}
	if body[0] != '[' {
		return nil, fmt.Errorf("decode posts: %w", ErrNotSequence)
	}

	var posts []*models.Post
	if err := unmarshalEntity(body, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}

	out := posts[:0]
	for _, p := range posts {
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

// Create submits post as a multipart form. createdAt and an initial like
// count of zero are sent alongside the user fields.
func (r *RemotePostRepository) Create(ctx context.Context, post *models.NewPost, createdAt time.Time) (*models.Post, error) {
	body, contentType, err := r.encodeNewPost(post, createdAt)
	if err != nil {
		return nil, err
	}

	resp, err := r.do(ctx, http.MethodPost, "/posts", body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var created models.Post
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode created post: %w", err)
	}
	return &created, nil
}

// Update sends update as JSON. The store's reply is decoded when it is a
// post; an empty or unexpected reply still counts as success.
func (r *RemotePostRepository) Update(ctx context.Context, id int, update *models.PostUpdate) (*models.Post, error) {
	data, err := marshalEntity(update)
	if err != nil {
		return nil, err
	}

	resp, err := r.do(ctx, http.MethodPut, fmt.Sprintf("/posts/%d", id), bytes.NewReader(data), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var updated models.Post
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		r.log.Debug("update reply is not a post", "id", id, "error", err)
		return nil, nil
	}
	return &updated, nil
}

// Delete removes the post with id.
func (r *RemotePostRepository) Delete(ctx context.Context, id int) error {
	resp, err := r.do(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d", id), nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// do sends a request and turns transport failures and non-2xx statuses
// into errors. On success the caller owns resp.Body.
func (r *RemotePostRepository) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	r.log.Debug("remote store call", "method", method, "path", path, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(msg),
		}
	}
	return resp, nil
}

func (r *RemotePostRepository) encodeNewPost(post *models.NewPost, createdAt time.Time) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("author", post.Author); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("content", post.Content); err != nil {
		return nil, "", err
	}

	switch {
	case post.Media.IsFile():
		mtype, err := post.Media.Inspect()
		if err != nil {
			return nil, "", err
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="media"; filename="%s"`,
			quoteEscaper.Replace(post.Media.FileName(mtype))))
		h.Set("Content-Type", mtype.String())
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(post.Media.Data); err != nil {
			return nil, "", err
		}
	default:
		if u, ok := post.Media.RemoteURL(); ok {
			if err := w.WriteField("mediaUrl", u); err != nil {
				return nil, "", err
			}
		} else if post.Media.URL != "" {
			r.log.Debug("media is not an http url, not submitted", "length", len(post.Media.URL))
		}
	}

	if err := w.WriteField("createdAt", models.FormatTimestamp(createdAt)); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("likes", "0"); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
