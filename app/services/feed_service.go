package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"feedsync/app/models"
	"feedsync/app/repositories"
)

// FeedService owns the in-memory post list and the liked-set and keeps them
// in step with the remote post store. Create, Edit and Delete wait for the
// store and then reload the whole list; likes and comments are applied
// locally only and are overwritten by the next reload.
//
// A FeedService is safe for concurrent use. Network calls are made without
// holding the state lock, so the last Load to complete wins.
type FeedService struct {
	posts repositories.PostRepository
	liked repositories.LikedRepository
	log   *slog.Logger
	now   func() time.Time

	mutex    sync.RWMutex
	feed     []*models.Post
	likedSet *models.LikedSet
	inflight int
	loaded   bool
}

// Option configures a FeedService.
type Option func(*FeedService)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *FeedService) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source used for createdAt and comment ids.
func WithClock(now func() time.Time) Option {
	return func(s *FeedService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewFeedService creates a FeedService and reads the persisted liked-set.
// A liked-set that cannot be read is logged and treated as empty.
func NewFeedService(posts repositories.PostRepository, liked repositories.LikedRepository, opts ...Option) *FeedService {
	s := &FeedService{
		posts: posts,
		liked: liked,
		log:   slog.Default(),
		now:   time.Now,
		feed:  []*models.Post{},
	}
	for _, opt := range opts {
		opt(s)
	}

	ids, err := liked.Load()
	if err != nil {
		s.log.Error("failed to read liked posts, starting empty", "error", err)
		ids = nil
	}
	s.likedSet = models.NewLikedSet(ids)
	return s
}

// Close releases the liked-set storage.
func (s *FeedService) Close() error {
	return s.liked.Close()
}

// Load fetches the full post list and replaces the in-memory copy, newest
// first. On a transport, status or decode failure the previous list is
// kept. A response that is valid JSON but not an array becomes an empty
// list.
func (s *FeedService) Load(ctx context.Context) error {
	s.beginLoad()
	defer s.endLoad()

	posts, err := s.posts.List(ctx)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotSequence) {
			s.log.Error("failed to load posts", errorAttrs(err)...)
			return fmt.Errorf("load posts: %w", err)
		}
		s.log.Warn("post store did not return a list, showing none", "error", err)
		posts = []*models.Post{}
	}

	models.SortNewestFirst(posts)

	s.mutex.Lock()
	s.feed = posts
	s.mutex.Unlock()

	s.log.Debug("posts loaded", "count", len(posts))
	return nil
}

// Create submits a new post and, once the store accepts it, reloads the
// list. Nothing is inserted locally.
func (s *FeedService) Create(ctx context.Context, post *models.NewPost) error {
	if err := post.Validate(); err != nil {
		s.log.Warn("rejected new post", "error", err)
		return fmt.Errorf("%w: %w", ErrInvalidPost, err)
	}

	created, err := s.posts.Create(ctx, post, s.now())
	if err != nil {
		s.log.Error("failed to create post", errorAttrs(err)...)
		return fmt.Errorf("create post: %w", err)
	}
	s.log.Info("post created", "id", created.ID, "author", created.Author)

	s.reload(ctx, "create")
	return nil
}

// Delete removes a post on the store and reloads the list. A non-positive
// id is rejected without contacting the store.
func (s *FeedService) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		s.log.Warn("refusing to delete post", "id", id)
		return fmt.Errorf("delete post %d: %w", id, ErrInvalidID)
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		s.log.Error("failed to delete post", append(errorAttrs(err), "id", id)...)
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	s.log.Info("post deleted", "id", id)

	s.reload(ctx, "delete")
	return nil
}

// Edit sends the updated author, content and media URL to the store and
// reloads the list.
func (s *FeedService) Edit(ctx context.Context, id int, update *models.PostUpdate) error {
	if id <= 0 {
		s.log.Warn("refusing to edit post", "id", id)
		return fmt.Errorf("edit post %d: %w", id, ErrInvalidID)
	}
	if err := update.Validate(); err != nil {
		s.log.Warn("rejected post update", "id", id, "error", err)
		return fmt.Errorf("%w: %w", ErrInvalidPost, err)
	}

	if _, err := s.posts.Update(ctx, id, update); err != nil {
		s.log.Error("failed to edit post", append(errorAttrs(err), "id", id)...)
		return fmt.Errorf("edit post %d: %w", id, err)
	}
	s.log.Info("post edited", "id", id)

	s.reload(ctx, "edit")
	return nil
}

// ToggleLike flips the local like on id. Liking adds one to the post's
// count; unliking subtracts one, stopping at zero. The store is not told.
// The liked-set is saved after every change; a failed save is logged and
// not rolled back. The set is toggled even if id is not in the list.
func (s *FeedService) ToggleLike(id int) (liked bool, likes int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	post := s.find(id)
	if s.likedSet.Contains(id) {
		if post != nil {
			post.Unlike()
		}
		s.likedSet.Remove(id)
	} else {
		if post != nil {
			post.Like()
		}
		s.likedSet.Add(id)
		liked = true
	}
	if post != nil {
		likes = post.Likes
	}

	s.saveLiked()
	return liked, likes
}

// AddComment appends a comment authored by models.CommentAuthor to the
// post with id. Comments stay local.
func (s *FeedService) AddComment(id int, text string) (*models.Comment, error) {
	comment, err := models.NewComment(text, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidComment, err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	post := s.find(id)
	if post == nil {
		return nil, fmt.Errorf("comment on post %d: %w", id, ErrPostNotFound)
	}
	if err := post.AddComment(comment); err != nil {
		return nil, err
	}

	out := *comment
	return &out, nil
}

// Posts returns a copy of the current list, newest first.
func (s *FeedService) Posts() []*models.Post {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]*models.Post, len(s.feed))
	for i, p := range s.feed {
		out[i] = p.Clone()
	}
	return out
}

// Post returns a copy of the post with id.
func (s *FeedService) Post(id int) (*models.Post, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	post := s.find(id)
	if post == nil {
		return nil, false
	}
	return post.Clone(), true
}

func (s *FeedService) IsLiked(id int) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.likedSet.Contains(id)
}

func (s *FeedService) LikedIDs() []int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.likedSet.IDs()
}

// Loading reports whether a Load is in flight, or none has finished yet.
func (s *FeedService) Loading() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.loading()
}

// Snapshot returns a consistent copy of everything a view needs.
func (s *FeedService) Snapshot() Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	snap := Snapshot{
		Posts:      make([]FeedEntry, len(s.feed)),
		LikedPosts: s.likedSet.IDs(),
		Loading:    s.loading(),
	}
	for i, p := range s.feed {
		snap.Posts[i] = FeedEntry{Post: p.Clone(), Liked: s.likedSet.Contains(p.ID)}
	}
	return snap
}

func (s *FeedService) loading() bool {
	return s.inflight > 0 || !s.loaded
}

func (s *FeedService) beginLoad() {
	s.mutex.Lock()
	s.inflight++
	s.mutex.Unlock()
}

func (s *FeedService) endLoad() {
	s.mutex.Lock()
	s.inflight--
	s.loaded = true
	s.mutex.Unlock()
}

// reload resynchronizes after a successful mutation. A failed reload is
// already logged by Load and leaves the previous list in place.
func (s *FeedService) reload(ctx context.Context, after string) {
	if err := s.Load(ctx); err != nil {
		s.log.Warn("list is stale after "+after, "error", err)
	}
}

// saveLiked persists the liked-set. Callers hold s.mutex.
func (s *FeedService) saveLiked() {
	if err := s.liked.Save(s.likedSet.IDs()); err != nil {
		s.log.Error("failed to save liked posts", "error", err)
	}
}

// find returns the live post with id. Callers hold s.mutex.
func (s *FeedService) find(id int) *models.Post {
	for _, p := range s.feed {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// errorAttrs adds the status and body of a store rejection to the log line.
func errorAttrs(err error) []any {
	attrs := []any{"error", err}
	var statusErr *repositories.StatusError
	if errors.As(err, &statusErr) {
		attrs = append(attrs, "status", statusErr.StatusCode, "body", statusErr.Body)
	}
	return attrs
}
