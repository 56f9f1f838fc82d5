package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"feedsync/app/models"
	"feedsync/app/repositories"
)

// PostRepository is an in-memory stand-in for the remote post store. Set
// the *Err fields to make the matching call fail.
type PostRepository struct {
	posts  map[int]*models.Post
	nextID int
	mutex  sync.RWMutex

	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error

	// ListHook, when set, runs at the start of List and may replace its result.
	ListHook func() ([]*models.Post, error)

	Calls   map[string]int
	Created []*models.NewPost
}

func NewPostRepository() *PostRepository {
	return &PostRepository{
		posts:  make(map[int]*models.Post),
		nextID: 1,
		Calls:  make(map[string]int),
	}
}

// Seed stores posts as if the server already had them.
func (m *PostRepository) Seed(posts ...*models.Post) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, p := range posts {
		m.posts[p.ID] = p.Clone()
		if p.ID >= m.nextID {
			m.nextID = p.ID + 1
		}
	}
}

func (m *PostRepository) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = make(map[int]*models.Post)
	m.nextID = 1
}

// CallCount returns how many times method was invoked.
func (m *PostRepository) CallCount(method string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.Calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (m *PostRepository) TotalCalls() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	total := 0
	for _, n := range m.Calls {
		total += n
	}
	return total
}

// PostRepository implementation
func (m *PostRepository) List(ctx context.Context) ([]*models.Post, error) {
	m.mutex.Lock()
	m.Calls["List"]++
	hook := m.ListHook
	m.mutex.Unlock()

	if hook != nil {
		return hook()
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var posts []*models.Post
	for _, post := range m.posts {
		posts = append(posts, post.Clone())
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].ID < posts[j].ID
	})
	return posts, nil
}

func (m *PostRepository) Create(ctx context.Context, post *models.NewPost, createdAt time.Time) (*models.Post, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Calls["Create"]++
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}

	m.Created = append(m.Created, post)
	mediaURL, _ := post.Media.RemoteURL()
	created := &models.Post{
		ID:        m.nextID,
		Author:    post.Author,
		Content:   post.Content,
		MediaURL:  mediaURL,
		CreatedAt: models.FormatTimestamp(createdAt),
	}
	m.nextID++
	m.posts[created.ID] = created
	return created.Clone(), nil
}

func (m *PostRepository) Update(ctx context.Context, id int, update *models.PostUpdate) (*models.Post, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Calls["Update"]++
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}

	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	post.Author = update.Author
	post.Content = update.Content
	post.MediaURL = update.MediaURL
	return post.Clone(), nil
}

func (m *PostRepository) Delete(ctx context.Context, id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Calls["Delete"]++
	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	if _, exists := m.posts[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

// LikedRepository keeps the liked-set in memory.
type LikedRepository struct {
	ids    []int
	mutex  sync.Mutex
	closed bool

	LoadErr error
	SaveErr error
	Saves   int
}

func NewLikedRepository(ids ...int) *LikedRepository {
	return &LikedRepository{ids: ids}
}

func (m *LikedRepository) Load() ([]int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return append([]int{}, m.ids...), nil
}

func (m *LikedRepository) Save(ids []int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.ids = append([]int{}, ids...)
	return nil
}

// Stored returns what the last successful Save wrote.
func (m *LikedRepository) Stored() []int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]int{}, m.ids...)
}

func (m *LikedRepository) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.closed = true
	return nil
}

func (m *LikedRepository) Closed() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.closed
}

var (
	_ repositories.PostRepository  = (*PostRepository)(nil)
	_ repositories.LikedRepository = (*LikedRepository)(nil)
)
