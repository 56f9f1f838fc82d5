package repositories

import (
	"context"
	"time"

	"feedsync/app/models"
)

// PostRepository defines the interface for the remote post store
type PostRepository interface {
	List(ctx context.Context) ([]*models.Post, error)
	Create(ctx context.Context, post *models.NewPost, createdAt time.Time) (*models.Post, error)
	Update(ctx context.Context, id int, update *models.PostUpdate) (*models.Post, error)
	Delete(ctx context.Context, id int) error
}

// LikedRepository defines the interface for liked-set persistence. Load is
// read once at startup; Save overwrites the stored set.
type LikedRepository interface {
	Load() ([]int, error)
	Save(ids []int) error
	Close() error
}
