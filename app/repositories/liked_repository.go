package repositories

import (
	"errors"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// LikedPostsKey holds the JSON-encoded liked-set.
const LikedPostsKey = "likedPosts"

var errClosed = errors.New("liked repository is closed")

// BadgerLikedRepository implements LikedRepository using BadgerDB
type BadgerLikedRepository struct {
	db     *badger.DB
	owned  bool
	mutex  sync.Mutex
	closed bool
}

// OpenLikedRepository opens a database at path and owns it: Close releases
// the database. An empty path keeps everything in memory.
func OpenLikedRepository(path string) (*BadgerLikedRepository, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	return &BadgerLikedRepository{db: db, owned: true}, nil
}

// NewBadgerLikedRepository wraps a database owned by the caller. Close does
// not close db.
func NewBadgerLikedRepository(db *badger.DB) *BadgerLikedRepository {
	return &BadgerLikedRepository{db: db}
}

// Load returns the stored ids. A missing key reads as an empty set.
func (r *BadgerLikedRepository) Load() ([]int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.closed {
		return nil, errClosed
	}

	var ids []int
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(LikedPostsKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return unmarshalEntity(val, &ids)
		})
	})
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int{}
	}
	return ids, nil
}

// Save overwrites the stored set with ids.
func (r *BadgerLikedRepository) Save(ids []int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.closed {
		return errClosed
	}

	if ids == nil {
		ids = []int{}
	}
	data, err := marshalEntity(ids)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(LikedPostsKey), data)
	})
}

// Close releases the database if the repository owns it. Calling Close
// more than once is a no-op.
func (r *BadgerLikedRepository) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if !r.owned {
		return nil
	}
	return r.db.Close()
}
