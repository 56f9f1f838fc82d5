package services

import "feedsync/app/models"

// FeedEntry is a post together with the local liked flag.
type FeedEntry struct {
	*models.Post
	Liked bool `json:"liked"`
}

// Snapshot is a point-in-time copy of the feed state.
type Snapshot struct {
	Posts      []FeedEntry `json:"posts"`
	LikedPosts []int       `json:"likedPosts"`
	Loading    bool        `json:"loading"`
}
