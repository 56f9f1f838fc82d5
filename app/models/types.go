package models

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// CommentAuthor is the placeholder identity every local comment is written under.
const CommentAuthor = "USER"

// Post represents a feed entry as served by the remote post store.
type Post struct {
	ID        int        `json:"id"`
	Author    string     `json:"author"`
	Content   string     `json:"content"`
	MediaURL  string     `json:"mediaUrl,omitempty"`
	CreatedAt string     `json:"createdAt"`
	Likes     int        `json:"likes"`
	Comments  []*Comment `json:"comments,omitempty"`
}

// Comment represents a locally added reply on a post. Comments never
// leave the client.
type Comment struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Author string `json:"author"`
}

// NewPost is the payload used to create a post.
type NewPost struct {
	Author  string `validate:"required,max=100"`
	Content string `validate:"required"`
	Media   Media  `validate:"-"`
}

// PostUpdate is the structured body sent when editing a post.
type PostUpdate struct {
	Author   string `json:"author" validate:"required,max=100"`
	Content  string `json:"content" validate:"required"`
	MediaURL string `json:"mediaUrl"`
}
