package models

import (
	"errors"
	"strings"
	"time"
)

// NewComment builds a comment authored by CommentAuthor. The id is the
// millisecond timestamp of now, so two comments created in the same
// millisecond share an id.
func NewComment(text string, now time.Time) (*Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("comment text cannot be blank")
	}
	return &Comment{
		ID:     now.UnixMilli(),
		Text:   text,
		Author: CommentAuthor,
	}, nil
}
