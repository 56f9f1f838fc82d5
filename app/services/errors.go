package services

import "errors"

var (
	ErrInvalidID      = errors.New("invalid post id")
	ErrInvalidPost    = errors.New("invalid post")
	ErrInvalidComment = errors.New("invalid comment")
	ErrPostNotFound   = errors.New("post not found")
)
