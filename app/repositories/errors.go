package repositories

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrNotSequence = errors.New("response is not a sequence")
)

// StatusError reports a non-2xx response from the remote post store.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is lets errors.Is(err, ErrNotFound) match a 404.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}
