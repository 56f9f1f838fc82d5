package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// MaxMediaBytes caps uploaded images at 5 MiB.
const MaxMediaBytes = 5 << 20

var (
	ErrInvalidMedia  = errors.New("media must be an image")
	ErrMediaTooLarge = errors.New("media too large")
)

// Media is the image attached to a new post: either a URL or a binary
// payload. When both are set the payload wins.
type Media struct {
	URL      string
	Data     []byte
	Filename string
}

// IsFile reports whether the media carries a binary payload.
func (m Media) IsFile() bool {
	return len(m.Data) > 0
}

// RemoteURL returns the URL if it is one the remote store accepts. Only
// strings starting with "http" qualify; anything else (data URLs, relative
// paths) is not submitted.
func (m Media) RemoteURL() (string, bool) {
	if m.IsFile() || !strings.HasPrefix(m.URL, "http") {
		return "", false
	}
	return m.URL, true
}

// Inspect checks a binary payload and returns its detected MIME type.
func (m Media) Inspect() (*mimetype.MIME, error) {
	if len(m.Data) > MaxMediaBytes {
		return nil, fmt.Errorf("%w: %s exceeds %s", ErrMediaTooLarge,
			humanize.IBytes(uint64(len(m.Data))), humanize.IBytes(MaxMediaBytes))
	}
	mtype := mimetype.Detect(m.Data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrInvalidMedia, mtype.String())
	}
	return mtype, nil
}

// FileName returns Filename, or a name derived from the detected type.
func (m Media) FileName(mtype *mimetype.MIME) string {
	if m.Filename != "" {
		return m.Filename
	}
	return "upload" + mtype.Extension()
}
