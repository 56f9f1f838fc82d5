package models

import (
	"errors"
	"sort"
	"time"
)

// TimestampLayout matches the ISO-8601 form browsers produce with
// Date.prototype.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// createdLayouts are tried in order by CreatedTime. Forms without a zone
// are read as UTC.
var createdLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// CreatedTime parses CreatedAt as ISO-8601. An unparseable value yields
// the zero time.
func (p *Post) CreatedTime() time.Time {
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, p.CreatedAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

// AddComment appends a comment to the post
func (p *Post) AddComment(comment *Comment) error {
	if comment == nil {
		return errors.New("comment cannot be nil")
	}

	p.Comments = append(p.Comments, comment)
	return nil
}

// Like increments the like count.
func (p *Post) Like() {
	p.Likes++
}

// Unlike decrements the like count, never going below zero.
func (p *Post) Unlike() {
	if p.Likes > 0 {
		p.Likes--
		return
	}
	p.Likes = 0
}

// Clone returns a deep copy of the post.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	c := *p
	if p.Comments != nil {
		c.Comments = make([]*Comment, len(p.Comments))
		for i, comment := range p.Comments {
			cc := *comment
			c.Comments[i] = &cc
		}
	}
	return &c
}

// SortNewestFirst orders posts by creation time, newest first. Posts
// with equal (or unparseable) timestamps keep their relative order.
func SortNewestFirst(posts []*Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedTime().After(posts[j].CreatedTime())
	})
}
