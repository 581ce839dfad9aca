// Package model defines core data structures and types for the blog application.
package model

import (
	"slices"
	"time"
)

type PostID string

// Post is the durable unit of content. The JSON layout is also the remote file format.
type Post struct {
	ID PostID `json:"id"`

	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Incremented by exactly one on every local save. Starts at 1.
	Version int `json:"version"`

	// Time of the most recent successful remote push, nil when never synced.
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
}

// Clone returns a deep copy so callers can't mutate the owner's tags or timestamps.
func (p Post) Clone() Post {
	dup := p
	dup.Tags = slices.Clone(p.Tags)
	if p.LastSyncedAt != nil {
		t := *p.LastSyncedAt
		dup.LastSyncedAt = &t
	}
	return dup
}

func ClonePosts(posts []Post) []Post {
	if posts == nil {
		return nil
	}
	dup := make([]Post, len(posts))
	for i := range posts {
		dup[i] = posts[i].Clone()
	}
	return dup
}
