// Package repository persists the post collection, settings and editor draft
// as three independent records in a key/value backend.
package repository

import (
	"errors"

	"github.com/debemdeboas/zenblog/internal/model"
	"github.com/rs/zerolog"
)

var repoLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

// Record keys. They match the keys used by the browser build of the app so
// exported stores stay interchangeable.
const (
	KeyPosts    = "zenblog_posts"
	KeySettings = "zenblog_settings"
	KeyDraft    = "zenblog_editor_draft"
)

// ErrNoRecord is returned by a Backend when a key has never been written.
var ErrNoRecord = errors.New("record not found")

type Repository interface {
	// LoadPosts returns the stored collection in stored order, or an empty
	// collection when nothing usable is stored.
	LoadPosts() ([]model.Post, error)
	// SavePosts replaces the whole collection. On error the previous
	// collection is still what LoadPosts returns.
	SavePosts(posts []model.Post) error

	LoadSettings() (model.Settings, error)
	SaveSettings(s model.Settings) error

	// LoadDraft returns nil when no draft is stored.
	LoadDraft() (*model.EditorDraft, error)
	SaveDraft(d model.EditorDraft) error
	ClearDraft() error

	Close() error
}

// Backend stores opaque values by key. Put must replace the value atomically.
type Backend interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}
