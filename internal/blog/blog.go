// Package blog coordinates the post collection: it builds and validates
// posts, persists them to the local store and mirrors them when asked.
//
// The local store is authoritative. Every mutation reloads the stored
// collection, applies the change and writes the whole collection back, so a
// second process sharing the store is detected instead of overwritten.
package blog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/debemdeboas/zenblog/internal/archive"
	"github.com/debemdeboas/zenblog/internal/model"
	"github.com/debemdeboas/zenblog/internal/remote"
	"github.com/debemdeboas/zenblog/internal/repository"
	"github.com/debemdeboas/zenblog/internal/syncer"
	"github.com/debemdeboas/zenblog/internal/util"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var blogLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	blogLogger = l
}

// Fields are the editable values of a post. ID is model.NewPost for a post
// that does not exist yet. Tags is the raw comma separated text.
type Fields struct {
	ID      model.PostID
	Title   string
	Content string
	Tags    string
}

type SaveResult struct {
	Post   model.Post
	Synced bool
	// RemoteErr is set when a requested push did not happen or failed. The
	// local save stands either way.
	RemoteErr error
}

type DeleteResult struct {
	ID            model.PostID
	RemoteDeleted bool
	RemoteErr     error
}

type Controller struct {
	repo   repository.Repository
	engine *syncer.Engine
	auth   remote.Authenticator
	now    func() time.Time
	newID  func() model.PostID

	// onAutosave is told when a settings change flips autoSaveEnabled.
	onAutosave func(enabled bool)

	// mu serializes mutations. It is never held across network calls.
	mu       sync.Mutex
	posts    []model.Post
	settings model.Settings
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithIDGenerator(newID func() model.PostID) Option {
	return func(c *Controller) { c.newID = newID }
}

// WithAuthenticator enables Connect. Mirrors without an identity endpoint
// leave it unset.
func WithAuthenticator(a remote.Authenticator) Option {
	return func(c *Controller) { c.auth = a }
}

// WithAutosaveListener registers fn to run after a persisted settings change
// turns autosave on or off, typically editor.Manager.SetEnabled.
func WithAutosaveListener(fn func(enabled bool)) Option {
	return func(c *Controller) { c.onAutosave = fn }
}

// New loads posts and settings from repo.
func New(repo repository.Repository, engine *syncer.Engine, opts ...Option) (*Controller, error) {
	c := &Controller{
		repo:   repo,
		engine: engine,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() model.PostID { return model.PostID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload replaces the in-memory collection and settings with the stored ones.
func (c *Controller) Reload() error {
	posts, err := c.repo.LoadPosts()
	if err != nil {
		return err
	}
	settings, err := c.repo.LoadSettings()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = posts
	c.settings = settings
	return nil
}

// Posts returns a copy of the collection in stored order.
func (c *Controller) Posts() []model.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.ClonePosts(c.posts)
}

func indexOf(posts []model.Post, id model.PostID) int {
	return slices.IndexFunc(posts, func(p model.Post) bool { return p.ID == id })
}

func (c *Controller) Post(id model.PostID) (model.Post, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := indexOf(c.posts, id)
	if i < 0 {
		return model.Post{}, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	return c.posts[i].Clone(), nil
}

// Build creates a new post from f or applies f to an existing one. Updates
// keep createdAt and lastSyncedAt and bump the version by one.
func (c *Controller) Build(f Fields) (model.Post, error) {
	now := c.now()
	tags := util.SplitTags(f.Tags)

	if f.ID == model.NewPost {
		return model.Post{
			ID:        c.newID(),
			Title:     f.Title,
			Content:   f.Content,
			Tags:      tags,
			CreatedAt: now,
			UpdatedAt: now,
			Version:   1,
		}, nil
	}

	existing, err := c.Post(f.ID)
	if err != nil {
		return model.Post{}, err
	}
	post := existing
	post.Title = f.Title
	post.Content = f.Content
	post.Tags = tags
	post.UpdatedAt = now
	post.Version = existing.Version + 1
	return post, nil
}

func validate(post model.Post) error {
	var missing []string
	if strings.TrimSpace(post.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(post.Content) == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", model.ErrValidation, strings.Join(missing, " and "))
	}
	return nil
}

// mutate applies fn to the stored collection and persists the result. On a
// persistence failure nothing changes. Callers must hold c.mu.
func (c *Controller) mutate(fn func(posts []model.Post) ([]model.Post, error)) error {
	stored, err := c.repo.LoadPosts()
	if err != nil {
		return err
	}

	next, err := fn(stored)
	if err != nil {
		return err
	}

	if err := c.repo.SavePosts(next); err != nil {
		blogLogger.Error().Stack().Err(err).Msg("Failed to persist posts")
		return err
	}
	c.posts = next
	return nil
}

// Save validates and stores post, then pushes it when shouldSync is set and
// a remote is configured. A successful push stamps lastSyncedAt and the
// post is stored again.
//
// Saving an update whose base version is no longer the stored one fails
// with model.ErrConflict; Reload picks up the newer copy.
func (c *Controller) Save(ctx context.Context, post model.Post, shouldSync bool) (SaveResult, error) {
	if err := validate(post); err != nil {
		return SaveResult{}, err
	}
	post = post.Clone()

	c.mu.Lock()
	err := c.mutate(func(posts []model.Post) ([]model.Post, error) {
		i := indexOf(posts, post.ID)
		if i < 0 {
			return append(posts, post), nil
		}
		if posts[i].Version != post.Version-1 {
			return nil, fmt.Errorf("%w: %s is at version %d, edit was based on %d",
				model.ErrConflict, post.ID, posts[i].Version, post.Version-1)
		}
		posts[i] = post
		return posts, nil
	})
	settings := c.settings
	c.mu.Unlock()
	if err != nil {
		return SaveResult{}, err
	}

	blogLogger.Info().Str("post_id", string(post.ID)).Int("version", post.Version).Msg("Post saved")

	result := SaveResult{Post: post}
	if !shouldSync {
		return result, nil
	}
	if !settings.RemoteConfigured() {
		result.RemoteErr = model.ErrNotConfigured
		return result, nil
	}

	if err := c.push(ctx, post, settings); err != nil {
		result.RemoteErr = err
		return result, nil
	}

	stamped, err := c.stamp(post)
	if err != nil {
		return result, err
	}
	if stamped != nil {
		result.Post = *stamped
		result.Synced = true
	}
	return result, nil
}

func (c *Controller) push(ctx context.Context, post model.Post, settings model.Settings) error {
	ok, err := c.engine.PushPost(ctx, post, settings)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: remote rejected %s", model.ErrRemoteUnavailable, post.ID)
	}
	return nil
}

// stamp records a successful push of pushed. The stamp is never before the
// pushed updatedAt. If the post changed since it was pushed, the stamp is the
// pushed updatedAt so the newer edit still reads as stale. A post deleted in
// the meantime is left deleted and nil is returned.
func (c *Controller) stamp(pushed model.Post) (*model.Post, error) {
	at := c.now()
	if at.Before(pushed.UpdatedAt) {
		at = pushed.UpdatedAt
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var stamped *model.Post
	err := c.mutate(func(posts []model.Post) ([]model.Post, error) {
		i := indexOf(posts, pushed.ID)
		if i < 0 {
			blogLogger.Info().Str("post_id", string(pushed.ID)).Msg("Post deleted during push, dropping sync stamp")
			return posts, nil
		}

		current := &posts[i]
		when := at
		if current.Version != pushed.Version {
			when = pushed.UpdatedAt
		}
		if current.LastSyncedAt == nil || current.LastSyncedAt.Before(when) {
			current.LastSyncedAt = &when
		}
		dup := current.Clone()
		stamped = &dup
		return posts, nil
	})
	if err != nil {
		return nil, err
	}
	return stamped, nil
}

// Delete removes the post locally and then, when a remote is configured,
// from the mirror. Only a local failure is returned as an error.
func (c *Controller) Delete(ctx context.Context, id model.PostID) (DeleteResult, error) {
	c.mu.Lock()
	err := c.mutate(func(posts []model.Post) ([]model.Post, error) {
		i := indexOf(posts, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", model.ErrNotFound, id)
		}
		return slices.Delete(posts, i, i+1), nil
	})
	settings := c.settings
	c.mu.Unlock()
	if err != nil {
		return DeleteResult{}, err
	}

	blogLogger.Info().Str("post_id", string(id)).Msg("Post deleted")

	result := DeleteResult{ID: id}
	if !settings.RemoteConfigured() {
		return result, nil
	}

	ok, err := c.engine.DeletePost(ctx, id, settings)
	switch {
	case err != nil:
		result.RemoteErr = err
	case !ok:
		result.RemoteErr = fmt.Errorf("%w: remote kept %s", model.ErrRemoteUnavailable, id)
	default:
		result.RemoteDeleted = true
	}
	return result, nil
}

// SyncPost pushes a stored post and stamps it on success.
func (c *Controller) SyncPost(ctx context.Context, id model.PostID) (model.Post, error) {
	settings := c.Settings()
	if !settings.RemoteConfigured() {
		return model.Post{}, model.ErrNotConfigured
	}

	post, err := c.Post(id)
	if err != nil {
		return model.Post{}, err
	}

	if err := c.push(ctx, post, settings); err != nil {
		return post, err
	}

	stamped, err := c.stamp(post)
	if err != nil {
		return post, err
	}
	if stamped == nil {
		return post, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	return *stamped, nil
}

// SyncAll pushes every post that is not synced and stamps the ones that
// succeeded. Per-post failures are in the results.
func (c *Controller) SyncAll(ctx context.Context) ([]syncer.Result, error) {
	settings := c.Settings()
	if !settings.RemoteConfigured() {
		return nil, model.ErrNotConfigured
	}

	var pending []model.Post
	for _, p := range c.Posts() {
		if syncer.StatusOf(p) != model.StatusSynced {
			pending = append(pending, p)
		}
	}
	if len(pending) == 0 {
		return []syncer.Result{}, nil
	}

	results, err := c.engine.PushAll(ctx, pending, settings)
	if err != nil {
		return nil, err
	}

	for i, r := range results {
		if !r.OK {
			if r.Err == nil {
				results[i].Err = fmt.Errorf("%w: remote rejected %s", model.ErrRemoteUnavailable, r.ID)
			}
			continue
		}
		if _, err := c.stamp(pending[i]); err != nil {
			return results, err
		}
	}
	return results, nil
}

// Diff compares a stored post with its mirrored copy.
func (c *Controller) Diff(ctx context.Context, id model.PostID) (*syncer.Divergence, error) {
	post, err := c.Post(id)
	if err != nil {
		return nil, err
	}
	return c.engine.Diverged(ctx, post, c.Settings())
}

// Search returns posts whose title, content or any tag contains query,
// ignoring case. An empty query matches everything.
func (c *Controller) Search(query string) []model.Post {
	posts := c.Posts()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return posts
	}

	matches := make([]model.Post, 0)
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Content), q) ||
			slices.ContainsFunc(p.Tags, func(t string) bool { return strings.Contains(strings.ToLower(t), q) }) {
			matches = append(matches, p)
		}
	}
	return matches
}

func (c *Controller) Archive(loc *time.Location) []archive.Year {
	return archive.Build(c.Posts(), loc)
}
