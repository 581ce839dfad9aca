// Package syncer pushes posts to the remote mirror and derives sync status.
// It never writes the local store; callers apply results.
package syncer

import (
	"context"
	"time"

	"github.com/debemdeboas/zenblog/internal/model"
	"github.com/debemdeboas/zenblog/internal/remote"
	"github.com/debemdeboas/zenblog/internal/util"
	"github.com/rs/zerolog"
	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/sync/errgroup"
)

var syncLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	syncLogger = l
}

const defaultConcurrency = 4

type Engine struct {
	mirror      remote.Mirror
	concurrency int
}

// New returns an engine pushing through mirror with at most concurrency
// pushes in flight during PushAll.
func New(mirror remote.Mirror, concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Engine{mirror: mirror, concurrency: concurrency}
}

// Status derives the sync state of a post from its timestamps.
func Status(updatedAt time.Time, lastSyncedAt *time.Time) model.SyncStatus {
	switch {
	case lastSyncedAt == nil:
		return model.StatusUnsynced
	case !lastSyncedAt.Before(updatedAt):
		return model.StatusSynced
	default:
		return model.StatusStale
	}
}

func StatusOf(p model.Post) model.SyncStatus {
	return Status(p.UpdatedAt, p.LastSyncedAt)
}

func (e *Engine) target(settings model.Settings) (remote.Target, error) {
	if !settings.RemoteConfigured() {
		return remote.Target{}, model.ErrNotConfigured
	}
	return remote.TargetFrom(settings), nil
}

// PushPost mirrors post. It fails with model.ErrNotConfigured before any
// network I/O when settings lack a token or repository.
func (e *Engine) PushPost(ctx context.Context, post model.Post, settings model.Settings) (bool, error) {
	target, err := e.target(settings)
	if err != nil {
		return false, err
	}

	start := time.Now()
	ok, err := remote.Put(ctx, e.mirror, target, post)
	event := syncLogger.Info()
	if err != nil || !ok {
		event = syncLogger.Warn().Err(err)
	}
	event.
		Str("post_id", string(post.ID)).
		Int("version", post.Version).
		Bool("ok", ok).
		Dur("took", time.Since(start)).
		Msg("Push finished")
	return ok, err
}

func (e *Engine) DeletePost(ctx context.Context, id model.PostID, settings model.Settings) (bool, error) {
	target, err := e.target(settings)
	if err != nil {
		return false, err
	}

	ok, err := remote.Delete(ctx, e.mirror, target, id)
	if err != nil || !ok {
		syncLogger.Warn().Err(err).Str("post_id", string(id)).Msg("Remote delete failed")
	}
	return ok, err
}

// Result is the outcome of one push in PushAll. Version and UpdatedAt are
// the values that were pushed.
type Result struct {
	ID        model.PostID
	Version   int
	UpdatedAt time.Time
	OK        bool
	Err       error
}

// PushAll pushes posts concurrently. Remote files are disjoint per post so
// ordering between pushes does not matter. Results are in the order of posts.
func (e *Engine) PushAll(ctx context.Context, posts []model.Post, settings model.Settings) ([]Result, error) {
	target, err := e.target(settings)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(posts))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i := range posts {
		post := posts[i]
		g.Go(func() error {
			ok, err := remote.Put(ctx, e.mirror, target, post)
			results[i] = Result{
				ID:        post.ID,
				Version:   post.Version,
				UpdatedAt: post.UpdatedAt,
				OK:        ok,
				Err:       err,
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}
	syncLogger.Info().Int("posts", len(posts)).Int("failed", failed).Msg("Bulk push finished")

	return results, nil
}

// Divergence compares a local post with its mirrored copy.
type Divergence struct {
	LocalVersion  int
	RemoteVersion int
	// Unreadable is set when the remote file exists but is not a post.
	Unreadable bool

	// LocalHash and RemoteHash digest title and content. The diffs are only
	// computed when they differ.
	LocalHash  string
	RemoteHash string

	Title   []diffmatchpatch.Diff
	Content []diffmatchpatch.Diff
}

// Changed reports whether title or content differ.
func (d *Divergence) Changed() bool {
	return d.Unreadable || d.LocalHash != d.RemoteHash
}

func digest(p model.Post) string {
	return util.ContentHashString(p.Title + "\x00" + p.Content)
}

// Patch renders the content difference as a unified-style patch from the
// remote copy to the local one.
func (d *Divergence) Patch() string {
	dmp := diffmatchpatch.New()
	return dmp.PatchToText(dmp.PatchMake(d.Content))
}

// Diverged fetches the mirrored copy of post and diffs it against the local
// one. It returns nil when the post was never mirrored.
func (e *Engine) Diverged(ctx context.Context, post model.Post, settings model.Settings) (*Divergence, error) {
	target, err := e.target(settings)
	if err != nil {
		return nil, err
	}

	file, err := e.mirror.Fetch(ctx, target, post.ID)
	if err != nil || file == nil {
		return nil, err
	}

	d := &Divergence{LocalVersion: post.Version, LocalHash: digest(post)}
	if file.Post == nil {
		d.Unreadable = true
		return d, nil
	}
	d.RemoteVersion = file.Post.Version
	d.RemoteHash = digest(*file.Post)
	if d.LocalHash == d.RemoteHash {
		return d, nil
	}

	dmp := diffmatchpatch.New()
	d.Title = dmp.DiffCleanupSemantic(dmp.DiffMain(file.Post.Title, post.Title, false))
	d.Content = dmp.DiffCleanupSemantic(dmp.DiffMain(file.Post.Content, post.Content, true))
	return d, nil
}
