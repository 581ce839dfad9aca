package syncer

import (
	"context"
	"net/http"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/debemdeboas/zenblog/internal/model"
	"github.com/debemdeboas/zenblog/internal/remote"
	"github.com/debemdeboas/zenblog/internal/remote/remotetest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken = "ghp_test"
	testRepo  = "me/blog"
)

func init() {
	SetLogger(zerolog.New(os.Stdout).Level(zerolog.ErrorLevel))
	remote.SetLogger(zerolog.New(os.Stdout).Level(zerolog.ErrorLevel))
}

func setup(t *testing.T) (*Engine, *remotetest.Server, model.Settings) {
	t.Helper()
	srv := remotetest.NewServer(t, testToken, model.GitHubUser{Login: "octo"})
	gh, err := remote.NewGitHub(srv.URL, remote.WithTimeout(2*time.Second))
	require.NoError(t, err)

	settings := model.DefaultSettings()
	settings.GitHubToken = testToken
	settings.GitHubRepo = testRepo
	return New(gh, 2), srv, settings
}

func post(id model.PostID, version int) model.Post {
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	return model.Post{
		ID: id, Title: "Title " + string(id), Content: "content of " + string(id),
		Tags: []string{"x"}, CreatedAt: now, UpdatedAt: now, Version: version,
	}
}

func TestStatus(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := base.Add(time.Second)
	earlier := base.Add(-time.Second)

	assert.Equal(t, model.StatusUnsynced, Status(base, nil))
	assert.Equal(t, model.StatusSynced, Status(base, &base), "equal timestamps are synced")
	assert.Equal(t, model.StatusSynced, Status(base, &later))
	assert.Equal(t, model.StatusStale, Status(base, &earlier))

	p := post("a", 1)
	assert.Equal(t, model.StatusUnsynced, StatusOf(p))
	p.LastSyncedAt = &later
	assert.Equal(t, model.StatusSynced, StatusOf(p))
}

// countingMirror counts calls so tests can assert that nothing reached the network.
type countingMirror struct {
	remote.Mirror
	calls atomic.Int32
}

func (m *countingMirror) Fetch(ctx context.Context, target remote.Target, id model.PostID) (*remote.File, error) {
	m.calls.Add(1)
	return m.Mirror.Fetch(ctx, target, id)
}

func TestNotConfigured(t *testing.T) {
	engine, _, _ := setup(t)
	counting := &countingMirror{Mirror: engine.mirror}
	engine.mirror = counting
	ctx := context.Background()

	for name, settings := range map[string]model.Settings{
		"no token": {GitHubRepo: testRepo},
		"no repo":  {GitHubToken: testToken},
		"defaults": model.DefaultSettings(),
	} {
		t.Run(name, func(t *testing.T) {
			ok, err := engine.PushPost(ctx, post("a", 1), settings)
			assert.False(t, ok)
			assert.ErrorIs(t, err, model.ErrNotConfigured)

			ok, err = engine.DeletePost(ctx, "a", settings)
			assert.False(t, ok)
			assert.ErrorIs(t, err, model.ErrNotConfigured)

			_, err = engine.PushAll(ctx, []model.Post{post("a", 1)}, settings)
			assert.ErrorIs(t, err, model.ErrNotConfigured)

			_, err = engine.Diverged(ctx, post("a", 1), settings)
			assert.ErrorIs(t, err, model.ErrNotConfigured)
		})
	}
	assert.Zero(t, counting.calls.Load())
}

func TestPushAndDelete(t *testing.T) {
	engine, srv, settings := setup(t)
	ctx := context.Background()

	ok, err := engine.PushPost(ctx, post("a", 1), settings)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, _, exists := srv.Post(testRepo, "a")
	require.True(t, exists)
	assert.Equal(t, "content of a", stored.Content)

	ok, err = engine.DeletePost(ctx, "a", settings)
	require.NoError(t, err)
	assert.True(t, ok)
	_, _, exists = srv.Post(testRepo, "a")
	assert.False(t, exists)

	srv.FailWrites(http.StatusInternalServerError)
	ok, err = engine.PushPost(ctx, post("b", 1), settings)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPushAll(t *testing.T) {
	engine, srv, settings := setup(t)
	ctx := context.Background()

	var inFlight, peak atomic.Int32
	srv.BeforeWrite(func(r *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
	})

	posts := []model.Post{post("a", 1), post("b", 3), post("c", 2), post("d", 1)}
	results, err := engine.PushAll(ctx, posts, settings)
	require.NoError(t, err)
	require.Len(t, results, len(posts))

	for i, r := range results {
		assert.Equal(t, posts[i].ID, r.ID)
		assert.Equal(t, posts[i].Version, r.Version)
		assert.True(t, r.OK, "push of %s", r.ID)
		assert.NoError(t, r.Err)

		_, _, exists := srv.Post(testRepo, r.ID)
		assert.True(t, exists)
	}
	assert.LessOrEqual(t, peak.Load(), int32(2), "concurrency limit exceeded")
}

func TestDiverged(t *testing.T) {
	engine, srv, settings := setup(t)
	ctx := context.Background()
	local := post("a", 3)

	d, err := engine.Diverged(ctx, local, settings)
	require.NoError(t, err)
	assert.Nil(t, d, "never mirrored")

	remoteCopy := local
	remoteCopy.Version = 2
	remoteCopy.Content = "content of the old a"
	srv.SetPost(testRepo, remoteCopy)

	d, err = engine.Diverged(ctx, local, settings)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 3, d.LocalVersion)
	assert.Equal(t, 2, d.RemoteVersion)
	assert.True(t, d.Changed())
	assert.NotEmpty(t, d.Patch())

	assert.NotEqual(t, d.LocalHash, d.RemoteHash)

	srv.SetPost(testRepo, local)
	d, err = engine.Diverged(ctx, local, settings)
	require.NoError(t, err)
	assert.False(t, d.Changed())
	assert.Equal(t, d.LocalHash, d.RemoteHash)
	assert.Nil(t, d.Content, "identical copies are not diffed")
	assert.Empty(t, d.Patch())

	retitled := local
	retitled.Title = "Another title"
	srv.SetPost(testRepo, retitled)
	d, err = engine.Diverged(ctx, local, settings)
	require.NoError(t, err)
	assert.True(t, d.Changed(), "a title change alone counts")
}
