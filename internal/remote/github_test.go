package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/debemdeboas/zenblog/internal/model"
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
}

func newTestGitHub(t *testing.T) (*GitHub, *remotetest.Server) {
	t.Helper()
	srv := remotetest.NewServer(t, testToken, model.GitHubUser{Login: "octo", Name: "Octo Cat"})
	gh, err := NewGitHub(srv.URL, WithTimeout(2*time.Second))
	require.NoError(t, err)
	return gh, srv
}

func testPost() model.Post {
	now := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	return model.Post{
		ID:        "post-1",
		Title:     "Hello",
		Content:   "World ✓",
		Tags:      []string{"intro"},
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

func TestNewGitHub(t *testing.T) {
	gh, err := NewGitHub("")
	require.NoError(t, err)
	assert.Equal(t, DefaultGitHubAPI, gh.baseURL.String())

	_, err = NewGitHub("not a url")
	assert.Error(t, err)
}

func TestGitHubAuthenticate(t *testing.T) {
	gh, _ := newTestGitHub(t)
	ctx := context.Background()

	user, err := gh.Authenticate(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, "octo", user.Login)
	assert.Equal(t, "Octo Cat", user.Name)

	_, err = gh.Authenticate(ctx, "wrong")
	assert.ErrorIs(t, err, model.ErrAuth)

	_, err = gh.Authenticate(ctx, "")
	assert.ErrorIs(t, err, model.ErrAuth)
}

func TestGitHubAuthenticateUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	gh, err := NewGitHub(srv.URL)
	require.NoError(t, err)

	_, err = gh.Authenticate(context.Background(), testToken)
	assert.ErrorIs(t, err, model.ErrAuth)
}

func TestGitHubHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	gh, err := NewGitHub(srv.URL, WithUserAgent("zenblog/test"))
	require.NoError(t, err)

	file, err := gh.Fetch(context.Background(), Target{Token: testToken, Repository: testRepo}, "x")
	require.NoError(t, err)
	assert.Nil(t, file)

	assert.Equal(t, "Bearer "+testToken, got.Get("Authorization"))
	assert.Equal(t, "application/vnd.github+json", got.Get("Accept"))
	assert.Equal(t, "zenblog/test", got.Get("User-Agent"))
}

func TestGitHubCreateThenUpdate(t *testing.T) {
	gh, srv := newTestGitHub(t)
	ctx := context.Background()
	target := Target{Token: testToken, Repository: testRepo}
	post := testPost()

	file, err := gh.Fetch(ctx, target, post.ID)
	require.NoError(t, err)
	assert.Nil(t, file, "file should not exist yet")

	ok, err := Put(ctx, gh, target, post)
	require.NoError(t, err)
	require.True(t, ok)

	stored, sha, exists := srv.Post(testRepo, post.ID)
	require.True(t, exists)
	assert.Equal(t, post.Content, stored.Content)

	file, err = gh.Fetch(ctx, target, post.ID)
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, VersionToken(sha), file.Token)
	require.NotNil(t, file.Post)
	assert.Equal(t, post.Title, file.Post.Title)
	assert.Equal(t, post.Tags, file.Post.Tags)

	post.Title = "Hello again"
	post.Version = 2
	ok, err = Put(ctx, gh, target, post)
	require.NoError(t, err)
	require.True(t, ok)

	stored, newSHA, _ := srv.Post(testRepo, post.ID)
	assert.NotEqual(t, sha, newSHA)
	assert.Equal(t, 2, stored.Version)

	assert.Equal(t, []string{"Sync post: Hello (v1)", "Sync post: Hello again (v2)"}, srv.Messages())
}

func TestGitHubWriteRejected(t *testing.T) {
	gh, srv := newTestGitHub(t)
	ctx := context.Background()
	target := Target{Token: testToken, Repository: testRepo}
	post := testPost()

	srv.SetPost(testRepo, post)

	// a create against an existing file is refused by the remote
	ok, err := gh.Write(ctx, target, post, "")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = gh.Write(ctx, target, post, "stale-sha")
	require.NoError(t, err)
	assert.False(t, ok)

	srv.FailWrites(http.StatusInternalServerError)
	ok, err = Put(ctx, gh, target, post)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutProceedsWhenReadFails(t *testing.T) {
	gh, srv := newTestGitHub(t)
	ctx := context.Background()
	target := Target{Token: testToken, Repository: testRepo}
	post := testPost()

	srv.FailReads(http.StatusInternalServerError)

	ok, err := Put(ctx, gh, target, post)
	require.NoError(t, err)
	assert.True(t, ok, "create should go through without a token")
	assert.Equal(t, 1, srv.Count(http.MethodPut))

	// with a file present the token-less write is rejected by the remote itself
	post.Version = 2
	ok, err = Put(ctx, gh, target, post)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGitHubDelete(t *testing.T) {
	gh, srv := newTestGitHub(t)
	ctx := context.Background()
	target := Target{Token: testToken, Repository: testRepo}
	post := testPost()

	t.Run("absent file is success without a write", func(t *testing.T) {
		ok, err := Delete(ctx, gh, target, "never-pushed")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 0, srv.Count(http.MethodDelete))
	})

	t.Run("existing file is removed with its sha", func(t *testing.T) {
		srv.SetPost(testRepo, post)

		ok, err := Delete(ctx, gh, target, post.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		_, _, exists := srv.Post(testRepo, post.ID)
		assert.False(t, exists)
		assert.Contains(t, srv.Messages(), "Delete post: post-1")
	})

	t.Run("failed read is a failed delete", func(t *testing.T) {
		srv.SetPost(testRepo, post)
		srv.FailReads(http.StatusBadGateway)
		defer srv.FailReads(0)

		ok, err := Delete(ctx, gh, target, post.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		_, _, exists := srv.Post(testRepo, post.ID)
		assert.True(t, exists)
	})

	t.Run("rejected remove", func(t *testing.T) {
		srv.FailWrites(http.StatusForbidden)
		defer srv.FailWrites(0)

		ok, err := Delete(ctx, gh, target, post.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGitHubTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	gh, err := NewGitHub(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()
	target := Target{Token: testToken, Repository: testRepo}

	_, err = Put(ctx, gh, target, testPost())
	assert.ErrorIs(t, err, model.ErrRemoteUnavailable)

	_, err = Delete(ctx, gh, target, "post-1")
	assert.ErrorIs(t, err, model.ErrRemoteUnavailable)
}

func TestGitHubFetchUndecodableContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sha":"abc","content":"bm90IGpzb24="}`))
	}))
	defer srv.Close()

	gh, err := NewGitHub(srv.URL)
	require.NoError(t, err)

	file, err := gh.Fetch(context.Background(), Target{Token: testToken, Repository: testRepo}, "x")
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, VersionToken("abc"), file.Token)
	assert.Nil(t, file.Post)
}

func TestStatusError(t *testing.T) {
	err := error(&StatusError{Op: "GET x", StatusCode: 500})
	assert.True(t, errors.Is(err, model.ErrRemoteUnavailable))
	assert.Contains(t, err.Error(), "500")
}

func TestEncodeContentRoundTrip(t *testing.T) {
	post := testPost()
	encoded, err := encodeContent(post)
	require.NoError(t, err)

	decoded, err := decodeContent(encoded[:10] + "\n" + encoded[10:])
	require.NoError(t, err)
	assert.Equal(t, post.Content, decoded.Content)
	assert.True(t, post.CreatedAt.Equal(decoded.CreatedAt))
}
