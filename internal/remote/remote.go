// Package remote mirrors posts to a user-owned remote store. Every mutation is
// an explicit read of the current version token followed by a conditional write.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/debemdeboas/zenblog/internal/model"
	"github.com/rs/zerolog"
)

var remoteLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	remoteLogger = l
}

// Target identifies where and as whom to mirror.
type Target struct {
	Token      string
	Repository string
}

func TargetFrom(s model.Settings) Target {
	return Target{Token: s.GitHubToken, Repository: s.GitHubRepo}
}

// VersionToken is the remote's opaque identifier of a file revision. The
// empty token means the file does not exist.
type VersionToken string

// File is the remote copy of a post. Post is nil when the body could not be decoded.
type File struct {
	Token VersionToken
	Post  *model.Post
}

type Authenticator interface {
	// Authenticate resolves the identity behind token. Failures wrap model.ErrAuth.
	Authenticate(ctx context.Context, token string) (*model.GitHubUser, error)
}

type Mirror interface {
	// Fetch returns nil when the file does not exist. A non-success status is
	// reported as *StatusError and a transport failure wraps
	// model.ErrRemoteUnavailable.
	Fetch(ctx context.Context, target Target, id model.PostID) (*File, error)
	// Write creates the file when token is empty and updates it otherwise.
	// A rejected write is false with a nil error.
	Write(ctx context.Context, target Target, post model.Post, token VersionToken) (bool, error)
	// Remove deletes the revision identified by token.
	Remove(ctx context.Context, target Target, id model.PostID, token VersionToken) (bool, error)
}

// StatusError is a read that the remote answered with an unexpected status.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: remote returned status %d", e.Op, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return model.ErrRemoteUnavailable
}

// Put mirrors post, creating or replacing its remote file.
//
// A read answered with a non-success status leaves the token unknown and the
// write is attempted as a create; the remote rejects it if the file exists.
func Put(ctx context.Context, m Mirror, target Target, post model.Post) (bool, error) {
	var token VersionToken

	file, err := m.Fetch(ctx, target, post.ID)
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		remoteLogger.Warn().
			Str("post_id", string(post.ID)).
			Int("status", statusErr.StatusCode).
			Msg("Could not read current version, writing without one")
	case err != nil:
		return false, err
	case file != nil:
		token = file.Token
	}

	ok, err := m.Write(ctx, target, post, token)
	if err != nil {
		return false, err
	}

	remoteLogger.Debug().
		Str("post_id", string(post.ID)).
		Int("version", post.Version).
		Bool("update", token != "").
		Bool("ok", ok).
		Msg("Post mirrored")
	return ok, nil
}

// Delete removes the remote file for id. A file that does not exist counts
// as removed. Any other failed read is a failed delete, since the revision
// to remove is unknown.
func Delete(ctx context.Context, m Mirror, target Target, id model.PostID) (bool, error) {
	file, err := m.Fetch(ctx, target, id)
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		remoteLogger.Warn().
			Str("post_id", string(id)).
			Int("status", statusErr.StatusCode).
			Msg("Could not read current version, delete skipped")
		return false, nil
	case err != nil:
		return false, err
	case file == nil:
		remoteLogger.Debug().Str("post_id", string(id)).Msg("Remote file already absent")
		return true, nil
	}

	return m.Remove(ctx, target, id, file.Token)
}

// filePath is the file location of a post inside the mirror.
func filePath(id model.PostID) string {
	return "posts/" + string(id) + ".json"
}
