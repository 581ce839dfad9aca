package model

import "errors"

var (
	// ErrValidation is returned before any I/O when a required field is empty.
	ErrValidation = errors.New("validation failed")

	// ErrAuth means the remote credential was rejected or could not be checked.
	ErrAuth = errors.New("remote authentication failed")

	// ErrRemoteUnavailable covers transport failures and rejected remote writes.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrPersistence means the local store could not be read or written.
	ErrPersistence = errors.New("local persistence failed")

	ErrNotConfigured = errors.New("remote sync is not configured")
	ErrNotFound      = errors.New("post not found")

	// ErrConflict means another session saved the post after this edit began.
	ErrConflict = errors.New("post was changed by another session")
)
