// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service/client layers.
var (
	// ErrNotFound indicates the requested entity does not exist (or belongs
	// to another user, which is indistinguishable by design).
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing or invalid session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrBadCredentials indicates a wrong email/password pair.
	ErrBadCredentials = errors.New("bad credentials")

	// ErrEmailNotConfirmed indicates the account exists but its email has
	// not been confirmed yet.
	ErrEmailNotConfirmed = errors.New("email not confirmed")

	// ErrAlreadyExists indicates a unique constraint violation (email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrRateLimited indicates a temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)
