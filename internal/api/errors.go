// Package api defines the error taxonomy shared by all upstream clients.
package api

import "errors"

var (
	// ErrNotFound means the provider does not know the symbol. Deterministic,
	// never retried.
	ErrNotFound = errors.New("symbol not found")

	// ErrTimeout means the call exceeded its deadline.
	ErrTimeout = errors.New("upstream timed out")

	// ErrRateLimited means the provider rejected the call for quota reasons.
	ErrRateLimited = errors.New("upstream rate limit hit")

	// ErrAuthFailed means the API key was rejected.
	ErrAuthFailed = errors.New("upstream auth failed")

	// ErrMalformed means the provider answered with a body we could not
	// interpret. Deterministic, never retried.
	ErrMalformed = errors.New("malformed upstream response")
)
