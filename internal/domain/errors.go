package domain

import "errors"

// Domain errors surfaced to the API as distinct status codes. Infrastructure
// failures (database or cache connectivity) are never mapped to these; they
// bubble up as generic internal errors.
var (
	// ErrLinkNotFound covers both a missing short code and a logically
	// expired one.
	ErrLinkNotFound = errors.New("link not found")

	// ErrForbidden means the requester does not own the link.
	ErrForbidden = errors.New("not enough rights")

	// ErrAliasTaken means the requested short code is already in use.
	ErrAliasTaken = errors.New("alias already taken")
)
