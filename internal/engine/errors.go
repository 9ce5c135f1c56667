package engine

import "errors"

// Sentinel errors classify why an event was not applied. Callers drop
// these silently (debug log at most); none of them is a user-facing
// failure.
var (
	ErrStaleEvent       = errors.New("stale event for previous epoch")
	ErrIdentityMismatch = errors.New("event identity does not match active identity")
	ErrNotActive        = errors.New("phase not active")
	ErrNoMatch          = errors.New("no match loaded")
)
