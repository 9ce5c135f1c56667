package api

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is benign on the recovery paths: "no current match" and "no
// ready session" are answered with 404.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized covers 401/403 on protected actions; surfaced to callers
// as "must log in", never merged with generic failures.
var ErrUnauthorized = errors.New("unauthorized")

// ErrRateLimited is returned once the bounded 429 retries are exhausted.
// Transient rate limiting must never look like a logout or a queue kick.
var ErrRateLimited = errors.New("rate limited")

type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

// Friendly maps a small set of known server error strings to readable
// text. Anything unknown passes through as-is.
func Friendly(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "You must be logged in. Please login with Steam."
	case errors.Is(err, ErrRateLimited):
		return "Too many requests. Please wait a moment and try again."
	case errors.Is(err, ErrNotFound):
		return "Match not found or has expired."
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		switch {
		case msg == "Player not in queue":
			return "You are not in the queue. Please join the queue first."
		case strings.Contains(msg, "not active"):
			return "Accept phase has expired. Please try again."
		case strings.Contains(msg, "not found"):
			return "Match not found or has expired."
		case strings.Contains(msg, "not in match"):
			return "You are not in this match."
		case msg != "":
			return msg
		}
	}
	return err.Error()
}
