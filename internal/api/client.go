// Package api is the HTTP client for the Romish matchmaking backend. Every
// method performs one round-trip and returns the decoded payload; the
// session layer decides how responses reconcile with channel events.
package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/realmariusconstantin/romish-client/pkg/wire"
)

const defaultBase = "http://localhost:5000"

type Client struct {
	baseURL string
	http    *http.Client
	token   func() string
	log     *zap.Logger

	// group coalesces overlapping calls to the same read endpoint into
	// one in-flight request shared by all callers.
	group singleflight.Group
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBase,
		http:    &http.Client{Timeout: 10 * time.Second},
		token:   func() string { return "" },
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// envelope is the common response wrapper; the backend answers every call
// with success plus at most one payload field.
type envelope struct {
	Success    bool                `json:"success"`
	Error      string              `json:"error,omitempty"`
	Queue      *wire.QueueSnapshot `json:"queue,omitempty"`
	Match      *wire.Match         `json:"match,omitempty"`
	Session    *wire.ReadyStats    `json:"session,omitempty"`
	Stats      *wire.ReadyStats    `json:"stats,omitempty"`
	User       *wire.User          `json:"user,omitempty"`
	RedirectTo string              `json:"redirectTo,omitempty"`
}
