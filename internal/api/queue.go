package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/realmariusconstantin/romish-client/pkg/wire"
)

// JoinOutcome carries what a successful join reported: the refreshed queue
// snapshot or, when the join itself filled the queue, the match identity
// and redirect target.
type JoinOutcome struct {
	Queue      *wire.QueueSnapshot
	MatchID    string
	RedirectTo string
}

func (o JoinOutcome) MatchCreated() bool { return o.RedirectTo != "" }

func (c *Client) QueueStatus(ctx context.Context) (*wire.QueueSnapshot, error) {
	env, err := c.doJSON(ctx, http.MethodGet, "/api/queue/status", nil)
	if err != nil {
		return nil, err
	}
	return env.Queue, nil
}

func (c *Client) JoinQueue(ctx context.Context) (*JoinOutcome, error) {
	env, err := c.doJSON(ctx, http.MethodPost, "/api/queue/join", nil)
	if err != nil {
		return nil, err
	}
	out := &JoinOutcome{Queue: env.Queue, RedirectTo: env.RedirectTo}
	if env.Match != nil {
		out.MatchID = env.Match.MatchID
	}
	return out, nil
}

func (c *Client) LeaveQueue(ctx context.Context) (*wire.QueueSnapshot, error) {
	env, err := c.doJSON(ctx, http.MethodPost, "/api/queue/leave", nil)
	if err != nil {
		return nil, err
	}
	return env.Queue, nil
}

func (c *Client) AcceptQueue(ctx context.Context) error {
	_, err := c.doJSON(ctx, http.MethodPost, "/api/queue/accept", nil)
	return err
}

func (c *Client) DeclineQueue(ctx context.Context) error {
	_, err := c.doJSON(ctx, http.MethodPost, "/api/queue/decline", nil)
	return err
}

// MyReadySession fetches the provisional ready session the local player
// belongs to, if any. ErrNotFound means "none" and is not a failure.
func (c *Client) MyReadySession(ctx context.Context) (*wire.ReadyStats, error) {
	env, err := c.doJSON(ctx, http.MethodGet, "/api/queue/ready/mine", nil)
	if err != nil {
		return nil, err
	}
	if env.Session == nil {
		return nil, ErrNotFound
	}
	return env.Session, nil
}

// AcceptReady is the idempotent one-shot accept for a provisional
// identity. The returned stats reflect the ready-up immediately.
func (c *Client) AcceptReady(ctx context.Context, matchID string) (*wire.ReadyStats, error) {
	env, err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/queue/ready/%s/accept", matchID), nil)
	if err != nil {
		return nil, err
	}
	if env.Stats != nil {
		return env.Stats, nil
	}
	return env.Session, nil
}
