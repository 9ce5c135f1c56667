package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/realmariusconstantin/romish-client/pkg/wire"
)

// CurrentMatch fetches the persisted match the local player is in.
// Overlapping calls are coalesced into one round-trip; ErrNotFound means
// "none" and is benign on the recovery path.
func (c *Client) CurrentMatch(ctx context.Context) (*wire.Match, error) {
	v, err, _ := c.group.Do("match/current", func() (any, error) {
		env, err := c.doJSON(ctx, http.MethodGet, "/api/match/current", nil)
		if err != nil {
			return nil, err
		}
		if env.Match == nil {
			return nil, ErrNotFound
		}
		return env.Match, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*wire.Match), nil
}

func (c *Client) MatchByID(ctx context.Context, matchID string) (*wire.Match, error) {
	env, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/match/%s", matchID), nil)
	if err != nil {
		return nil, err
	}
	if env.Match == nil {
		return nil, ErrNotFound
	}
	return env.Match, nil
}

// AcceptMatch accepts a readiness check backed by a persisted match
// document.
func (c *Client) AcceptMatch(ctx context.Context, matchID string) error {
	_, err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/match/%s/accept", matchID), nil)
	return err
}

func (c *Client) Pick(ctx context.Context, matchID, steamID string) (*wire.Match, error) {
	body := map[string]string{"steamId": steamID}
	env, err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/match/%s/pick", matchID), body)
	if err != nil {
		return nil, err
	}
	return env.Match, nil
}

func (c *Client) Ban(ctx context.Context, matchID, mapName string) (*wire.Match, error) {
	body := map[string]string{"mapName": mapName}
	env, err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/match/%s/ban", matchID), body)
	if err != nil {
		return nil, err
	}
	return env.Match, nil
}
