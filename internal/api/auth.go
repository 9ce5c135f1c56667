package api

import (
	"context"
	"net/http"

	"github.com/realmariusconstantin/romish-client/pkg/wire"
)

// Verify resolves the authenticated user. Concurrent callers share one
// in-flight request; 429s are retried with backoff by the transport and
// never clear local auth state.
func (c *Client) Verify(ctx context.Context) (*wire.User, error) {
	v, err, _ := c.group.Do("auth/me", func() (any, error) {
		env, err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil)
		if err != nil {
			return nil, err
		}
		if env.User == nil {
			return nil, ErrUnauthorized
		}
		return env.User, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*wire.User), nil
}
