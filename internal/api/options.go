package api

import (
	"net/http"

	"go.uber.org/zap"
)

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTokenSource supplies the bearer token per request, so a refreshed
// credential is picked up without rebuilding the client.
func WithTokenSource(fn func() string) Option {
	return func(c *Client) { c.token = fn }
}

func WithToken(token string) Option {
	return WithTokenSource(func() string { return token })
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}
