package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const rateLimitAttempts = 3

// doJSON builds the request, attaches the bearer credential and decodes
// the response envelope. 404 maps to ErrNotFound, 401/403 to
// ErrUnauthorized. GET requests hitting 429 are retried with exponential
// backoff up to rateLimitAttempts; mutating requests are not replayed.
func (c *Client) doJSON(ctx context.Context, method, path string, body any) (*envelope, error) {
	var out *envelope
	op := func() error {
		env, err := c.roundTrip(ctx, method, path, body)
		if err != nil {
			if isRetryable(method, err) {
				return err
			}
			return backoff.Permanent(err)
		}
		out = env
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 300 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 0

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, rateLimitAttempts), ctx)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any) (*envelope, error) {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		c.log.Debug("rate limited", zap.String("path", path))
		return nil, ErrRateLimited
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &APIError{Status: res.StatusCode, Message: readErrorMessage(res.Body)}
	}

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return nil, err
	}
	if !env.Success && env.Error != "" {
		return nil, &APIError{Status: res.StatusCode, Message: env.Error}
	}
	return &env, nil
}

func isRetryable(method string, err error) bool {
	return method == http.MethodGet && errors.Is(err, ErrRateLimited)
}

func readErrorMessage(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, 4<<10))
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(raw))
}
