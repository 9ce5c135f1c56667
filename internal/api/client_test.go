package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(WithBaseURL(srv.URL), WithToken("test-token"))
}

func TestRateLimitedGetRetries(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"success":true,"queue":{"players":[]}}`))
	}))

	snap, err := c.QueueStatus(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.EqualValues(t, 3, calls.Load())
}

func TestRateLimitedPostNotReplayed(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.JoinQueue(context.Background())
	require.ErrorIs(t, err, ErrRateLimited)
	assert.EqualValues(t, 1, calls.Load(), "mutating requests must not be replayed")
}

func TestNotFoundIsSentinel(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.CurrentMatch(context.Background())
	require.ErrorIs(t, err, ErrNotFound)

	_, err = c.MyReadySession(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUnauthorizedIsSentinel(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	_, err := c.Verify(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestEnvelopeErrorBecomesAPIError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"Player not in queue"}`))
	}))

	_, err := c.LeaveQueue(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Player not in queue", apiErr.Message)
	assert.Equal(t, "You are not in the queue. Please join the queue first.", Friendly(err))
}

func TestVerifyCoalescesConcurrentCalls(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`{"success":true,"user":{"userId":"u1","steamId":"76561198000000001"}}`))
	}))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := c.Verify(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "76561198000000001", u.SteamID)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, calls.Load(), "overlapping verifies share one round-trip")
}

func TestBearerTokenAttached(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"success":true}`))
	}))
	require.NoError(t, c.AcceptQueue(context.Background()))
}

func TestJoinOutcomeCarriesRedirect(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"match":{"matchId":"PEND-7","phase":"accept"},"redirectTo":"/match/PEND-7"}`))
	}))

	out, err := c.JoinQueue(context.Background())
	require.NoError(t, err)
	require.True(t, out.MatchCreated())
	assert.Equal(t, "PEND-7", out.MatchID)
	assert.Equal(t, "/match/PEND-7", out.RedirectTo)
}

func TestFriendlyMappings(t *testing.T) {
	cases := map[error]string{
		ErrUnauthorized: "You must be logged in. Please login with Steam.",
		ErrRateLimited:  "Too many requests. Please wait a moment and try again.",
		ErrNotFound:     "Match not found or has expired.",
		&APIError{Status: 400, Message: "Accept phase is not active"}: "Accept phase has expired. Please try again.",
		&APIError{Status: 400, Message: "not in match"}:               "You are not in this match.",
		errors.New("dial tcp: connection refused"):                    "dial tcp: connection refused",
	}
	for err, want := range cases {
		assert.Equal(t, want, Friendly(err))
	}
}
