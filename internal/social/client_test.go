package social

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/followbot/internal/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := newClient(srv.URL, srv.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	c.retry = resilience.RetryConfig{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxElapsedTime:  time.Second,
	}
	return c
}

func TestListIDs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		dir        Direction
		cursor     int64
		wantPath   string
		wantCursor string
	}{
		{name: "followers first page", dir: Followers, cursor: 0, wantPath: "/followers/ids.json", wantCursor: ""},
		{name: "following next page", dir: Following, cursor: 1234, wantPath: "/friends/ids.json", wantCursor: "1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, tt.wantPath, r.URL.Path)
				assert.Equal(t, "someone", r.URL.Query().Get("screen_name"))
				assert.Equal(t, "true", r.URL.Query().Get("stringify_ids"))
				assert.Equal(t, tt.wantCursor, r.URL.Query().Get("cursor"))
				_, _ = io.WriteString(w, `{"ids":["1","2","3"],"next_cursor":99,"next_cursor_str":"99"}`)
			})

			page, err := c.ListIDs(context.Background(), tt.dir, "someone", tt.cursor)
			require.NoError(t, err)
			assert.Equal(t, []UserID{"1", "2", "3"}, page.IDs)
			assert.Equal(t, int64(99), page.NextCursor)
		})
	}
}

func TestFollowAndUnfollow(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		calls []string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		values, err := url.ParseQuery(string(body))
		assert.NoError(t, err)
		mu.Lock()
		calls = append(calls, r.URL.Path+"?"+values.Get("user_id"))
		mu.Unlock()
		_, _ = io.WriteString(w, `{}`)
	})

	require.NoError(t, c.Follow(context.Background(), "7"))
	require.NoError(t, c.Unfollow(context.Background(), "8"))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/friendships/create.json?7", "/friendships/destroy.json?8"}, calls)
}

func TestAPIError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"errors":[{"code":88,"message":"Rate limit exceeded"}]}`)
	})

	_, err := c.ListIDs(context.Background(), Followers, "someone", 0)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, []string{"88 Rate limit exceeded"}, apiErr.Messages)
	assert.Contains(t, err.Error(), "Rate limit exceeded")
}

func TestPageServerErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"ids":["1"],"next_cursor":0}`)
	}))
	t.Cleanup(srv.Close)

	// Production retry policy: pages must still fail on the first error.
	c, err := newClient(srv.URL, srv.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	page, err := c.ListIDs(context.Background(), Followers, "someone", 0)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Nil(t, page)
	assert.EqualValues(t, 1, calls.Load())
}

func TestLatestPostRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[{"id_str":"9","text":"hi","favorited":false}]`)
	})

	post, err := c.LatestPost(context.Background(), "someone")
	require.NoError(t, err)
	assert.Equal(t, "9", post.ID)
	assert.EqualValues(t, 2, calls.Load())
}

func TestRateLimitIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.LatestPost(context.Background(), "someone")
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestWritesAreNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	err := c.Follow(context.Background(), "42")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.EqualValues(t, 1, calls.Load())
}

func TestBreakerOpensOnRepeatedPageErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for range breakerFailures {
		_, err := c.ListIDs(context.Background(), Following, "someone", 0)
		require.Error(t, err)
	}
	_, err := c.ListIDs(context.Background(), Following, "someone", 0)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.EqualValues(t, breakerFailures, calls.Load())
}

func TestWritesBypassBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	attempts := breakerFailures * 2
	for range attempts {
		err := c.Unfollow(context.Background(), "7")
		require.Error(t, err)
		assert.NotErrorIs(t, err, resilience.ErrCircuitOpen)
	}
	assert.EqualValues(t, attempts, calls.Load(), "every write reaches the API")
}

func TestLatestPost(t *testing.T) {
	t.Parallel()

	t.Run("returns first post", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/statuses/user_timeline.json", r.URL.Path)
			assert.Equal(t, "1", r.URL.Query().Get("count"))
			_, _ = io.WriteString(w, `[{"id_str":"555","text":"hello","favorited":true}]`)
		})

		post, err := c.LatestPost(context.Background(), "someone")
		require.NoError(t, err)
		assert.Equal(t, &Post{ID: "555", Text: "hello", Favorited: true}, post)
	})

	t.Run("empty timeline", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `[]`)
		})

		_, err := c.LatestPost(context.Background(), "someone")
		require.ErrorIs(t, err, ErrNoPosts)
	})
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Credentials{ConsumerKey: "k"}, "", 0, nil)
	require.Error(t, err)

	c, err := NewClient(Credentials{ConsumerKey: "k", ConsumerSecret: "s", AccessToken: "t", AccessTokenSecret: "ts"}, "", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL.String())
}
