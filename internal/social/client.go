package social

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dghubble/oauth1"

	"github.com/edgard/followbot/internal/resilience"
)

const (
	// DefaultBaseURL is the Twitter v1.1 REST API root.
	DefaultBaseURL = "https://api.twitter.com/1.1/"

	endpointFollowers = "followers/ids.json"
	endpointFollowing = "friends/ids.json"
	endpointFollow    = "friendships/create.json"
	endpointUnfollow  = "friendships/destroy.json"
	endpointFavorite  = "favorites/create.json"
	endpointTimeline  = "statuses/user_timeline.json"

	maxResponseBytes = 8 << 20

	breakerFailures = 5
	breakerTimeout  = time.Minute
)

// Credentials are the OAuth1 user-context credentials for the account.
type Credentials struct {
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
}

// Client talks to the Twitter v1.1 REST API. It implements PageLister,
// Relationships and Timeline.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	retry      resilience.RetryConfig
	logger     *slog.Logger
}

// NewClient creates an OAuth1-signing client. An empty baseURL selects DefaultBaseURL.
func NewClient(creds Credentials, baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if creds.ConsumerKey == "" || creds.ConsumerSecret == "" || creds.AccessToken == "" || creds.AccessTokenSecret == "" {
		return nil, fmt.Errorf("twitter credentials are incomplete")
	}

	config := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)

	httpClient := config.Client(oauth1.NoContext, token)
	httpClient.Timeout = timeout

	return newClient(baseURL, httpClient, logger)
}

func newClient(baseURL string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid twitter base url %q: %w", baseURL, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With("component", "twitter_client")

	return &Client{
		baseURL:    u,
		httpClient: httpClient,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:        "twitter",
			MaxFailures: breakerFailures,
			OpenTimeout: breakerTimeout,
			IsFailure:   isTransient,
			Logger:      logger,
		}),
		retry:  resilience.DefaultRetryConfig(),
		logger: logger,
	}, nil
}

type idsResponse struct {
	IDs        []string `json:"ids"`
	NextCursor int64    `json:"next_cursor"`
}

// ListIDs reads one page of follower or following ids for screenName.
// The cursor parameter is omitted when cursor is zero so the first page is returned.
func (c *Client) ListIDs(ctx context.Context, dir Direction, screenName string, cursor int64) (*IDPage, error) {
	endpoint := endpointFollowers
	if dir == Following {
		endpoint = endpointFollowing
	}

	params := url.Values{}
	params.Set("screen_name", screenName)
	params.Set("stringify_ids", "true")
	if cursor != 0 {
		params.Set("cursor", strconv.FormatInt(cursor, 10))
	}

	var resp idsResponse
	if err := c.fetch(ctx, endpoint, params, &resp); err != nil {
		return nil, err
	}

	page := &IDPage{IDs: make([]UserID, 0, len(resp.IDs)), NextCursor: resp.NextCursor}
	for _, id := range resp.IDs {
		page.IDs = append(page.IDs, UserID(id))
	}

	c.logger.DebugContext(ctx, "Fetched id page", "direction", dir.String(), "count", len(page.IDs), "next_cursor", page.NextCursor)
	return page, nil
}

// Follow creates a follow relationship with id.
func (c *Client) Follow(ctx context.Context, id UserID) error {
	params := url.Values{}
	params.Set("user_id", string(id))
	return c.post(ctx, endpointFollow, params)
}

// Unfollow destroys the follow relationship with id.
func (c *Client) Unfollow(ctx context.Context, id UserID) error {
	params := url.Values{}
	params.Set("user_id", string(id))
	return c.post(ctx, endpointUnfollow, params)
}

type postResponse struct {
	IDStr     string `json:"id_str"`
	Text      string `json:"text"`
	Favorited bool   `json:"favorited"`
}

// LatestPost returns the most recent post of screenName, or ErrNoPosts.
func (c *Client) LatestPost(ctx context.Context, screenName string) (*Post, error) {
	params := url.Values{}
	params.Set("screen_name", screenName)
	params.Set("count", "1")

	var posts []postResponse
	if err := c.fetchWithRetry(ctx, endpointTimeline, params, &posts); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, ErrNoPosts
	}

	return &Post{ID: posts[0].IDStr, Text: posts[0].Text, Favorited: posts[0].Favorited}, nil
}

// Favorite marks postID as favorite.
func (c *Client) Favorite(ctx context.Context, postID string) error {
	params := url.Values{}
	params.Set("id", postID)
	return c.post(ctx, endpointFavorite, params)
}

type errorResponse struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// fetch sends a read through the circuit breaker exactly once. Id pages use
// it: a failed page aborts the run instead of being retried.
func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values, out any) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, endpoint, params, out)
	})
}

// fetchWithRetry is fetch retried on transient failures.
func (c *Client) fetchWithRetry(ctx context.Context, endpoint string, params url.Values, out any) error {
	return resilience.Retry(ctx, c.retry, isTransient, func(ctx context.Context) error {
		return c.fetch(ctx, endpoint, params, out)
	})
}

// post sends a write once. Writes bypass the breaker so every attempted
// action reaches the API and its own failure is reported.
func (c *Client) post(ctx context.Context, endpoint string, params url.Values) error {
	return c.do(ctx, http.MethodPost, endpoint, params, nil)
}

// isTransient reports server-side and transport failures. Client errors,
// rate limits included, are final for this run.
func isTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, out any) error {
	u := c.baseURL.ResolveReference(&url.URL{Path: endpoint})

	var body io.Reader
	if method == http.MethodGet {
		u.RawQuery = params.Encode()
	} else {
		body = strings.NewReader(params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", endpoint, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode}
		var er errorResponse
		if sonic.Unmarshal(data, &er) == nil {
			for _, e := range er.Errors {
				apiErr.Messages = append(apiErr.Messages, fmt.Sprintf("%d %s", e.Code, e.Message))
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}
