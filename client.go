package stravastats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const baseURL = "https://www.strava.com/api/v3"

// Client fetches activities from the Strava api. A Client owns its token cache
// and rate window and must not be shared between goroutines.
type Client struct {
	baseURL  string
	endpoint string
	client   *http.Client
	clock    Clock
	ceiling  int
	window   time.Duration
	limiter  *RateLimiter
	tokens   *TokenManager
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL sets the api base url
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithTokenURL sets the url of the credential exchange
func WithTokenURL(u string) Option {
	return func(c *Client) {
		c.endpoint = u
	}
}

// WithHTTPClient sets the http client used for all requests
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithClock sets the clock used for rate limiting
func WithClock(clock Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithRateLimit sets the number of calls permitted per window
func WithRateLimit(ceiling int, window time.Duration) Option {
	return func(c *Client) {
		c.ceiling = ceiling
		c.window = window
	}
}

// NewClient returns a Client for the credentials. No network call is made.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:  baseURL,
		endpoint: Endpoint.TokenURL,
		client:   http.DefaultClient,
		clock:    WallClock(),
		ceiling:  DefaultCeiling,
		window:   DefaultWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	endpoint := Endpoint
	endpoint.TokenURL = c.endpoint
	c.limiter = NewRateLimiter(c.clock, c.ceiling, c.window)
	c.tokens = NewTokenManager(OAuth2Config(creds, endpoint), creds.RefreshToken, c.limiter, c.client)
	return c, nil
}

// Authorize obtains an access token if none is cached
func (c *Client) Authorize(ctx context.Context) error {
	_, err := c.tokens.EnsureToken(ctx)
	return err
}

// ListActivities returns one page of the athlete's activities; an empty page means no more pages
func (c *Client) ListActivities(ctx context.Context, page, perPage int) ([]*ActivitySummary, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	var acts []*ActivitySummary
	if err := c.do(ctx, c.baseURL+"/athlete/activities?"+q.Encode(), &acts); err != nil {
		return nil, err
	}
	log.Debug().Int("page", page).Int("count", len(acts)).Msg("activities")
	return acts, nil
}

// Activity returns the full details of an activity
func (c *Client) Activity(ctx context.Context, id int64) (*Activity, error) {
	var act Activity
	if err := c.do(ctx, fmt.Sprintf("%s/activities/%d", c.baseURL, id), &act); err != nil {
		return nil, err
	}
	return &act, nil
}

func (c *Client) do(ctx context.Context, uri string, v interface{}) error {
	if c.limiter.Register() {
		c.tokens.Invalidate()
	}
	token, err := c.tokens.EnsureToken(ctx)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	log.Debug().Str("url", uri).Msg("do")
	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate()
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %w", ErrFetch, &StatusError{URL: uri, StatusCode: res.StatusCode, Status: res.Status})
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decoding %s: %w", ErrFetch, uri, err)
	}
	return nil
}
