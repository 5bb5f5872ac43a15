package stravastats

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Endpoint is the Strava OAuth2 endpoint; client credentials travel in the form body
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://www.strava.com/oauth/authorize",
	TokenURL:  "https://www.strava.com/oauth/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// Credentials identify the application and the athlete
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// TokenManager exchanges the refresh credential for an access credential on demand.
// The access token lives only in memory.
type TokenManager struct {
	config  *oauth2.Config
	client  *http.Client
	limiter *RateLimiter
	refresh string
	token   *oauth2.Token
}

// NewTokenManager returns a TokenManager for the credentials; every exchange
// is registered with the limiter
func NewTokenManager(config *oauth2.Config, refreshToken string, limiter *RateLimiter, client *http.Client) *TokenManager {
	return &TokenManager{
		config:  config,
		client:  client,
		limiter: limiter,
		refresh: refreshToken,
	}
}

// EnsureToken returns the cached access token, exchanging the refresh token if none is cached
func (m *TokenManager) EnsureToken(ctx context.Context) (string, error) {
	if m.token != nil && m.token.AccessToken != "" {
		return m.token.AccessToken, nil
	}
	if m.refresh == "" {
		return "", fmt.Errorf("%w: missing refresh token", ErrConfig)
	}
	m.limiter.Register()
	if m.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.client)
	}
	log.Info().Str("url", m.config.Endpoint.TokenURL).Msg("refreshing access token")
	token, err := m.config.TokenSource(ctx, &oauth2.Token{RefreshToken: m.refresh}).Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuth, err)
	}
	if token.RefreshToken != "" {
		m.refresh = token.RefreshToken
	}
	m.token = token
	return token.AccessToken, nil
}

// Invalidate discards the cached access token
func (m *TokenManager) Invalidate() {
	m.token = nil
}

// OAuth2Config returns the oauth2 configuration for the credentials
func OAuth2Config(creds Credentials, endpoint oauth2.Endpoint) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       []string{"read,activity:read_all"},
	}
}
