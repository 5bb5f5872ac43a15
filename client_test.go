package stravastats_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bzimmer/stravastats"
)

var creds = stravastats.Credentials{
	ClientID:     "1234",
	ClientSecret: "secret",
	RefreshToken: "refresh",
}

// strava is a minimal stand-in for the authorization, listing and detail endpoints
type strava struct {
	mu       sync.Mutex
	pages    map[int][]int64
	details  map[int64]string
	status   map[int64]int
	exchange int
	listed   []int
	fetched  []int64
	tokens   []string
	denied   bool
}

func newStrava() *strava {
	return &strava{
		pages:   map[int][]int64{},
		details: map[int64]string{},
		status:  map[int64]int{},
	}
}

func (s *strava) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case r.URL.Path == "/oauth/token":
		s.token(w, r)
	case r.URL.Path == "/api/v3/athlete/activities":
		s.tokens = append(s.tokens, r.Header.Get("Authorization"))
		var page int
		fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)
		s.listed = append(s.listed, page)
		var acts []map[string]interface{}
		for _, id := range s.pages[page] {
			acts = append(acts, map[string]interface{}{"id": id, "name": fmt.Sprintf("activity %d", id)})
		}
		if acts == nil {
			acts = []map[string]interface{}{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(acts)
	case strings.HasPrefix(r.URL.Path, "/api/v3/activities/"):
		s.tokens = append(s.tokens, r.Header.Get("Authorization"))
		var id int64
		fmt.Sscanf(strings.TrimPrefix(r.URL.Path, "/api/v3/activities/"), "%d", &id)
		s.fetched = append(s.fetched, id)
		if code, ok := s.status[id]; ok {
			http.Error(w, http.StatusText(code), code)
			return
		}
		body, ok := s.details[id]
		if !ok {
			body = fmt.Sprintf(`{"id": %d, "name": "activity %d", "type": "Ride", "distance": 1000, "average_speed": 10}`, id, id)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	default:
		http.NotFound(w, r)
	}
}

func (s *strava) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.denied ||
		r.Form.Get("grant_type") != "refresh_token" ||
		r.Form.Get("refresh_token") != creds.RefreshToken ||
		r.Form.Get("client_id") != creds.ClientID ||
		r.Form.Get("client_secret") != creds.ClientSecret {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "Bad Request"}`))
		return
	}
	s.exchange++
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"token_type":    "Bearer",
		"access_token":  fmt.Sprintf("access-%d", s.exchange),
		"refresh_token": creds.RefreshToken,
		"expires_in":    21600,
	})
}

func newClient(t *testing.T, s *strava, opts ...stravastats.Option) *stravastats.Client {
	t.Helper()
	svr := httptest.NewServer(s)
	t.Cleanup(svr.Close)
	opts = append([]stravastats.Option{
		stravastats.WithBaseURL(svr.URL + "/api/v3"),
		stravastats.WithTokenURL(svr.URL + "/oauth/token"),
		stravastats.WithHTTPClient(svr.Client()),
		stravastats.WithClock(newFakeClock()),
	}, opts...)
	client, err := stravastats.NewClient(creds, opts...)
	require.NoError(t, err)
	return client
}

func TestClientMissingCredentials(t *testing.T) {
	a := require.New(t)
	for _, c := range []stravastats.Credentials{
		{ClientID: "1", ClientSecret: "2"},
		{ClientID: "1", RefreshToken: "3"},
		{ClientSecret: "2", RefreshToken: "3"},
	} {
		client, err := stravastats.NewClient(c, stravastats.WithBaseURL("http://127.0.0.1:1"))
		a.Nil(client)
		a.ErrorIs(err, stravastats.ErrConfig)
	}
}

func TestClientAuthorize(t *testing.T) {
	a := require.New(t)
	s := newStrava()
	client := newClient(t, s)
	a.NoError(client.Authorize(context.Background()))
	a.NoError(client.Authorize(context.Background()))
	a.Equal(1, s.exchange)
}

func TestClientAuthorizeDenied(t *testing.T) {
	a := require.New(t)
	s := newStrava()
	s.denied = true
	client := newClient(t, s)
	err := client.Authorize(context.Background())
	a.ErrorIs(err, stravastats.ErrAuth)

	_, err = client.ListActivities(context.Background(), 1, 30)
	a.ErrorIs(err, stravastats.ErrAuth)
	a.Empty(s.listed)
}

func TestClientListActivities(t *testing.T) {
	a := require.New(t)
	s := newStrava()
	s.pages[1] = []int64{10, 20}
	client := newClient(t, s)

	acts, err := client.ListActivities(context.Background(), 1, 30)
	a.NoError(err)
	a.Len(acts, 2)
	a.Equal(int64(10), acts[0].ID)
	a.Equal(int64(20), acts[1].ID)

	acts, err = client.ListActivities(context.Background(), 2, 30)
	a.NoError(err)
	a.Empty(acts)
	a.Equal([]string{"Bearer access-1", "Bearer access-1"}, s.tokens)
}

func TestClientActivity(t *testing.T) {
	a := require.New(t)
	s := newStrava()
	s.details[11223344] = detail
	client := newClient(t, s)

	act, err := client.Activity(context.Background(), 11223344)
	a.NoError(err)
	a.Equal(int64(11223344), act.ID)
	a.Equal("Morning Ride", *act.Name)
	a.InDelta(93100.0, *act.Distance, 1e-9)
}

func TestClientActivityFailure(t *testing.T) {
	a := require.New(t)
	s := newStrava()
	s.status[7] = http.StatusNotFound
	client := newClient(t, s)

	act, err := client.Activity(context.Background(), 7)
	a.Nil(act)
	a.ErrorIs(err, stravastats.ErrFetch)
	var serr *stravastats.StatusError
	a.True(errors.As(err, &serr))
	a.Equal(http.StatusNotFound, serr.StatusCode)
}

func TestClientUnauthorizedInvalidatesToken(t *testing.T) {
	a := require.New(t)
	s := newStrava()
	s.status[7] = http.StatusUnauthorized
	client := newClient(t, s)

	_, err := client.Activity(context.Background(), 7)
	a.ErrorIs(err, stravastats.ErrFetch)
	_, err = client.Activity(context.Background(), 8)
	a.NoError(err)
	a.Equal(2, s.exchange)
	a.Equal([]string{"Bearer access-1", "Bearer access-2"}, s.tokens)
}

func TestClientRateLimitRefreshesToken(t *testing.T) {
	a := require.New(t)
	s := newStrava()
	clock := newFakeClock()
	client := newClient(t, s, stravastats.WithClock(clock), stravastats.WithRateLimit(3, time.Minute))

	// the second detail call fills the window, sleeps and forces a fresh token
	for _, id := range []int64{1, 2, 3} {
		_, err := client.Activity(context.Background(), id)
		a.NoError(err)
	}
	a.Len(clock.sleeps, 1)
	a.Equal(2, s.exchange)
	a.Equal([]string{"Bearer access-1", "Bearer access-2", "Bearer access-2"}, s.tokens)
}
