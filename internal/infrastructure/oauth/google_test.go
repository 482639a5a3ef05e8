package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestGoogle(t *testing.T, userInfo http.HandlerFunc) *Google {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "provider-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", userInfo)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	g := NewGoogle(GoogleConfig{ClientID: "client", ClientSecret: "secret", RedirectURL: "http://localhost/auth/google/callback"})
	g.oauth.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	g.userInfoURL = srv.URL + "/userinfo"
	return g
}

func TestGoogle_AuthCodeURL(t *testing.T) {
	g := NewGoogle(GoogleConfig{ClientID: "client", RedirectURL: "http://localhost/cb"})

	parsed, err := url.Parse(g.AuthCodeURL("state-123"))
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Contains(t, q.Get("scope"), "email")
}

func TestGoogle_Exchange(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer provider-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"1234","name":"Ann Lee","email":"ann@example.com","email_verified":true}`))
	})

	profile, err := g.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "1234", profile.ProviderID)
	assert.Equal(t, "Ann Lee", profile.Username)
	assert.Equal(t, "ann@example.com", profile.Email)
	assert.True(t, profile.EmailVerified)
}

func TestGoogle_ExchangeFailures(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sub":"1234"}`))
	})

	_, err := g.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)

	_, err = g.Exchange(context.Background(), "good-code")
	assert.ErrorContains(t, err, "lacks subject or email")
}
