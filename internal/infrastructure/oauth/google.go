// Package oauth implements federated sign-in providers on top of golang.org/x/oauth2.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/fastygo/taskflow/domain"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleConfig holds the client registration of the application.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Google exchanges authorization codes for Google profiles.
type Google struct {
	oauth       *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

func NewGoogle(cfg GoogleConfig) *Google {
	return &Google{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *Google) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// Exchange trades code for a token and reads the signed-in user's profile.
func (g *Google) Exchange(ctx context.Context, code string) (domain.FederatedProfile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)

	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return domain.FederatedProfile{}, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return domain.FederatedProfile{}, err
	}
	resp, err := g.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return domain.FederatedProfile{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.FederatedProfile{}, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var info googleUserInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return domain.FederatedProfile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Sub == "" || info.Email == "" {
		return domain.FederatedProfile{}, errors.New("userinfo lacks subject or email")
	}

	return domain.FederatedProfile{
		ProviderID:    info.Sub,
		Username:      info.Name,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
	}, nil
}
