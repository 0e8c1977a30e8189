package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/ViniZap4/tonote-server/domain"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type GoogleProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email"},
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Email exchanges an authorization code and returns the account's verified
// email address.
func (g *GoogleProvider) Email(ctx context.Context, code string) (string, error) {
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := g.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}

	var info struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Email == "" || !info.EmailVerified {
		return "", fmt.Errorf("google account has no verified email")
	}
	return info.Email, nil
}

// GoogleEnabled reports whether Google sign-in is configured.
func (s *Service) GoogleEnabled() bool {
	return s.google != nil
}

// GoogleAuthURL starts the OAuth flow. state must be echoed back to the
// callback and checked by the caller.
func (s *Service) GoogleAuthURL() (url, state string, err error) {
	if s.google == nil {
		return "", "", domain.ErrOAuthDisabled
	}
	state, err = newToken()
	if err != nil {
		return "", "", err
	}
	return s.google.AuthCodeURL(state), state, nil
}

func (s *Service) SignInWithGoogle(ctx context.Context, code string) (domain.User, domain.Session, error) {
	if s.google == nil {
		return domain.User{}, domain.Session{}, domain.ErrOAuthDisabled
	}
	email, err := s.google.Email(ctx, code)
	if err != nil {
		s.log.Warn().Err(err).Msg("google sign-in failed")
		return domain.User{}, domain.Session{}, domain.ErrUnauthorized
	}
	user, err := s.userForEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return domain.User{}, domain.Session{}, err
	}
	sess, err := s.issueSession(ctx, user.ID)
	return user, sess, err
}
