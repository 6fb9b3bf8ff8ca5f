// Package auth implements the OAuth login flow against the external
// authentication provider and keeps the session user snapshot current.
package auth

import (
	"context"

	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/compass-pm/compass/internal/access"
	"github.com/compass-pm/compass/internal/upstream"
)

// Config holds the OAuth client settings for the external provider.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string
}

// Service drives the authorization-code flow with PKCE and session-user
// lookups against the backend.
type Service struct {
	oauth  oauth2.Config
	api    *upstream.Client
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(cfg Config, api *upstream.Client, logger *slog.Logger) *Service {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"profile", "email"}
	}
	return &Service{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		api:    api,
		logger: logger,
	}
}

// BeginLogin issues the provider authorization URL together with the random
// state and PKCE verifier the caller must hold until the callback.
func (s *Service) BeginLogin() (authURL, state, verifier string) {
	state = uuid.NewString()
	verifier = oauth2.GenerateVerifier()
	authURL = s.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier))
	return authURL, state, verifier
}

// CompleteLogin exchanges the callback code for a token and fetches the
// session user, role assignments included, from the backend.
func (s *Service) CompleteLogin(ctx context.Context, code, verifier string) (*oauth2.Token, *access.User, error) {
	token, err := s.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, nil, &upstream.Error{Kind: upstream.KindUnauthorized, Message: "code exchange failed", Err: err}
	}
	user, err := s.api.Me(upstream.ContextWithToken(ctx, token.AccessToken))
	if err != nil {
		return nil, nil, err
	}
	return token, user, nil
}

// RefreshUser re-fetches the session user, refreshing the token first when
// it has expired. Role changes on the backend become visible here.
func (s *Service) RefreshUser(ctx context.Context, token *oauth2.Token) (*oauth2.Token, *access.User, error) {
	fresh, err := s.oauth.TokenSource(ctx, token).Token()
	if err != nil {
		return nil, nil, &upstream.Error{Kind: upstream.KindUnauthorized, Message: "token refresh failed", Err: err}
	}
	user, err := s.api.Me(upstream.ContextWithToken(ctx, fresh.AccessToken))
	if err != nil {
		return nil, nil, err
	}
	return fresh, user, nil
}

// Logout revokes the backend session. Failures are logged, not surfaced:
// the local session is destroyed either way.
func (s *Service) Logout(ctx context.Context, token *oauth2.Token) {
	if token == nil {
		return
	}
	if err := s.api.Logout(upstream.ContextWithToken(ctx, token.AccessToken)); err != nil && s.logger != nil {
		s.logger.Warn("upstream logout", slog.Any("error", err))
	}
}
