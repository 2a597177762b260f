package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/nkiryanov/trippit/internal/apperrors"
	"github.com/nkiryanov/trippit/internal/logger"
	"github.com/nkiryanov/trippit/internal/models"
	"github.com/nkiryanov/trippit/internal/service/reddit"
	"github.com/nkiryanov/trippit/internal/service/session"
)

const defaultSessionTTL = time.Hour

// Steps of the callback handshake, reported in CallbackError
const (
	StepValidate = "validate"
	StepExchange = "exchange"
	StepProfile  = "profile"
)

var defaultUserScopes = []string{"identity", "submit"}

type profileClient interface {
	Me(ctx context.Context, accessToken string) (string, error)
}

// Reddit "web" app used for interactive login
type Config struct {
	// Required
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// If not set than default is used
	Scopes     []string
	Endpoints  reddit.Endpoints
	SessionTTL time.Duration
}

// Data to start interactive login: user is redirected to URL, State must come back unchanged
type AuthorizeRequest struct {
	URL       string
	State     string
	ExpiresAt time.Time
}

type Service struct {
	oauth      oauth2.Config
	sessionTTL time.Duration

	states     *StateManager
	profiles   profileClient
	sessions   session.Store
	httpClient *http.Client
	logger     logger.Logger
	now        func() time.Time
}

func NewService(
	cfg Config,
	states *StateManager,
	profiles profileClient,
	sessions session.Store,
	httpClient *http.Client,
	l logger.Logger,
) (*Service, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURI == "" {
		return nil, fmt.Errorf("%w: reddit client id, client secret and redirect uri must be set", apperrors.ErrConfiguration)
	}

	if len(cfg.Scopes) == 0 {
		cfg.Scopes = defaultUserScopes
	}
	if cfg.Endpoints == (reddit.Endpoints{}) {
		cfg.Endpoints = reddit.DefaultEndpoints
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if httpClient == nil {
		httpClient = reddit.NewHTTPClient("")
	}

	return &Service{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     cfg.Endpoints.OAuth2(),
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
		},
		sessionTTL: cfg.SessionTTL,
		states:     states,
		profiles:   profiles,
		sessions:   sessions,
		httpClient: httpClient,
		logger:     l,
		now:        time.Now,
	}, nil
}

// Start interactive login
func (s *Service) Authorize() (AuthorizeRequest, error) {
	state, expiresAt, err := s.states.Issue()
	if err != nil {
		return AuthorizeRequest{}, err
	}

	return AuthorizeRequest{
		URL:       s.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("duration", "permanent")),
		State:     state,
		ExpiresAt: expiresAt,
	}, nil
}

// Finish interactive login and create a session
// expectedState is the state issued by Authorize for this browser (from its cookie); when known it must match exactly.
// Browsers on another site do not send the cookie back, then the signed state alone is checked.
// Either way a state completes at most one callback.
// Every failure is *apperrors.CallbackError except storage ones
func (s *Service) Complete(ctx context.Context, code string, state string, expectedState string) (models.Session, error) {
	var sess models.Session

	if err := s.validate(code, state, expectedState); err != nil {
		return sess, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return sess, exchangeError(err)
	}

	username, err := s.profiles.Me(ctx, token.AccessToken)
	if err != nil {
		return sess, &apperrors.CallbackError{Step: StepProfile, Reason: "failed to fetch user profile", Err: err}
	}

	sessionToken, err := session.NewToken()
	if err != nil {
		return sess, err
	}

	now := s.now()
	expiresAt := now.Add(s.sessionTTL)
	if !token.Expiry.IsZero() {
		expiresAt = now.Add(time.Until(token.Expiry))
	}

	sess = models.Session{
		Token:        sessionToken,
		Username:     username,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return models.Session{}, fmt.Errorf("error while creating session. Err: %w", err)
	}

	s.logger.Info("Reddit user logged in", "username", username, "expires_at", expiresAt)
	return sess, nil
}

func (s *Service) validate(code string, state string, expectedState string) error {
	switch {
	case code == "":
		return &apperrors.CallbackError{Step: StepValidate, Reason: "authorization code is missing"}
	case state == "":
		return &apperrors.CallbackError{Step: StepValidate, Reason: "state is missing", Err: apperrors.ErrStateMismatch}
	case expectedState != "" && state != expectedState:
		return &apperrors.CallbackError{Step: StepValidate, Reason: "state does not match", Err: apperrors.ErrStateMismatch}
	}

	if err := s.states.Consume(state); err != nil {
		reason := "state is invalid or expired"
		if errors.Is(err, ErrStateUsed) {
			reason = "state already used"
		}
		return &apperrors.CallbackError{
			Step:   StepValidate,
			Reason: reason,
			Err:    fmt.Errorf("%w: %w", apperrors.ErrStateMismatch, err),
		}
	}
	return nil
}

func exchangeError(err error) *apperrors.CallbackError {
	e := &apperrors.CallbackError{Step: StepExchange, Reason: "code exchange failed", Err: err}

	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) && rErr.ErrorCode != "" {
		e.Reason = fmt.Sprintf("code exchange failed: %s", rErr.ErrorCode)
	}
	return e
}
