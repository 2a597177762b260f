package reddit

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
)

// Reddit tokens live one hour; used when the provider does not report expires_in
const defaultTokenLifetime = time.Hour

var defaultServiceScopes = []string{"submit"}

type credentialRepo interface {
	Get(ctx context.Context, service string) (models.Credential, error)
	Put(ctx context.Context, credential models.Credential) error
}

// Service account credentials of a Reddit "script" app
type TokenAcquirerConfig struct {
	// Required
	ClientID     string
	ClientSecret string
	Username     string
	Password     string

	// If not set than default is used
	Scopes    []string
	Endpoints Endpoints
}

// Issues service-account tokens for publishing
// Tokens are cached in the credential store and shared between processes
type TokenAcquirer struct {
	oauth    oauth2.Config
	username string
	password string

	credentials credentialRepo
	httpClient  *http.Client
	logger      logger.Logger
	now         func() time.Time
}

func NewTokenAcquirer(cfg TokenAcquirerConfig, credentials credentialRepo, httpClient *http.Client, l logger.Logger) (*TokenAcquirer, error) {
	var missing []string
	for _, field := range [][2]string{
		{"client id", cfg.ClientID},
		{"client secret", cfg.ClientSecret},
		{"username", cfg.Username},
		{"password", cfg.Password},
	} {
		if field[1] == "" {
			missing = append(missing, field[0])
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: reddit service account %v must be set", apperrors.ErrConfiguration, missing)
	}

	if len(cfg.Scopes) == 0 {
		cfg.Scopes = defaultServiceScopes
	}
	if cfg.Endpoints == (Endpoints{}) {
		cfg.Endpoints = DefaultEndpoints
	}
	if httpClient == nil {
		httpClient = NewHTTPClient("")
	}

	return &TokenAcquirer{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     cfg.Endpoints.OAuth2(),
			Scopes:       cfg.Scopes,
		},
		username:    cfg.Username,
		password:    cfg.Password,
		credentials: credentials,
		httpClient:  httpClient,
		logger:      l,
		now:         time.Now,
	}, nil
}

// Return cached access token while it is valid, otherwise run the password grant
// Password grant issues no refresh token, so expiry always repeats the full grant
func (a *TokenAcquirer) AcquireToken(ctx context.Context) (string, error) {
	cached, err := a.credentials.Get(ctx, models.ServiceReddit)
	switch {
	case err == nil && cached.ValidAt(a.now()):
		return cached.AccessToken, nil
	case err == nil:
		a.logger.Debug("Cached reddit token expired", "expires_at", cached.ExpiresAt)
	case errors.Is(err, apperrors.ErrCredentialNotFound):
		a.logger.Debug("No cached reddit token")
	default:
		a.logger.Warn("Failed to read cached reddit token, acquiring new one", "error", err)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	token, err := a.oauth.PasswordCredentialsToken(ctx, a.username, a.password)
	if err != nil {
		return "", acquisitionError(err)
	}

	// Expiry is computed by oauth2 on the wall clock; keep only the lifetime
	now := a.now()
	expiresAt := now.Add(defaultTokenLifetime)
	if !token.Expiry.IsZero() {
		expiresAt = now.Add(time.Until(token.Expiry))
	}

	err = a.credentials.Put(ctx, models.Credential{
		Service:     models.ServiceReddit,
		AccessToken: token.AccessToken,
		ExpiresAt:   expiresAt,
		UpdatedAt:   now,
	})
	if err != nil {
		// Token is good anyway; next call just acquires once more
		a.logger.Warn("Failed to cache reddit token", "error", err)
	}

	a.logger.Info("Reddit token acquired", "expires_at", expiresAt)
	return token.AccessToken, nil
}

func acquisitionError(err error) *apperrors.AcquisitionError {
	var rErr *oauth2.RetrieveError
	if !errors.As(err, &rErr) {
		// Transport failures and bodies without access_token
		return &apperrors.AcquisitionError{Reason: err.Error(), Err: err}
	}

	e := &apperrors.AcquisitionError{Reason: rErr.ErrorCode, Err: err}
	if rErr.Response != nil {
		e.StatusCode = rErr.Response.StatusCode
	}
	if rErr.ErrorDescription != "" {
		e.Reason = fmt.Sprintf("%s: %s", rErr.ErrorCode, rErr.ErrorDescription)
	}
	if e.Reason == "" {
		e.Reason = string(rErr.Body)
	}
	return e
}
