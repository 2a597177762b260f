package oauth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultStateTTL      = 10 * time.Minute
	defaultSigningMethod = "HS256"
	stateIssuer          = "trippit"
)

// Issues and checks the OAuth state value
// State is a short-lived signed JWT, so a forged or stale callback is rejected without storage
type StateConfig struct {
	// Secret key to sign state
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// If not set than default is used
	TTL time.Duration
}

// ErrStateUsed returned by Consume when the state already completed a callback
var ErrStateUsed = errors.New("state already used")

type StateManager struct {
	key string
	alg jwt.SigningMethod
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	used map[string]time.Time // jti -> state expiration
}

func NewStateManager(cfg StateConfig) (*StateManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}
	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	if cfg.TTL == 0 {
		cfg.TTL = defaultStateTTL
	}

	alg := jwt.GetSigningMethod(cfg.Alg)
	if alg == nil {
		return nil, fmt.Errorf("unknown signing method %q", cfg.Alg)
	}

	return &StateManager{
		key:  cfg.SecretKey,
		alg:  alg,
		ttl:  cfg.TTL,
		now:  time.Now,
		used: make(map[string]time.Time),
	}, nil
}

// Issue new state and its expiration time
func (m *StateManager) Issue() (string, time.Time, error) {
	now := m.now().Truncate(time.Second)
	expiresAt := now.Add(m.ttl)

	token := jwt.NewWithClaims(m.alg, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    stateIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	state, err := token.SignedString([]byte(m.key))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("error while signing state. Err: %w", err)
	}

	return state, expiresAt, nil
}

// Check state signature and expiration
func (m *StateManager) Verify(state string) error {
	_, err := m.parse(state)
	return err
}

// Verify state and mark it used; a second call with the same state fails with ErrStateUsed
// Used states are remembered until they expire
func (m *StateManager) Consume(state string) error {
	claims, err := m.parse(state)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for jti, expiresAt := range m.used {
		if !expiresAt.After(now) {
			delete(m.used, jti)
		}
	}

	if _, ok := m.used[claims.ID]; ok || claims.ID == "" {
		return ErrStateUsed
	}
	m.used[claims.ID] = claims.ExpiresAt.Time

	return nil
}

func (m *StateManager) parse(state string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(
		state,
		claims,
		func(t *jwt.Token) (any, error) {
			return []byte(m.key), nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("error while parsing or validating state. Err: %w", err)
	}
	return claims, nil
}
