package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/nkiryanov/trippit/internal/models"
)

// Storage of interactive login sessions
// Get never returns an expired session
type Store interface {
	Create(ctx context.Context, s models.Session) error
	Get(ctx context.Context, token string) (models.Session, error)
	Invalidate(ctx context.Context, token string) error
}

// Generate random session token 32 bytes length, hex encoded
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("error while generating session token. Err: %w", err)
	}
	return hex.EncodeToString(b), nil
}
