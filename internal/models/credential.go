package models

import (
	"time"
)

// Service the publishing credential is issued for
const ServiceReddit = "reddit"

// Service-account bearer token cached between processes
type Credential struct {
	Service      string
	AccessToken  string
	RefreshToken *string // nil for grants that do not issue one
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

// Token may be used only strictly before ExpiresAt
func (c Credential) ValidAt(now time.Time) bool {
	return c.AccessToken != "" && c.ExpiresAt.After(now)
}
