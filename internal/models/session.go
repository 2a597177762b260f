package models

import (
	"time"
)

// Completed interactive login of a human user
type Session struct {
	Token        string    `json:"token"`
	Username     string    `json:"username"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (s Session) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
