package models

import (
	"time"

	"github.com/google/uuid"
)

type Visit struct {
	ID        uuid.UUID `json:"id"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	Count     int64     `json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
