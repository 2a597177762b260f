package repository

import (
	"context"

	"github.com/nkiryanov/trippit/internal/models"
)

// Credential repository interface
type CredentialRepo interface {
	// Return credential stored for the service
	// If there is none must return apperrors.ErrCredentialNotFound
	Get(ctx context.Context, service string) (models.Credential, error)

	// Insert or replace credential of credential.Service
	// Last writer wins, never keeps more than one record per service
	Put(ctx context.Context, credential models.Credential) error
}

// Visit counter repository interface
type VisitRepo interface {
	// Increment counter of (city, country), creating it on first visit
	// Must be atomic: concurrent calls never lose increments
	Increment(ctx context.Context, city string, country string) (models.Visit, error)

	// Most visited destinations first
	Top(ctx context.Context, limit int) ([]models.Visit, error)
}

type Storage interface {
	Credential() CredentialRepo
	Visit() VisitRepo
}
