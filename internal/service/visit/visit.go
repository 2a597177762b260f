package visit

import (
	"context"
	"strings"

	"github.com/nkiryanov/trippit/internal/apperrors"
	"github.com/nkiryanov/trippit/internal/models"
	"github.com/nkiryanov/trippit/internal/repository"
)

const (
	DefaultTopLimit = 10
	MaxTopLimit     = 100
)

type VisitService struct {
	// Repository to access long term data
	visitRepo repository.VisitRepo
}

func NewService(visitRepo repository.VisitRepo) *VisitService {
	return &VisitService{
		visitRepo: visitRepo,
	}
}

// Count one more visit of the destination and return updated counter
func (s *VisitService) Log(ctx context.Context, city string, country string) (models.Visit, error) {
	city = strings.TrimSpace(city)
	country = strings.TrimSpace(country)
	if city == "" || country == "" {
		return models.Visit{}, apperrors.ErrInvalidLocation
	}

	return s.visitRepo.Increment(ctx, city, country)
}

// Most visited destinations; limit out of [1, MaxTopLimit] is clamped, zero means default
func (s *VisitService) Top(ctx context.Context, limit int) ([]models.Visit, error) {
	switch {
	case limit == 0:
		limit = DefaultTopLimit
	case limit < 1:
		limit = 1
	case limit > MaxTopLimit:
		limit = MaxTopLimit
	}

	return s.visitRepo.Top(ctx, limit)
}
