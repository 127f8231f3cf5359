package ports

import (
	"context"

	"github.com/velotrail/velotrail/internal/domain"
)

type TripRepository interface {
	Save(ctx context.Context, trip *domain.Trip) error
	GetByUID(ctx context.Context, tripUID string) (*domain.Trip, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Trip, error)
}
