package ports

import (
	"context"

	"github.com/velotrail/velotrail/internal/domain"
)

// TripReadService — сервис чтения поездок (контракт для HTTP-слоя).
type TripReadService interface {
	GetTrip(ctx context.Context, tripUID string) (*domain.Trip, error)
	TripsByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Trip, error)
}
