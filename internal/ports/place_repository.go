package ports

import (
	"context"

	"github.com/velotrail/velotrail/internal/domain"
)

// PlaceRepository — долговременное хранилище разрешённых мест.
// Используется для прогрева гео-кэша после рестарта.
type PlaceRepository interface {
	Save(ctx context.Context, place *domain.Place) error
	LastN(ctx context.Context, n int) ([]*domain.Place, error)
}
