package ports

import (
	"context"

	"github.com/velotrail/velotrail/internal/domain"
)

// PlaceResolver — сервис обратного геокодирования с кэшем (контракт для HTTP-слоя).
type PlaceResolver interface {
	Resolve(ctx context.Context, lat, lon float64) (*domain.Place, error)
	CacheStats(ctx context.Context) domain.CacheStats
}
