package ports

import (
	"context"

	"github.com/velotrail/velotrail/internal/domain"
)

// Geocoder — внешний сервис обратного геокодирования. Кэширование —
// ответственность вызывающего (usecase), не реализации геокодера.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*domain.Place, error)
}
