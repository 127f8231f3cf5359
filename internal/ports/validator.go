package ports

import (
	"context"

	"github.com/velotrail/velotrail/internal/domain"
)

type TripValidator interface {
	Validate(ctx context.Context, trip *domain.Trip) error
}
