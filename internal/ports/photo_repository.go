package ports

import (
	"context"
	"errors"

	"github.com/velotrail/velotrail/internal/domain"
)

// ErrPhotoOrderConflict — список перестановки не совпадает с фактическим
// набором фотографий поездки (параллельное добавление или удаление).
var ErrPhotoOrderConflict = errors.New("photo order conflict")

type PhotoRepository interface {
	Add(ctx context.Context, photo *domain.Photo) error
	GetByID(ctx context.Context, photoID string) (*domain.Photo, error)
	Delete(ctx context.Context, photoID string) error
	ListByTrip(ctx context.Context, tripUID string) ([]*domain.Photo, error)

	// UpdatePositions — транзакционно переставляет фотографии поездки
	// в заданный порядок.
	UpdatePositions(ctx context.Context, tripUID string, orderedIDs []string) error
}
