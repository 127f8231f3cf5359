package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	cachemem "github.com/velotrail/velotrail/internal/cache/memory"
	"github.com/velotrail/velotrail/internal/domain"
	"github.com/velotrail/velotrail/internal/ports"
)

// Проверка, что PlaceRepository удовлетворяет интерфейсу PlaceRepository.
var _ ports.PlaceRepository = (*PlaceRepository)(nil)

// PlaceRepository — долговременное хранилище результатов обратного
// геокодирования. Ключ записи совпадает с ключом гео-кэша (координаты,
// округлённые до 3 знаков), так что прогрев после рестарта попадает
// ровно в те же ячейки.
type PlaceRepository struct {
	pool *pgxpool.Pool
}

// NewPlaceRepository - конструктор PlaceRepository.
func NewPlaceRepository(pool *pgxpool.Pool) *PlaceRepository { return &PlaceRepository{pool: pool} }

// Save — upsert по гео-ключу: свежее разрешение перезаписывает старое.
func (r *PlaceRepository) Save(ctx context.Context, place *domain.Place) error {
	if place == nil {
		return errors.New("place is required")
	}

	if _, err := r.pool.Exec(ctx, `
		INSERT INTO places (geo_key, lat, lon, name, full_address, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (geo_key) DO UPDATE SET
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			name = EXCLUDED.name,
			full_address = EXCLUDED.full_address,
			resolved_at = EXCLUDED.resolved_at
	`, cachemem.Key(place.Lat, place.Lon), place.Lat, place.Lon,
		place.Name, place.FullAddress, place.ResolvedAt); err != nil {
		return fmt.Errorf("upsert place: %w", err)
	}
	return nil
}

// LastN — последние N разрешённых мест (для прогрева кэша).
func (r *PlaceRepository) LastN(ctx context.Context, n int) ([]*domain.Place, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT lat, lon, name, full_address, resolved_at
		FROM places
		ORDER BY resolved_at DESC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, fmt.Errorf("select last places: %w", err)
	}
	defer rows.Close()

	var result []*domain.Place
	for rows.Next() {
		place := &domain.Place{}
		if err := rows.Scan(&place.Lat, &place.Lon, &place.Name, &place.FullAddress, &place.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan place: %w", err)
		}
		result = append(result, place)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("places rows: %w", err)
	}

	return result, nil
}
