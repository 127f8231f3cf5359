package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velotrail/velotrail/internal/domain"
	"github.com/velotrail/velotrail/internal/ports"
)

// Проверка, что PhotoRepository удовлетворяет интерфейсу PhotoRepository.
var _ ports.PhotoRepository = (*PhotoRepository)(nil)

// PhotoRepository — метаданные фотографий поездок (файлы — в объектном
// хранилище).
type PhotoRepository struct {
	pool *pgxpool.Pool
}

// NewPhotoRepository - конструктор PhotoRepository.
func NewPhotoRepository(pool *pgxpool.Pool) *PhotoRepository { return &PhotoRepository{pool: pool} }

// Add — добавляет фотографию в конец (position = max+1 внутри поездки).
func (r *PhotoRepository) Add(ctx context.Context, photo *domain.Photo) error {
	if photo == nil || photo.PhotoID == "" {
		return errors.New("photo is empty or photo_id is required")
	}
	if photo.TripUID == "" {
		return errors.New("trip_uid is required")
	}

	if _, err := r.pool.Exec(ctx, `
		INSERT INTO photos (photo_id, trip_uid, object_key, content_type, size_bytes, position, created_at)
		VALUES (
			$1, $2, $3, $4, $5,
			COALESCE((SELECT MAX(position) + 1 FROM photos WHERE trip_uid = $2), 0),
			$6
		)
	`, photo.PhotoID, photo.TripUID, photo.ObjectKey, photo.ContentType,
		photo.SizeBytes, photo.CreatedAt); err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	return nil
}

// GetByID — фотография по id. Если не нашли, возвращает (nil, nil).
func (r *PhotoRepository) GetByID(ctx context.Context, photoID string) (*domain.Photo, error) {
	var ph domain.Photo
	err := r.pool.QueryRow(ctx, `
		SELECT photo_id, trip_uid, object_key, content_type, size_bytes, position, created_at
		FROM photos WHERE photo_id = $1
	`, photoID).Scan(&ph.PhotoID, &ph.TripUID, &ph.ObjectKey, &ph.ContentType,
		&ph.SizeBytes, &ph.Position, &ph.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select photo: %w", err)
	}
	return &ph, nil
}

// Delete — удаляет запись о фотографии.
func (r *PhotoRepository) Delete(ctx context.Context, photoID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM photos WHERE photo_id = $1`, photoID); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

// ListByTrip — фотографии поездки в пользовательском порядке.
func (r *PhotoRepository) ListByTrip(ctx context.Context, tripUID string) ([]*domain.Photo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT photo_id, trip_uid, object_key, content_type, size_bytes, position, created_at
		FROM photos WHERE trip_uid = $1
		ORDER BY position, created_at
	`, tripUID)
	if err != nil {
		return nil, fmt.Errorf("select trip photos: %w", err)
	}
	defer rows.Close()

	var result []*domain.Photo
	for rows.Next() {
		ph := &domain.Photo{}
		if err := rows.Scan(&ph.PhotoID, &ph.TripUID, &ph.ObjectKey, &ph.ContentType,
			&ph.SizeBytes, &ph.Position, &ph.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		result = append(result, ph)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("photos rows: %w", err)
	}

	return result, nil
}

// UpdatePositions — транзакционно переставляет фотографии поездки.
// Если список не покрывает фактический набор (конкурентное добавление
// или удаление), транзакция откатывается с ErrPhotoOrderConflict —
// вызывающий вернёт пользователю прежний порядок.
func (r *PhotoRepository) UpdatePositions(ctx context.Context, tripUID string, orderedIDs []string) error {
	transaction, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rbErr := transaction.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			_ = rbErr
		}
	}()

	var total int
	if err := transaction.QueryRow(ctx,
		`SELECT COUNT(*) FROM photos WHERE trip_uid = $1`, tripUID,
	).Scan(&total); err != nil {
		return fmt.Errorf("count photos: %w", err)
	}
	if total != len(orderedIDs) {
		return ports.ErrPhotoOrderConflict
	}

	tag, err := transaction.Exec(ctx, `
		UPDATE photos AS p
		SET position = ord.pos - 1
		FROM unnest($2::text[]) WITH ORDINALITY AS ord(photo_id, pos)
		WHERE p.photo_id = ord.photo_id AND p.trip_uid = $1
	`, tripUID, orderedIDs)
	if err != nil {
		return fmt.Errorf("update positions: %w", err)
	}
	if int(tag.RowsAffected()) != len(orderedIDs) {
		return ports.ErrPhotoOrderConflict
	}

	if err := transaction.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
