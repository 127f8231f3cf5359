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

// Проверка, что TripRepository удовлетворяет интерфейсу TripRepository.
var _ ports.TripRepository = (*TripRepository)(nil)

// TripRepository — реализация репозитория поездок на Postgres (pgxpool).
type TripRepository struct {
	pool *pgxpool.Pool
}

// NewTripRepository - конструктор TripRepository.
func NewTripRepository(pool *pgxpool.Pool) *TripRepository { return &TripRepository{pool: pool} }

// Save — транзакционно сохраняет поездку (идемпотентный upsert; трек —
// replace: старые точки удаляются и заливаются заново через COPY).
func (r *TripRepository) Save(ctx context.Context, trip *domain.Trip) error {
	if trip == nil || trip.TripUID == "" {
		return errors.New("trip is empty or trip_uid is required")
	}
	if trip.UserID == "" {
		return errors.New("user_id is required")
	}

	transaction, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		// При уже завершённой транзакции Rollback вернёт ErrTxClosed — игнорируем.
		if rbErr := transaction.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			_ = rbErr
		}
	}()

	// 1) users — upsert (оставляем, чтобы не падать на FK).
	if _, err = transaction.Exec(ctx, `
		INSERT INTO users (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING
	`, trip.UserID); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	// 2) trips — upsert по trip_uid (PRIMARY KEY).
	if _, err = transaction.Exec(ctx, `
		INSERT INTO trips (
			trip_uid, user_id, title, description, started_at, distance_km
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (trip_uid) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			started_at = EXCLUDED.started_at,
			distance_km = EXCLUDED.distance_km
	`,
		trip.TripUID, trip.UserID, trip.Title, trip.Description, trip.StartedAt, trip.DistanceKM,
	); err != nil {
		return fmt.Errorf("upsert trip: %w", err)
	}

	// 3) track_points — replace: удаляем и вставляем трек заново.
	if _, err = transaction.Exec(ctx, `DELETE FROM track_points WHERE trip_uid = $1`, trip.TripUID); err != nil {
		return fmt.Errorf("delete track points: %w", err)
	}
	if len(trip.Points) > 0 {
		if err = copyTrackPoints(ctx, transaction, trip.TripUID, trip.Points); err != nil {
			return err
		}
	}

	if err := transaction.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetByUID — получить поездку по uid вместе с треком и фотографиями.
// Если не нашли, возвращает (nil, nil).
func (r *TripRepository) GetByUID(ctx context.Context, tripUID string) (*domain.Trip, error) {
	var trip domain.Trip

	err := r.pool.QueryRow(ctx, `
		SELECT trip_uid, user_id, title, description, started_at, distance_km
		FROM trips WHERE trip_uid = $1
	`, tripUID).Scan(&trip.TripUID, &trip.UserID, &trip.Title, &trip.Description, &trip.StartedAt, &trip.DistanceKM)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select trip: %w", err)
	}

	// track_points (0..N, порядок записи)
	rows, err := r.pool.Query(ctx, `
		SELECT lat, lon, elevation, recorded_at
		FROM track_points WHERE trip_uid = $1
		ORDER BY seq
	`, tripUID)
	if err != nil {
		return nil, fmt.Errorf("select track points: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pt domain.TrackPoint
		if err := rows.Scan(&pt.Lat, &pt.Lon, &pt.Elevation, &pt.Time); err != nil {
			return nil, fmt.Errorf("scan track point: %w", err)
		}
		trip.Points = append(trip.Points, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("track points rows: %w", err)
	}

	// photos (0..N, порядок пользователя)
	pRows, err := r.pool.Query(ctx, `
		SELECT photo_id, trip_uid, object_key, content_type, size_bytes, position, created_at
		FROM photos WHERE trip_uid = $1
		ORDER BY position, created_at
	`, tripUID)
	if err != nil {
		return nil, fmt.Errorf("select photos: %w", err)
	}
	defer pRows.Close()

	for pRows.Next() {
		var ph domain.Photo
		if err := pRows.Scan(&ph.PhotoID, &ph.TripUID, &ph.ObjectKey, &ph.ContentType,
			&ph.SizeBytes, &ph.Position, &ph.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		trip.Photos = append(trip.Photos, ph)
	}
	if err := pRows.Err(); err != nil {
		return nil, fmt.Errorf("photos rows: %w", err)
	}

	return &trip, nil
}

// ListByUser — постраничный список поездок пользователя. Треки в список
// не грузим (тяжёлые); фотографии дочитываем одним запросом по всем UID
// страницы и склеиваем в памяти, сохраняя порядок базового SELECT.
func (r *TripRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Trip, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx, `
		SELECT trip_uid, user_id, title, description, started_at, distance_km
		FROM trips
		WHERE user_id = $1
		ORDER BY started_at DESC, trip_uid DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("select user trips: %w", err)
	}
	defer rows.Close()

	trips := make([]*domain.Trip, 0, limit)
	byUID := make(map[string]*domain.Trip, limit)
	uids := make([]string, 0, limit)

	for rows.Next() {
		trip := &domain.Trip{}
		if err := rows.Scan(&trip.TripUID, &trip.UserID, &trip.Title, &trip.Description,
			&trip.StartedAt, &trip.DistanceKM); err != nil {
			return nil, fmt.Errorf("scan trip base: %w", err)
		}
		trips = append(trips, trip)
		byUID[trip.TripUID] = trip
		uids = append(uids, trip.TripUID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trips rows: %w", err)
	}
	if len(trips) == 0 {
		return trips, nil // пустая страница
	}

	pRows, err := r.pool.Query(ctx, `
		SELECT photo_id, trip_uid, object_key, content_type, size_bytes, position, created_at
		FROM photos
		WHERE trip_uid = ANY($1::text[])
		ORDER BY trip_uid, position, created_at
	`, uids)
	if err != nil {
		return nil, fmt.Errorf("select photos: %w", err)
	}
	defer pRows.Close()

	for pRows.Next() {
		var ph domain.Photo
		if err := pRows.Scan(&ph.PhotoID, &ph.TripUID, &ph.ObjectKey, &ph.ContentType,
			&ph.SizeBytes, &ph.Position, &ph.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		if trip := byUID[ph.TripUID]; trip != nil {
			trip.Photos = append(trip.Photos, ph)
		}
	}
	if err := pRows.Err(); err != nil {
		return nil, fmt.Errorf("photos rows: %w", err)
	}

	return trips, nil
}

// copyTrackPoints — вставка точек трека через COPY (CopyFromRows);
// быстрее, чем INSERT в цикле — треки бывают на тысячи точек.
func copyTrackPoints(ctx context.Context, tx pgx.Tx, tripUID string, points []domain.TrackPoint) error {
	rows := make([][]any, 0, len(points))
	for i, pt := range points {
		rows = append(rows, []any{tripUID, i, pt.Lat, pt.Lon, pt.Elevation, pt.Time})
	}

	_, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"track_points"},
		[]string{"trip_uid", "seq", "lat", "lon", "elevation", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy track points: %w", err)
	}
	return nil
}
