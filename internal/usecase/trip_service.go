package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/velotrail/velotrail/internal/domain"
	"github.com/velotrail/velotrail/internal/gpx"
	"github.com/velotrail/velotrail/internal/ports"
	"github.com/velotrail/velotrail/pkg/validate"
)

// Проверка, что TripService удовлетворяет интерфейсу TripReadService.
var _ ports.TripReadService = (*TripService)(nil)

// TripService — прикладная логика работы с поездками (без знаний о транспорте).
type TripService struct {
	repo      ports.TripRepository
	log       ports.Logger
	validator ports.TripValidator
}

// NewTripService — DI-конструктор.
func NewTripService(
	repo ports.TripRepository,
	log ports.Logger,
	validator ports.TripValidator,
) *TripService {
	return &TripService{
		repo:      repo,
		log:       log,
		validator: validator,
	}
}

// GetTrip — получить поездку по UID. Возвращает (*Trip, nil) или (nil, nil),
// если записи нет.
func (s *TripService) GetTrip(ctx context.Context, tripUID string) (*domain.Trip, error) {
	start := time.Now()
	trip, err := s.repo.GetByUID(ctx, tripUID)
	if err != nil {
		s.log.Errorf(ctx, "repo.GetByUID failed trip_uid=%s err=%v", tripUID, err)
		return nil, err
	}
	s.log.Infof(ctx, "db fetch trip_uid=%s took=%s", tripUID, time.Since(start))
	return trip, nil
}

// TripsByUser — проксирование в репозиторий (пагинация уже валидирована на верхнем уровне).
func (s *TripService) TripsByUser(
	ctx context.Context,
	userID string,
	limit, offset int,
) ([]*domain.Trip, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// SaveFromMessage — сохранить поездку, пришедшую из Kafka (JSON-конверт
// со встроенным GPX). Шаги:
//  1. строгий парсинг JSON (DisallowUnknownFields) —> отлавливаем незадокументированные поля;
//  2. разбор GPX-трека и подсчёт дистанции;
//  3. доменная валидация (вернёт validate.ErrInvalidTrip при проблемах);
//  4. транзакционное сохранение в БД (идемпотентные upsert).
//
// Ошибки данных (мусорный JSON, битый GPX, провал валидации) заворачиваются
// в validate.ErrInvalidTrip — консьюмер коммитит такое сообщение и не
// ретраит его бесконечно.
func (s *TripService) SaveFromMessage(ctx context.Context, raw []byte) error {
	// Строгое декодирование: запрещаем неизвестные поля.
	var imp domain.TripImport
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&imp); err != nil {
		s.log.Warnf(ctx, "invalid json err=%v", err)
		return fmt.Errorf("invalid json: %w: %v", validate.ErrInvalidTrip, err)
	}

	// Убеждаемся, что после объекта нет лишних данных.
	if err := dec.Decode(new(struct{})); err != io.EOF {
		s.log.Warnf(ctx, "invalid json: trailing data")
		return fmt.Errorf("invalid json: trailing data: %w", validate.ErrInvalidTrip)
	}

	// Разбор GPX и подсчёт дистанции по гаверсинусу.
	points, err := gpx.Parse([]byte(imp.GPX))
	if err != nil {
		s.log.Warnf(ctx, "invalid gpx trip_uid=%s err=%v", imp.TripUID, err)
		return fmt.Errorf("invalid gpx: %w: %v", validate.ErrInvalidTrip, err)
	}

	trip := domain.NewTripFromImport(&imp, points, gpx.TotalDistanceKM(points))

	// Доменная валидация (обязательные поля, диапазоны координат, время).
	if err := s.validator.Validate(ctx, trip); err != nil {
		s.log.Warnf(ctx, "validation failed trip_uid=%s err=%v", trip.TripUID, err)
		return fmt.Errorf("validation failed: %w", err)
	}

	// Сохранение в БД в транзакции.
	if err := s.repo.Save(ctx, trip); err != nil {
		s.log.Errorf(ctx, "repo.Save failed trip_uid=%s err=%v", trip.TripUID, err)
		return fmt.Errorf("failed to save trip: %w", err)
	}

	s.log.Infof(ctx, "trip saved uid=%s points=%d distance_km=%.2f",
		trip.TripUID, len(trip.Points), trip.DistanceKM)
	return nil
}
