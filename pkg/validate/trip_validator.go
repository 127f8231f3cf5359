package validate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/velotrail/velotrail/internal/domain"
	"github.com/velotrail/velotrail/internal/ports"
)

// Проверка, что TripValidator удовлетворяет интерфейсу TripValidator.
var _ ports.TripValidator = (*TripValidator)(nil)

// ErrInvalidTrip — базовая (sentinel error) ошибка валидации.
var ErrInvalidTrip = errors.New("trip validation failed")

// TripValidator — структура для валидации поездки.
// Возвращает ErrInvalidTrip (с обёрнутой причиной) при любой проблеме.
type TripValidator struct{}

// NewTripValidator — конструктор TripValidator.
func NewTripValidator() *TripValidator { return &TripValidator{} }

// Validate — проверяет корректность полей поездки.
func (v *TripValidator) Validate(_ context.Context, trip *domain.Trip) error {
	if err := v.validateCore(trip); err != nil {
		return err
	}
	return v.ValidatePoints(trip.Points)
}

// validateCore — валидация основных полей поездки.
func (v *TripValidator) validateCore(trip *domain.Trip) error {
	if trip == nil {
		return fmt.Errorf("%w: поездка не может быть nil", ErrInvalidTrip)
	}
	if trip.TripUID == "" {
		return fmt.Errorf("%w: trip_uid обязателен", ErrInvalidTrip)
	}
	if trip.UserID == "" {
		return fmt.Errorf("%w: user_id обязателен", ErrInvalidTrip)
	}
	if trip.Title == "" {
		return fmt.Errorf("%w: title обязателен", ErrInvalidTrip)
	}
	if trip.StartedAt.IsZero() || trip.StartedAt.Before(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)) {
		return fmt.Errorf("%w: started_at некорректен", ErrInvalidTrip)
	}
	if trip.DistanceKM < 0 || math.IsNaN(trip.DistanceKM) || math.IsInf(trip.DistanceKM, 0) {
		return fmt.Errorf("%w: distance_km должен быть неотрицательным конечным числом", ErrInvalidTrip)
	}
	return nil
}

// ValidatePoints — валидация точек трека: конечные координаты в допустимых
// диапазонах, время точек не убывает (где задано).
func (v *TripValidator) ValidatePoints(points []domain.TrackPoint) error {
	var prev time.Time
	for i, p := range points {
		if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || p.Lat < -90 || p.Lat > 90 {
			return fmt.Errorf("%w: точка %d: lat вне диапазона", ErrInvalidTrip, i)
		}
		if math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) || p.Lon < -180 || p.Lon > 180 {
			return fmt.Errorf("%w: точка %d: lon вне диапазона", ErrInvalidTrip, i)
		}
		if !p.Time.IsZero() {
			if !prev.IsZero() && p.Time.Before(prev) {
				return fmt.Errorf("%w: точка %d: время раньше предыдущей точки", ErrInvalidTrip, i)
			}
			prev = p.Time
		}
	}
	return nil
}
