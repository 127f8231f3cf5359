package usecase

import (
	"context"
	"time"

	"github.com/velotrail/velotrail/internal/domain"
	"github.com/velotrail/velotrail/internal/ports"
)

// Проверка, что PlaceService удовлетворяет интерфейсу PlaceResolver.
var _ ports.PlaceResolver = (*PlaceService)(nil)

// PlaceService — обратное геокодирование с LRU-кэшем перед внешним
// сервисом. Кэш срезает повторные запросы по соседним точкам трека
// (ключ — координаты, округлённые до ~111 м).
type PlaceService struct {
	cache    ports.GeoCache
	geocoder ports.Geocoder
	places   ports.PlaceRepository
	log      ports.Logger
}

// NewPlaceService — DI-конструктор.
func NewPlaceService(
	cache ports.GeoCache,
	geocoder ports.Geocoder,
	places ports.PlaceRepository,
	log ports.Logger,
) *PlaceService {
	return &PlaceService{
		cache:    cache,
		geocoder: geocoder,
		places:   places,
		log:      log,
	}
}

// Resolve — место по координатам: сначала кэш, при промахе — внешний
// геокодер с записью в кэш и в БД (для прогрева после рестарта).
func (s *PlaceService) Resolve(ctx context.Context, lat, lon float64) (*domain.Place, error) {
	if place, found := s.cache.Get(ctx, lat, lon); found {
		s.log.Infof(ctx, "geo cache hit lat=%.3f lon=%.3f", lat, lon)
		return place, nil
	}
	s.log.Infof(ctx, "geo cache miss lat=%.3f lon=%.3f", lat, lon)

	start := time.Now()
	place, err := s.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		s.log.Errorf(ctx, "geocoder.Reverse failed lat=%.3f lon=%.3f err=%v", lat, lon, err)
		return nil, err
	}

	if setErr := s.cache.Set(ctx, lat, lon, place); setErr != nil {
		s.log.Warnf(ctx, "cache.Set failed lat=%.3f lon=%.3f err=%v", lat, lon, setErr)
	}
	// Долговременное хранилище — best effort: промах не должен ломать ответ.
	if saveErr := s.places.Save(ctx, place); saveErr != nil {
		s.log.Warnf(ctx, "places.Save failed lat=%.3f lon=%.3f err=%v", lat, lon, saveErr)
	}

	s.log.Infof(ctx, "geocoder fetch lat=%.3f lon=%.3f took=%s", lat, lon, time.Since(start))
	return place, nil
}

// CacheStats — диагностический срез кэша для служебного эндпоинта.
func (s *PlaceService) CacheStats(ctx context.Context) domain.CacheStats {
	return s.cache.Stats(ctx)
}

// WarmUpCache — прогрев кэша последними N разрешёнными местами из БД.
// Если n <= 0, прогрев не выполняется (но это не ошибка).
func (s *PlaceService) WarmUpCache(ctx context.Context, n int) error {
	if n <= 0 {
		s.log.Warnf(ctx, "geo cache warm-up skipped: n <= 0 (n=%d)", n)
		return nil
	}

	start := time.Now()
	list, err := s.places.LastN(ctx, n)
	if err != nil {
		s.log.Errorf(ctx, "places.LastN failed n=%d err=%v", n, err)
		return err
	}
	if warmUpErr := s.cache.WarmUp(ctx, list); warmUpErr != nil {
		s.log.Warnf(ctx, "cache.WarmUp failed err=%v", warmUpErr)
	}
	s.log.Infof(ctx, "geo cache warmed with %d places in %s", len(list), time.Since(start))
	return nil
}
