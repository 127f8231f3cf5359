package ports

import (
	"context"

	"github.com/velotrail/velotrail/internal/domain"
)

// GeoCache — кэш результатов обратного геокодирования.
// Требования к реализации: потокобезопасность; доступ по ключу не хуже O(1);
// ключ выводится из координат детерминированно; возврат копий сущности.
type GeoCache interface {
	// Get — вернуть место по координатам; (place, true) при попадании,
	// (nil, false) при промахе. Попадание продвигает запись в голову LRU.
	Get(ctx context.Context, lat, lon float64) (*domain.Place, bool)

	// Set — сохранить/обновить место в кэше. При переполнении вытесняется
	// самая давно не использованная запись.
	Set(ctx context.Context, lat, lon float64, place *domain.Place) error

	// Has — проверка наличия без влияния на порядок вытеснения и счётчики.
	Has(ctx context.Context, lat, lon float64) bool

	// Clear — удалить все записи; счётчики hit/miss сохраняются на время
	// жизни процесса.
	Clear(ctx context.Context)

	// Stats — диагностический срез (размер, счётчики, записи).
	Stats(ctx context.Context) domain.CacheStats

	// WarmUp — массовая загрузка кэша (например, при старте).
	WarmUp(ctx context.Context, places []*domain.Place) error
}
