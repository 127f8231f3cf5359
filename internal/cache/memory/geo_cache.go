package memory

import (
	"container/list"
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/velotrail/velotrail/internal/domain"
	"github.com/velotrail/velotrail/internal/ports"
	"github.com/velotrail/velotrail/pkg/metrics"
)

// Проверка, что GeoLRU удовлетворяет интерфейсу GeoCache.
var _ ports.GeoCache = (*GeoLRU)(nil)

type entry struct {
	key         string
	place       *domain.Place
	lastAccess  time.Time
	accessCount int
}

// GeoLRU — ограниченный по размеру LRU-кэш результатов обратного
// геокодирования. Ключ — координаты, округлённые до 3 знаков (~111 м):
// повторные запросы рядом с уже разрешённой точкой переиспользуют
// закэшированное место. Сеть/повторы — ответственность вызывающего.
type GeoLRU struct {
	maxSize int

	ll    *list.List               // голова — самая свежая запись
	index map[string]*list.Element

	hits   uint64
	misses uint64

	mu sync.Mutex
}

// NewGeoLRU — конструктор. maxSize <= 0 трактуется как 1.
func NewGeoLRU(maxSize int) *GeoLRU {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &GeoLRU{
		maxSize: maxSize,
		ll:      list.New(),
		index:   make(map[string]*list.Element),
	}
}

// Key — детерминированный ключ кэша: широта и долгота, округлённые
// до 3 десятичных знаков, через запятую.
func Key(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', 3, 64) + "," + strconv.FormatFloat(lon, 'f', 3, 64)
}

// Get — вернуть место по координатам. Попадание продвигает запись в голову
// LRU, обновляет lastAccess и accessCount.
func (c *GeoLRU) Get(_ context.Context, lat, lon float64) (*domain.Place, bool) {
	key := Key(lat, lon)

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[key]
	if !ok {
		c.misses++
		metrics.GeoCacheOps.WithLabelValues("miss").Inc()
		return nil, false
	}

	ent := elem.Value.(*entry)
	c.ll.MoveToFront(elem)
	ent.lastAccess = time.Now()
	ent.accessCount++

	c.hits++
	metrics.GeoCacheOps.WithLabelValues("hit").Inc()
	return clonePlace(ent.place), true
}

// Set — сохранить/обновить место. Существующий ключ пересоздаётся
// (accessCount = 1, запись становится самой свежей). Новый ключ при
// заполненном кэше вытесняет самую давнюю запись. После вызова размер
// кэша не превышает maxSize.
func (c *GeoLRU) Set(_ context.Context, lat, lon float64, place *domain.Place) error {
	if place == nil {
		return nil
	}
	key := Key(lat, lon)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[key]; ok {
		c.removeElement(elem)
	} else if c.ll.Len() >= c.maxSize {
		c.evictLRU()
	}

	elem := c.ll.PushFront(&entry{
		key:         key,
		place:       clonePlace(place),
		lastAccess:  time.Now(),
		accessCount: 1,
	})
	c.index[key] = elem
	metrics.GeoCacheSize.Set(float64(len(c.index)))
	return nil
}

// Has — проверка наличия без влияния на порядок вытеснения и счётчики.
func (c *GeoLRU) Has(_ context.Context, lat, lon float64) bool {
	key := Key(lat, lon)

	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.index[key]
	return ok
}

// Clear — удаляет все записи; счётчики hit/miss живут до конца процесса.
func (c *GeoLRU) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll.Init()
	c.index = make(map[string]*list.Element)
	metrics.GeoCacheSize.Set(0)
}

// Stats — диагностический срез; состояние кэша не меняет.
func (c *GeoLRU) Stats(_ context.Context) domain.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := domain.CacheStats{
		Size:    len(c.index),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		Entries: make([]domain.CacheEntryStats, 0, len(c.index)),
	}
	stats.UtilizationPercent = float64(stats.Size) / float64(c.maxSize) * 100

	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}

	for elem := c.ll.Front(); elem != nil; elem = elem.Next() {
		ent := elem.Value.(*entry)
		stats.Entries = append(stats.Entries, domain.CacheEntryStats{
			Key:         ent.key,
			AccessCount: ent.accessCount,
			LastAccess:  ent.lastAccess,
		})
	}
	return stats
}

// WarmUp — массовая загрузка кэша (например, при старте).
func (c *GeoLRU) WarmUp(ctx context.Context, places []*domain.Place) error {
	for _, place := range places {
		if place == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Set(ctx, place.Lat, place.Lon, place); err != nil {
			return err
		}
	}
	return nil
}

// ------вспомогательные функции------

// evictLRU — удаляет самую давно не использованную запись (хвост списка).
func (c *GeoLRU) evictLRU() {
	if back := c.ll.Back(); back != nil {
		c.removeElement(back)
		metrics.GeoCacheOps.WithLabelValues("evicted").Inc()
		metrics.GeoCacheSize.Set(float64(len(c.index)))
	}
}

// removeElement — удаляет элемент из списка и индекса.
func (c *GeoLRU) removeElement(elem *list.Element) {
	ent := elem.Value.(*entry)
	delete(c.index, ent.key)
	c.ll.Remove(elem)
}

// clonePlace — возвращает копию места, чтобы внешние изменения
// не отражались на данных внутри кэша.
func clonePlace(place *domain.Place) *domain.Place {
	if place == nil {
		return nil
	}
	clonedPlace := *place
	return &clonedPlace
}
