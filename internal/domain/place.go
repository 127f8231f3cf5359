package domain

import "time"

// Place — результат обратного геокодирования точки.
type Place struct {
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	Name        string    `json:"name"`
	FullAddress string    `json:"full_address"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

// CacheStats — диагностический срез гео-кэша. Снимок только для чтения,
// получение не меняет состояние кэша.
type CacheStats struct {
	Size               int               `json:"size"`
	MaxSize            int               `json:"max_size"`
	UtilizationPercent float64           `json:"utilization_percent"`
	Hits               uint64            `json:"hits"`
	Misses             uint64            `json:"misses"`
	HitRate            float64           `json:"hit_rate"`
	Entries            []CacheEntryStats `json:"entries"`
}

// CacheEntryStats — диагностика одной записи кэша (от самой свежей к самой старой).
type CacheEntryStats struct {
	Key         string    `json:"key"`
	AccessCount int       `json:"access_count"`
	LastAccess  time.Time `json:"last_access"`
}
