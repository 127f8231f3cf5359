// Пакет geocode — клиент обратного геокодирования поверх OSM Nominatim.
// Кэширование результатов живёт уровнем выше (usecase), здесь только
// сеть и ограничение частоты запросов.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/velotrail/velotrail/internal/domain"
	"github.com/velotrail/velotrail/internal/ports"
	"github.com/velotrail/velotrail/pkg/metrics"
)

// Проверка, что Nominatim удовлетворяет интерфейсу Geocoder.
var _ ports.Geocoder = (*Nominatim)(nil)

// ErrNoPlace — по координатам ничего не найдено (океан, полюс).
var ErrNoPlace = errors.New("geocode: no place at coordinates")

// Config — настройки клиента. Nominatim требует осмысленный User-Agent
// и не более 1 rps на публичном инстансе.
type Config struct {
	BaseURL        string
	UserAgent      string
	RequestsPerSec float64
	Timeout        time.Duration
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if c.RequestsPerSec <= 0 {
		c.RequestsPerSec = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// Nominatim — клиент reverse-геокодирования с лимитером частоты.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewNominatim — конструктор.
func NewNominatim(cfg Config) *Nominatim {
	cfg.applyDefaults()
	return &Nominatim{
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
	}
}

// nominatimResponse — подмножество ответа /reverse, которое мы используем.
type nominatimResponse struct {
	Error       string `json:"error"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Hamlet       string `json:"hamlet"`
		Municipality string `json:"municipality"`
		Country      string `json:"country"`
	} `json:"address"`
}

// Reverse — координаты → место. Уважает лимит частоты: при исчерпании
// бюджета ждёт до дедлайна контекста.
func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64) (*domain.Place, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', 6, 64)},
		"format": {"jsonv2"},
	}
	endpoint := fmt.Sprintf("%s/reverse?%s", n.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		metrics.GeocoderRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.GeocoderRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("nominatim status %d", resp.StatusCode)
	}

	var data nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		metrics.GeocoderRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// Nominatim отвечает 200 с полем error, если точка вне покрытия.
	if data.Error != "" {
		metrics.GeocoderRequests.WithLabelValues("not_found").Inc()
		return nil, ErrNoPlace
	}

	metrics.GeocoderRequests.WithLabelValues("ok").Inc()
	return &domain.Place{
		Lat:         lat,
		Lon:         lon,
		Name:        placeName(data),
		FullAddress: data.DisplayName,
		ResolvedAt:  time.Now(),
	}, nil
}

// placeName — короткое имя места: первый непустой населённый пункт,
// иначе страна, иначе полный адрес.
func placeName(data nominatimResponse) string {
	for _, candidate := range []string{
		data.Address.City,
		data.Address.Town,
		data.Address.Village,
		data.Address.Hamlet,
		data.Address.Municipality,
		data.Address.Country,
	} {
		if candidate != "" {
			return candidate
		}
	}
	return data.DisplayName
}
