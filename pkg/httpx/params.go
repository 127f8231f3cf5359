package httpx

import (
	"errors"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

var ErrBadCoordinate = errors.New("invalid coordinate")

// ClampInt — ограничение значения v в диапазоне [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParseLimitOffset — читает limit/offset из query с дефолтами и границами.
func ParseLimitOffset(c *gin.Context, defaultLimit, maxLimit int) (limit, offset int) {
	limit = defaultLimit
	if v, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit))); err == nil {
		limit = ClampInt(v, 1, maxLimit)
	}
	if v, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil && v >= 0 {
		offset = v
	}
	return
}

// ParseLatLon — читает lat/lon из query. Требует конечные значения
// в пределах допустимых географических диапазонов.
func ParseLatLon(c *gin.Context) (lat, lon float64, err error) {
	lat, err = strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return 0, 0, ErrBadCoordinate
	}
	lon, err = strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil || math.IsNaN(lon) || math.IsInf(lon, 0) || lon < -180 || lon > 180 {
		return 0, 0, ErrBadCoordinate
	}
	return lat, lon, nil
}
