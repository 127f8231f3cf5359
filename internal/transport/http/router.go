package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/velotrail/velotrail/internal/geocode"
	"github.com/velotrail/velotrail/internal/ports"
	"github.com/velotrail/velotrail/internal/upload"
	"github.com/velotrail/velotrail/internal/usecase"
	"github.com/velotrail/velotrail/pkg/httpx"
)

// photosFormField — имя поля multipart-формы с файлами.
const photosFormField = "photos"

type Handler struct {
	trips   ports.TripReadService
	places  ports.PlaceResolver
	photos  ports.PhotoManager
	log     ports.Logger
	timeout time.Duration
}

// NewHandler - конструктор Handler. timeout > 0 ограничивает время
// обработки каждого запроса.
func NewHandler(
	trips ports.TripReadService,
	places ports.PlaceResolver,
	photos ports.PhotoManager,
	log ports.Logger,
	timeout time.Duration,
) *Handler {
	return &Handler{trips: trips, places: places, photos: photos, log: log, timeout: timeout}
}

// NewRouter — прод-пайплайн HTTP: recovery, request-id, логирование и,
// при непустом otelServiceName, трейсинг входящих запросов.
func NewRouter(h *Handler, otelServiceName string) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	if otelServiceName != "" {
		r.Use(otelgin.Middleware(otelServiceName))
	}
	r.Use(httpx.RequestIDMiddleware())
	r.Use(httpx.RequestLogger(h.log))
	if h.timeout > 0 {
		r.Use(timeoutMiddleware(h.timeout))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/trip/:id", h.getTripByUID)
	r.GET("/user/:id/trips", h.listTripsByUser)

	r.GET("/geocode/reverse", h.reverseGeocode)
	r.GET("/geocode/cache/stats", h.geoCacheStats)

	r.POST("/trip/:id/photos", h.attachPhotos)
	r.DELETE("/photo/:id", h.removePhoto)
	r.PUT("/trip/:id/photos/order", h.reorderPhotos)

	return r
}

func timeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (h *Handler) getTripByUID(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty id"})
		return
	}
	trip, err := h.trips.GetTrip(c.Request.Context(), id)
	if err != nil {
		h.log.Errorf(c.Request.Context(), "GetTrip failed id=%s err=%v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if trip == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (h *Handler) listTripsByUser(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty user id"})
		return
	}

	limit, offset := httpx.ParseLimitOffset(c, 20, 100)

	trips, err := h.trips.TripsByUser(c.Request.Context(), id, limit, offset)
	if err != nil {
		h.log.Errorf(c.Request.Context(), "TripsByUser failed id=%s err=%v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, trips)
}

func (h *Handler) reverseGeocode(c *gin.Context) {
	lat, lon, err := httpx.ParseLatLon(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat/lon"})
		return
	}

	place, err := h.places.Resolve(c.Request.Context(), lat, lon)
	if errors.Is(err, geocode.ErrNoPlace) {
		c.JSON(http.StatusNotFound, gin.H{"error": "place not found"})
		return
	}
	if err != nil {
		h.log.Errorf(c.Request.Context(), "Resolve failed lat=%f lon=%f err=%v", lat, lon, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, place)
}

func (h *Handler) geoCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.places.CacheStats(c.Request.Context()))
}

func (h *Handler) attachPhotos(c *gin.Context) {
	tripUID := c.Param("id")
	if tripUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty id"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	headers := form.File[photosFormField]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files in form field 'photos'"})
		return
	}

	files := make([]*upload.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file " + fh.Filename})
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file " + fh.Filename})
			return
		}
		files = append(files, &upload.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Data:        data,
		})
	}

	result, err := h.photos.AttachPhotos(c.Request.Context(), tripUID, files)
	if errors.Is(err, usecase.ErrTripNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
		return
	}
	if err != nil {
		h.log.Errorf(c.Request.Context(), "AttachPhotos failed trip=%s err=%v", tripUID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) removePhoto(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty id"})
		return
	}

	err := h.photos.RemovePhoto(c.Request.Context(), id)
	if errors.Is(err, usecase.ErrPhotoNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "photo not found"})
		return
	}
	if err != nil {
		h.log.Errorf(c.Request.Context(), "RemovePhoto failed id=%s err=%v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// reorderRequest — тело PUT /trip/:id/photos/order.
type reorderRequest struct {
	PhotoIDs []string `json:"photo_ids" binding:"required"`
}

func (h *Handler) reorderPhotos(c *gin.Context) {
	tripUID := c.Param("id")
	if tripUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty id"})
		return
	}

	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.PhotoIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo_ids is required"})
		return
	}

	err := h.photos.ReorderPhotos(c.Request.Context(), tripUID, req.PhotoIDs)
	if errors.Is(err, ports.ErrPhotoOrderConflict) {
		// клиент возвращает прежний порядок и повторяет с актуальным списком
		c.JSON(http.StatusConflict, gin.H{"error": "photo set changed, refresh and retry"})
		return
	}
	if err != nil {
		h.log.Errorf(c.Request.Context(), "ReorderPhotos failed trip=%s err=%v", tripUID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}
