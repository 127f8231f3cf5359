package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/velotrail/velotrail/internal/domain"
	"github.com/velotrail/velotrail/internal/gpx"
)

// InputFormat допустимые значения.
type InputFormat string

const (
	FormatAuto InputFormat = "auto"
	FormatGPX  InputFormat = "gpx"
	FormatJSON InputFormat = "json"
)

// ValidateFile — валидирует файл как GPX-трек или JSON-конверт импорта
// поездки; при успехе пишет нормализованный JSON в ow.
// Возвращает краткую сводку и ошибку.
func ValidateFile(ctx context.Context, validator *TripValidator, filePath string, format InputFormat, ow io.Writer) (string, error) {
	// auto по расширению
	if format == FormatAuto {
		switch strings.ToLower(filepath.Ext(filePath)) {
		case ".gpx":
			format = FormatGPX
		case ".json":
			format = FormatJSON
		default:
			// по умолчанию считаем GPX
			format = FormatGPX
		}
	}

	raw, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	switch format {
	case FormatGPX:
		return validateGPX(ctx, validator, raw, ow)
	case FormatJSON:
		return validateImportJSON(ctx, validator, raw, ow)
	default:
		return "", fmt.Errorf("unknown format: %q", format)
	}
}

// validateGPX — разбирает трек и проверяет точки.
func validateGPX(ctx context.Context, validator *TripValidator, raw []byte, ow io.Writer) (string, error) {
	points, err := gpx.Parse(raw)
	if err != nil {
		return "", err
	}
	if err := validator.ValidatePoints(points); err != nil {
		return "", err
	}
	if ow != nil {
		if err := json.NewEncoder(ow).Encode(points); err != nil {
			return "", fmt.Errorf("encode points: %w", err)
		}
	}
	return fmt.Sprintf("points=%d distance_km=%.2f", len(points), gpx.TotalDistanceKM(points)), nil
}

// validateImportJSON — строгий разбор конверта импорта + полная валидация
// собранной поездки (та же цепочка, что у Kafka-консьюмера).
func validateImportJSON(ctx context.Context, validator *TripValidator, raw []byte, ow io.Writer) (string, error) {
	var imp domain.TripImport
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&imp); err != nil {
		return "", fmt.Errorf("invalid json: %w", err)
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		return "", fmt.Errorf("invalid json: trailing data")
	}

	points, err := gpx.Parse([]byte(imp.GPX))
	if err != nil {
		return "", err
	}

	trip := domain.NewTripFromImport(&imp, points, gpx.TotalDistanceKM(points))
	if err := validator.Validate(ctx, trip); err != nil {
		return "", err
	}

	if ow != nil {
		if err := json.NewEncoder(ow).Encode(trip); err != nil {
			return "", fmt.Errorf("encode trip: %w", err)
		}
	}
	return fmt.Sprintf("trip_uid=%s points=%d", trip.TripUID, len(points)), nil
}
