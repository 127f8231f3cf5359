package ports

import (
	"context"

	"github.com/velotrail/velotrail/internal/upload"
)

// PhotoManager — сервис управления фотографиями поездки (контракт для HTTP-слоя).
type PhotoManager interface {
	// AttachPhotos — валидирует пакет файлов и загружает принятые
	// с ограниченной конкурентностью; результат по каждому файлу.
	AttachPhotos(ctx context.Context, tripUID string, files []*upload.File) (upload.BatchResult, error)

	RemovePhoto(ctx context.Context, photoID string) error
	ReorderPhotos(ctx context.Context, tripUID string, orderedIDs []string) error
}
