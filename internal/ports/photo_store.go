package ports

import "context"

// PhotoStore — объектное хранилище файлов фотографий.
// onProgress получает проценты 0..100 по мере передачи тела.
type PhotoStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte, onProgress func(percent int)) (string, error)
	Delete(ctx context.Context, objectKey string) error
}
