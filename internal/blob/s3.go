// Пакет blob — объектное хранилище фотографий поверх S3-совместимого
// API (MinIO в докере, любой S3 в проде).
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/velotrail/velotrail/internal/ports"
)

// Проверка, что S3Store удовлетворяет интерфейсу PhotoStore.
var _ ports.PhotoStore = (*S3Store)(nil)

// Config — настройки подключения. Endpoint непустой — работаем с
// S3-совместимым хранилищем (MinIO), path-style обязателен.
type Config struct {
	Endpoint       string
	Region         string
	Bucket         string
	ForcePathStyle bool
}

// S3Store — загрузка/удаление файлов с прогрессом по телу запроса.
type S3Store struct {
	client s3iface.S3API
	bucket string
}

// NewS3Store — конструктор поверх стандартной цепочки кредов AWS SDK
// (env, shared config, IAM).
func NewS3Store(cfg Config) *S3Store {
	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint)
	}
	if cfg.ForcePathStyle {
		awsCfg = awsCfg.WithS3ForcePathStyle(true)
	}

	sess := session.Must(session.NewSession(awsCfg))
	return &S3Store{
		client: s3.New(sess),
		bucket: cfg.Bucket,
	}
}

// NewS3StoreWithClient — конструктор с готовым клиентом (тесты).
func NewS3StoreWithClient(client s3iface.S3API, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// Upload — кладёт объект под key и возвращает его. onProgress получает
// проценты 0..100 по мере чтения тела запроса SDK (при ретраях SDK
// перематывает reader — счётчик сбрасывается, проценты не убывают на
// стороне очереди).
func (s *S3Store) Upload(ctx context.Context, key, contentType string, data []byte, onProgress func(percent int)) (string, error) {
	body := newProgressReader(data, onProgress)

	if _, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	if onProgress != nil {
		onProgress(100)
	}
	return key, nil
}

// Delete — удаляет объект. Отсутствующий ключ для S3 не ошибка.
func (s *S3Store) Delete(ctx context.Context, objectKey string) error {
	if _, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", objectKey, err)
	}
	return nil
}

// progressReader — io.ReadSeeker поверх буфера с отчётом о прогрессе.
// Seek нужен SDK для подписи запроса и перемотки при ретраях.
type progressReader struct {
	r          *bytes.Reader
	total      int64
	read       int64
	onProgress func(percent int)
}

func newProgressReader(data []byte, onProgress func(percent int)) *progressReader {
	return &progressReader{
		r:          bytes.NewReader(data),
		total:      int64(len(data)),
		onProgress: onProgress,
	}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.read += int64(n)
		if pr.onProgress != nil && pr.total > 0 {
			pct := int(pr.read * 100 / pr.total)
			if pct > 100 {
				pct = 100
			}
			pr.onProgress(pct)
		}
	}
	return n, err
}

func (pr *progressReader) Seek(offset int64, whence int) (int64, error) {
	pos, err := pr.r.Seek(offset, whence)
	if err == nil && pos == 0 {
		// полная перемотка (ретрай) — прогресс начинается заново
		pr.read = 0
	}
	return pos, err
}

var _ io.ReadSeeker = (*progressReader)(nil)
