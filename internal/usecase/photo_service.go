package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/velotrail/velotrail/internal/domain"
	"github.com/velotrail/velotrail/internal/ports"
	"github.com/velotrail/velotrail/internal/upload"
)

// Проверка, что PhotoService удовлетворяет интерфейсу PhotoManager.
var _ ports.PhotoManager = (*PhotoService)(nil)

var (
	// ErrTripNotFound — поездка с таким UID не существует.
	ErrTripNotFound = errors.New("trip not found")
	// ErrPhotoNotFound — фотография с таким id не существует.
	ErrPhotoNotFound = errors.New("photo not found")
)

// PhotoService — управление фотографиями поездки: валидация пакета,
// загрузка в объектное хранилище с ограниченной конкурентностью,
// удаление и перестановка.
type PhotoService struct {
	trips  ports.TripRepository
	photos ports.PhotoRepository
	store  ports.PhotoStore
	log    ports.Logger
	limits upload.Limits
}

// NewPhotoService — DI-конструктор.
func NewPhotoService(
	trips ports.TripRepository,
	photos ports.PhotoRepository,
	store ports.PhotoStore,
	log ports.Logger,
	limits upload.Limits,
) *PhotoService {
	return &PhotoService{
		trips:  trips,
		photos: photos,
		store:  store,
		log:    log,
		limits: limits,
	}
}

// AttachPhotos — принимает пакет файлов для поездки: отклонённые файлы
// не порождают сетевых вызовов, принятые загружаются с ограниченной
// конкурентностью; ошибка одного файла не трогает остальные.
func (s *PhotoService) AttachPhotos(ctx context.Context, tripUID string, files []*upload.File) (upload.BatchResult, error) {
	trip, err := s.trips.GetByUID(ctx, tripUID)
	if err != nil {
		s.log.Errorf(ctx, "trips.GetByUID failed trip_uid=%s err=%v", tripUID, err)
		return upload.BatchResult{}, err
	}
	if trip == nil {
		return upload.BatchResult{}, ErrTripNotFound
	}

	q := upload.NewQueue(s.limits, s.uploadFunc(tripUID))
	_, rejected := q.Accept(files)
	for _, rej := range rejected {
		s.log.Warnf(ctx, "photo rejected trip_uid=%s name=%s reason=%s", tripUID, rej.Name, rej.Reason)
	}

	if err := q.Process(ctx); err != nil {
		return upload.BatchResult{Items: q.Snapshot(), Rejected: rejected}, err
	}

	s.log.Infof(ctx, "photo batch done trip_uid=%s accepted=%d rejected=%d",
		tripUID, q.Len(), len(rejected))
	return upload.BatchResult{Items: q.Snapshot(), Rejected: rejected}, nil
}

// RemovePhoto — удаляет фотографию: сначала файл в хранилище, затем
// метаданные. При ошибке хранилища запись остаётся (повторная попытка
// возможна).
func (s *PhotoService) RemovePhoto(ctx context.Context, photoID string) error {
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		s.log.Errorf(ctx, "photos.GetByID failed photo_id=%s err=%v", photoID, err)
		return err
	}
	if photo == nil {
		return ErrPhotoNotFound
	}

	if err := s.store.Delete(ctx, photo.ObjectKey); err != nil {
		s.log.Errorf(ctx, "store.Delete failed photo_id=%s key=%s err=%v", photoID, photo.ObjectKey, err)
		return fmt.Errorf("delete object: %w", err)
	}
	if err := s.photos.Delete(ctx, photoID); err != nil {
		s.log.Errorf(ctx, "photos.Delete failed photo_id=%s err=%v", photoID, err)
		return err
	}

	s.log.Infof(ctx, "photo removed photo_id=%s trip_uid=%s", photoID, photo.TripUID)
	return nil
}

// ReorderPhotos — сохраняет новый порядок фотографий поездки. Конфликт
// (конкурентное добавление/удаление) возвращается вызывающему как есть —
// транспортный слой отдаст 409, клиент откатит локальную перестановку.
func (s *PhotoService) ReorderPhotos(ctx context.Context, tripUID string, orderedIDs []string) error {
	if err := s.photos.UpdatePositions(ctx, tripUID, orderedIDs); err != nil {
		s.log.Warnf(ctx, "photos.UpdatePositions failed trip_uid=%s err=%v", tripUID, err)
		return err
	}
	s.log.Infof(ctx, "photos reordered trip_uid=%s count=%d", tripUID, len(orderedIDs))
	return nil
}

// uploadFunc — загрузка одного файла: объект в хранилище, затем
// метаданные в БД. Если метаданные не записались, объект подчищается.
func (s *PhotoService) uploadFunc(tripUID string) upload.UploadFunc {
	return func(ctx context.Context, f *upload.File, onProgress func(percent int)) (string, error) {
		key := fmt.Sprintf("trips/%s/%s", tripUID, uuid.New().String())

		objectKey, err := s.store.Upload(ctx, key, f.ContentType, f.Data, onProgress)
		if err != nil {
			return "", fmt.Errorf("upload object: %w", err)
		}

		photo := &domain.Photo{
			PhotoID:     uuid.New().String(),
			TripUID:     tripUID,
			ObjectKey:   objectKey,
			ContentType: f.ContentType,
			SizeBytes:   f.Size,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.photos.Add(ctx, photo); err != nil {
			// Объект без метаданных никому не виден — подчищаем best effort.
			if delErr := s.store.Delete(ctx, objectKey); delErr != nil {
				s.log.Warnf(ctx, "orphan object cleanup failed key=%s err=%v", objectKey, delErr)
			}
			return "", fmt.Errorf("save photo meta: %w", err)
		}

		return photo.PhotoID, nil
	}
}
