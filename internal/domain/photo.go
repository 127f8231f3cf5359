package domain

import (
	"encoding/json"
	"time"
)

// Photo — метаданные фотографии поездки. Сам файл лежит в объектном
// хранилище под ObjectKey.
type Photo struct {
	PhotoID     string    `json:"photo_id"`
	TripUID     string    `json:"trip_uid"`
	ObjectKey   string    `json:"object_key"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

// photoJSON — промежуточная форма для разбора исторических payload'ов:
// старые клиенты присылают идентификатор как "id", новые — как "photo_id".
// Нормализуем на границе декодирования, глубже по коду ветвлений нет.
type photoJSON struct {
	ID          string    `json:"id"`
	PhotoID     string    `json:"photo_id"`
	TripUID     string    `json:"trip_uid"`
	ObjectKey   string    `json:"object_key"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

// UnmarshalJSON — принимает оба написания идентификатора; "photo_id"
// имеет приоритет над "id".
func (p *Photo) UnmarshalJSON(raw []byte) error {
	var in photoJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return err
	}
	id := in.PhotoID
	if id == "" {
		id = in.ID
	}
	*p = Photo{
		PhotoID:     id,
		TripUID:     in.TripUID,
		ObjectKey:   in.ObjectKey,
		ContentType: in.ContentType,
		SizeBytes:   in.SizeBytes,
		Position:    in.Position,
		CreatedAt:   in.CreatedAt,
	}
	return nil
}
