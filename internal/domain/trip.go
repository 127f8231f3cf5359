package domain

import "time"

// Trip — поездка пользователя (велодневник): метаданные + трек + фотографии.
type Trip struct {
	TripUID     string       `json:"trip_uid"`
	UserID      string       `json:"user_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
	DistanceKM  float64      `json:"distance_km"`
	Points      []TrackPoint `json:"points,omitempty"`
	Photos      []Photo      `json:"photos,omitempty"`
}

// TrackPoint — точка GPX-трека.
type TrackPoint struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Elevation float64   `json:"elevation"`
	Time      time.Time `json:"time,omitempty"`
}

// NewTripFromImport — собирает поездку из сообщения импорта и уже
// разобранного трека.
func NewTripFromImport(imp *TripImport, points []TrackPoint, distanceKM float64) *Trip {
	return &Trip{
		TripUID:     imp.TripUID,
		UserID:      imp.UserID,
		Title:       imp.Title,
		Description: imp.Description,
		StartedAt:   imp.StartedAt,
		DistanceKM:  distanceKM,
		Points:      points,
	}
}

// TripImport — сообщение импорта поездки (Kafka). GPX передаётся как
// XML-документ внутри JSON-конверта.
type TripImport struct {
	TripUID     string    `json:"trip_uid"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	GPX         string    `json:"gpx"`
}
