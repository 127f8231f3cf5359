//go:build integration

package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/velotrail/velotrail/internal/domain"
)

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func UniqSuffix() string { return randHex(6) }

// MakeGPX — валидный GPX-документ с n точками вдоль меридиана,
// метки времени монотонные (шаг минута).
func MakeGPX(n int, start time.Time) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?><gpx version="1.1"><trk><trkseg>`)
	for i := 0; i < n; i++ {
		lat := 40.40 + float64(i)*0.001
		ts := start.Add(time.Duration(i) * time.Minute).UTC().Format(time.RFC3339)
		fmt.Fprintf(&sb, `<trkpt lat="%.5f" lon="-3.70000"><ele>650</ele><time>%s</time></trkpt>`, lat, ts)
	}
	sb.WriteString(`</trkseg></trk></gpx>`)
	return sb.String()
}

// Мини-генератор валидного сообщения импорта поездки
func MakeTripImport(opts ...func(*domain.TripImport)) domain.TripImport {
	uid := "trip-" + UniqSuffix()
	now := time.Now().UTC().Truncate(time.Second)

	imp := domain.TripImport{
		TripUID:   uid,
		UserID:    "user-" + UniqSuffix(),
		Title:     "Morning loop " + UniqSuffix(),
		StartedAt: now,
		GPX:       MakeGPX(3, now),
	}

	for _, fn := range opts {
		fn(&imp)
	}
	return imp
}

// Доп. опции для переопределения полей в тестах

func WithTripUID(uid string) func(*domain.TripImport) {
	return func(imp *domain.TripImport) { imp.TripUID = uid }
}

func WithUser(userID string) func(*domain.TripImport) {
	return func(imp *domain.TripImport) { imp.UserID = userID }
}

func WithTitle(title string) func(*domain.TripImport) {
	return func(imp *domain.TripImport) { imp.Title = title }
}

func WithGPXPoints(n int) func(*domain.TripImport) {
	return func(imp *domain.TripImport) { imp.GPX = MakeGPX(n, imp.StartedAt) }
}
