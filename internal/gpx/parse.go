// Пакет gpx — разбор GPX-треков (trk/trkseg/trkpt) и подсчёт длины маршрута.
package gpx

import (
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/velotrail/velotrail/internal/domain"
)

// ErrNoTrackPoints — в документе нет ни одной точки трека.
var ErrNoTrackPoints = errors.New("gpx: no track points")

const earthRadiusKM = 6371.0088

type gpxDoc struct {
	XMLName xml.Name `xml:"gpx"`
	Tracks  []gpxTrk `xml:"trk"`
}

type gpxTrk struct {
	Name     string   `xml:"name"`
	Segments []gpxSeg `xml:"trkseg"`
}

type gpxSeg struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxPoint struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Ele  float64 `xml:"ele"`
	Time string  `xml:"time"`
}

// Parse — разбирает GPX-документ в плоский список точек (все сегменты всех
// треков по порядку). Время точки опционально (RFC3339).
func Parse(raw []byte) ([]domain.TrackPoint, error) {
	var doc gpxDoc
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("gpx: parse: %w", err)
	}

	var points []domain.TrackPoint
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				tp := domain.TrackPoint{
					Lat:       p.Lat,
					Lon:       p.Lon,
					Elevation: p.Ele,
				}
				if p.Time != "" {
					ts, err := time.Parse(time.RFC3339, p.Time)
					if err != nil {
						return nil, fmt.Errorf("gpx: point time %q: %w", p.Time, err)
					}
					tp.Time = ts
				}
				points = append(points, tp)
			}
		}
	}

	if len(points) == 0 {
		return nil, ErrNoTrackPoints
	}
	return points, nil
}

// TotalDistanceKM — длина ломаной по точкам трека (гаверсинус).
func TotalDistanceKM(points []domain.TrackPoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += haversineKM(points[i-1].Lat, points[i-1].Lon, points[i].Lat, points[i].Lon)
	}
	return total
}

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(a))
}
