// Package usgs reads the USGS earthquake summary feeds.
package usgs

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rajasatyajit/SasmexMonitor/internal/models"
)

// DefaultMinMagnitude gates notifications for USGS events
const DefaultMinMagnitude = 4.5

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	ID         string     `json:"id"`
	Properties properties `json:"properties"`
	Geometry   *geometry  `json:"geometry"`
}

type properties struct {
	Mag     *float64 `json:"mag"`
	Place   string   `json:"place"`
	Time    int64    `json:"time"`
	Updated int64    `json:"updated"`
	URL     string   `json:"url"`
	Tsunami int      `json:"tsunami"`
	Status  string   `json:"status"`
	Type    string   `json:"type"`
	Title   string   `json:"title"`
}

type geometry struct {
	Coordinates []float64 `json:"coordinates"`
}

// ParseFeatureCollection maps a GeoJSON FeatureCollection onto earthquakes,
// newest first. Malformed input yields an empty list.
func ParseFeatureCollection(body []byte) []models.Earthquake {
	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return []models.Earthquake{}
	}

	quakes := make([]models.Earthquake, 0, len(fc.Features))
	for _, f := range fc.Features {
		if strings.TrimSpace(f.ID) == "" {
			continue
		}
		q := models.Earthquake{
			ID:      f.ID,
			Place:   f.Properties.Place,
			URL:     f.Properties.URL,
			Tsunami: f.Properties.Tsunami != 0,
			Status:  f.Properties.Status,
			Type:    f.Properties.Type,
		}
		if q.Place == "" {
			q.Place = f.Properties.Title
		}
		if f.Properties.Mag != nil {
			q.Magnitude = *f.Properties.Mag
		}
		if f.Properties.Time > 0 {
			q.Time = time.UnixMilli(f.Properties.Time).UTC()
		}
		if f.Properties.Updated > 0 {
			q.Updated = time.UnixMilli(f.Properties.Updated).UTC()
		}
		if f.Geometry != nil {
			c := f.Geometry.Coordinates
			if len(c) >= 2 {
				q.Longitude, q.Latitude = c[0], c[1]
			}
			if len(c) >= 3 {
				q.DepthKM = c[2]
			}
		}
		quakes = append(quakes, q)
	}

	models.SortEarthquakes(quakes)
	return quakes
}

// FilterByMagnitude keeps earthquakes at or above min, newest first
func FilterByMagnitude(quakes []models.Earthquake, min float64) []models.Earthquake {
	out := make([]models.Earthquake, 0, len(quakes))
	for _, q := range quakes {
		if q.Magnitude >= min {
			out = append(out, q)
		}
	}
	models.SortEarthquakes(out)
	return out
}
