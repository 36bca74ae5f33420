package models

import (
	"sort"
	"time"
)

// Earthquake is one USGS GeoJSON feature mapped field by field
type Earthquake struct {
	ID        string    `json:"id" db:"id"`
	Magnitude float64   `json:"magnitude" db:"magnitude"`
	Place     string    `json:"place" db:"place"`
	Time      time.Time `json:"time" db:"time"`
	Updated   time.Time `json:"updated" db:"updated"`
	URL       string    `json:"url" db:"url"`
	Tsunami   bool      `json:"tsunami" db:"tsunami"`
	Status    string    `json:"status" db:"status"`
	Type      string    `json:"type" db:"type"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	DepthKM   float64   `json:"depth_km" db:"depth_km"`
}

// SortEarthquakes orders earthquakes most recent first
func SortEarthquakes(quakes []Earthquake) {
	sort.SliceStable(quakes, func(i, j int) bool {
		return quakes[i].Time.After(quakes[j].Time)
	})
}

// EarthquakeQuery filters stored earthquakes
type EarthquakeQuery struct {
	MinMagnitude float64   `json:"min_magnitude"`
	Since        time.Time `json:"since"`
	Until        time.Time `json:"until"`
	Limit        int       `json:"limit"`
}

// Matches checks if an earthquake matches the query criteria
func (q EarthquakeQuery) Matches(e Earthquake) bool {
	if q.MinMagnitude > 0 && e.Magnitude < q.MinMagnitude {
		return false
	}
	if !q.Since.IsZero() && e.Time.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && e.Time.After(q.Until) {
		return false
	}
	return true
}
