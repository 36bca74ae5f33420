// Package store persists alerts and earthquakes for the query API.
package store

import (
	"context"

	"github.com/rajasatyajit/SasmexMonitor/internal/models"
)

// Store defines the interface for alert and earthquake storage
type Store interface {
	UpsertAlerts(ctx context.Context, alerts []models.Alert) error
	QueryAlerts(ctx context.Context, q models.AlertQuery) ([]models.Alert, error)
	GetAlert(ctx context.Context, id string) (*models.Alert, error)
	LatestAlert(ctx context.Context) (*models.Alert, error)

	UpsertEarthquakes(ctx context.Context, quakes []models.Earthquake) error
	QueryEarthquakes(ctx context.Context, q models.EarthquakeQuery) ([]models.Earthquake, error)
	GetEarthquake(ctx context.Context, id string) (*models.Earthquake, error)

	Health(ctx context.Context) error
}

// Database interface for dependency injection
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (interface{}, error)
	QueryRow(ctx context.Context, sql string, args ...any) interface{}
	Health(ctx context.Context) error
	IsConfigured() bool
}

// New creates a new store instance
func New(db Database) Store {
	if db != nil && db.IsConfigured() {
		return NewPostgresStore(db)
	}
	// Fallback to in-memory store if no database
	return NewInMemoryStore()
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 && offset < len(items) {
		items = items[offset:]
	} else if offset >= len(items) && offset > 0 {
		return []T{}
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
