package store

import (
	"context"
	"sync"

	"github.com/rajasatyajit/SasmexMonitor/internal/models"
)

// InMemoryStore implements Store using in-memory storage
type InMemoryStore struct {
	mu     sync.RWMutex
	alerts map[string]models.Alert
	quakes map[string]models.Earthquake
}

// NewInMemoryStore creates a new in-memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		alerts: make(map[string]models.Alert),
		quakes: make(map[string]models.Earthquake),
	}
}

// UpsertAlerts stores alerts in memory
func (s *InMemoryStore) UpsertAlerts(ctx context.Context, alerts []models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, alert := range alerts {
		s.alerts[alert.ID] = alert
	}
	return nil
}

// QueryAlerts returns matching alerts, most recent first
func (s *InMemoryStore) QueryAlerts(ctx context.Context, q models.AlertQuery) ([]models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Alert{}
	for _, alert := range s.alerts {
		if q.Matches(alert) {
			result = append(result, alert)
		}
	}
	sortAlertsByTimeAndID(result)

	return paginate(result, q.Limit, q.Offset), nil
}

// GetAlert retrieves a single alert by ID
func (s *InMemoryStore) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if alert, exists := s.alerts[id]; exists {
		return &alert, nil
	}
	return nil, nil
}

// LatestAlert returns the most recent alert, or nil when none is stored
func (s *InMemoryStore) LatestAlert(ctx context.Context) (*models.Alert, error) {
	alerts, err := s.QueryAlerts(ctx, models.AlertQuery{Limit: 1})
	if err != nil || len(alerts) == 0 {
		return nil, err
	}
	return &alerts[0], nil
}

// UpsertEarthquakes stores earthquakes in memory
func (s *InMemoryStore) UpsertEarthquakes(ctx context.Context, quakes []models.Earthquake) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, q := range quakes {
		s.quakes[q.ID] = q
	}
	return nil
}

// QueryEarthquakes returns matching earthquakes, most recent first
func (s *InMemoryStore) QueryEarthquakes(ctx context.Context, q models.EarthquakeQuery) ([]models.Earthquake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Earthquake{}
	for _, e := range s.quakes {
		if q.Matches(e) {
			result = append(result, e)
		}
	}
	sortQuakesByTimeAndID(result)

	return paginate(result, q.Limit, 0), nil
}

// GetEarthquake retrieves a single earthquake by ID
func (s *InMemoryStore) GetEarthquake(ctx context.Context, id string) (*models.Earthquake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if q, exists := s.quakes[id]; exists {
		return &q, nil
	}
	return nil, nil
}

// Health always returns nil for in-memory store
func (s *InMemoryStore) Health(ctx context.Context) error {
	return nil
}
