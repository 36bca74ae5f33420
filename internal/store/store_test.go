package store

import (
	"context"
	"testing"
	"time"

	"github.com/rajasatyajit/SasmexMonitor/internal/models"
)

type cfgDB struct{ configured bool }

func (d *cfgDB) Exec(ctx context.Context, sql string, args ...any) error { return nil }
func (d *cfgDB) Query(ctx context.Context, sql string, args ...any) (interface{}, error) {
	return nil, nil
}
func (d *cfgDB) QueryRow(ctx context.Context, sql string, args ...any) interface{} { return nil }
func (d *cfgDB) Health(ctx context.Context) error                                  { return nil }
func (d *cfgDB) IsConfigured() bool                                                { return d.configured }

func TestNew_ReturnsPostgresWhenConfigured(t *testing.T) {
	s := New(&cfgDB{configured: true})
	if _, ok := s.(*PostgresStore); !ok {
		t.Fatalf("expected PostgresStore when db is configured, got %T", s)
	}
}

func TestNew_ReturnsInMemoryWhenNotConfigured(t *testing.T) {
	s := New(&cfgDB{configured: false})
	if _, ok := s.(*InMemoryStore); !ok {
		t.Fatalf("expected InMemoryStore when db is not configured, got %T", s)
	}
	if _, ok := New(nil).(*InMemoryStore); !ok {
		t.Fatal("expected InMemoryStore for nil db")
	}
}

func ptr(f float64) *float64 { return &f }

var base = time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC)

func fixtureAlerts() []models.Alert {
	return []models.Alert{
		{ID: "a1", OccurredAt: base, Title: "Sismo Oaxaca", Severity: models.SeverityMenor, Description: "moderado"},
		{ID: "a2", OccurredAt: base.Add(time.Hour), Title: "Sismo Guerrero", Severity: models.SeverityMayor,
			Magnitude: ptr(6.8), Epicenter: "Acapulco, GRO", DepthKM: ptr(15),
			Coordinates: &models.Coordinates{Latitude: 16.8, Longitude: -99.9}},
		{ID: "a3", OccurredAt: base.Add(2 * time.Hour), Title: "Sismo Chiapas", Severity: models.SeverityModerada},
	}
}

func fixtureQuakes() []models.Earthquake {
	return []models.Earthquake{
		{ID: "us1", Magnitude: 4.1, Place: "A", Time: base, Updated: base.Add(time.Minute), URL: "https://x/us1"},
		{ID: "us2", Magnitude: 6.2, Place: "B", Time: base.Add(time.Hour), Tsunami: true, Latitude: 16.1, Longitude: -98.4, DepthKM: 12.5},
	}
}

// runStoreContract exercises the behaviour every Store backend shares
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	latest, err := s.LatestAlert(ctx)
	if err != nil || latest != nil {
		t.Fatalf("expected no latest alert on empty store, got %+v, %v", latest, err)
	}

	if err := s.UpsertAlerts(ctx, fixtureAlerts()); err != nil {
		t.Fatalf("UpsertAlerts: %v", err)
	}

	all, err := s.QueryAlerts(ctx, models.AlertQuery{})
	if err != nil {
		t.Fatalf("QueryAlerts: %v", err)
	}
	if len(all) != 3 || all[0].ID != "a3" || all[2].ID != "a1" {
		t.Fatalf("expected newest first, got %v", alertIDs(all))
	}

	got, err := s.GetAlert(ctx, "a2")
	if err != nil || got == nil {
		t.Fatalf("GetAlert: %+v, %v", got, err)
	}
	if got.Magnitude == nil || *got.Magnitude != 6.8 || got.DepthKM == nil || *got.DepthKM != 15 {
		t.Errorf("expected numeric fields to round-trip, got %+v", got)
	}
	if got.Coordinates == nil || got.Coordinates.Longitude != -99.9 {
		t.Errorf("expected coordinates to round-trip, got %+v", got.Coordinates)
	}
	if !got.OccurredAt.Equal(base.Add(time.Hour)) {
		t.Errorf("expected occurred_at %v, got %v", base.Add(time.Hour), got.OccurredAt)
	}

	missing, err := s.GetAlert(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("expected nil for unknown id, got %+v, %v", missing, err)
	}

	mayor, _ := s.QueryAlerts(ctx, models.AlertQuery{Severities: []models.Severity{models.SeverityMayor}})
	if len(mayor) != 1 || mayor[0].ID != "a2" {
		t.Errorf("expected only a2 for Mayor filter, got %v", alertIDs(mayor))
	}

	window, _ := s.QueryAlerts(ctx, models.AlertQuery{Since: base.Add(30 * time.Minute), Until: base.Add(90 * time.Minute)})
	if len(window) != 1 || window[0].ID != "a2" {
		t.Errorf("expected a2 in window, got %v", alertIDs(window))
	}

	page, _ := s.QueryAlerts(ctx, models.AlertQuery{Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].ID != "a2" {
		t.Errorf("expected a2 on second page, got %v", alertIDs(page))
	}

	latest, err = s.LatestAlert(ctx)
	if err != nil || latest == nil || latest.ID != "a3" {
		t.Errorf("expected latest a3, got %+v, %v", latest, err)
	}

	updated := fixtureAlerts()[:1]
	updated[0].Title = "Sismo Oaxaca actualizado"
	if err := s.UpsertAlerts(ctx, updated); err != nil {
		t.Fatalf("UpsertAlerts update: %v", err)
	}
	all, _ = s.QueryAlerts(ctx, models.AlertQuery{})
	if len(all) != 3 {
		t.Errorf("expected upsert to replace, got %d alerts", len(all))
	}
	if a1, _ := s.GetAlert(ctx, "a1"); a1 == nil || a1.Title != "Sismo Oaxaca actualizado" {
		t.Errorf("expected updated title, got %+v", a1)
	}

	if err := s.UpsertEarthquakes(ctx, fixtureQuakes()); err != nil {
		t.Fatalf("UpsertEarthquakes: %v", err)
	}
	quakes, err := s.QueryEarthquakes(ctx, models.EarthquakeQuery{})
	if err != nil || len(quakes) != 2 || quakes[0].ID != "us2" {
		t.Fatalf("expected us2 first, got %+v, %v", quakes, err)
	}
	if !quakes[0].Tsunami || quakes[0].DepthKM != 12.5 {
		t.Errorf("expected fields to round-trip, got %+v", quakes[0])
	}
	strong, _ := s.QueryEarthquakes(ctx, models.EarthquakeQuery{MinMagnitude: 5})
	if len(strong) != 1 || strong[0].ID != "us2" {
		t.Errorf("expected only us2 above 5, got %+v", strong)
	}
	us1, err := s.GetEarthquake(ctx, "us1")
	if err != nil || us1 == nil || !us1.Updated.Equal(base.Add(time.Minute)) {
		t.Errorf("expected us1 with updated time, got %+v, %v", us1, err)
	}
	if none, _ := s.GetEarthquake(ctx, "zzz"); none != nil {
		t.Errorf("expected nil for unknown earthquake, got %+v", none)
	}

	if err := s.Health(ctx); err != nil {
		t.Errorf("Health: %v", err)
	}
}

func alertIDs(alerts []models.Alert) []string {
	ids := make([]string, len(alerts))
	for i, a := range alerts {
		ids[i] = a.ID
	}
	return ids
}
