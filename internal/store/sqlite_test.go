package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rajasatyajit/SasmexMonitor/internal/models"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "sasmex.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_Contract(t *testing.T) {
	runStoreContract(t, newTestSQLite(t))
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sasmex.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := s.UpsertAlerts(ctx, fixtureAlerts()); err != nil {
		t.Fatalf("UpsertAlerts: %v", err)
	}
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	latest, err := s.LatestAlert(ctx)
	if err != nil || latest == nil || latest.ID != "a3" {
		t.Errorf("expected persisted latest a3, got %+v, %v", latest, err)
	}
}

func TestSQLiteStore_IDFilter(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	_ = s.UpsertAlerts(ctx, fixtureAlerts())

	got, err := s.QueryAlerts(ctx, models.AlertQuery{IDs: []string{"a1", "a3"}})
	if err != nil {
		t.Fatalf("QueryAlerts: %v", err)
	}
	if ids := alertIDs(got); len(ids) != 2 || ids[0] != "a3" || ids[1] != "a1" {
		t.Errorf("expected [a3 a1], got %v", ids)
	}

	offsetOnly, _ := s.QueryAlerts(ctx, models.AlertQuery{Offset: 2})
	if ids := alertIDs(offsetOnly); len(ids) != 1 || ids[0] != "a1" {
		t.Errorf("expected [a1] with offset only, got %v", ids)
	}
}

func TestSQLiteStore_EmptyBatches(t *testing.T) {
	s := newTestSQLite(t)
	if err := s.UpsertAlerts(context.Background(), nil); err != nil {
		t.Errorf("expected nil for empty alerts, got %v", err)
	}
	if err := s.UpsertEarthquakes(context.Background(), nil); err != nil {
		t.Errorf("expected nil for empty earthquakes, got %v", err)
	}
}
