package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rajasatyajit/SasmexMonitor/internal/logger"
	"github.com/rajasatyajit/SasmexMonitor/internal/metrics"
	"github.com/rajasatyajit/SasmexMonitor/internal/models"
)

// sqliteTime sorts lexically in the same order as the instants it encodes
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS alerts (
	id          TEXT PRIMARY KEY,
	occurred_at TEXT NOT NULL,
	title       TEXT NOT NULL,
	severity    TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	magnitude   REAL,
	epicenter   TEXT NOT NULL DEFAULT '',
	depth_km    REAL,
	latitude    REAL,
	longitude   REAL,
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS alerts_occurred_at_idx ON alerts (occurred_at DESC);

CREATE TABLE IF NOT EXISTS earthquakes (
	id         TEXT PRIMARY KEY,
	magnitude  REAL NOT NULL,
	place      TEXT NOT NULL DEFAULT '',
	time       TEXT NOT NULL,
	updated    TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL DEFAULT '',
	tsunami    INTEGER NOT NULL DEFAULT 0,
	status     TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL DEFAULT '',
	latitude   REAL NOT NULL DEFAULT 0,
	longitude  REAL NOT NULL DEFAULT 0,
	depth_km   REAL NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS earthquakes_time_idx ON earthquakes (time DESC);
`

// SQLiteStore implements Store on a local SQLite file, for single-host
// installs without PostgreSQL
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; avoids SQLITE_BUSY between the pollers and the API
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		logger.Warn("Could not enable WAL mode", "error", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	logger.Info("SQLite store opened", "path", path)
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(sqliteTime)
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(sqliteTime, v)
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func record(op string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordDBQuery(op, status)
}

// UpsertAlerts replaces alerts by id in a single transaction
func (s *SQLiteStore) UpsertAlerts(ctx context.Context, alerts []models.Alert) (err error) {
	if len(alerts) == 0 {
		return nil
	}
	defer func() { record("exec", err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO alerts
		(`+alertColumns+`, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare alert upsert: %w", err)
	}
	defer stmt.Close()

	now := formatTime(time.Now())
	for _, a := range alerts {
		lat, lon := splitCoordinates(a.Coordinates)
		if _, err = stmt.ExecContext(ctx,
			a.ID, formatTime(a.OccurredAt), a.Title, string(a.Severity), a.Description,
			a.Magnitude, a.Epicenter, a.DepthKM, lat, lon, now,
		); err != nil {
			return fmt.Errorf("upsert alert %s: %w", a.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// QueryAlerts retrieves alerts based on query parameters
func (s *SQLiteStore) QueryAlerts(ctx context.Context, q models.AlertQuery) (result []models.Alert, err error) {
	defer func() { record("query", err) }()

	query := `SELECT ` + alertColumns + ` FROM alerts WHERE 1=1`
	var args []any

	if len(q.IDs) > 0 {
		query += " AND id IN (" + placeholders(len(q.IDs)) + ")"
		for _, id := range q.IDs {
			args = append(args, id)
		}
	}
	if len(q.Severities) > 0 {
		query += " AND severity IN (" + placeholders(len(q.Severities)) + ")"
		for _, sev := range q.Severities {
			args = append(args, string(sev))
		}
	}
	if !q.Since.IsZero() {
		query += " AND occurred_at >= ?"
		args = append(args, formatTime(q.Since))
	}
	if !q.Until.IsZero() {
		query += " AND occurred_at <= ?"
		args = append(args, formatTime(q.Until))
	}

	query += " ORDER BY occurred_at DESC, id"

	if q.Limit > 0 || q.Offset > 0 {
		limit := q.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	result = []models.Alert{}
	for rows.Next() {
		a, err := scanSQLiteAlert(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return result, nil
}

// GetAlert retrieves a single alert by ID
func (s *SQLiteStore) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	return s.alertRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id)
}

// LatestAlert returns the most recent alert
func (s *SQLiteStore) LatestAlert(ctx context.Context) (*models.Alert, error) {
	return s.alertRow(ctx, `SELECT `+alertColumns+` FROM alerts ORDER BY occurred_at DESC, id LIMIT 1`)
}

func (s *SQLiteStore) alertRow(ctx context.Context, query string, args ...any) (*models.Alert, error) {
	a, err := scanSQLiteAlert(s.db.QueryRowContext(ctx, query, args...))
	record("query", err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteAlert(row scanner) (models.Alert, error) {
	var (
		a                          models.Alert
		occurred, severity         string
		magnitude, depth, lat, lon sql.NullFloat64
	)
	if err := row.Scan(&a.ID, &occurred, &a.Title, &severity, &a.Description,
		&magnitude, &a.Epicenter, &depth, &lat, &lon); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, err
		}
		return a, fmt.Errorf("scan alert: %w", err)
	}

	t, err := parseTime(occurred)
	if err != nil {
		return a, fmt.Errorf("parse occurred_at %q: %w", occurred, err)
	}
	a.OccurredAt = t
	a.Severity = models.Severity(severity)
	a.Magnitude = nullFloat(magnitude)
	a.DepthKM = nullFloat(depth)
	a.Coordinates = joinCoordinates(nullFloat(lat), nullFloat(lon))
	return a, nil
}

// UpsertEarthquakes replaces earthquakes by id in a single transaction
func (s *SQLiteStore) UpsertEarthquakes(ctx context.Context, quakes []models.Earthquake) (err error) {
	if len(quakes) == 0 {
		return nil
	}
	defer func() { record("exec", err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO earthquakes
		(`+quakeColumns+`, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare earthquake upsert: %w", err)
	}
	defer stmt.Close()

	now := formatTime(time.Now())
	for _, q := range quakes {
		if _, err = stmt.ExecContext(ctx,
			q.ID, q.Magnitude, q.Place, formatTime(q.Time), formatTime(q.Updated), q.URL,
			q.Tsunami, q.Status, q.Type, q.Latitude, q.Longitude, q.DepthKM, now,
		); err != nil {
			return fmt.Errorf("upsert earthquake %s: %w", q.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// QueryEarthquakes retrieves earthquakes based on query parameters
func (s *SQLiteStore) QueryEarthquakes(ctx context.Context, q models.EarthquakeQuery) (result []models.Earthquake, err error) {
	defer func() { record("query", err) }()

	query := `SELECT ` + quakeColumns + ` FROM earthquakes WHERE 1=1`
	var args []any

	if q.MinMagnitude > 0 {
		query += " AND magnitude >= ?"
		args = append(args, q.MinMagnitude)
	}
	if !q.Since.IsZero() {
		query += " AND time >= ?"
		args = append(args, formatTime(q.Since))
	}
	if !q.Until.IsZero() {
		query += " AND time <= ?"
		args = append(args, formatTime(q.Until))
	}
	query += " ORDER BY time DESC, id"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query earthquakes: %w", err)
	}
	defer rows.Close()

	result = []models.Earthquake{}
	for rows.Next() {
		e, err := scanSQLiteEarthquake(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate earthquakes: %w", err)
	}
	return result, nil
}

// GetEarthquake retrieves a single earthquake by ID
func (s *SQLiteStore) GetEarthquake(ctx context.Context, id string) (*models.Earthquake, error) {
	e, err := scanSQLiteEarthquake(s.db.QueryRowContext(ctx, `SELECT `+quakeColumns+` FROM earthquakes WHERE id = ?`, id))
	record("query", err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanSQLiteEarthquake(row scanner) (models.Earthquake, error) {
	var (
		e           models.Earthquake
		at, updated string
	)
	if err := row.Scan(&e.ID, &e.Magnitude, &e.Place, &at, &updated, &e.URL,
		&e.Tsunami, &e.Status, &e.Type, &e.Latitude, &e.Longitude, &e.DepthKM); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("scan earthquake: %w", err)
	}

	var err error
	if e.Time, err = parseTime(at); err != nil {
		return e, fmt.Errorf("parse time %q: %w", at, err)
	}
	if e.Updated, err = parseTime(updated); err != nil {
		return e, fmt.Errorf("parse updated %q: %w", updated, err)
	}
	return e, nil
}

// Health checks the database handle
func (s *SQLiteStore) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
