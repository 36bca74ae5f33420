package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rajasatyajit/SasmexMonitor/internal/models"
)

// PostgresSchema creates the tables used by PostgresStore
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS alerts (
	id          TEXT PRIMARY KEY,
	occurred_at TIMESTAMPTZ NOT NULL,
	title       TEXT NOT NULL,
	severity    TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	magnitude   DOUBLE PRECISION,
	epicenter   TEXT NOT NULL DEFAULT '',
	depth_km    DOUBLE PRECISION,
	latitude    DOUBLE PRECISION,
	longitude   DOUBLE PRECISION,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS alerts_occurred_at_idx ON alerts (occurred_at DESC);

CREATE TABLE IF NOT EXISTS earthquakes (
	id         TEXT PRIMARY KEY,
	magnitude  DOUBLE PRECISION NOT NULL,
	place      TEXT NOT NULL DEFAULT '',
	time       TIMESTAMPTZ NOT NULL,
	updated    TIMESTAMPTZ,
	url        TEXT NOT NULL DEFAULT '',
	tsunami    BOOLEAN NOT NULL DEFAULT FALSE,
	status     TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL DEFAULT '',
	latitude   DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude  DOUBLE PRECISION NOT NULL DEFAULT 0,
	depth_km   DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS earthquakes_time_idx ON earthquakes (time DESC);
`

const alertColumns = `id, occurred_at, title, severity, description, magnitude, epicenter, depth_km, latitude, longitude`

const quakeColumns = `id, magnitude, place, time, updated, url, tsunami, status, type, latitude, longitude, depth_km`

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db Database
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(db Database) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates missing tables
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if err := s.db.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// UpsertAlerts inserts or updates alerts in the database
func (s *PostgresStore) UpsertAlerts(ctx context.Context, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	query := `
		INSERT INTO alerts (` + alertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			occurred_at = EXCLUDED.occurred_at,
			title = EXCLUDED.title,
			severity = EXCLUDED.severity,
			description = EXCLUDED.description,
			magnitude = EXCLUDED.magnitude,
			epicenter = EXCLUDED.epicenter,
			depth_km = EXCLUDED.depth_km,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			updated_at = NOW()
	`

	for _, alert := range alerts {
		lat, lon := splitCoordinates(alert.Coordinates)
		err := s.db.Exec(ctx, query,
			alert.ID, alert.OccurredAt, alert.Title, string(alert.Severity), alert.Description,
			alert.Magnitude, alert.Epicenter, alert.DepthKM, lat, lon,
		)
		if err != nil {
			return fmt.Errorf("upsert alert %s: %w", alert.ID, err)
		}
	}

	return nil
}

// QueryAlerts retrieves alerts based on query parameters
func (s *PostgresStore) QueryAlerts(ctx context.Context, q models.AlertQuery) ([]models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE 1=1`

	var args []interface{}
	argIndex := 1

	if len(q.IDs) > 0 {
		query += fmt.Sprintf(" AND id = ANY($%d)", argIndex)
		args = append(args, q.IDs)
		argIndex++
	}

	if len(q.Severities) > 0 {
		severities := make([]string, len(q.Severities))
		for i, sev := range q.Severities {
			severities[i] = string(sev)
		}
		query += fmt.Sprintf(" AND severity = ANY($%d)", argIndex)
		args = append(args, severities)
		argIndex++
	}

	if !q.Since.IsZero() {
		query += fmt.Sprintf(" AND occurred_at >= $%d", argIndex)
		args = append(args, q.Since)
		argIndex++
	}

	if !q.Until.IsZero() {
		query += fmt.Sprintf(" AND occurred_at <= $%d", argIndex)
		args = append(args, q.Until)
		argIndex++
	}

	query += " ORDER BY occurred_at DESC, id"

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, q.Limit)
		argIndex++
	}

	if q.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, q.Offset)
	}

	rowsInterface, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}

	rows, ok := rowsInterface.(pgx.Rows)
	if !ok {
		return nil, fmt.Errorf("invalid rows type")
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}

	return alerts, nil
}

// GetAlert retrieves a single alert by ID
func (s *PostgresStore) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	return s.alertRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id)
}

// LatestAlert returns the most recent alert
func (s *PostgresStore) LatestAlert(ctx context.Context) (*models.Alert, error) {
	return s.alertRow(ctx, `SELECT `+alertColumns+` FROM alerts ORDER BY occurred_at DESC, id LIMIT 1`)
}

func (s *PostgresStore) alertRow(ctx context.Context, query string, args ...any) (*models.Alert, error) {
	row, ok := s.db.QueryRow(ctx, query, args...).(pgx.Row)
	if !ok {
		return nil, fmt.Errorf("invalid row type")
	}

	alert, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &alert, nil
}

func scanAlert(row pgx.Row) (models.Alert, error) {
	var (
		alert    models.Alert
		severity string
		lat, lon *float64
	)
	err := row.Scan(
		&alert.ID, &alert.OccurredAt, &alert.Title, &severity, &alert.Description,
		&alert.Magnitude, &alert.Epicenter, &alert.DepthKM, &lat, &lon,
	)
	if err != nil {
		return alert, fmt.Errorf("scan alert: %w", err)
	}
	alert.Severity = models.Severity(severity)
	alert.Coordinates = joinCoordinates(lat, lon)
	return alert, nil
}

// UpsertEarthquakes inserts or updates earthquakes
func (s *PostgresStore) UpsertEarthquakes(ctx context.Context, quakes []models.Earthquake) error {
	if len(quakes) == 0 {
		return nil
	}

	query := `
		INSERT INTO earthquakes (` + quakeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			magnitude = EXCLUDED.magnitude,
			place = EXCLUDED.place,
			time = EXCLUDED.time,
			updated = EXCLUDED.updated,
			url = EXCLUDED.url,
			tsunami = EXCLUDED.tsunami,
			status = EXCLUDED.status,
			type = EXCLUDED.type,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			depth_km = EXCLUDED.depth_km,
			updated_at = NOW()
	`

	for _, q := range quakes {
		var updated *time.Time
		if !q.Updated.IsZero() {
			updated = &q.Updated
		}
		err := s.db.Exec(ctx, query,
			q.ID, q.Magnitude, q.Place, q.Time, updated, q.URL,
			q.Tsunami, q.Status, q.Type, q.Latitude, q.Longitude, q.DepthKM,
		)
		if err != nil {
			return fmt.Errorf("upsert earthquake %s: %w", q.ID, err)
		}
	}
	return nil
}

// QueryEarthquakes retrieves earthquakes based on query parameters
func (s *PostgresStore) QueryEarthquakes(ctx context.Context, q models.EarthquakeQuery) ([]models.Earthquake, error) {
	query := `SELECT ` + quakeColumns + ` FROM earthquakes WHERE 1=1`

	var args []interface{}
	argIndex := 1

	if q.MinMagnitude > 0 {
		query += fmt.Sprintf(" AND magnitude >= $%d", argIndex)
		args = append(args, q.MinMagnitude)
		argIndex++
	}
	if !q.Since.IsZero() {
		query += fmt.Sprintf(" AND time >= $%d", argIndex)
		args = append(args, q.Since)
		argIndex++
	}
	if !q.Until.IsZero() {
		query += fmt.Sprintf(" AND time <= $%d", argIndex)
		args = append(args, q.Until)
		argIndex++
	}

	query += " ORDER BY time DESC, id"

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, q.Limit)
	}

	rowsInterface, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query earthquakes: %w", err)
	}

	rows, ok := rowsInterface.(pgx.Rows)
	if !ok {
		return nil, fmt.Errorf("invalid rows type")
	}
	defer rows.Close()

	quakes := []models.Earthquake{}
	for rows.Next() {
		e, err := scanEarthquake(rows)
		if err != nil {
			return nil, err
		}
		quakes = append(quakes, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate earthquakes: %w", err)
	}
	return quakes, nil
}

// GetEarthquake retrieves a single earthquake by ID
func (s *PostgresStore) GetEarthquake(ctx context.Context, id string) (*models.Earthquake, error) {
	row, ok := s.db.QueryRow(ctx, `SELECT `+quakeColumns+` FROM earthquakes WHERE id = $1`, id).(pgx.Row)
	if !ok {
		return nil, fmt.Errorf("invalid row type")
	}

	e, err := scanEarthquake(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func scanEarthquake(row pgx.Row) (models.Earthquake, error) {
	var (
		e       models.Earthquake
		updated *time.Time
	)
	err := row.Scan(
		&e.ID, &e.Magnitude, &e.Place, &e.Time, &updated, &e.URL,
		&e.Tsunami, &e.Status, &e.Type, &e.Latitude, &e.Longitude, &e.DepthKM,
	)
	if err != nil {
		return e, fmt.Errorf("scan earthquake: %w", err)
	}
	if updated != nil {
		e.Updated = updated.UTC()
	}
	e.Time = e.Time.UTC()
	return e, nil
}

// Health checks the database connection
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

func splitCoordinates(c *models.Coordinates) (lat, lon *float64) {
	if c == nil {
		return nil, nil
	}
	la, lo := c.Latitude, c.Longitude
	return &la, &lo
}

func joinCoordinates(lat, lon *float64) *models.Coordinates {
	if lat == nil || lon == nil {
		return nil
	}
	return &models.Coordinates{Latitude: *lat, Longitude: *lon}
}
