//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rajasatyajit/SasmexMonitor/config"
	"github.com/rajasatyajit/SasmexMonitor/internal/database"
	"github.com/rajasatyajit/SasmexMonitor/internal/models"
	"github.com/rajasatyajit/SasmexMonitor/internal/store"
)

// startPostgres runs a throwaway PostgreSQL and returns its DSN
func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image: "postgres:15-alpine",
		Env: map[string]string{
			"POSTGRES_DB":       "sasmex",
			"POSTGRES_USER":     "sasmex",
			"POSTGRES_PASSWORD": "password",
		},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start container")
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return "postgres://sasmex:password@" + host + ":" + port.Port() + "/sasmex?sslmode=disable"
}

func TestPostgresStore_WithContainer(t *testing.T) {
	requireContainers(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	db, err := database.New(ctx, config.DatabaseConfig{
		URL:             startPostgres(ctx, t),
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	})
	require.NoError(t, err, "database.New")
	defer db.Close()

	pg := store.NewPostgresStore(db)
	require.NoError(t, pg.Migrate(ctx))
	// Applying the schema twice is harmless.
	require.NoError(t, pg.Migrate(ctx))
	require.NoError(t, pg.Health(ctx))

	base := time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC)
	mag, depth := 7.1, 16.0
	alerts := []models.Alert{
		{ID: "a1", OccurredAt: base, Title: "Sismo Moderado", Severity: models.SeverityModerada, Description: "Sismo moderado en Oaxaca"},
		{
			ID: "a2", OccurredAt: base.Add(time.Hour), Title: "Sismo Fuerte", Severity: models.SeverityMayor,
			Description: "Sismo fuerte", Magnitude: &mag, DepthKM: &depth, Epicenter: "Pinotepa Nacional, Oax",
			Coordinates: &models.Coordinates{Latitude: 16.2, Longitude: -98.1},
		},
		{ID: "a3", OccurredAt: base.Add(2 * time.Hour), Title: "Sismo Menor", Severity: models.SeverityMenor},
	}
	require.NoError(t, pg.UpsertAlerts(ctx, alerts))

	// Upsert replaces the stored row.
	alerts[0].Title = "Sismo Moderado (actualizado)"
	require.NoError(t, pg.UpsertAlerts(ctx, alerts[:1]))

	all, err := pg.QueryAlerts(ctx, models.AlertQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a3", "a2", "a1"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "Sismo Moderado (actualizado)", all[2].Title)

	mayor, err := pg.QueryAlerts(ctx, models.AlertQuery{Severities: []models.Severity{models.SeverityMayor}})
	require.NoError(t, err)
	require.Len(t, mayor, 1)
	require.NotNil(t, mayor[0].Magnitude)
	assert.InDelta(t, 7.1, *mayor[0].Magnitude, 1e-9)
	require.NotNil(t, mayor[0].Coordinates)
	assert.InDelta(t, -98.1, mayor[0].Coordinates.Longitude, 1e-9)
	assert.True(t, mayor[0].OccurredAt.Equal(base.Add(time.Hour)))

	paged, err := pg.QueryAlerts(ctx, models.AlertQuery{Since: base.Add(30 * time.Minute), Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "a2", paged[0].ID)

	latest, err := pg.LatestAlert(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "a3", latest.ID)

	missing, err := pg.GetAlert(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	quakes := []models.Earthquake{
		{ID: "us1", Magnitude: 4.2, Place: "10 km S of Pinotepa", Time: base, Status: "reviewed", Type: "earthquake"},
		{ID: "us2", Magnitude: 6.4, Place: "30 km SW of Acapulco", Time: base.Add(time.Hour), Updated: base.Add(2 * time.Hour), Tsunami: true, DepthKM: 20},
	}
	require.NoError(t, pg.UpsertEarthquakes(ctx, quakes))

	strong, err := pg.QueryEarthquakes(ctx, models.EarthquakeQuery{MinMagnitude: 4.5})
	require.NoError(t, err)
	require.Len(t, strong, 1)
	assert.Equal(t, "us2", strong[0].ID)
	assert.True(t, strong[0].Tsunami)

	one, err := pg.GetEarthquake(ctx, "us1")
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.True(t, one.Updated.IsZero())
}
