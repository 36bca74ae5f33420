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

	"github.com/rajasatyajit/SasmexMonitor/internal/dedup"
	"github.com/rajasatyajit/SasmexMonitor/internal/models"
	"github.com/rajasatyajit/SasmexMonitor/internal/ratelimit"
)

// startRedis runs a throwaway Redis and returns its URL
func startRedis(ctx context.Context, t *testing.T) string {
	t.Helper()
	rc, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start container")
	t.Cleanup(func() { _ = rc.Terminate(context.Background()) })

	host, err := rc.Host(ctx)
	require.NoError(t, err)
	port, err := rc.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return "redis://" + host + ":" + port.Port() + "/0"
}

func TestRedis_TrackerAndRateLimit(t *testing.T) {
	requireContainers(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	url := startRedis(ctx, t)

	state, err := dedup.NewRedisState(url)
	require.NoError(t, err)
	defer state.Close()

	alerts := []models.Alert{{ID: "a1"}}
	_, isNew, err := dedup.NewAlertTracker(state).CheckForNew(ctx, alerts)
	require.NoError(t, err)
	assert.False(t, isNew, "first sighting is a baseline")

	// A fresh tracker over the same state resumes from the stored id.
	restarted := dedup.NewAlertTracker(state)
	_, isNew, err = restarted.CheckForNew(ctx, alerts)
	require.NoError(t, err)
	assert.False(t, isNew)

	top, isNew, err := restarted.CheckForNew(ctx, []models.Alert{{ID: "a2"}, {ID: "a1"}})
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, "a2", top.ID)

	rl, err := ratelimit.NewManager(url)
	require.NoError(t, err)
	defer rl.Close()

	for i := 0; i < 2; i++ {
		allowed, _, err := rl.CheckRate(ctx, "203.0.113.7", 2)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i+1)
	}
	allowed, reset, err := rl.CheckRate(ctx, "203.0.113.7", 2)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, reset, 0)

	require.NoError(t, rl.IncUsage(ctx, "GET", "/v1/alerts"))
	usage, err := rl.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, usage["GET /v1/alerts"])
}
