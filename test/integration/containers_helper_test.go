package integration

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// containersAvailable returns true if a Docker or Podman socket is present
func containersAvailable() bool {
	if host := os.Getenv("DOCKER_HOST"); host != "" {
		return true
	}
	// Docker socket
	if _, err := os.Stat("/var/run/docker.sock"); err == nil {
		return true
	}
	// Podman socket per-user
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		if uid := os.Getuid(); uid > 0 {
			runtimeDir = "/run/user/" + strconv.Itoa(uid)
		}
	}
	if runtimeDir != "" {
		if _, err := os.Stat(filepath.Join(runtimeDir, "podman", "podman.sock")); err == nil {
			return true
		}
	}
	return false
}

// requireContainers skips t when no container runtime is reachable
func requireContainers(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("short mode; skipping container-based integration test")
	}
	if !containersAvailable() {
		t.Skip("container runtime not available; skipping container-based integration test")
	}
}
