package configwatcher

import (
	"context"
	"fmt"
	"learnhub_backend/internal/config"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseConfig = `
server:
  port: "8080"
  mode: debug
jwt:
  secret: "test-secret"
rate_limit:
  max_requests: %d
`

func writeConfig(t *testing.T, path string, maxRequests int) {
	t.Helper()
	data := []byte(fmt.Sprintf(baseConfig, maxRequests))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestWatchConfigReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, path, func(cfg *config.Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	time.Sleep(100 * time.Millisecond)
	writeConfig(t, path, 42)

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 42, cfg.RateLimit.MaxRequests)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
