package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, SnapshotBackendFile, cfg.Snapshot.Backend)
	assert.Equal(t, "attendance-storage", cfg.Snapshot.Slot)
	assert.Equal(t, time.Hour, cfg.Relay.TTL)
	assert.Equal(t, 5, cfg.License.FreeStudentLimit)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("SNAPSHOT_BACKEND", "POSTGRES")
	t.Setenv("RELAY_TTL", "10m")
	t.Setenv("RELAY_BASE_URL", "https://relay.example.com/")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SnapshotBackendPostgres, cfg.Snapshot.Backend)
	assert.Equal(t, 10*time.Minute, cfg.Relay.TTL)
	assert.Equal(t, "https://relay.example.com", cfg.Relay.BaseURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("bogus", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}
