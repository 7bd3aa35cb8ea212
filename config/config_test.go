package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 60.0, cfg.Clock.TimeScale)
	assert.Equal(t, "6:00:00", cfg.Clock.Start)
	assert.Equal(t, 100, cfg.Chase.MaxSelectAttempts)
	assert.Equal(t, time.Second, cfg.Chase.MinimumWait)
	assert.Equal(t, 8.0, cfg.Pursuer.TopSpeed)
	assert.Equal(t, 50, cfg.World.TickMs)
	assert.Equal(t, "sqlite", cfg.Database.Mode)
	assert.Equal(t, 24*time.Hour, cfg.Server.TokenTTL)
	assert.Equal(t, 20*time.Second, cfg.Chase.BlockTTL)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
clock:
  time_scale: 120
  start: "23:59:30"
chase:
  warp_enabled: true
  minimum_wait: 250ms
database:
  mode: none
server:
  allowed_ips: ["127.0.0.1"]
`))
	require.NoError(t, err)
	assert.Equal(t, 120.0, cfg.Clock.TimeScale)
	assert.True(t, cfg.Chase.WarpEnabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Chase.MinimumWait)
	assert.Equal(t, "none", cfg.Database.Mode)
	assert.Equal(t, []string{"127.0.0.1"}, cfg.Server.AllowedIPs)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"zero scale":    "clock:\n  time_scale: 0\n",
		"bad start":     "clock:\n  start: \"25:00\"\n",
		"slow > top":    "pursuer:\n  slow_speed: 9\n",
		"attempts":      "chase:\n  max_select_attempts: 0\n",
		"tick":          "world:\n  tick_ms: 0\n",
		"database mode": "database:\n  mode: embedded\n",
		"block ttl":     "chase:\n  block_ttl: -1s\n",
		"snapshot":      "world:\n  snapshot_interval: 0s\n",
	}
	for name, body := range cases {
		_, err := Load(writeConfig(t, body))
		assert.ErrorIs(t, err, ErrInvalid, name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
