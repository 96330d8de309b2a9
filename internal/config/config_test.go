package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bimflow/bimviewer/camera"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bimviewer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults without file", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, ":8090", cfg.Server.Addr)
		assert.Equal(t, 60, cfg.Viewer.FPS)
		assert.Equal(t, camera.PolicyPause, cfg.Viewer.CameraPolicy)
		assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := writeTempConfig(t, `
server:
  addr: ":9000"
  session_ttl: 5m
viewer:
  camera_policy: override
  archetype: office
render:
  width: 320
  height: 200
events:
  nats_url: nats://localhost:4222
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.Server.Addr)
		assert.Equal(t, 5*time.Minute, cfg.Server.SessionTTL)
		assert.Equal(t, camera.PolicyOverride, cfg.Viewer.CameraPolicy)
		assert.Equal(t, "office", cfg.Viewer.Archetype)
		assert.Equal(t, 320, cfg.Render.Width)
		assert.Equal(t, 75.0, cfg.Render.FOV, "untouched keys keep defaults")
		assert.Equal(t, "BIMVIEWER", cfg.Events.Stream)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := writeTempConfig(t, "viewer:\n  fps: 30\n")
		t.Setenv("BIMVIEWER_FPS", "24")
		t.Setenv("BIMVIEWER_CAMERA_POLICY", "ignore")
		t.Setenv("BIMVIEWER_BLEND", "0.1")
		t.Setenv("BIMVIEWER_TRACING", "true")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 24, cfg.Viewer.FPS)
		assert.Equal(t, camera.PolicyIgnore, cfg.Viewer.CameraPolicy)
		assert.Equal(t, 0.1, cfg.Viewer.Blend)
		assert.True(t, cfg.Tracing.Enabled)
	})

	t.Run("bad environment value", func(t *testing.T) {
		t.Setenv("BIMVIEWER_WIDTH", "wide")
		_, err := Load("")
		assert.ErrorContains(t, err, "BIMVIEWER_WIDTH")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeTempConfig(t, "server: [\n"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"blend at one":       func(c *Config) { c.Viewer.Blend = 1 },
		"unknown policy":     func(c *Config) { c.Viewer.CameraPolicy = "steal" },
		"zero fps":           func(c *Config) { c.Viewer.FPS = 0 },
		"tiny surface":       func(c *Config) { c.Render.Width = 4 },
		"empty addr":         func(c *Config) { c.Server.Addr = "" },
		"short session ttl":  func(c *Config) { c.Server.SessionTTL = time.Millisecond },
		"bad nats url":       func(c *Config) { c.Events.NatsURL = "not a url" },
		"nats without topic": func(c *Config) { c.Events.NatsURL = "nats://x:4222"; c.Events.Prefix = "" },
		"tracing without endpoint": func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Endpoint = ""
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}

	assert.NoError(t, Default().Validate())
}
