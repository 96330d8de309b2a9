package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bimflow/bimviewer"
	"github.com/bimflow/bimviewer/camera"
	"github.com/bimflow/bimviewer/internal/events"
)

func TestLoadAppFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bimviewer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
viewer:
  fps: 30
  camera_policy: override
  archetype: office
render:
  width: 320
  height: 180
`), 0o644))

	configFile = path
	t.Cleanup(func() { configFile = "" })

	a, err := loadApp()
	require.NoError(t, err)
	defer a.close()

	cfg := a.stateConfig("hospital")
	assert.Equal(t, 30, cfg.FPS)
	assert.Equal(t, camera.PolicyOverride, cfg.Policy)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, "hospital", cfg.Archetype)

	assert.Equal(t, "office", a.archetypeOr(""))
	assert.Equal(t, "bridge", a.archetypeOr("bridge"))
	assert.IsType(t, events.NopPublisher{}, a.publisher())

	v := bimviewer.New(a.viewerOptions(a.archetypeOr(""))...)
	defer v.Close()
	state := v.Snapshot()
	assert.Equal(t, "office", state.Archetype.ID)
	assert.Equal(t, 180, state.Height)
}

func TestLoadAppRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("viewer:\n  fps: 0\n"), 0o644))

	configFile = path
	t.Cleanup(func() { configFile = "" })

	_, err := loadApp()
	assert.Error(t, err)
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp4")
	dst := filepath.Join(dir, "b.mp4")
	require.NoError(t, os.WriteFile(src, []byte("video"), 0o644))

	require.NoError(t, moveFile(src, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "video", string(data))
	assert.NoFileExists(t, src)
}
