package bimviewer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewStateToJSON(t *testing.T) {
	t.Run("nil state", func(t *testing.T) {
		assert.Equal(t, ViewJSON{}, ViewStateToJSON(nil))
	})

	t.Run("tour frame", func(t *testing.T) {
		s := NewViewerState(StateConfig{})
		require.True(t, s.StartTour("hospital"))
		require.True(t, s.GoToStop(1))

		got := ViewStateToJSON(s.Snapshot())
		assert.Equal(t, "hospital", got.Archetype.ID)
		assert.Equal(t, "interior", got.Mode)
		assert.True(t, got.Tour.Active)
		assert.Equal(t, 1, got.Tour.Index)
		assert.Equal(t, 6, got.Tour.Count)
		require.NotNil(t, got.Tour.Stop)
		assert.NotEmpty(t, got.Tour.Stop.Description)
		assert.True(t, got.Navigator.Visible)
		require.Len(t, got.Navigator.Stops, 6)
		assert.True(t, got.Navigator.Stops[1].Current)
		assert.Equal(t, 4, got.Scene.Lights)
		assert.Positive(t, got.Scene.Meshes)
		assert.NotEmpty(t, got.Scene.Groups)
		assert.Equal(t, 75.0, got.Camera.FOV)
	})

	t.Run("wire names", func(t *testing.T) {
		s := NewViewerState(StateConfig{})
		require.True(t, s.StartTour("office"))
		data, err := ViewStateToJSONBytes(s.Snapshot())
		require.NoError(t, err)

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &raw))
		for _, key := range []string{"archetype", "mode", "camera", "tour", "navigator", "scene", "viewport"} {
			assert.Contains(t, raw, key)
		}
		assert.Contains(t, string(raw["tour"]), `"special_features"`)
		assert.NotContains(t, raw, "frame")
	})

	t.Run("no tour", func(t *testing.T) {
		s := NewViewerState(StateConfig{Archetype: "bridge"})
		got := ViewStateToJSON(s.Snapshot())
		assert.False(t, got.Tour.Active)
		assert.Nil(t, got.Tour.Stop)
		assert.False(t, got.Navigator.Visible)
		assert.Equal(t, "exterior", got.Mode)
	})
}
