package tour

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fourStops(t *testing.T) *Catalogue {
	t.Helper()
	stops := make([]Stop, 4)
	for i := range stops {
		stops[i] = Stop{Name: fmt.Sprintf("room-%d", i)}
	}
	c, err := New(
		Archetype{ID: "villa", Stops: stops},
		Archetype{ID: "empty"},
	)
	require.NoError(t, err)
	return c
}

func TestStartRequiresStops(t *testing.T) {
	c := NewController(Default())

	assert.False(t, c.Start("bridge"))
	assert.Equal(t, State{}, c.State())

	assert.False(t, c.Start("castle"))
	assert.False(t, c.Active())

	require.True(t, c.Start("office"))
	assert.Equal(t, State{Active: true, Archetype: "office", Index: 0}, c.State())
}

func TestWrapForward(t *testing.T) {
	for _, id := range []string{"mansion", "hospital", "office"} {
		t.Run(id, func(t *testing.T) {
			c := NewController(Default())
			require.True(t, c.Start(id))
			n := c.StopCount()
			for i := 0; i < n; i++ {
				require.True(t, c.Next())
			}
			assert.Equal(t, 0, c.State().Index)
		})
	}
}

func TestClampBackward(t *testing.T) {
	c := NewController(Default())
	require.True(t, c.Start("hospital"))

	assert.False(t, c.Prev())
	assert.Equal(t, 0, c.State().Index)

	require.True(t, c.Next())
	require.True(t, c.Prev())
	assert.Equal(t, 0, c.State().Index)
}

func TestGoTo(t *testing.T) {
	c := NewController(fourStops(t))
	require.True(t, c.Start("villa"))

	for i := 0; i < 4; i++ {
		require.True(t, c.GoTo(i))
		stop, ok := c.Current()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("room-%d", i), stop.Name)
	}

	before := c.State()
	for _, i := range []int{-1, 4, 99} {
		assert.False(t, c.GoTo(i), "index %d", i)
		assert.Equal(t, before, c.State())
	}
}

func TestGoToWhileInactive(t *testing.T) {
	c := NewController(fourStops(t))
	assert.False(t, c.GoTo(99))
	assert.False(t, c.GoTo(1))
	assert.Equal(t, State{}, c.State())
	assert.False(t, c.Next())
	assert.False(t, c.Prev())
}

func TestOfficeWalkthrough(t *testing.T) {
	c := NewController(Default())
	require.True(t, c.Start("office"))
	assert.Equal(t, 6, c.StopCount())

	for i := 0; i < 5; i++ {
		require.True(t, c.Next())
	}
	assert.Equal(t, 5, c.State().Index)

	require.True(t, c.Next())
	assert.Equal(t, 0, c.State().Index)
}

func TestCancel(t *testing.T) {
	c := NewController(Default())
	require.True(t, c.Start("mansion"))
	require.True(t, c.GoTo(3))

	c.Cancel()
	assert.Equal(t, State{}, c.State())
	_, ok := c.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, c.StopCount())
}

func TestRestartResetsIndex(t *testing.T) {
	c := NewController(Default())
	require.True(t, c.Start("mansion"))
	require.True(t, c.GoTo(7))
	require.True(t, c.Start("hospital"))
	assert.Equal(t, State{Active: true, Archetype: "hospital", Index: 0}, c.State())
}
