package camera

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settle(o *Orbit, p Pose) Pose {
	for i := 0; i < 2000 && o.Moving(); i++ {
		p = o.Step(p)
	}
	return p
}

func TestOrbitRestingPoseIsStatic(t *testing.T) {
	p := NewPose(25, 12, 25, 0, 5, 0)
	o := NewOrbit(60, DefaultLimits(false))
	o.Sync(p)
	assert.False(t, o.Moving())
	assert.Equal(t, p, o.Step(p))
}

func TestOrbitRotateKeepsDistance(t *testing.T) {
	p := NewPose(0, 5, 15, 0, 3, 0)
	o := NewOrbit(60, DefaultLimits(true))
	o.Sync(p)
	o.Rotate(0.5, 0)

	got := settle(o, p)
	require.False(t, o.Moving())
	assert.InDelta(t, p.Position.Sub(p.Target).Len(), got.Position.Sub(got.Target).Len(), 1e-6)
	assert.True(t, got.Target.ApproxEqualThreshold(p.Target, 1e-6))
	assert.False(t, got.Position.ApproxEqualThreshold(p.Position, 1e-3))
}

func TestOrbitZoomClampsDistance(t *testing.T) {
	t.Run("interior minimum", func(t *testing.T) {
		p := NewPose(0, 5, 15, 0, 3, 0)
		o := NewOrbit(60, DefaultLimits(true))
		o.Sync(p)
		o.Zoom(500)
		got := settle(o, p)
		assert.InDelta(t, 1.0, got.Position.Sub(got.Target).Len(), 1e-3)
	})
	t.Run("exterior minimum", func(t *testing.T) {
		p := NewPose(25, 12, 25, 0, 5, 0)
		o := NewOrbit(60, DefaultLimits(false))
		o.Sync(p)
		o.Zoom(500)
		got := settle(o, p)
		assert.InDelta(t, 5.0, got.Position.Sub(got.Target).Len(), 1e-3)
	})
	t.Run("maximum", func(t *testing.T) {
		p := NewPose(25, 12, 25, 0, 5, 0)
		o := NewOrbit(60, DefaultLimits(false))
		o.Sync(p)
		o.Zoom(-500)
		got := settle(o, p)
		assert.InDelta(t, 100.0, got.Position.Sub(got.Target).Len(), 1e-3)
	})
}

func TestOrbitPanMovesTargetAndCamera(t *testing.T) {
	p := NewPose(0, 5, 15, 0, 3, 0)
	o := NewOrbit(60, DefaultLimits(true))
	o.Sync(p)
	o.Pan(0.2, 0)
	got := settle(o, p)

	shiftTarget := got.Target.Sub(p.Target)
	shiftPos := got.Position.Sub(p.Position)
	assert.True(t, shiftTarget.ApproxEqualThreshold(shiftPos, 1e-6))
	assert.Greater(t, shiftTarget.Len(), 0.1)
}

func TestOrbitEasesOut(t *testing.T) {
	p := NewPose(0, 5, 15, 0, 3, 0)
	o := NewOrbit(60, DefaultLimits(true))
	o.Sync(p)
	o.Rotate(1, 0)

	first := o.Step(p)
	assert.True(t, o.Moving())
	assert.False(t, first.ApproxEqual(p, 1e-9))
}

func TestOrbitPullKeepsMotion(t *testing.T) {
	p := NewPose(0, 5, 15, 0, 3, 0)
	o := NewOrbit(60, DefaultLimits(true))
	o.Sync(p)
	o.Rotate(1, 0)

	var got Pose
	for i := 0; i < 20; i++ {
		o.Step(p)
		got = o.Pull(p, DefaultBlend)
	}
	assert.True(t, o.Moving())
	assert.Greater(t, got.Distance(p), 1.0)

	for i := 0; i < 2000 && o.Moving(); i++ {
		o.Step(p)
		got = o.Pull(p, DefaultBlend)
	}
	assert.False(t, o.Moving())
	assert.Less(t, got.Distance(p), 1e-2)
}

func TestOrbitPullTakesShortWayRound(t *testing.T) {
	p := NewPose(0, 0, 10, 0, 0, 0)
	o := NewOrbit(60, DefaultLimits(false))
	o.Sync(p)
	o.Rotate(-2*math.Pi, 0)
	settle(o, p)

	got := o.Pull(p, 0.5)
	assert.True(t, got.ApproxEqual(p, 1e-6), "a full turn is already at p")
}

func TestParsePolicy(t *testing.T) {
	for _, s := range []string{"override", "pause", "ignore"} {
		p, err := ParsePolicy(s)
		require.NoError(t, err)
		assert.Equal(t, Policy(s), p)
	}
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyPause, p)

	_, err = ParsePolicy("blend")
	assert.Error(t, err)
}
