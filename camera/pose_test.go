package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlendConverges(t *testing.T) {
	start := NewPose(25, 12, 25, 0, 5, 0)
	goal := NewPose(0, 5, 8, 0, 4, 0)

	for _, f := range []float64{DefaultBlend, 0.1, 0.5, 0.9} {
		pose := start
		d0 := start.Distance(goal)
		prev := d0
		for n := 1; n <= 200 && prev > 1e-9; n++ {
			pose = pose.Blend(goal, f)
			d := pose.Distance(goal)
			require.Less(t, d, prev, "f=%v tick %d did not get closer", f, n)
			bound := d0 * math.Pow(1-f, float64(n))
			assert.LessOrEqual(t, d, bound+1e-11, "f=%v tick %d exceeds bound", f, n)
			prev = d
		}
	}
}

func TestBlendNeverOvershoots(t *testing.T) {
	start := NewPose(-10, 0, 0, 0, 0, 0)
	goal := NewPose(10, 0, 0, 0, 0, 0)
	pose := start
	for i := 0; i < 500; i++ {
		pose = pose.Blend(goal, DefaultBlend)
		assert.LessOrEqual(t, pose.Position.X(), 10.0)
	}
}

func TestBlendClampsFactor(t *testing.T) {
	start := NewPose(0, 0, 0, 0, 0, -1)
	goal := NewPose(4, 4, 4, 1, 1, 1)
	assert.Equal(t, goal, start.Blend(goal, 3))
	assert.Equal(t, start, start.Blend(goal, -1))
}

func TestDefaultPose(t *testing.T) {
	tests := []struct {
		name      string
		archetype string
		interior  bool
		want      Pose
	}{
		{"mansion exterior", "mansion", false, NewPose(25, 12, 25, 0, 5, 0)},
		{"hospital exterior", "hospital", false, NewPose(30, 15, 30, 0, 7, 0)},
		{"office exterior", "office", false, NewPose(20, 30, 20, 0, 15, 0)},
		{"bridge exterior", "bridge", false, NewPose(0, 15, 25, 0, 10, 0)},
		{"unknown exterior", "castle", false, NewPose(15, 10, 15, 0, 5, 0)},
		{"interior is shared", "office", true, NewPose(0, 5, 15, 0, 3, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultPose(tt.archetype, tt.interior))
		})
	}
}

func TestViewLooksAtTarget(t *testing.T) {
	p := NewPose(0, 5, 15, 0, 3, 0)
	v := p.View().Mul4x1(p.Target.Vec4(1))
	// the target sits on the negative view axis
	assert.InDelta(t, 0, v.X(), 1e-9)
	assert.InDelta(t, 0, v.Y(), 1e-9)
	assert.Less(t, v.Z(), 0.0)

	straightDown := Pose{Position: mgl64.Vec3{0, 10, 0}, Target: mgl64.Vec3{}}
	m := straightDown.View()
	for i := 0; i < 16; i++ {
		assert.False(t, math.IsNaN(m[i]))
	}
}

func TestBlendAt(t *testing.T) {
	assert.InDelta(t, DefaultBlend, BlendAt(DefaultBlend, 60), 1e-12)

	// one second at 6 fps covers what one second at 60 fps does
	slow := BlendAt(DefaultBlend, 6)
	assert.InDelta(t, math.Pow(1-DefaultBlend, 60), math.Pow(1-slow, 6), 1e-12)

	assert.Equal(t, 0.5, BlendAt(0.5, 0))
}
