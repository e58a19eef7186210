package spatial

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproach_ConvergesGeometrically(t *testing.T) {
	target := mgl64.Vec3{4, -2, 7}
	cur := mgl64.Vec3{0, 0, 0}
	d0 := target.Sub(cur).Len()

	prev := d0
	for k := 1; k <= 60; k++ {
		cur = Approach(cur, target, 0.1)
		d := target.Sub(cur).Len()

		require.InDelta(t, d0*math.Pow(0.9, float64(k)), d, 1e-9, "frame %d", k)
		require.Less(t, d, prev)
		prev = d

		// No overshoot: every axis stays on the start side of the target.
		assert.LessOrEqual(t, cur[0], target[0])
		assert.GreaterOrEqual(t, cur[1], target[1])
		assert.LessOrEqual(t, cur[2], target[2])
	}
}

func TestApproach_Limits(t *testing.T) {
	cur := mgl64.Vec3{1, 2, 3}
	target := mgl64.Vec3{-1, 5, 0}

	assert.Equal(t, cur, Approach(cur, target, 0))
	assert.Equal(t, target, Approach(cur, target, 1))
	assert.InDelta(t, 1.5, Lerp(1, 2, 0.5), 1e-12)
}

func TestCompose_TranslationAndScale(t *testing.T) {
	m := Compose(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{}, Uniform(2))

	p := m.Mul4x1(mgl64.Vec4{1, 1, 1, 1})
	assert.InDelta(t, 3, p[0], 1e-12)
	assert.InDelta(t, 4, p[1], 1e-12)
	assert.InDelta(t, 5, p[2], 1e-12)
}

func TestCompose_RotationOrder(t *testing.T) {
	// A quarter turn about Z maps +X to +Y.
	m := Compose(mgl64.Vec3{}, mgl64.Vec3{0, 0, math.Pi / 2}, Uniform(1))

	p := m.Mul4x1(mgl64.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 0, p[0], 1e-12)
	assert.InDelta(t, 1, p[1], 1e-12)

	pose := Pose{Position: mgl64.Vec3{0, 1, 0}, Rotation: mgl64.Vec3{0, 0, math.Pi / 2}, Scale: Uniform(1)}
	q := pose.Matrix().Mul4x1(mgl64.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 2, q[1], 1e-12)
}
