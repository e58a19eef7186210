package cursor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/garland/internal/gesture"
	"github.com/ayusman/garland/internal/interaction"
)

func TestLookFor(t *testing.T) {
	tests := []struct {
		g     gesture.Gesture
		scale float64
		hex   string
	}{
		{g: gesture.Pinch, scale: 1.5, hex: "#ffd700"},
		{g: gesture.Open, scale: 2.0, hex: "#00ffff"},
		{g: gesture.Fist, scale: 1.0, hex: "#ffffff"},
		{g: gesture.Idle, scale: 1.0, hex: "#ffffff"},
	}

	for _, tt := range tests {
		t.Run(tt.g.String(), func(t *testing.T) {
			look := LookFor(tt.g)
			assert.Equal(t, tt.scale, look.Scale)
			assert.Equal(t, tt.hex, look.Color.Hex())
		})
	}
}

func TestIndicator_Follows(t *testing.T) {
	ind := NewIndicator(0)
	target := mgl64.Vec3{10, -4, 0}
	s := interaction.State{Cursor: target, Gesture: gesture.Open, Strength: 1}

	d0 := target.Len()
	for k := 1; k <= 30; k++ {
		p := ind.Step(s)
		require.InDelta(t, d0*math.Pow(0.8, float64(k)), target.Sub(p.Position).Len(), 1e-9)
		require.Equal(t, p.Position, p.Light)
		require.Equal(t, 2.0, p.Scale)
	}
}

func TestPose_Matrix(t *testing.T) {
	p := Pose{Position: mgl64.Vec3{1, 2, 3}, Scale: 2}

	v := p.Matrix().Mul4x1(mgl64.Vec4{1, 0, 0, 1})
	assert.True(t, v.Vec3().ApproxEqualThreshold(mgl64.Vec3{3, 2, 3}, 1e-12))
}
