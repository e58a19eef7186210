package particle

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/garland/internal/gesture"
	"github.com/ayusman/garland/internal/interaction"
)

// farCursor keeps the repulsion field out of the way.
var farCursor = mgl64.Vec3{1000, 1000, 1000}

func TestRepel(t *testing.T) {
	c := DefaultConfig()
	cursor := mgl64.Vec3{1, -2, 0.5}

	for _, d := range []float64{0.01, 0.5, 1, 2.5, 4, 4.999} {
		dir := mgl64.Vec3{2, 3, -6}.Normalize()
		target := cursor.Add(dir.Mul(d))

		got := c.Repel(target, cursor)

		displacement := got.Sub(target)
		assert.InDelta(t, (1-d/5)*5, displacement.Len(), 1e-9, "d=%v", d)
		assert.True(t, displacement.Normalize().ApproxEqualThreshold(dir, 1e-9), "outward at d=%v", d)
		assert.Greater(t, got.Sub(cursor).Len(), d, "farther at d=%v", d)
	}

	for _, d := range []float64{5, 5.0001, 12} {
		target := cursor.Add(mgl64.Vec3{0, 0, d})
		assert.Equal(t, target, c.Repel(target, cursor), "unchanged at d=%v", d)
	}
}

func TestRepel_OnCursor(t *testing.T) {
	c := DefaultConfig()
	cursor := mgl64.Vec3{3, 3, 0}

	got := c.Repel(cursor, cursor)

	assert.Equal(t, mgl64.Vec3{3, 8, 0}, got)
}

func TestTreeTarget_Base(t *testing.T) {
	c := DefaultConfig()

	got := c.TreeTarget(0, 2500, 0, -math.Pi/2, Jitter{})
	// Wobble phase -pi/2 at t=0: sin = -1, cos = 0.
	want := mgl64.Vec3{3.6 - 0.02, -4.8, 0.02}
	assert.True(t, got.ApproxEqualThreshold(want, 1e-12), "got %v", got)

	c.Wobble = 0
	got = c.TreeTarget(0, 2500, 0, 1.3, Jitter{})
	assert.True(t, got.ApproxEqualThreshold(mgl64.Vec3{3.6, -4.8, 0}, 1e-12), "got %v", got)
	assert.InDelta(t, 3.6, math.Hypot(got[0], got[2]), 1e-12)
}

func TestTreeTarget_NarrowsTowardApex(t *testing.T) {
	c := DefaultConfig()
	c.Wobble = 0
	n := 2500

	prevRadius := math.Inf(1)
	prevY := math.Inf(-1)
	for i := 0; i < n; i += 250 {
		p := c.TreeTarget(i, n, 7.5, 0, Jitter{})
		r := math.Hypot(p[0], p[2])
		assert.Less(t, r, prevRadius)
		assert.Greater(t, p[1], prevY)
		prevRadius, prevY = r, p[1]
	}
}

func TestBurstTarget(t *testing.T) {
	c := DefaultConfig()

	got := c.BurstTarget(mgl64.Vec3{3, 0, 4}, 0)
	assert.True(t, got.ApproxEqualThreshold(mgl64.Vec3{15, 0, 20}, 1e-12), "got %v", got)

	tPeak := math.Pi / 8
	assert.InDelta(t, 27, c.BurstTarget(mgl64.Vec3{0, -9, 0}, tPeak).Len(), 1e-12)
	assert.InDelta(t, 25, c.BurstTarget(mgl64.Vec3{}, 0).Len(), 1e-12)
}

func TestCloudTarget_Bounded(t *testing.T) {
	f := NewField(DefaultConfig(), 7)

	for i := 0; i < f.Len(); i++ {
		p := f.Particle(i)
		got := CloudTarget(p.Phase, p.Factor)
		// 0.2 * 120 + 2 on x and y, 0.2 * 120 on z.
		assert.LessOrEqual(t, math.Abs(got[0]), 26.0)
		assert.LessOrEqual(t, math.Abs(got[1]), 26.0)
		assert.LessOrEqual(t, math.Abs(got[2]), 24.0)
	}
}

func TestNewField_Seeds(t *testing.T) {
	f := NewField(DefaultConfig(), 42)
	g := NewField(DefaultConfig(), 42)

	require.Equal(t, 2500, f.Len())
	for i := 0; i < f.Len(); i++ {
		p := f.Particle(i)
		require.Equal(t, p, g.Particle(i))

		assert.GreaterOrEqual(t, p.Phase, 0.0)
		assert.Less(t, p.Phase, 100.0)
		assert.GreaterOrEqual(t, p.Factor, 20.0)
		assert.Less(t, p.Factor, 120.0)
		assert.GreaterOrEqual(t, p.BaseScale, 0.5)
		assert.Less(t, p.BaseScale, 1.0)
		for k := 0; k < 3; k++ {
			assert.GreaterOrEqual(t, p.Drift[k], -50.0)
			assert.Less(t, p.Drift[k], 50.0)
		}
		assert.Equal(t, mgl64.Vec3{}, p.Position)
	}
}

func TestNewField_PaletteWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 20000
	f := NewField(cfg, 3)

	counts := map[Family]int{}
	for i := 0; i < f.Len(); i++ {
		counts[FamilyOf(f.Particle(i).ColorDraw)]++
	}

	n := float64(f.Len())
	assert.InDelta(t, 0.60, float64(counts[Green])/n, 0.02)
	assert.InDelta(t, 0.20, float64(counts[Red])/n, 0.02)
	assert.InDelta(t, 0.15, float64(counts[Gold])/n, 0.02)
	assert.InDelta(t, 0.05, float64(counts[White])/n, 0.01)
}

func TestPalette_Pick(t *testing.T) {
	p := DefaultPalette()

	assert.Equal(t, "#98fb98", p.Pick(0.1).Hex())
	assert.Equal(t, "#cddc39", p.Pick(0.3).Hex())
	assert.Equal(t, "#ff5252", p.Pick(0.65).Hex())
	assert.Equal(t, "#ff1744", p.Pick(0.75).Hex())
	assert.Equal(t, "#ffff00", p.Pick(0.85).Hex())
	assert.Equal(t, "#fff176", p.Pick(0.92).Hex())
	assert.Equal(t, "#ffffff", p.Pick(0.99).Hex())
}

func TestStep_ColorsNeverChange(t *testing.T) {
	f := NewField(DefaultConfig(), 11)
	before := f.Colors()

	states := []interaction.State{
		{Gesture: gesture.Idle},
		{Gesture: gesture.Fist, Strength: 1},
		{Gesture: gesture.Open, Strength: 1, Cursor: mgl64.Vec3{2, 1, 0}},
		{Gesture: gesture.Pinch, Strength: 0.8},
	}
	for k, s := range states {
		inst := f.Step(float64(k)*0.5, s)
		for i := range inst {
			require.Equal(t, before[i], inst[i].Color)
		}
	}
	assert.Equal(t, before, f.Colors())
}

func TestStep_EnsembleSizeConstant(t *testing.T) {
	f := NewField(DefaultConfig(), 5)

	var first []Instance
	for k := 0; k < 30; k++ {
		g := gesture.All[k%len(gesture.All)]
		inst := f.Step(float64(k)/60, interaction.State{Gesture: g})
		require.Len(t, inst, 2500)
		if first == nil {
			first = inst
		}
		assert.Same(t, &first[0], &inst[0], "buffer must be reused")
	}
	assert.Equal(t, 2500, f.Len())
}

func TestStep_SmoothingConvergesOnTree(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Wobble = 0
	cfg.TreeSpin = 0
	f := NewField(cfg, 1)
	f.SetJitter(false)

	s := interaction.State{Gesture: gesture.Fist, Strength: 1, Cursor: farCursor}
	target := cfg.TreeTarget(0, f.Len(), 0, 0, Jitter{})
	d0 := target.Len()

	for k := 1; k <= 40; k++ {
		f.Step(float64(k), s)
		d := target.Sub(f.Particle(0).Position).Len()
		require.InDelta(t, d0*math.Pow(0.9, float64(k)), d, 1e-9)
	}
}

func TestStep_TipBoostOnlyInFist(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 200
	f := NewField(cfg, 9)
	f.SetJitter(false)

	tm := 0.0
	pulse := func(i int) float64 { return 0.8 + math.Sin(tm*5+float64(i))*0.2 }

	for _, g := range gesture.All {
		inst := f.Step(tm, interaction.State{Gesture: g, Cursor: farCursor})
		for i := range inst {
			want := f.Particle(i).BaseScale * pulse(i)
			if g == gesture.Fist && i >= 150 {
				want *= 2
			}
			require.InDelta(t, want, inst[i].Scale, 1e-12, "gesture %s index %d", g, i)
		}
	}

	assert.False(t, cfg.IsTip(149, 200))
	assert.True(t, cfg.IsTip(150, 200))
	assert.True(t, cfg.IsTip(199, 200))
}

func TestStep_InstanceMatrix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 4
	f := NewField(cfg, 2)

	inst := f.Step(0.25, interaction.State{Gesture: gesture.Open, Cursor: farCursor})

	for i := range inst {
		assert.Equal(t, mgl64.Vec3{0.25 + float64(i), 0.125 + float64(i), 0}, inst[i].Rotation)
		origin := inst[i].Matrix.Mul4x1(mgl64.Vec4{0, 0, 0, 1})
		assert.True(t, origin.Vec3().ApproxEqualThreshold(inst[i].Position, 1e-12))
	}
}

func TestStep_Parallax(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 1
	f := NewField(cfg, 2)
	s := interaction.State{Gesture: gesture.Idle, Cursor: mgl64.Vec3{4, -2, 0}}

	f.Step(0, s)
	assert.True(t, f.Rotation().ApproxEqualThreshold(mgl64.Vec3{0.01, -0.02, 0}, 1e-12), "got %v", f.Rotation())

	for k := 0; k < 300; k++ {
		f.Step(0, s)
	}
	assert.True(t, f.Rotation().ApproxEqualThreshold(mgl64.Vec3{0.1, -0.2, 0}, 1e-9), "got %v", f.Rotation())
}

func TestStep_PinchAndIdleShareCloud(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 20
	pinch := NewField(cfg, 5)
	idle := NewField(cfg, 5)

	for k := 0; k < 50; k++ {
		tt := float64(k) / 60
		a := pinch.Step(tt, interaction.State{Gesture: gesture.Pinch, Strength: 0.8, Cursor: farCursor})
		b := idle.Step(tt, interaction.State{Gesture: gesture.Idle, Strength: 0.5, Cursor: farCursor})
		for i := range a {
			require.Equal(t, b[i].Position, a[i].Position, "particle %d frame %d", i, k)
		}
	}

	p := pinch.Particle(3)
	target := CloudTarget(p.Phase, p.Factor)
	for k := 0; k < 400; k++ {
		pinch.Step(1, interaction.State{Gesture: gesture.Pinch, Cursor: farCursor})
	}
	assert.True(t, pinch.Particle(3).Position.ApproxEqualThreshold(target, 1e-6), "got %v", pinch.Particle(3).Position)
}
