package particle

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/garland/internal/spatial"
)

// TreeTarget places particle i of n on the narrowing spiral. The base sits
// at -H/2 with full radius and the apex at +H/2 with zero radius.
func (c Config) TreeTarget(i, n int, t, wobblePhase float64, j Jitter) mgl64.Vec3 {
	pct := float64(i) / float64(n)
	y := pct*c.TreeHeight - c.TreeHeight/2
	radius := (1-pct)*c.TreeRadius + j.Radius
	angle := pct*2*math.Pi*c.TreeLoops - t*c.TreeSpin + j.Angle

	theta := t + wobblePhase
	return mgl64.Vec3{
		math.Cos(angle)*radius + math.Sin(theta)*c.Wobble,
		y + j.Height + math.Cos(theta)*c.Wobble,
		math.Sin(angle)*radius - math.Sin(theta)*c.Wobble,
	}
}

// BurstTarget pushes a particle out along its fixed drift direction to the
// pulsing explosion radius.
func (c Config) BurstTarget(drift mgl64.Vec3, t float64) mgl64.Vec3 {
	dir := drift
	if l := dir.Len(); l > 0 {
		dir = dir.Mul(1 / l)
	} else {
		dir = spatial.Up
	}
	return dir.Mul(c.BurstRadius + math.Sin(t*c.BurstFreq)*c.BurstPulse)
}

// CloudTarget is the ambient orbit point for a particle's fixed phase and
// amplitude factor.
func CloudTarget(phase, factor float64) mgl64.Vec3 {
	return mgl64.Vec3{
		math.Sin(phase)*factor*0.2 + math.Cos(phase*2)*2,
		math.Cos(phase)*factor*0.2 + math.Sin(phase*3)*2,
		math.Sin(phase*0.5) * factor * 0.2,
	}
}

// Repel displaces target away from cursor when it lies inside the repulsion
// radius. The push is (1 - d/R) * force along the outward direction, and
// vanishes at d >= R. A target exactly on the cursor is pushed along +Y.
func (c Config) Repel(target, cursor mgl64.Vec3) mgl64.Vec3 {
	diff := target.Sub(cursor)
	d := diff.Len()
	if d >= c.RepelRadius {
		return target
	}
	dir := spatial.Up
	if d > 0 {
		dir = diff.Mul(1 / d)
	}
	return target.Add(dir.Mul((1 - d/c.RepelRadius) * c.RepelForce))
}

// IsTip reports whether i is one of the final TipCount indices of n.
func (c Config) IsTip(i, n int) bool {
	return i >= n-c.TipCount
}
