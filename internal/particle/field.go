// Package particle simulates fixed-size particle ensembles that morph
// between an ambient cloud, a spiral tree and an explosion according to
// the current gesture.
package particle

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ayusman/garland/internal/gesture"
	"github.com/ayusman/garland/internal/interaction"
	"github.com/ayusman/garland/internal/spatial"
)

// Config tunes one ensemble. DefaultConfig holds the stock values.
type Config struct {
	Count int

	TreeHeight  float64
	TreeRadius  float64
	TreeLoops   float64
	TreeSpin    float64
	BandJitter  float64
	AngleJitter float64
	Wobble      float64

	BurstRadius float64
	BurstPulse  float64
	BurstFreq   float64

	RepelRadius float64
	RepelForce  float64

	Smoothing float64

	PulseAmplitude float64
	PulseFreq      float64
	TipCount       int
	TipBoost       float64

	ParallaxGain float64
	ParallaxRate float64

	Palette Palette
}

// DefaultConfig returns the stock ensemble parameters.
func DefaultConfig() Config {
	return Config{
		Count: 2500,

		TreeHeight:  9.6,
		TreeRadius:  3.6,
		TreeLoops:   12,
		TreeSpin:    0.2,
		BandJitter:  0.45,
		AngleJitter: 0.25,
		Wobble:      0.02,

		BurstRadius: 25,
		BurstPulse:  2,
		BurstFreq:   4,

		RepelRadius: 5,
		RepelForce:  5,

		Smoothing: 0.1,

		PulseAmplitude: 0.2,
		PulseFreq:      5,
		TipCount:       50,
		TipBoost:       2,

		ParallaxGain: 0.05,
		ParallaxRate: 0.1,

		Palette: DefaultPalette(),
	}
}

// Particle is one arena slot. Everything except Position is fixed at
// creation.
type Particle struct {
	Phase     float64
	Factor    float64
	Drift     mgl64.Vec3
	Wobble    float64
	BaseScale float64
	ColorDraw float64
	Color     colorful.Color

	Position mgl64.Vec3
}

// Instance is the per-frame render record of one particle.
type Instance struct {
	Position mgl64.Vec3
	Rotation mgl64.Vec3
	Scale    float64
	Color    colorful.Color
	Matrix   mgl64.Mat4
}

// Field owns one ensemble. It is driven from a single render goroutine.
type Field struct {
	config    Config
	particles []Particle
	instances []Instance
	rotation  mgl64.Vec3
	jitter    *rand.Rand
	jitterOn  bool
}

// NewField allocates the ensemble and draws every particle's seeds from
// seed. Creation is deterministic for a given seed.
func NewField(config Config, seed uint64) *Field {
	if config.Count <= 0 {
		config.Count = DefaultConfig().Count
	}
	if len(config.Palette) == 0 {
		config.Palette = DefaultPalette()
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	f := &Field{
		config:    config,
		particles: make([]Particle, config.Count),
		instances: make([]Instance, config.Count),
		jitter:    rand.New(rand.NewPCG(seed+1, seed^0x2545f4914f6cdd1d)),
		jitterOn:  true,
	}

	for i := range f.particles {
		p := &f.particles[i]
		p.Phase = rng.Float64() * 100
		p.Factor = 20 + rng.Float64()*100
		p.Drift = mgl64.Vec3{
			-50 + rng.Float64()*100,
			-50 + rng.Float64()*100,
			-50 + rng.Float64()*100,
		}
		p.ColorDraw = rng.Float64()
		p.Color = config.Palette.Pick(p.ColorDraw)
		p.BaseScale = 0.5 + rng.Float64()*0.5
		p.Wobble = rng.Float64() * 2 * math.Pi

		f.instances[i].Color = p.Color
	}
	return f
}

// SetJitter enables or disables the per-frame tree jitter.
func (f *Field) SetJitter(on bool) {
	f.jitterOn = on
}

// Len is the ensemble size. It never changes.
func (f *Field) Len() int {
	return len(f.particles)
}

// Particle returns a copy of slot i.
func (f *Field) Particle(i int) Particle {
	return f.particles[i]
}

// Colors returns the immutable per-particle colors.
func (f *Field) Colors() []colorful.Color {
	out := make([]colorful.Color, len(f.particles))
	for i := range f.particles {
		out[i] = f.particles[i].Color
	}
	return out
}

// Rotation is the ensemble's parallax group rotation.
func (f *Field) Rotation() mgl64.Vec3 {
	return f.rotation
}

// Config returns the ensemble configuration.
func (f *Field) Config() Config {
	return f.config
}

// Step advances every particle one frame at t seconds and returns the
// instance buffer. The buffer is reused by the next Step.
func (f *Field) Step(t float64, s interaction.State) []Instance {
	c := f.config
	n := len(f.particles)

	f.rotation = mgl64.Vec3{
		spatial.Lerp(f.rotation[0], -s.Cursor[1]*c.ParallaxGain, c.ParallaxRate),
		spatial.Lerp(f.rotation[1], -s.Cursor[0]*c.ParallaxGain, c.ParallaxRate),
		0,
	}

	for i := range f.particles {
		p := &f.particles[i]

		var target mgl64.Vec3
		switch s.Gesture {
		case gesture.Fist:
			target = c.TreeTarget(i, n, t, p.Wobble, f.treeJitter())
		case gesture.Open:
			target = c.BurstTarget(p.Drift, t)
		case gesture.Pinch, gesture.Idle:
			target = CloudTarget(p.Phase, p.Factor)
		}
		target = c.Repel(target, s.Cursor)

		p.Position = spatial.Approach(p.Position, target, c.Smoothing)

		scale := p.BaseScale
		if s.Gesture == gesture.Fist && c.IsTip(i, n) {
			scale *= c.TipBoost
		}
		scale *= 1 - c.PulseAmplitude + math.Sin(t*c.PulseFreq+float64(i))*c.PulseAmplitude

		inst := &f.instances[i]
		inst.Position = p.Position
		inst.Rotation = mgl64.Vec3{t + float64(i), t*0.5 + float64(i), 0}
		inst.Scale = scale
		inst.Matrix = spatial.Compose(inst.Position, inst.Rotation, spatial.Uniform(scale))
	}
	return f.instances
}

// Jitter is one particle's tree band offsets for a single frame.
type Jitter struct {
	Radius float64
	Height float64
	Angle  float64
}

func (f *Field) treeJitter() Jitter {
	if !f.jitterOn {
		return Jitter{}
	}
	return Jitter{
		Radius: (f.jitter.Float64() - 0.5) * 2 * f.config.BandJitter,
		Height: (f.jitter.Float64() - 0.5) * 2 * f.config.BandJitter,
		Angle:  (f.jitter.Float64() - 0.5) * 2 * f.config.AngleJitter,
	}
}
