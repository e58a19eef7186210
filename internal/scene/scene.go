// Package scene composes the particle layers, companion and cursor into a
// single per-frame snapshot for renderers.
package scene

import (
	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/garland/internal/companion"
	"github.com/ayusman/garland/internal/cursor"
	"github.com/ayusman/garland/internal/interaction"
	"github.com/ayusman/garland/internal/particle"
)

// Shape is a layer's instance geometry.
type Shape string

const (
	Box    Shape = "box"
	Sphere Shape = "sphere"
)

// Geometry describes the mesh every instance of a layer uses.
type Geometry struct {
	Shape Shape   `json:"shape"`
	Size  float64 `json:"size"`
}

// LayerConfig names one particle ensemble.
type LayerConfig struct {
	Name     string
	Geometry Geometry
}

// DefaultLayers are the two stock ensembles: cubes and ornament spheres.
func DefaultLayers() []LayerConfig {
	return []LayerConfig{
		{Name: "box", Geometry: Geometry{Shape: Box, Size: 0.25}},
		{Name: "sphere", Geometry: Geometry{Shape: Sphere, Size: 0.18}},
	}
}

// Config assembles a Scene.
type Config struct {
	Seed       uint64
	Particles  particle.Config
	Layers     []LayerConfig
	Companion  companion.Config
	CursorRate float64
	// Jitter disables the tree band jitter when false.
	Jitter bool
}

// DefaultConfig returns the stock scene.
func DefaultConfig() Config {
	return Config{
		Seed:       1,
		Particles:  particle.DefaultConfig(),
		Layers:     DefaultLayers(),
		Companion:  companion.DefaultConfig(),
		CursorRate: cursor.DefaultRate,
		Jitter:     true,
	}
}

// Layer is one ensemble's slice of a frame.
type Layer struct {
	Name      string
	Geometry  Geometry
	Rotation  mgl64.Vec3
	Instances []particle.Instance
}

// Frame is everything a renderer needs for one refresh. Frames and their
// instance slices are reused; renderers must not keep them past Render.
type Frame struct {
	Seq       uint64
	Time      float64
	State     interaction.State
	Layers    []Layer
	Companion companion.Pose
	Cursor    cursor.Pose
}

// InstanceCount is the total number of particles in the frame.
func (f *Frame) InstanceCount() int {
	n := 0
	for _, l := range f.Layers {
		n += len(l.Instances)
	}
	return n
}

// Scene owns every animator. Step must be called from one goroutine.
type Scene struct {
	config    Config
	fields    []*particle.Field
	companion *companion.Companion
	cursor    *cursor.Indicator
	frame     Frame
}

// LayerSeed derives a layer's seed from its name so that layers differ
// while the whole scene stays reproducible.
func LayerSeed(name string, seed uint64) uint64 {
	return xxhash.Sum64String(name) ^ seed
}

// New allocates every layer up front. Zero sections of config are filled
// from DefaultConfig; Seed and Jitter are taken as given.
func New(config Config) *Scene {
	if len(config.Layers) == 0 {
		config.Layers = DefaultLayers()
	}
	if config.Particles.Count == 0 {
		config.Particles = particle.DefaultConfig()
	}
	if config.Companion == (companion.Config{}) {
		config.Companion = companion.DefaultConfig()
	}
	if config.CursorRate == 0 {
		config.CursorRate = cursor.DefaultRate
	}

	s := &Scene{
		config:    config,
		fields:    make([]*particle.Field, len(config.Layers)),
		companion: companion.New(config.Companion),
		cursor:    cursor.NewIndicator(config.CursorRate),
	}
	s.frame.Layers = make([]Layer, len(config.Layers))

	for i, lc := range config.Layers {
		f := particle.NewField(config.Particles, LayerSeed(lc.Name, config.Seed))
		f.SetJitter(config.Jitter)
		s.fields[i] = f
		s.frame.Layers[i] = Layer{Name: lc.Name, Geometry: lc.Geometry}
	}
	return s
}

// Layers returns the layer configuration.
func (s *Scene) Layers() []LayerConfig {
	return s.config.Layers
}

// Field returns the ensemble of layer i.
func (s *Scene) Field(i int) *particle.Field {
	return s.fields[i]
}

// Step advances every animator by one frame at t seconds, all reading the
// same snapshot.
func (s *Scene) Step(t float64, state interaction.State) *Frame {
	s.frame.Seq++
	s.frame.Time = t
	s.frame.State = state

	for i, f := range s.fields {
		s.frame.Layers[i].Instances = f.Step(t, state)
		s.frame.Layers[i].Rotation = f.Rotation()
	}
	s.frame.Companion = s.companion.Step(t, state)
	s.frame.Cursor = s.cursor.Step(state)
	return &s.frame
}
