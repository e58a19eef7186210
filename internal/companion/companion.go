// Package companion animates the mascot that floats around the scene and
// perches on top of the tree while a fist is held.
package companion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/garland/internal/gesture"
	"github.com/ayusman/garland/internal/interaction"
	"github.com/ayusman/garland/internal/spatial"
)

// Mode is the companion's behaviour.
type Mode uint8

const (
	// Floating follows a closed path through the scene.
	Floating Mode = iota
	// Topper perches at the tree apex.
	Topper
)

func (m Mode) String() string {
	if m == Topper {
		return "topper"
	}
	return "floating"
}

// ModeFor selects the behaviour for a gesture.
func ModeFor(g gesture.Gesture) Mode {
	switch g {
	case gesture.Fist:
		return Topper
	case gesture.Idle, gesture.Pinch, gesture.Open:
		return Floating
	}
	// out-of-range values
	return Floating
}

// Config tunes both modes.
type Config struct {
	Apex        mgl64.Vec3
	Rate        float64
	HoverAmp    float64
	HoverFreq   float64
	TopperRoll  float64
	TopperScale float64

	PathAmp    mgl64.Vec3
	PathFreq   mgl64.Vec3
	PathLift   float64
	FloatRoll  float64
	FloatScale float64
	FacingFreq float64
}

// DefaultConfig perches the companion just above a 9.6 tall tree.
func DefaultConfig() Config {
	return Config{
		Apex:        mgl64.Vec3{0, 5.2, 0},
		Rate:        0.1,
		HoverAmp:    0.05,
		HoverFreq:   2,
		TopperRoll:  0.1,
		TopperScale: 2.5,

		PathAmp:    mgl64.Vec3{6, 2, 4},
		PathFreq:   mgl64.Vec3{0.5, 0.3, 0.4},
		PathLift:   1,
		FloatRoll:  0.2,
		FloatScale: 2.0,
		FacingFreq: 0.5,
	}
}

// Pose is the companion's render state for one frame.
type Pose struct {
	spatial.Pose
	Mode Mode `json:"mode"`
	// Mirror is -1 when the sprite faces left, +1 otherwise.
	Mirror float64 `json:"mirror"`
}

// Companion holds the persistent position. Hover is applied on top of the
// smoothed position and never fed back into it.
type Companion struct {
	config   Config
	position mgl64.Vec3
	mirror   float64
}

// New creates a companion at the origin facing right.
func New(config Config) *Companion {
	return &Companion{config: config, mirror: 1}
}

// Position is the smoothed position without hover.
func (c *Companion) Position() mgl64.Vec3 {
	return c.position
}

// Step advances one frame at t seconds.
func (c *Companion) Step(t float64, s interaction.State) Pose {
	cfg := c.config
	mode := ModeFor(s.Gesture)

	var pose Pose
	pose.Mode = mode

	switch mode {
	case Topper:
		c.position = spatial.Approach(c.position, cfg.Apex, cfg.Rate)
		pose.Position = c.position.Add(mgl64.Vec3{0, math.Sin(t*cfg.HoverFreq) * cfg.HoverAmp, 0})
		pose.Rotation = mgl64.Vec3{0, 0, math.Sin(t) * cfg.TopperRoll}
		pose.Scale = spatial.Uniform(cfg.TopperScale)
	case Floating:
		c.position = c.PathAt(t)
		pose.Position = c.position
		pose.Rotation = mgl64.Vec3{0, 0, math.Sin(t) * cfg.FloatRoll}
		pose.Scale = spatial.Uniform(cfg.FloatScale)
		if math.Cos(t*cfg.FacingFreq) > 0 {
			c.mirror = -1
		} else {
			c.mirror = 1
		}
	}
	pose.Mirror = c.mirror
	return pose
}

// PathAt is the floating path position at t seconds.
func (c *Companion) PathAt(t float64) mgl64.Vec3 {
	cfg := c.config
	return mgl64.Vec3{
		math.Sin(t*cfg.PathFreq[0]) * cfg.PathAmp[0],
		math.Cos(t*cfg.PathFreq[1])*cfg.PathAmp[1] + cfg.PathLift,
		math.Sin(t*cfg.PathFreq[2]) * cfg.PathAmp[2],
	}
}
