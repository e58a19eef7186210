// Package cursor renders the hand marker that trails the index fingertip.
package cursor

import (
	"github.com/go-gl/mathgl/mgl64"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ayusman/garland/internal/gesture"
	"github.com/ayusman/garland/internal/interaction"
	"github.com/ayusman/garland/internal/spatial"
)

// DefaultRate is the fraction of the remaining distance closed per frame.
const DefaultRate = 0.2

// Look is the cursor's appearance for a gesture.
type Look struct {
	Scale float64
	Color colorful.Color
}

var (
	neutral = Look{Scale: 1.0, Color: colorful.MustParseHex("#ffffff")}
	pinch   = Look{Scale: 1.5, Color: colorful.MustParseHex("#ffd700")}
	open    = Look{Scale: 2.0, Color: colorful.MustParseHex("#00ffff")}
)

// LookFor returns the appearance for g.
func LookFor(g gesture.Gesture) Look {
	switch g {
	case gesture.Pinch:
		return pinch
	case gesture.Open:
		return open
	case gesture.Idle, gesture.Fist:
		return neutral
	}
	// out-of-range values
	return neutral
}

// Pose is the cursor's render state. Light is the position of the point
// light that travels with the marker.
type Pose struct {
	Position mgl64.Vec3
	Scale    float64
	Color    colorful.Color
	Light    mgl64.Vec3
}

// Matrix is the marker's model matrix.
func (p Pose) Matrix() mgl64.Mat4 {
	return spatial.Compose(p.Position, mgl64.Vec3{}, spatial.Uniform(p.Scale))
}

// Indicator smooths the cursor toward the interaction cursor.
type Indicator struct {
	rate     float64
	position mgl64.Vec3
}

// NewIndicator creates an indicator at the origin. A non-positive rate
// selects DefaultRate.
func NewIndicator(rate float64) *Indicator {
	if rate <= 0 {
		rate = DefaultRate
	}
	return &Indicator{rate: rate}
}

// Step advances one frame.
func (ind *Indicator) Step(s interaction.State) Pose {
	ind.position = spatial.Approach(ind.position, s.Cursor, ind.rate)
	look := LookFor(s.Gesture)
	return Pose{
		Position: ind.position,
		Scale:    look.Scale,
		Color:    look.Color,
		Light:    ind.position,
	}
}
