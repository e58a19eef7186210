package gesture

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/garland/internal/detector"
)

// Classifier thresholds and world mapping.
const (
	// DefaultWorldHalfWidth maps the normalized x span onto [-12, 12].
	DefaultWorldHalfWidth = 12.0
	// DefaultWorldHalfHeight maps the normalized y span onto [-8, 8].
	DefaultWorldHalfHeight = 8.0
	// DefaultOpenThreshold is the mean fingertip-to-wrist distance above which the hand is open.
	DefaultOpenThreshold = 0.3
	// DefaultPinchThreshold is the index-to-thumb tip distance below which the hand pinches.
	DefaultPinchThreshold = 0.08
)

// fingers pairs each non-thumb fingertip with its PIP joint.
var fingers = [4][2]int{
	{detector.IndexTip, detector.IndexPIP},
	{detector.MiddleTip, detector.MiddlePIP},
	{detector.RingTip, detector.RingPIP},
	{detector.PinkyTip, detector.PinkyPIP},
}

// Config holds the classifier thresholds.
type Config struct {
	WorldHalfWidth  float64
	WorldHalfHeight float64
	OpenThreshold   float64
	PinchThreshold  float64
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		WorldHalfWidth:  DefaultWorldHalfWidth,
		WorldHalfHeight: DefaultWorldHalfHeight,
		OpenThreshold:   DefaultOpenThreshold,
		PinchThreshold:  DefaultPinchThreshold,
	}
}

// Reading is the classification of one detection frame.
type Reading struct {
	Gesture  Gesture
	Strength float64
	// Cursor is only meaningful when Hand is true.
	Cursor mgl64.Vec3
	// Hand is false when no usable hand was supplied.
	Hand bool
	// Malformed is set when landmarks were supplied but rejected.
	Malformed bool
}

// NoHand is the reading for an empty detection.
var NoHand = Reading{Gesture: Idle, Strength: 0}

// Classifier turns landmark sets into readings. It holds no state besides
// its thresholds, so Classify is a pure function of its input.
type Classifier struct {
	config Config
}

// NewClassifier creates a Classifier. Zero-valued fields fall back to defaults.
func NewClassifier(config Config) *Classifier {
	def := DefaultConfig()
	if config.WorldHalfWidth == 0 {
		config.WorldHalfWidth = def.WorldHalfWidth
	}
	if config.WorldHalfHeight == 0 {
		config.WorldHalfHeight = def.WorldHalfHeight
	}
	if config.OpenThreshold == 0 {
		config.OpenThreshold = def.OpenThreshold
	}
	if config.PinchThreshold == 0 {
		config.PinchThreshold = def.PinchThreshold
	}
	return &Classifier{config: config}
}

// ClassifyHands classifies the first detected hand, or reports NoHand.
func (c *Classifier) ClassifyHands(hands []detector.HandLandmarks) Reading {
	if len(hands) == 0 {
		return NoHand
	}
	return c.Classify(hands[0].Points)
}

// Classify maps 21 landmarks to a gesture, strength and world cursor.
// An empty slice is "no hand". Any other count, or a point outside the
// normalized image, is rejected and reads as no hand.
func (c *Classifier) Classify(points []detector.Point3D) Reading {
	if len(points) == 0 {
		return NoHand
	}
	if !wellFormed(points) {
		r := NoHand
		r.Malformed = true
		return r
	}

	g := c.gesture(points)
	return Reading{
		Gesture:  g,
		Strength: g.Strength(),
		Cursor:   c.Cursor(points[detector.IndexTip]),
		Hand:     true,
	}
}

// Cursor maps a normalized landmark into world space, mirroring x for the
// selfie camera and flipping y so up is positive.
func (c *Classifier) Cursor(p detector.Point3D) mgl64.Vec3 {
	x := (1-p.X)*2 - 1
	y := -(p.Y*2 - 1)
	return mgl64.Vec3{x * c.config.WorldHalfWidth, y * c.config.WorldHalfHeight, 0}
}

// gesture applies the strict priority FIST > OPEN > PINCH > IDLE.
func (c *Classifier) gesture(points []detector.Point3D) Gesture {
	if isFist(points) {
		return Fist
	}
	if meanTipDistance(points) > c.config.OpenThreshold {
		return Open
	}
	if detector.Distance2D(points[detector.IndexTip], points[detector.ThumbTip]) < c.config.PinchThreshold {
		return Pinch
	}
	return Idle
}

// isFist reports whether every fingertip sits below its PIP joint.
// Image y grows downward.
func isFist(points []detector.Point3D) bool {
	for _, f := range fingers {
		if points[f[0]].Y <= points[f[1]].Y {
			return false
		}
	}
	return true
}

func meanTipDistance(points []detector.Point3D) float64 {
	wrist := points[detector.Wrist]
	var sum float64
	for _, f := range fingers {
		sum += detector.Distance2D(points[f[0]], wrist)
	}
	return sum / float64(len(fingers))
}

func wellFormed(points []detector.Point3D) bool {
	if len(points) != detector.NumLandmarks {
		return false
	}
	for _, p := range points {
		if !p.InImage() {
			return false
		}
	}
	return true
}
