package gesture

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/garland/internal/detector"
)

func points(h detector.HandLandmarks) []detector.Point3D {
	return h.Points
}

// curledFarHand is a fist whose fingertips are also far from the wrist and
// touching the thumb, so every gesture condition holds at once.
func curledFarHand() []detector.Point3D {
	p := detector.NewHandLandmarks("Right", 0.9).Points
	for i := range p {
		p[i] = detector.Point3D{X: 0.5, Y: 0.5}
	}
	p[detector.Wrist] = detector.Point3D{X: 0.5, Y: 0.0}
	for _, f := range fingers {
		p[f[1]] = detector.Point3D{X: 0.5, Y: 0.85}
		p[f[0]] = detector.Point3D{X: 0.5, Y: 0.9}
	}
	p[detector.ThumbTip] = detector.Point3D{X: 0.51, Y: 0.9}
	return p
}

func TestClassify_Fixtures(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	tests := []struct {
		name     string
		hand     detector.HandLandmarks
		want     Gesture
		strength float64
	}{
		{name: "fist", hand: detector.FistLandmarks(), want: Fist, strength: 1.0},
		{name: "open palm", hand: detector.OpenPalmLandmarks(), want: Open, strength: 1.0},
		{name: "pinch", hand: detector.PinchLandmarks(), want: Pinch, strength: 0.8},
		{name: "relaxed hand", hand: detector.RelaxedLandmarks(), want: Idle, strength: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := c.Classify(points(tt.hand))

			assert.True(t, r.Hand)
			assert.False(t, r.Malformed)
			assert.Equal(t, tt.want, r.Gesture)
			assert.InDelta(t, tt.strength, r.Strength, 1e-12)
		})
	}
}

func TestClassify_PriorityLaw(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	p := curledFarHand()

	require.Greater(t, meanTipDistance(p), DefaultOpenThreshold)
	require.Less(t, detector.Distance2D(p[detector.IndexTip], p[detector.ThumbTip]), DefaultPinchThreshold)

	r := c.Classify(p)
	assert.Equal(t, Fist, r.Gesture)

	// Uncurl one finger: OPEN now outranks the still-valid pinch.
	p[detector.PinkyTip] = detector.Point3D{X: 0.5, Y: 0.8}
	r = c.Classify(p)
	assert.Equal(t, Open, r.Gesture)
}

func TestClassify_FistIgnoresDistances(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	for _, thumb := range []detector.Point3D{{X: 0.0, Y: 0.0}, {X: 1, Y: 1}, {X: 0.5, Y: 0.72}} {
		p := points(detector.FistLandmarks())
		p[detector.ThumbTip] = thumb
		assert.Equal(t, Fist, c.Classify(p).Gesture, "thumb at %+v", thumb)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	for _, h := range []detector.HandLandmarks{
		detector.FistLandmarks(),
		detector.OpenPalmLandmarks(),
		detector.PinchLandmarks(),
		detector.RelaxedLandmarks(),
	} {
		first := c.Classify(h.Points)
		second := c.Classify(h.Points)
		assert.Equal(t, first, second)
	}
}

func TestClassify_NoHand(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	r := c.Classify(nil)
	assert.Equal(t, NoHand, r)
	assert.Equal(t, Idle, r.Gesture)
	assert.Zero(t, r.Strength)
	assert.False(t, r.Hand)

	assert.Equal(t, NoHand, c.ClassifyHands(nil))
}

func TestClassify_Malformed(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	tests := []struct {
		name   string
		mutate func([]detector.Point3D) []detector.Point3D
	}{
		{name: "too few points", mutate: func(p []detector.Point3D) []detector.Point3D { return p[:20] }},
		{name: "too many points", mutate: func(p []detector.Point3D) []detector.Point3D { return append(p, p[0]) }},
		{name: "x out of range", mutate: func(p []detector.Point3D) []detector.Point3D {
			p[detector.IndexTip].X = 1.5
			return p
		}},
		{name: "nan y", mutate: func(p []detector.Point3D) []detector.Point3D {
			p[detector.Wrist].Y = math.NaN()
			return p
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := c.Classify(tt.mutate(points(detector.FistLandmarks())))

			assert.True(t, r.Malformed)
			assert.False(t, r.Hand)
			assert.Equal(t, Idle, r.Gesture)
			assert.Zero(t, r.Strength)
		})
	}
}

func TestCursor_Mapping(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	tests := []struct {
		name string
		tip  detector.Point3D
		want mgl64.Vec3
	}{
		{name: "center", tip: detector.Point3D{X: 0.5, Y: 0.5, Z: -0.3}, want: mgl64.Vec3{0, 0, 0}},
		{name: "top left of image is top right of world", tip: detector.Point3D{X: 0, Y: 0}, want: mgl64.Vec3{12, 8, 0}},
		{name: "bottom right of image", tip: detector.Point3D{X: 1, Y: 1}, want: mgl64.Vec3{-12, -8, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Cursor(tt.tip)
			assert.True(t, got.ApproxEqualThreshold(tt.want, 1e-12), "got %v want %v", got, tt.want)
		})
	}

	r := c.Classify(points(detector.OpenPalmLandmarks()))
	assert.True(t, r.Cursor.ApproxEqualThreshold(c.Cursor(detector.OpenPalmLandmarks().Points[detector.IndexTip]), 1e-12))
}

func TestNewClassifier_Defaults(t *testing.T) {
	c := NewClassifier(Config{})
	assert.Equal(t, DefaultConfig(), c.config)
}

func TestGesture_Text(t *testing.T) {
	for _, g := range All {
		text, err := g.MarshalText()
		require.NoError(t, err)

		var back Gesture
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, g, back)
	}

	_, err := Parse("WAVE")
	assert.Error(t, err)
	assert.Equal(t, "Gesture(9)", Gesture(9).String())
}
