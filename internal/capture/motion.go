package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Frame differencing parameters.
const (
	// BlurSize is the Gaussian kernel applied before differencing.
	BlurSize = 21
	// DiffThreshold is the per-pixel intensity change that counts as motion.
	DiffThreshold = 25
)

// GateConfig tunes a MotionGate.
type GateConfig struct {
	// Threshold is the percentage of changed pixels that counts as motion.
	Threshold float64
	ActiveFPS int
	IdleFPS   int
	// Hold is how long the gate stays active after the last motion.
	Hold time.Duration
}

// DefaultGateConfig detects at 15 fps while moving and 5 fps after two
// quiet seconds.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		Threshold: 1.0,
		ActiveFPS: 15,
		IdleFPS:   5,
		Hold:      2 * time.Second,
	}
}

// MotionGate picks the detection rate from inter-frame motion. Its work
// buffers are allocated once and reused for every frame.
type MotionGate struct {
	mu          sync.Mutex
	config      GateConfig
	gray        gocv.Mat
	blurred     gocv.Mat
	prev        gocv.Mat
	diff        gocv.Mat
	initialized bool
	active      bool
	lastMotion  time.Time
}

// NewMotionGate creates an idle gate. Zero fields take DefaultGateConfig values.
func NewMotionGate(config GateConfig) *MotionGate {
	def := DefaultGateConfig()
	if config.Threshold <= 0 {
		config.Threshold = def.Threshold
	}
	if config.ActiveFPS <= 0 {
		config.ActiveFPS = def.ActiveFPS
	}
	if config.IdleFPS <= 0 {
		config.IdleFPS = def.IdleFPS
	}
	if config.Hold <= 0 {
		config.Hold = def.Hold
	}
	return &MotionGate{
		config:  config,
		gray:    gocv.NewMat(),
		blurred: gocv.NewMat(),
		prev:    gocv.NewMat(),
		diff:    gocv.NewMat(),
	}
}

// Changed reports whether frame differs from the previous one by more than
// the threshold, and the percentage of pixels that changed. The first frame
// only sets the baseline.
func (g *MotionGate) Changed(frame *gocv.Mat) (bool, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.changed(frame)
}

func (g *MotionGate) changed(frame *gocv.Mat) (bool, float64) {
	if frame == nil || frame.Empty() {
		return false, 0
	}

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &g.gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&g.gray)
	}
	gocv.GaussianBlur(g.gray, &g.blurred, image.Point{X: BlurSize, Y: BlurSize}, 0, 0, gocv.BorderDefault)

	if !g.initialized {
		g.blurred.CopyTo(&g.prev)
		g.initialized = true
		return false, 0
	}

	gocv.AbsDiff(g.blurred, g.prev, &g.diff)
	gocv.Threshold(g.diff, &g.diff, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(g.diff)) / float64(g.diff.Rows()*g.diff.Cols()) * 100.0
	g.blurred.CopyTo(&g.prev)

	return changed > g.config.Threshold, changed
}

// Observe feeds one frame captured at now and returns the detection rate to
// use next, plus whether the rate just changed.
func (g *MotionGate) Observe(frame *gocv.Mat, now time.Time) (fps int, switched bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	moving, _ := g.changed(frame)
	switch {
	case moving:
		g.lastMotion = now
		if !g.active {
			g.active = true
			switched = true
		}
	case g.active && now.Sub(g.lastMotion) > g.config.Hold:
		g.active = false
		switched = true
	}
	return g.fps(), switched
}

// FPS is the current detection rate.
func (g *MotionGate) FPS() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fps()
}

func (g *MotionGate) fps() int {
	if g.active {
		return g.config.ActiveFPS
	}
	return g.config.IdleFPS
}

// Active reports whether motion was seen within the hold window.
func (g *MotionGate) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Reset forgets the baseline frame and returns to idle.
func (g *MotionGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initialized = false
	g.active = false
}

// Close releases the work buffers.
func (g *MotionGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range []*gocv.Mat{&g.gray, &g.blurred, &g.prev, &g.diff} {
		m.Close()
	}
	g.initialized = false
}
