// Package tracker runs the detection timeline: it loads the landmark model,
// opens the camera, classifies each frame and publishes the result to the
// interaction store.
package tracker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
	"golang.org/x/time/rate"

	"github.com/ayusman/garland/internal/capture"
	"github.com/ayusman/garland/internal/detector"
	"github.com/ayusman/garland/internal/gesture"
	"github.com/ayusman/garland/internal/interaction"
	"github.com/ayusman/garland/internal/metrics"
)

// DefaultFPS is the detection rate without a motion gate.
const DefaultFPS = 15

// ErrNoWriter is returned by Run when no writer has been configured.
var ErrNoWriter = errors.New("tracker: no interaction writer")

// ModelLoader starts the landmark model. It runs on the tracker goroutine.
type ModelLoader func(ctx context.Context) (detector.Detector, error)

// Config wires a Tracker. Camera and LoadModel are required, and a Writer
// must be set here or through SetWriter before Run.
type Config struct {
	Camera     capture.Camera
	LoadModel  ModelLoader
	Classifier *gesture.Classifier
	Writer     *interaction.Writer

	// FPS is the fixed detection rate, ignored when Gate is set.
	FPS     int
	Gate    *capture.MotionGate
	Preview *capture.Preview

	Metrics *metrics.Manager
	Logger  logrus.FieldLogger

	// OnGesture is called from the tracker goroutine on every transition.
	OnGesture func(prev, next gesture.Gesture)
	// OnStatus is called from the tracker goroutine on every status change.
	OnStatus func(Status)
}

// Tracker is the detection timeline. Each Run needs a writer that has not
// been revoked.
type Tracker struct {
	config   Config
	log      logrus.FieldLogger
	enabled  atomic.Bool
	errLimit *rate.Limiter
	dropped  atomic.Int64

	mu     sync.RWMutex
	status Status
	last   gesture.Gesture
	writer *interaction.Writer
}

// New creates a tracker in StatusInitializing with detection enabled.
func New(config Config) *Tracker {
	if config.Classifier == nil {
		config.Classifier = gesture.NewClassifier(gesture.DefaultConfig())
	}
	if config.FPS <= 0 {
		config.FPS = DefaultFPS
	}
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	t := &Tracker{
		config:   config,
		log:      logger.WithField("component", "tracker"),
		errLimit: rate.NewLimiter(rate.Every(5*time.Second), 1),
		status:   StatusInitializing,
		writer:   config.Writer,
	}
	t.enabled.Store(true)
	config.Metrics.SetStatus(string(StatusInitializing), statusNames())
	return t
}

// Status returns the current lifecycle status.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// LastGesture is the most recently published gesture.
func (t *Tracker) LastGesture() gesture.Gesture {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// SetEnabled pauses or resumes detection. While paused the interaction
// state keeps its last value.
func (t *Tracker) SetEnabled(enabled bool) {
	t.enabled.Store(enabled)
}

// SetWriter replaces the writer used by the next Run. A Run already in
// progress keeps the writer it started with.
func (t *Tracker) SetWriter(w *interaction.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writer = w
}

// Enabled reports whether detection is running.
func (t *Tracker) Enabled() bool {
	return t.enabled.Load()
}

func (t *Tracker) setStatus(s Status) {
	t.mu.Lock()
	if t.status == s {
		t.mu.Unlock()
		return
	}
	t.status = s
	t.mu.Unlock()

	t.log.WithField("status", s).Info("tracker status changed")
	t.config.Metrics.SetStatus(string(s), statusNames())
	if t.config.OnStatus != nil {
		t.config.OnStatus(s)
	}
}

// Run loads the model, opens the camera and classifies frames until ctx is
// cancelled. Collaborator failures end in a failed status and a nil error;
// the render timeline keeps running on the last published state. The
// writer is revoked before Run returns.
func (t *Tracker) Run(ctx context.Context) error {
	t.mu.Lock()
	w := t.writer
	t.mu.Unlock()
	if w == nil {
		return ErrNoWriter
	}
	defer w.Revoke()

	t.setStatus(StatusLoadingModel)
	det, err := t.config.LoadModel(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		t.log.WithError(err).Error("landmark model failed to load")
		t.setStatus(StatusModelFailed)
		return nil
	}
	defer func() {
		if err := det.Close(); err != nil {
			t.log.WithError(err).Warn("closing detector")
		}
	}()

	t.setStatus(StatusStartingCamera)
	if err := t.config.Camera.Open(); err != nil {
		t.log.WithError(err).Error("camera could not be opened")
		t.setStatus(StatusCameraBlocked)
		return nil
	}
	defer func() {
		if err := t.config.Camera.Close(); err != nil {
			t.log.WithError(err).Warn("closing camera")
		}
	}()

	fps := t.config.FPS
	if t.config.Gate != nil {
		fps = t.config.Gate.FPS()
	}
	t.config.Camera.SetFPS(fps)
	t.config.Metrics.SetDetectionFPS(fps)
	t.setStatus(StatusActive)

	frame := gocv.NewMat()
	defer frame.Close()

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if !t.Enabled() {
				t.config.Metrics.ObserveDetection(metrics.OutcomeSkipped, 0)
				continue
			}

			if err := t.config.Camera.Read(&frame); err != nil {
				t.logFrameError(err, "reading frame")
				continue
			}

			if t.config.Gate != nil {
				if next, switched := t.config.Gate.Observe(&frame, now); switched {
					t.config.Camera.SetFPS(next)
					t.config.Metrics.SetDetectionFPS(next)
					ticker.Reset(time.Second / time.Duration(next))
					t.log.WithField("fps", next).Debug("detection rate changed")
				}
			}

			if !t.step(ctx, w, det, &frame) {
				return nil
			}
		}
	}
}

// step detects and publishes one frame. It returns false once the writer
// has been revoked.
func (t *Tracker) step(ctx context.Context, w *interaction.Writer, det detector.Detector, frame *gocv.Mat) bool {
	start := time.Now()
	hands, err := det.Detect(frame)
	took := time.Since(start)
	if err != nil {
		t.config.Metrics.ObserveDetection(metrics.OutcomeError, took)
		t.logFrameError(err, "detecting hands")
		return true
	}

	reading := t.config.Classifier.ClassifyHands(hands)
	switch {
	case reading.Malformed:
		t.config.Metrics.ObserveDetection(metrics.OutcomeMalformed, took)
	case reading.Hand:
		t.config.Metrics.ObserveDetection(metrics.OutcomeHand, took)
	default:
		t.config.Metrics.ObserveDetection(metrics.OutcomeNoHand, took)
	}

	if ctx.Err() != nil {
		return false
	}
	next, ok := w.Apply(reading)
	if !ok {
		return false
	}

	t.mu.Lock()
	prev := t.last
	t.last = next.Gesture
	t.mu.Unlock()
	if prev != next.Gesture {
		t.config.Metrics.GestureChanged(next.Gesture.String())
		t.log.WithFields(logrus.Fields{"from": prev, "to": next.Gesture}).Debug("gesture changed")
		if t.config.OnGesture != nil {
			t.config.OnGesture(prev, next.Gesture)
		}
	}

	if t.config.Preview != nil {
		var points []detector.Point3D
		if reading.Hand {
			points = hands[0].Points
		}
		if err := t.config.Preview.Publish(frame, points); err != nil {
			t.logFrameError(err, "publishing preview")
		}
	}
	return true
}

// logFrameError logs per-frame failures at most once per five seconds and
// reports how many were suppressed in between.
func (t *Tracker) logFrameError(err error, what string) {
	if errors.Is(err, context.Canceled) {
		return
	}
	if !t.errLimit.Allow() {
		t.dropped.Add(1)
		return
	}
	t.log.WithError(err).WithField("suppressed", t.dropped.Swap(0)).Warn(what)
}
