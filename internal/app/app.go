// Package app wires the detection and render timelines together.
//
// The tracker goroutine owns the camera and the landmark model and writes the
// interaction state. The render goroutine snapshots that state once per tick,
// steps the scene and hands the frame to a renderer. Neither timeline waits on
// the other.
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ayusman/garland/internal/capture"
	"github.com/ayusman/garland/internal/gesture"
	"github.com/ayusman/garland/internal/interaction"
	"github.com/ayusman/garland/internal/metrics"
	"github.com/ayusman/garland/internal/scene"
	"github.com/ayusman/garland/internal/tracker"
)

// DefaultRenderFPS is the display refresh rate.
const DefaultRenderFPS = 30

// ErrAlreadyRunning is returned by a second concurrent Run.
var ErrAlreadyRunning = errors.New("app is already running")

// Config holds the collaborators of an App. Camera and LoadModel are required.
type Config struct {
	Camera    capture.Camera
	LoadModel tracker.ModelLoader

	// DetectFPS is the fixed detection rate, ignored when Gate is set.
	DetectFPS int
	Gate      *capture.MotionGate
	Preview   *capture.Preview

	// Scene configures the animators. Zero sections take the scene defaults.
	Scene     scene.Config
	RenderFPS int
	// Renderer receives every frame. Nil discards frames.
	Renderer scene.Renderer

	Metrics *metrics.Manager
	Logger  logrus.FieldLogger

	OnGesture func(prev, next gesture.Gesture)
	OnStatus  func(tracker.Status)
}

// App is one session: an interaction store, the tracker writing it and the
// scene reading it.
type App struct {
	config  Config
	id      uuid.UUID
	log     logrus.FieldLogger
	store   *interaction.Store
	writer  *interaction.Writer
	tracker *tracker.Tracker
	scene   *scene.Scene
	colors  map[string][]colorful.Color

	frames   atomic.Uint64
	errLimit *rate.Limiter
	dropped  atomic.Int64

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

// New builds the session. Nothing starts until Run.
func New(config Config) *App {
	if config.RenderFPS <= 0 {
		config.RenderFPS = DefaultRenderFPS
	}
	if config.Renderer == nil {
		config.Renderer = scene.Discard
	}
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	id := uuid.New()
	store := interaction.NewStore()

	a := &App{
		config:   config,
		id:       id,
		log:      logger.WithFields(logrus.Fields{"component": "app", "session": id.String()}),
		store:    store,
		scene:    scene.New(config.Scene),
		colors:   make(map[string][]colorful.Color),
		errLimit: rate.NewLimiter(rate.Every(5*time.Second), 1),
	}

	for i, l := range a.scene.Layers() {
		a.colors[l.Name] = a.scene.Field(i).Colors()
	}

	a.tracker = tracker.New(tracker.Config{
		Camera:    config.Camera,
		LoadModel: config.LoadModel,
		FPS:       config.DetectFPS,
		Gate:      config.Gate,
		Preview:   config.Preview,
		Metrics:   config.Metrics,
		Logger:    logger,
		OnGesture: config.OnGesture,
		OnStatus:  config.OnStatus,
	})
	return a
}

// ID identifies the session.
func (a *App) ID() uuid.UUID {
	return a.id
}

// Status is the tracker's lifecycle status.
func (a *App) Status() tracker.Status {
	return a.tracker.Status()
}

// Snapshot returns the current interaction state.
func (a *App) Snapshot() interaction.State {
	return a.store.Snapshot()
}

// SetEnabled pauses or resumes gesture detection.
func (a *App) SetEnabled(enabled bool) {
	a.tracker.SetEnabled(enabled)
	a.log.WithField("enabled", enabled).Info("detection toggled")
}

// Enabled reports whether gesture detection is running.
func (a *App) Enabled() bool {
	return a.tracker.Enabled()
}

// Colors returns each layer's particle colors keyed by layer name. They
// never change for the life of the session.
func (a *App) Colors() map[string][]colorful.Color {
	return a.colors
}

// Layers describes the scene's particle layers.
func (a *App) Layers() []scene.LayerConfig {
	return a.scene.Layers()
}

// SetRenderer replaces the frame sink. It takes effect at the next Run.
func (a *App) SetRenderer(r scene.Renderer) {
	if r == nil {
		r = scene.Discard
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config.Renderer = r
}

// Frames counts the frames rendered so far.
func (a *App) Frames() uint64 {
	return a.frames.Load()
}

// Run starts both timelines and blocks until ctx is cancelled or Stop is
// called. Tracker failures only change the status; the render loop keeps
// drawing the last published state.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	writer := a.store.Writer()
	a.tracker.SetWriter(writer)
	a.writer = writer
	a.cancel = cancel
	a.running = true
	renderer := a.config.Renderer
	a.mu.Unlock()

	defer func() {
		writer.Revoke()
		cancel()
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	a.log.Info("session started")
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.tracker.Run(gctx)
	})
	g.Go(func() error {
		return a.render(gctx, renderer)
	})

	err := g.Wait()
	a.log.WithField("frames", a.Frames()).Info("session stopped")
	return err
}

// Stop cancels both timelines. The tracker can no longer write once Stop
// returns, even if a detection is still in flight. A later Run starts a
// fresh writer.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, writer := a.cancel, a.writer
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if writer != nil {
		writer.Revoke()
	}
}

func (a *App) render(ctx context.Context, renderer scene.Renderer) error {
	ticker := time.NewTicker(time.Second / time.Duration(a.config.RenderFPS))
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			state := a.store.Snapshot()
			frame := a.scene.Step(now.Sub(start).Seconds(), state)

			began := time.Now()
			err := renderer.Render(ctx, frame)
			a.config.Metrics.ObserveFrame(time.Since(began), err)
			a.frames.Add(1)
			if err != nil {
				a.logRenderError(err)
			}
		}
	}
}

func (a *App) logRenderError(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	if !a.errLimit.Allow() {
		a.dropped.Add(1)
		return
	}
	a.log.WithError(err).WithField("suppressed", a.dropped.Swap(0)).Warn("render failed")
}
