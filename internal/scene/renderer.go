package scene

import (
	"context"
	"errors"
	"sync"

	"github.com/ayusman/garland/internal/companion"
	"github.com/ayusman/garland/internal/cursor"
	"github.com/ayusman/garland/internal/interaction"
)

// Renderer displays frames. Render is called from the render loop only.
type Renderer interface {
	Render(ctx context.Context, frame *Frame) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, frame *Frame) error

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, frame *Frame) error {
	return f(ctx, frame)
}

// Discard drops every frame.
var Discard Renderer = RendererFunc(func(context.Context, *Frame) error { return nil })

// Multi fans a frame out to several renderers, joining their errors.
type Multi []Renderer

// Render calls every renderer even if one fails.
func (m Multi) Render(ctx context.Context, frame *Frame) error {
	var errs []error
	for _, r := range m {
		if err := r.Render(ctx, frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Summary is the part of a frame a Recorder keeps.
type Summary struct {
	Seq       uint64
	Time      float64
	State     interaction.State
	Instances int
	Companion companion.Pose
	Cursor    cursor.Pose
}

// Recorder keeps summaries of rendered frames. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	frames []Summary
	err    error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SetError makes later Render calls fail with err after recording.
func (r *Recorder) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Render records a summary of frame.
func (r *Recorder) Render(_ context.Context, frame *Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, Summary{
		Seq:       frame.Seq,
		Time:      frame.Time,
		State:     frame.State,
		Instances: frame.InstanceCount(),
		Companion: frame.Companion,
		Cursor:    frame.Cursor,
	})
	return r.err
}

// Frames returns a copy of everything recorded so far.
func (r *Recorder) Frames() []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Summary, len(r.frames))
	copy(out, r.frames)
	return out
}

// Len is the number of recorded frames.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}
