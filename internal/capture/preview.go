package capture

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"

	"github.com/ayusman/garland/internal/detector"
)

// Skeleton drawing style.
var (
	ConnectorColor = rgba(colorful.MustParseHex("#00ffd4"))
	JointColor     = rgba(colorful.MustParseHex("#ffd700"))
)

const (
	connectorThickness = 4
	jointRadius        = 4
)

func rgba(c colorful.Color) color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Preview keeps the latest camera frame as a mirrored JPEG with the hand
// skeleton drawn on it. The tracker publishes; HTTP clients wait for new
// frames.
type Preview struct {
	mu      sync.Mutex
	canvas  gocv.Mat
	flipped gocv.Mat
	jpeg    []byte
	seq     uint64
	ready   chan struct{}
	closed  bool
}

// NewPreview creates an empty preview.
func NewPreview() *Preview {
	return &Preview{
		canvas:  gocv.NewMat(),
		flipped: gocv.NewMat(),
		ready:   make(chan struct{}),
	}
}

// Publish annotates frame with points (which may be empty), mirrors it and
// stores the encoded JPEG. frame is not modified.
func (p *Preview) Publish(frame *gocv.Mat, points []detector.Point3D) error {
	if frame == nil || frame.Empty() {
		return ErrEmptyFrame
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}

	frame.CopyTo(&p.canvas)
	if len(points) == detector.NumLandmarks {
		drawSkeleton(&p.canvas, points)
	}
	gocv.Flip(p.canvas, &p.flipped, 1)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, p.flipped)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	data := buf.GetBytes()
	p.jpeg = append(p.jpeg[:0:0], data...)
	buf.Close()

	p.seq++
	close(p.ready)
	p.ready = make(chan struct{})
	return nil
}

func drawSkeleton(img *gocv.Mat, points []detector.Point3D) {
	w, h := float64(img.Cols()), float64(img.Rows())
	px := func(i int) image.Point {
		return image.Pt(int(points[i].X*w), int(points[i].Y*h))
	}
	for _, c := range detector.Connections {
		gocv.Line(img, px(c[0]), px(c[1]), ConnectorColor, connectorThickness)
	}
	for i := range points {
		gocv.Circle(img, px(i), jointRadius, JointColor, -1)
	}
}

// Latest returns the newest JPEG and its sequence number. The slice must
// not be modified.
func (p *Preview) Latest() ([]byte, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jpeg, p.seq
}

// Next blocks until a frame newer than after is published or ctx ends.
func (p *Preview) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		p.mu.Lock()
		if p.seq > after {
			jpeg, seq := p.jpeg, p.seq
			p.mu.Unlock()
			return jpeg, seq, nil
		}
		ready := p.ready
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, after, ctx.Err()
		case <-ready:
		}
	}
}

// Close releases the drawing buffers. Later publishes are dropped.
func (p *Preview) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.canvas.Close()
	p.flipped.Close()
}
