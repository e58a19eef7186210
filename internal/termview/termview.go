// Package termview draws scene frames into a terminal with tcell. Every
// particle becomes one colored cell, projected through a perspective camera
// on the +Z axis and depth tested per cell.
package termview

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ayusman/garland/internal/scene"
	"github.com/ayusman/garland/internal/spatial"
)

// Camera setup.
const (
	CameraZ = 15.0
	// FOV is the vertical field of view in degrees.
	FOV = 75.0
	// CellAspect is a terminal cell's width over its height.
	CellAspect = 0.5
	near       = 0.1
)

var (
	background   = tcell.NewRGBColor(0, 0, 0)
	statusStyle  = tcell.StyleDefault.Foreground(tcell.NewRGBColor(255, 255, 255)).Background(background)
	companionRGB = colorful.MustParseHex("#ffffff")
)

var glyphs = map[scene.Shape]rune{
	scene.Box:    '■',
	scene.Sphere: '●',
}

const (
	companionGlyph = '@'
	cursorGlyph    = '◎'
)

// Renderer is a scene.Renderer backed by a tcell screen. Render must be
// called from one goroutine.
type Renderer struct {
	screen tcell.Screen
	status func() string

	depth  []float64
	width  int
	height int

	quit     chan struct{}
	quitOnce sync.Once
	fini     sync.Once
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStatus sets the text shown on the bottom row after the gesture.
func WithStatus(fn func() string) Option {
	return func(r *Renderer) { r.status = fn }
}

// NewTerminal opens the controlling terminal.
func NewTerminal(opts ...Option) (*Renderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	return New(screen, opts...)
}

// New initializes screen and starts reading its key events. Esc, q and
// Ctrl-C close Quit.
func New(screen tcell.Screen, opts ...Option) (*Renderer, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	screen.HideCursor()
	screen.SetStyle(tcell.StyleDefault.Background(background))

	r := &Renderer{
		screen: screen,
		quit:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.poll()
	return r, nil
}

func (r *Renderer) poll() {
	for {
		ev := r.screen.PollEvent()
		if ev == nil {
			return
		}
		if k, ok := ev.(*tcell.EventKey); ok && isQuit(k) {
			r.quitOnce.Do(func() { close(r.quit) })
		}
	}
}

func isQuit(k *tcell.EventKey) bool {
	switch k.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return k.Rune() == 'q' || k.Rune() == 'Q'
	}
	return false
}

// Quit is closed when the user asks to leave.
func (r *Renderer) Quit() <-chan struct{} {
	return r.quit
}

// Close restores the terminal.
func (r *Renderer) Close() {
	r.fini.Do(r.screen.Fini)
}

// Render implements scene.Renderer.
func (r *Renderer) Render(ctx context.Context, f *scene.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.resize()
	clear(r.depth)
	r.screen.Clear()

	for _, layer := range f.Layers {
		glyph, ok := glyphs[layer.Geometry.Shape]
		if !ok {
			glyph = '*'
		}
		group := spatial.Compose(mgl64.Vec3{}, layer.Rotation, spatial.Uniform(1))
		for _, inst := range layer.Instances {
			world := group.Mul4x1(inst.Position.Vec4(1)).Vec3()
			r.plot(world, glyph, inst.Color)
		}
	}

	r.plot(f.Companion.Position, companionGlyph, companionRGB)
	r.plot(f.Cursor.Position, cursorGlyph, f.Cursor.Color)
	r.drawStatus(f)

	r.screen.Show()
	return nil
}

func (r *Renderer) resize() {
	w, h := r.screen.Size()
	if w == r.width && h == r.height && r.depth != nil {
		return
	}
	r.width, r.height = w, h
	r.depth = make([]float64, w*h)
}

// Project maps a world point to a cell on a w x h screen and returns the
// camera distance. ok is false behind the camera or off screen.
func Project(p mgl64.Vec3, w, h int) (col, row int, dist float64, ok bool) {
	dist = CameraZ - p[2]
	if dist < near || w <= 0 || h <= 0 {
		return 0, 0, dist, false
	}
	focal := 1 / math.Tan(mgl64.DegToRad(FOV)/2)
	aspect := float64(w) * CellAspect / float64(h)

	ndcX := p[0] * focal / (aspect * dist)
	ndcY := p[1] * focal / dist

	col = int(math.Floor((ndcX + 1) / 2 * float64(w)))
	row = int(math.Floor((1 - ndcY) / 2 * float64(h)))
	if col < 0 || col >= w || row < 0 || row >= h {
		return col, row, dist, false
	}
	return col, row, dist, true
}

func (r *Renderer) plot(p mgl64.Vec3, glyph rune, c colorful.Color) {
	// The bottom row belongs to the status line.
	col, row, dist, ok := Project(p, r.width, r.height-1)
	if !ok {
		return
	}
	i := row*r.width + col
	if d := r.depth[i]; d != 0 && d <= dist {
		return
	}
	r.depth[i] = dist
	r.screen.SetContent(col, row, glyph, nil, tcell.StyleDefault.Foreground(cellColor(c)).Background(background))
}

func cellColor(c colorful.Color) tcell.Color {
	red, green, blue := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(red), int32(green), int32(blue))
}

func (r *Renderer) drawStatus(f *scene.Frame) {
	if r.height == 0 {
		return
	}

	line := fmt.Sprintf(" %s %.1f  x %+.1f y %+.1f", f.State.Gesture, f.State.Strength, f.State.Cursor[0], f.State.Cursor[1])
	if r.status != nil {
		line += "  " + r.status()
	}
	line += "  [q] quit"

	row := r.height - 1
	col := 0
	for _, ch := range line {
		if col >= r.width {
			break
		}
		r.screen.SetContent(col, row, ch, nil, statusStyle)
		col++
	}
}
