// Package capture reads webcam frames with GoCV and derives the motion
// gate and preview image from them.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default capture settings.
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when reading from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrCameraUnavailable is returned by Open when the device cannot be
	// acquired, typically because access was denied or it is in use.
	ErrCameraUnavailable = errors.New("camera unavailable")
	// ErrEmptyFrame is returned when the device produced no image.
	ErrEmptyFrame = errors.New("captured frame is empty")
)

// Camera is a frame source. Read fills a caller-owned Mat so the tracker
// can reuse one buffer for the whole session.
type Camera interface {
	Open() error
	Close() error
	Read(dst *gocv.Mat) error
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

type cameraImpl struct {
	deviceID int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	fps      int
}

// NewCamera returns a Camera for the given device index.
func NewCamera(deviceID int) Camera {
	return &cameraImpl{
		deviceID: deviceID,
		fps:      DefaultFPS,
	}
}

// Open acquires the device at 640x480.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("%w: device %d: %v", ErrCameraUnavailable, c.deviceID, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("%w: device %d did not open", ErrCameraUnavailable, c.deviceID)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	vc.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
	vc.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.capture = vc
	return nil
}

// Close releases the device. Closing a closed camera is a no-op.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}

// Read grabs the next frame into dst.
func (c *cameraImpl) Read(dst *gocv.Mat) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return ErrCameraNotOpen
	}
	if ok := c.capture.Read(dst); !ok {
		return errors.New("failed to read frame from camera")
	}
	if dst.Empty() {
		return ErrEmptyFrame
	}
	return nil
}

// SetFPS requests a capture rate. Non-positive values are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps
	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}
