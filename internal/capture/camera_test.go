package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestNewCamera(t *testing.T) {
	for _, id := range []int{0, 1, 2} {
		cam := NewCamera(id)

		if got := cam.FPS(); got != DefaultFPS {
			t.Errorf("device %d: FPS() = %d, want %d", id, got, DefaultFPS)
		}
		if cam.IsOpen() {
			t.Errorf("device %d: camera should not be open initially", id)
		}
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(0)

	tests := []struct {
		name    string
		fps     int
		wantFPS int
	}{
		{name: "set to 10", fps: 10, wantFPS: 10},
		{name: "set to 30", fps: 30, wantFPS: 30},
		{name: "set to 1", fps: 1, wantFPS: 1},
		{name: "zero keeps previous", fps: 0, wantFPS: 1},
		{name: "negative keeps previous", fps: -5, wantFPS: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam.SetFPS(tt.fps)

			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
		})
	}
}

func TestCamera_Read_NotOpened(t *testing.T) {
	cam := NewCamera(0)
	dst := gocv.NewMat()
	defer dst.Close()

	if err := cam.Read(&dst); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("Read() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestCamera_Close_NotOpened(t *testing.T) {
	cam := NewCamera(0)

	if err := cam.Close(); err != nil {
		t.Errorf("Close() on unopened camera = %v, want nil", err)
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(0)
	if err := cam.Open(); err != nil {
		if !errors.Is(err, ErrCameraUnavailable) {
			t.Errorf("Open() error = %v, want ErrCameraUnavailable", err)
		}
		t.Skipf("camera not available: %v", err)
	}

	if !cam.IsOpen() {
		t.Error("IsOpen() should be true after Open()")
	}

	dst := gocv.NewMat()
	defer dst.Close()
	if err := cam.Read(&dst); err != nil {
		t.Errorf("Read() failed: %v", err)
	} else if dst.Cols() != DefaultWidth || dst.Rows() != DefaultHeight {
		t.Logf("frame is %dx%d; the device may not support 640x480", dst.Cols(), dst.Rows())
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if cam.IsOpen() {
		t.Error("IsOpen() should be false after Close()")
	}
}
