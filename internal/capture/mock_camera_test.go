package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)
	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	if err := cam.Read(&dst); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if dst.Cols() != 640 {
		t.Errorf("first frame cols = %d, want 640", dst.Cols())
	}

	if err := cam.Read(&dst); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if dst.Cols() != 320 {
		t.Errorf("second frame cols = %d, want 320", dst.Cols())
	}

	if err := cam.Read(&dst); !errors.Is(err, ErrNoMoreFrames) {
		t.Errorf("third Read() error = %v, want ErrNoMoreFrames", err)
	}
	if cam.Reads() != 2 {
		t.Errorf("Reads() = %d, want 2", cam.Reads())
	}
}

func TestMockCamera_Loop(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()
	defer cam.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	for i := 0; i < 5; i++ {
		if err := cam.Read(&dst); err != nil {
			t.Fatalf("Read() iteration %d error = %v", i, err)
		}
	}
}

func TestMockCamera_OpenError(t *testing.T) {
	cam := NewMockCamera(nil, true)
	cam.SetOpenError(ErrCameraUnavailable)

	if err := cam.Open(); !errors.Is(err, ErrCameraUnavailable) {
		t.Errorf("Open() error = %v, want ErrCameraUnavailable", err)
	}
	if cam.IsOpen() {
		t.Error("camera should stay closed after a failed Open")
	}

	dst := gocv.NewMat()
	defer dst.Close()
	if err := cam.Read(&dst); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("Read() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestMockCamera_ImplementsCamera(t *testing.T) {
	var _ Camera = (*MockCamera)(nil)
}
