package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	// Create test frames
	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	// Read both frames
	f1, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	f1.Close()

	f2, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	f2.Close()

	// Third read should fail (no loop)
	_, err = cam.ReadFrame()
	if err == nil {
		t.Error("expected error after all frames consumed")
	}
}

func TestMockCamera_Loop(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()
	defer cam.Close()

	// Should loop indefinitely
	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		f.Close()
	}
}

func TestMockCamera_Shutter(t *testing.T) {
	frame := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)

	if _, err := cam.Capture(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("Capture() before Open error = %v, want ErrCameraNotOpen", err)
	}

	cam.Open()
	defer cam.Close()

	if err := cam.SetMuted(true); !errors.Is(err, ErrMuteUnsupported) {
		t.Errorf("SetMuted() error = %v, want ErrMuteUnsupported", err)
	}

	cam.SetCanMute(true)
	if err := cam.SetMuted(true); err != nil {
		t.Fatalf("SetMuted() error = %v", err)
	}
	if !cam.Muted() {
		t.Error("expected camera to be muted")
	}

	still, err := cam.Capture()
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	still.Close()

	if got := cam.Captures(); got != 1 {
		t.Errorf("Captures() = %d, want 1", got)
	}
	if got := cam.MuteRequests(); len(got) != 2 {
		t.Errorf("MuteRequests() = %v, want 2 requests", got)
	}

	want := errors.New("sensor busy")
	cam.SetCaptureError(want)
	if _, err := cam.Capture(); !errors.Is(err, want) {
		t.Errorf("Capture() error = %v, want %v", err, want)
	}
}
