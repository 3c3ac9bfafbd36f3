package capture

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestPhotoName(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 14, 7, 9, 42*int(time.Millisecond), time.UTC)
	if got, want := PhotoName(ts), "2024-03-05-14-07-09-042.jpg"; got != want {
		t.Errorf("PhotoName() = %q, want %q", got, want)
	}
}

func TestOrientation(t *testing.T) {
	tests := []struct {
		name    string
		facing  Facing
		sensor  int
		display int
		want    int
	}{
		{"front portrait", FacingFront, 270, 0, 90},
		{"front landscape", FacingFront, 270, 90, 0},
		{"front reverse landscape", FacingFront, 270, 270, 180},
		{"back portrait", FacingBack, 90, 0, 90},
		{"back landscape", FacingBack, 90, 90, 0},
		{"back reverse landscape", FacingBack, 90, 270, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Orientation(tt.facing, tt.sensor, tt.display); got != tt.want {
				t.Errorf("Orientation() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNormalizeDegrees(t *testing.T) {
	cases := map[int]int{0: 0, 90: 90, 360: 0, 450: 90, -90: 270, -360: 0}
	for in, want := range cases {
		if got := normalizeDegrees(in); got != want {
			t.Errorf("normalizeDegrees(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestRotate(t *testing.T) {
	src := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer src.Close()

	tests := []struct {
		degrees    int
		wantWidth  int
		wantHeight int
	}{
		{0, 320, 240},
		{90, 240, 320},
		{180, 320, 240},
		{270, 240, 320},
		{-90, 240, 320},
	}

	for _, tt := range tests {
		dst, err := Rotate(src, tt.degrees)
		if err != nil {
			t.Fatalf("Rotate(%d) error = %v", tt.degrees, err)
		}
		if dst.Cols() != tt.wantWidth || dst.Rows() != tt.wantHeight {
			t.Errorf("Rotate(%d) size = %dx%d, want %dx%d", tt.degrees, dst.Cols(), dst.Rows(), tt.wantWidth, tt.wantHeight)
		}
		dst.Close()
	}

	if _, err := Rotate(src, 45); err == nil {
		t.Error("Rotate(45) should fail")
	}
}

func TestPhotoWriter_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "photos")
	w := NewPhotoWriter(dir, 90, 0)
	fixed := time.Date(2024, time.January, 2, 3, 4, 5, 6*int(time.Millisecond), time.Local)
	w.now = func() time.Time { return fixed }

	if w.Quality != DefaultJPEGQuality {
		t.Errorf("Quality = %d, want default %d", w.Quality, DefaultJPEGQuality)
	}

	img := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer img.Close()

	photo, err := w.Save(&img)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if want := filepath.Join(dir, "2024-01-02-03-04-05-006.jpg"); photo.Path != want {
		t.Errorf("Path = %q, want %q", photo.Path, want)
	}
	if photo.Width != 240 || photo.Height != 320 {
		t.Errorf("size = %dx%d, want 240x320 after rotation", photo.Width, photo.Height)
	}

	info, err := os.Stat(photo.Path)
	if err != nil {
		t.Fatalf("photo not written: %v", err)
	}
	if info.Size() != photo.Size || photo.Size == 0 {
		t.Errorf("file size = %d, reported %d", info.Size(), photo.Size)
	}
}

func TestPhotoWriter_SaveEmpty(t *testing.T) {
	w := NewPhotoWriter(t.TempDir(), 0, 80)
	empty := gocv.NewMat()
	defer empty.Close()

	if _, err := w.Save(&empty); err == nil {
		t.Error("Save() of empty image should fail")
	}
	if _, err := w.Save(nil); err == nil {
		t.Error("Save(nil) should fail")
	}
}
