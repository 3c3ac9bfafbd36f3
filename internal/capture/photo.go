package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"
)

// DefaultJPEGQuality is used when a PhotoWriter has no quality set.
const DefaultJPEGQuality = 90

// Photo describes a written still image.
type Photo struct {
	Path    string
	Size    int64
	Width   int
	Height  int
	TakenAt time.Time
}

// PhotoWriter rotates, encodes and stores still images as JPEG files.
type PhotoWriter struct {
	// Dir is the output directory, created on first use.
	Dir string
	// Rotation is applied clockwise before encoding: 0, 90, 180 or 270.
	Rotation int
	// Quality is the JPEG quality (1-100).
	Quality int

	now func() time.Time
}

// NewPhotoWriter creates a PhotoWriter for dir.
func NewPhotoWriter(dir string, rotation, quality int) *PhotoWriter {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &PhotoWriter{
		Dir:      dir,
		Rotation: rotation,
		Quality:  quality,
		now:      time.Now,
	}
}

// PhotoName returns the file name for a photo taken at t,
// formatted as yyyy-MM-dd-HH-mm-ss-SSS.jpg.
func PhotoName(t time.Time) string {
	return fmt.Sprintf("%s-%03d.jpg", t.Format("2006-01-02-15-04-05"), t.Nanosecond()/int(time.Millisecond))
}

// Save writes img to a new file in Dir and returns its description.
// img is not modified.
func (w *PhotoWriter) Save(img *gocv.Mat) (Photo, error) {
	if img == nil || img.Empty() {
		return Photo{}, fmt.Errorf("empty image")
	}

	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return Photo{}, fmt.Errorf("create photo directory: %w", err)
	}

	rotated, err := Rotate(*img, w.Rotation)
	if err != nil {
		return Photo{}, err
	}
	defer rotated.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, rotated, []int{gocv.IMWriteJpegQuality, w.Quality})
	if err != nil {
		return Photo{}, fmt.Errorf("encode photo: %w", err)
	}
	defer buf.Close()

	taken := w.now()
	path := filepath.Join(w.Dir, PhotoName(taken))
	data := buf.GetBytes()
	if err := os.WriteFile(path, data, 0644); err != nil {
		return Photo{}, fmt.Errorf("write photo: %w", err)
	}

	return Photo{
		Path:    path,
		Size:    int64(len(data)),
		Width:   rotated.Cols(),
		Height:  rotated.Rows(),
		TakenAt: taken,
	}, nil
}

// Rotate returns a clockwise rotated copy of src. The caller closes the result.
func Rotate(src gocv.Mat, degrees int) (gocv.Mat, error) {
	dst := gocv.NewMat()
	switch normalizeDegrees(degrees) {
	case 0:
		src.CopyTo(&dst)
	case 90:
		gocv.Rotate(src, &dst, gocv.Rotate90Clockwise)
	case 180:
		gocv.Rotate(src, &dst, gocv.Rotate180Clockwise)
	case 270:
		gocv.Rotate(src, &dst, gocv.Rotate90CounterClockwise)
	default:
		dst.Close()
		return gocv.Mat{}, fmt.Errorf("unsupported rotation %d, want a multiple of 90", degrees)
	}
	return dst, nil
}

// Orientation returns the clockwise rotation that makes a still upright,
// given the sensor mounting angle and the current display rotation.
// Front cameras are mirrored, so the result is inverted for them.
func Orientation(facing Facing, sensorDegrees, displayDegrees int) int {
	if facing == FacingFront {
		r := normalizeDegrees(sensorDegrees + displayDegrees)
		return normalizeDegrees(360 - r)
	}
	return normalizeDegrees(sensorDegrees - displayDegrees)
}

func normalizeDegrees(d int) int {
	d %= 360
	if d < 0 {
		d += 360
	}
	return d
}
