package detector

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// YuNet output layout: x, y, w, h, five landmark (x, y) pairs, score.
const (
	yunetColumns  = 15
	yunetScoreCol = 14
	yunetNMS      = 0.3
	yunetTopK     = 5000
)

// YuNetDetector implements Detector with OpenCV's FaceDetectorYN.
type YuNetDetector struct {
	config   Config
	detector gocv.FaceDetectorYN
	size     image.Point
	mu       sync.Mutex
}

// NewYuNetDetector loads the YuNet model named by cfg.ModelPath.
func NewYuNetDetector(cfg Config) (*YuNetDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("yunet model %s: %w", cfg.ModelPath, err)
	}

	// The input size is replaced on the first frame.
	size := image.Pt(320, 240)
	d := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"",
		size,
		float32(cfg.MinConfidence),
		yunetNMS,
		yunetTopK,
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNetDetector{
		config:   cfg,
		detector: d,
		size:     size,
	}, nil
}

// Detect analyzes a frame and returns the detected faces.
func (d *YuNetDetector) Detect(frame *gocv.Mat) ([]Face, error) {
	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	size := image.Pt(frame.Cols(), frame.Rows())
	if size != d.size {
		d.detector.SetInputSize(size)
		d.size = size
	}

	out := gocv.NewMat()
	defer out.Close()
	d.detector.Detect(*frame, &out)

	if out.Empty() || out.Cols() < yunetColumns {
		return nil, nil
	}

	faces := make([]Face, 0, out.Rows())
	for r := 0; r < out.Rows(); r++ {
		x := int(out.GetFloatAt(r, 0))
		y := int(out.GetFloatAt(r, 1))
		w := int(out.GetFloatAt(r, 2))
		h := int(out.GetFloatAt(r, 3))

		f := Face{
			Box:   image.Rect(x, y, x+w, y+h).Intersect(image.Rectangle{Max: size}),
			Score: float64(out.GetFloatAt(r, yunetScoreCol)),
		}
		for i := 0; i < NumLandmarks; i++ {
			f.Landmarks[i] = image.Pt(
				int(out.GetFloatAt(r, 4+2*i)),
				int(out.GetFloatAt(r, 5+2*i)),
			)
		}
		if f.Box.Empty() {
			continue
		}
		faces = append(faces, f)
	}

	return filterSmall(faces, d.config.MinFaceSize), nil
}

// Close releases the underlying OpenCV detector.
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}
