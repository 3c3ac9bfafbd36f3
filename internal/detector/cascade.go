package detector

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Haar cascade tuning.
const (
	cascadeScaleFactor  = 1.1
	cascadeMinNeighbors = 5
)

// CascadeDetector implements Detector with a Haar cascade classifier.
// It reports boxes only; landmarks are left zero and Score is 1.
type CascadeDetector struct {
	config     Config
	classifier gocv.CascadeClassifier
	mu         sync.Mutex
}

// NewCascadeDetector loads the cascade XML named by cfg.CascadePath.
func NewCascadeDetector(cfg Config) (*CascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cfg.CascadePath) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load face cascade %s", cfg.CascadePath)
	}

	return &CascadeDetector{
		config:     cfg,
		classifier: classifier,
	}, nil
}

// Detect analyzes a frame and returns the detected faces.
func (d *CascadeDetector) Detect(frame *gocv.Mat) ([]Face, error) {
	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}
	gocv.EqualizeHist(gray, &gray)

	minSize := image.Pt(d.config.MinFaceSize, d.config.MinFaceSize)

	d.mu.Lock()
	rects := d.classifier.DetectMultiScaleWithParams(
		gray, cascadeScaleFactor, cascadeMinNeighbors, 0, minSize, image.Point{},
	)
	d.mu.Unlock()

	faces := make([]Face, 0, len(rects))
	for _, r := range rects {
		faces = append(faces, Face{Box: r, Score: 1})
	}
	return faces, nil
}

// Close releases the classifier.
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}
