package detector

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Detector kinds accepted by New.
const (
	KindYuNet   = "yunet"
	KindCascade = "cascade"
	KindMock    = "mock"
)

// Detector defines the interface for face detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the detected faces.
	// Returns an empty slice if no faces are detected.
	Detect(frame *gocv.Mat) ([]Face, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for face detection.
type Config struct {
	// Kind selects the implementation: yunet, cascade or mock.
	Kind string

	// ModelPath is the YuNet ONNX model file.
	ModelPath string

	// CascadePath is the Haar cascade XML file.
	CascadePath string

	// MinConfidence is the minimum detection score (0.0-1.0). YuNet only.
	MinConfidence float64

	// MinFaceSize is the smallest face edge in pixels that is reported.
	MinFaceSize int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Kind:          KindYuNet,
		ModelPath:     "models/face_detection_yunet_2023mar.onnx",
		CascadePath:   "models/haarcascade_frontalface_default.xml",
		MinConfidence: 0.6,
		MinFaceSize:   40,
	}
}

// New builds the detector selected by cfg.Kind.
func New(cfg Config) (Detector, error) {
	switch cfg.Kind {
	case KindYuNet, "":
		return NewYuNetDetector(cfg)
	case KindCascade:
		return NewCascadeDetector(cfg)
	case KindMock:
		return NewMockDetector(), nil
	default:
		return nil, fmt.Errorf("unknown detector kind %q", cfg.Kind)
	}
}

// filterSmall drops faces whose shorter edge is below minSize.
func filterSmall(faces []Face, minSize int) []Face {
	if minSize <= 0 {
		return faces
	}
	kept := faces[:0]
	for _, f := range faces {
		if f.Box.Dx() >= minSize && f.Box.Dy() >= minSize {
			kept = append(kept, f)
		}
	}
	return kept
}
