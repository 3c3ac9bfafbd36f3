package detector

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu       sync.Mutex
	faces    []Face
	sequence [][]Face
	err      error
	calls    int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFaces sets the faces returned by every Detect call once any scripted
// sequence is exhausted.
func (m *MockDetector) SetFaces(faces []Face) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces = faces
}

// SetSequence scripts the results of the next len(seq) Detect calls.
func (m *MockDetector) SetSequence(seq [][]Face) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = append([][]Face(nil), seq...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next scripted faces, the fixed faces, or the error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) > 0 {
		next := m.sequence[0]
		m.sequence = m.sequence[1:]
		return next, nil
	}
	return m.faces, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// FrontalFace returns a preset face centered in a 320x240 preview.
func FrontalFace() Face {
	return FaceAt(image.Rect(110, 60, 210, 180), 0.92)
}

// FaceAt returns a face with the given box and plausible landmarks.
func FaceAt(box image.Rectangle, score float64) Face {
	w, h := box.Dx(), box.Dy()
	f := Face{Box: box, Score: score}
	f.Landmarks[RightEye] = image.Pt(box.Min.X+w*3/10, box.Min.Y+h*4/10)
	f.Landmarks[LeftEye] = image.Pt(box.Min.X+w*7/10, box.Min.Y+h*4/10)
	f.Landmarks[NoseTip] = image.Pt(box.Min.X+w/2, box.Min.Y+h*6/10)
	f.Landmarks[RightMouth] = image.Pt(box.Min.X+w*35/100, box.Min.Y+h*8/10)
	f.Landmarks[LeftMouth] = image.Pt(box.Min.X+w*65/100, box.Min.Y+h*8/10)
	return f
}
