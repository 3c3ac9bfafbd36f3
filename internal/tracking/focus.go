// Package tracking turns per-frame face detections into monitor observations
// for a single focused face, keeping its identity stable across frames.
package tracking

import (
	"image"
	"math"

	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ayusman/facesnap/internal/detector"
	"github.com/ayusman/facesnap/internal/monitor"
)

// Observation is the monitor observation type produced by the tracker.
type Observation = monitor.Observation[uuid.UUID]

// Config holds the focus tracker parameters.
type Config struct {
	// IoUThreshold is the minimum overlap between the predicted box and a
	// detection for the detection to continue the focused track.
	IoUThreshold float64
	// MaxMissing is the number of consecutive frames the focused face may be
	// missing before the tracker gives up on it.
	MaxMissing int
}

// DefaultConfig returns the default tracker parameters.
func DefaultConfig() Config {
	return Config{
		IoUThreshold: 0.3,
		MaxMissing:   5,
	}
}

// track is the single face the tracker focuses on.
type track struct {
	id        uuid.UUID
	filter    *kalman_filter.KalmanBBox
	box       image.Rectangle
	predicted image.Rectangle
	missing   int
}

// FocusTracker follows the most prominent face and reports its lifecycle.
// Only one face is focused at a time; others are ignored until it is dropped.
type FocusTracker struct {
	cfg     Config
	current *track
	newID   func() uuid.UUID
}

// NewFocusTracker creates a FocusTracker. A non-positive IoUThreshold or a
// negative MaxMissing falls back to the default. MaxMissing 0 ends the
// focus on the first frame without it.
func NewFocusTracker(cfg Config) *FocusTracker {
	def := DefaultConfig()
	if cfg.IoUThreshold <= 0 {
		cfg.IoUThreshold = def.IoUThreshold
	}
	if cfg.MaxMissing < 0 {
		cfg.MaxMissing = def.MaxMissing
	}
	return &FocusTracker{
		cfg:   cfg,
		newID: uuid.New,
	}
}

// Focused returns the id of the focused face.
func (t *FocusTracker) Focused() (uuid.UUID, bool) {
	if t.current == nil {
		return uuid.Nil, false
	}
	return t.current.id, true
}

// Process consumes one frame worth of detections and returns the resulting
// observations in order. A frame may yield Lost, Ended and Appeared together
// when the focus moves to a new face.
func (t *FocusTracker) Process(faces []detector.Face) ([]Observation, error) {
	var out []Observation

	if t.current != nil {
		t.predict(t.current)

		if idx := t.match(faces); idx >= 0 {
			face := faces[idx]
			if err := t.update(t.current, face); err != nil {
				return nil, errors.Wrapf(err, "can't update focused face %s", t.current.id)
			}
			return append(out, monitor.Updated(t.current.id, face)), nil
		}

		t.current.missing++
		out = append(out, monitor.Lost[uuid.UUID](len(faces) == 0))
		if t.current.missing <= t.cfg.MaxMissing {
			return out, nil
		}
		out = append(out, monitor.Ended[uuid.UUID]())
		t.current = nil
	}

	face, ok := detector.Largest(faces)
	if !ok {
		return out, nil
	}
	t.current = t.newTrack(face)
	return append(out, monitor.Appeared(t.current.id, face)), nil
}

// Reset drops the focused face. It returns an Ended observation when a face was focused.
func (t *FocusTracker) Reset() []Observation {
	if t.current == nil {
		return nil
	}
	t.current = nil
	return []Observation{monitor.Ended[uuid.UUID]()}
}

// match returns the index of the detection that best overlaps the predicted
// box, or -1 when none clears the threshold.
func (t *FocusTracker) match(faces []detector.Face) int {
	best, bestScore := -1, 0.0
	for i, f := range faces {
		score := math.Max(detector.IoU(f.Box, t.current.predicted), detector.IoU(f.Box, t.current.box))
		if score >= t.cfg.IoUThreshold && score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

func (t *FocusTracker) newTrack(face detector.Face) *track {
	cx, cy, w, h := boxState(face.Box)
	// Same filter parameters as a bbox blob in a MOT tracker.
	kf := kalman_filter.NewKalmanBBox(
		1.0, 1.0, 1.0, 0.0, 0.0,
		2.0, 0.1, 0.1, 0.1, 0.1,
		kalman_filter.WithStateBBox(cx, cy, w, h),
	)
	return &track{
		id:        t.newID(),
		filter:    kf,
		box:       face.Box,
		predicted: face.Box,
	}
}

func (t *FocusTracker) predict(tr *track) {
	tr.filter.Predict()
	tr.predicted = stateBox(tr.filter.GetState())
}

func (t *FocusTracker) update(tr *track, face detector.Face) error {
	cx, cy, w, h := boxState(face.Box)
	if err := tr.filter.Update(cx, cy, w, h); err != nil {
		return errors.Wrap(err, "kalman update")
	}
	tr.box = stateBox(tr.filter.GetState())
	tr.missing = 0
	return nil
}

func boxState(r image.Rectangle) (cx, cy, w, h float64) {
	w = float64(r.Dx())
	h = float64(r.Dy())
	cx = float64(r.Min.X) + w/2.0
	cy = float64(r.Min.Y) + h/2.0
	return cx, cy, w, h
}

func stateBox(cx, cy, w, h float64) image.Rectangle {
	x0 := int(math.Round(cx - w/2.0))
	y0 := int(math.Round(cy - h/2.0))
	return image.Rect(x0, y0, x0+int(math.Round(w)), y0+int(math.Round(h)))
}
