// Package detector provides face detection interfaces and types for the
// facesnap capture pipeline.
package detector

import "image"

// Facial landmark indices in the YuNet output order.
const (
	RightEye = iota
	LeftEye
	NoseTip
	RightMouth
	LeftMouth
	NumLandmarks
)

// Face is a single detected face in frame pixel coordinates.
type Face struct {
	Box       image.Rectangle           `json:"box"`
	Score     float64                   `json:"score"`
	Landmarks [NumLandmarks]image.Point `json:"landmarks"`
}

// Area returns the bounding box area in pixels.
func (f Face) Area() int {
	return f.Box.Dx() * f.Box.Dy()
}

// Center returns the bounding box center.
func (f Face) Center() image.Point {
	return image.Point{
		X: (f.Box.Min.X + f.Box.Max.X) / 2,
		Y: (f.Box.Min.Y + f.Box.Max.Y) / 2,
	}
}

// Largest returns the face with the biggest bounding box.
// Ties keep the earlier face. ok is false for an empty slice.
func Largest(faces []Face) (Face, bool) {
	if len(faces) == 0 {
		return Face{}, false
	}
	best := faces[0]
	for _, f := range faces[1:] {
		if f.Area() > best.Area() {
			best = f
		}
	}
	return best, true
}

// IoU calculates Intersection over Union between two rectangles.
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}
