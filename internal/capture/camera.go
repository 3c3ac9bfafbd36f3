// Package capture provides camera capture and photo output using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default preview settings.
const (
	DefaultFPS    = 15
	DefaultWidth  = 320
	DefaultHeight = 240
)

// Facing is the direction a camera points relative to the display.
type Facing string

const (
	FacingFront Facing = "front"
	FacingBack  Facing = "back"
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrMuteUnsupported is returned by SetMuted on devices without a capture sound.
	ErrMuteUnsupported = errors.New("capture sound cannot be muted on this device")
)

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
	Facing() Facing
}

// Shutter is the still-capture capability of a camera.
type Shutter interface {
	// SupportsMute reports whether the audible capture indicator can be disabled.
	SupportsMute() bool
	// SetMuted enables or disables the audible capture indicator.
	SetMuted(muted bool) error
	// Capture takes a still image. The caller closes the returned Mat.
	Capture() (*gocv.Mat, error)
}

// Options configures a device camera.
type Options struct {
	DeviceID int
	Width    int
	Height   int
	FPS      int
	Facing   Facing
}

// DefaultOptions returns the front camera preview settings.
func DefaultOptions() Options {
	return Options{
		DeviceID: 0,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		FPS:      DefaultFPS,
		Facing:   FacingFront,
	}
}

// DeviceCamera is a Camera and Shutter backed by an OpenCV capture device.
type DeviceCamera struct {
	opts    Options
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
}

// NewCamera creates a new Camera with the given device ID and default options.
func NewCamera(deviceID int) *DeviceCamera {
	opts := DefaultOptions()
	opts.DeviceID = deviceID
	return NewCameraWithOptions(opts)
}

// NewCameraWithOptions creates a device camera. Zero values use defaults.
func NewCameraWithOptions(opts Options) *DeviceCamera {
	def := DefaultOptions()
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.FPS <= 0 {
		opts.FPS = def.FPS
	}
	if opts.Facing == "" {
		opts.Facing = def.Facing
	}
	return &DeviceCamera{opts: opts}
}

// Open opens the camera for capturing frames at the configured resolution.
func (c *DeviceCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.opts.DeviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.opts.DeviceID, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.opts.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.opts.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(c.opts.FPS))

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *DeviceCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *DeviceCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *DeviceCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.opts.FPS = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *DeviceCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.opts.FPS
}

// IsOpen returns true if the camera is currently open and running.
func (c *DeviceCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// Facing returns the configured camera direction.
func (c *DeviceCamera) Facing() Facing {
	return c.opts.Facing
}

// SupportsMute is always false: capture devices opened through OpenCV make no sound.
func (c *DeviceCamera) SupportsMute() bool {
	return false
}

// SetMuted returns ErrMuteUnsupported.
func (c *DeviceCamera) SetMuted(bool) error {
	return ErrMuteUnsupported
}

// Capture grabs the next frame as the still image.
func (c *DeviceCamera) Capture() (*gocv.Mat, error) {
	return c.ReadFrame()
}
