package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera plays back pre-recorded frames for testing.
// It implements both Camera and Shutter.
type MockCamera struct {
	frames  []*gocv.Mat
	index   int
	loop    bool
	mu      sync.Mutex
	running bool

	facing       Facing
	canMute      bool
	muted        bool
	captures     int
	captureErr   error
	muteRequests []bool
}

// NewMockCamera creates a front facing mock camera over frames.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
		facing: FacingFront,
	}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextLocked()
}

func (c *MockCamera) nextLocked() (*gocv.Mat, error) {
	if !c.running {
		return nil, ErrCameraNotOpen
	}

	if len(c.frames) == 0 {
		return nil, fmt.Errorf("no frames available")
	}

	if c.index >= len(c.frames) {
		if c.loop {
			c.index = 0
		} else {
			return nil, fmt.Errorf("no more frames")
		}
	}

	// Clone the frame so the original isn't modified
	frame := c.frames[c.index].Clone()
	c.index++

	return &frame, nil
}

func (c *MockCamera) SetFPS(fps int) {}
func (c *MockCamera) FPS() int       { return DefaultFPS }
func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Facing returns the simulated direction.
func (c *MockCamera) Facing() Facing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.facing
}

// SetFacing changes the simulated direction.
func (c *MockCamera) SetFacing(f Facing) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.facing = f
}

// SetCanMute makes the mock report a mutable capture sound.
func (c *MockCamera) SetCanMute(can bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.canMute = can
}

// SetCaptureError makes Capture fail with err.
func (c *MockCamera) SetCaptureError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.captureErr = err
}

func (c *MockCamera) SupportsMute() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canMute
}

func (c *MockCamera) SetMuted(muted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muteRequests = append(c.muteRequests, muted)
	if !c.canMute {
		return ErrMuteUnsupported
	}
	c.muted = muted
	return nil
}

// Muted reports the current simulated mute state.
func (c *MockCamera) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// MuteRequests returns every value passed to SetMuted.
func (c *MockCamera) MuteRequests() []bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]bool(nil), c.muteRequests...)
}

// Capture returns the next frame, or the configured capture error.
func (c *MockCamera) Capture() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.captureErr != nil {
		return nil, c.captureErr
	}
	frame, err := c.nextLocked()
	if err != nil {
		return nil, err
	}
	c.captures++
	return frame, nil
}

// Captures returns how many stills were taken.
func (c *MockCamera) Captures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.captures
}

// SetFrames replaces the frame sequence
func (c *MockCamera) SetFrames(frames []*gocv.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = frames
	c.index = 0
}

// Reset restarts playback from the beginning
func (c *MockCamera) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
}
