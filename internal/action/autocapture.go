package action

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/ayusman/facesnap/internal/capture"
	"github.com/ayusman/facesnap/internal/store"
)

// CaptureStore records captured photos.
type CaptureStore interface {
	Create(c *store.Capture) error
}

// AutoCapture takes a still photo when a face becomes stable.
type AutoCapture struct {
	shutter  capture.Shutter
	writer   *capture.PhotoWriter
	captures CaptureStore
	mute     bool
}

// NewAutoCapture creates an AutoCapture. captures may be nil to skip
// recording. With mute set the capture sound is disabled where the device
// allows it.
func NewAutoCapture(shutter capture.Shutter, writer *capture.PhotoWriter, captures CaptureStore, mute bool) *AutoCapture {
	return &AutoCapture{
		shutter:  shutter,
		writer:   writer,
		captures: captures,
		mute:     mute,
	}
}

func (a *AutoCapture) Name() string { return "capture" }

// Handle captures, writes and records a photo, then sets ev.PhotoPath and
// ev.CaptureID.
func (a *AutoCapture) Handle(ctx context.Context, ev *Event) error {
	if a.mute && a.shutter.SupportsMute() {
		if err := a.shutter.SetMuted(true); err != nil {
			slog.Warn("could not mute shutter", "error", err)
		} else {
			defer a.shutter.SetMuted(false)
		}
	} else if a.mute {
		slog.Debug("shutter sound cannot be muted on this camera")
	}

	frame, err := a.shutter.Capture()
	if err != nil {
		return fmt.Errorf("capture still: %w", err)
	}
	defer frame.Close()

	photo, err := a.writer.Save(frame)
	if err != nil {
		return fmt.Errorf("save photo: %w", err)
	}

	rec := &store.Capture{
		ID:        uuid.NewString(),
		SessionID: ev.SessionID,
		Subject:   ev.Subject.String(),
		Streak:    ev.Streak,
		Path:      photo.Path,
		SizeBytes: photo.Size,
		CreatedAt: photo.TakenAt,
	}
	if a.captures != nil {
		if err := a.captures.Create(rec); err != nil {
			// An unrecorded photo could never be listed or deleted.
			if rmErr := os.Remove(photo.Path); rmErr != nil {
				slog.Warn("could not remove unrecorded photo", "path", photo.Path, "error", rmErr)
			}
			return fmt.Errorf("record capture: %w", err)
		}
	}

	ev.PhotoPath = photo.Path
	ev.CaptureID = rec.ID

	slog.InfoContext(ctx, "photo captured",
		"path", photo.Path,
		"bytes", photo.Size,
		"width", photo.Width,
		"height", photo.Height,
	)
	return nil
}
