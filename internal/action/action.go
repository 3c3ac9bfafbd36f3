// Package action runs the downstream work triggered by a stable-face
// notification: taking a photo, running plugins, publishing to MQTT.
package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event describes one notification as it flows through a Chain. Actions
// earlier in the chain may fill fields read by later ones.
type Event struct {
	SessionID string    `json:"session_id"`
	Profile   string    `json:"profile"`
	Subject   uuid.UUID `json:"subject"`
	Streak    int       `json:"streak"`
	Time      time.Time `json:"time"`

	// Set by AutoCapture.
	PhotoPath string `json:"photo_path,omitempty"`
	CaptureID string `json:"capture_id,omitempty"`
}

// Captured reports whether a photo was taken for the event.
func (e *Event) Captured() bool {
	return e.CaptureID != ""
}

// Action handles a notification event.
type Action interface {
	Name() string
	Handle(ctx context.Context, ev *Event) error
}

// Func adapts a function to the Action interface.
type Func struct {
	ActionName string
	Fn         func(ctx context.Context, ev *Event) error
}

func (f Func) Name() string { return f.ActionName }

func (f Func) Handle(ctx context.Context, ev *Event) error { return f.Fn(ctx, ev) }

// Chain runs actions in order. A failing action does not stop the ones
// after it.
type Chain struct {
	actions []Action

	// OnError, if set, is called for every failed action.
	OnError func(action string, err error)
}

// NewChain creates a chain over actions.
func NewChain(actions ...Action) *Chain {
	return &Chain{actions: actions}
}

// Name returns "chain".
func (c *Chain) Name() string { return "chain" }

// Names returns the names of the chained actions in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.actions))
	for i, a := range c.actions {
		names[i] = a.Name()
	}
	return names
}

// Len returns the number of chained actions.
func (c *Chain) Len() int { return len(c.actions) }

// Handle runs every action and returns their joined errors.
// It stops early only when ctx is done.
func (c *Chain) Handle(ctx context.Context, ev *Event) error {
	var errs []error
	for _, a := range c.actions {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		if err := a.Handle(ctx, ev); err != nil {
			slog.Warn("action failed",
				"action", a.Name(),
				"session", ev.SessionID,
				"subject", ev.Subject,
				"error", err,
			)
			if c.OnError != nil {
				c.OnError(a.Name(), err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", a.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// LogAction only logs the notification.
type LogAction struct {
	logger *slog.Logger
}

// NewLogAction creates a LogAction. A nil logger uses slog.Default.
func NewLogAction(logger *slog.Logger) *LogAction {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogAction{logger: logger}
}

func (a *LogAction) Name() string { return "log" }

func (a *LogAction) Handle(ctx context.Context, ev *Event) error {
	a.logger.InfoContext(ctx, "stable face",
		"session", ev.SessionID,
		"profile", ev.Profile,
		"subject", ev.Subject,
		"streak", ev.Streak,
	)
	return nil
}
