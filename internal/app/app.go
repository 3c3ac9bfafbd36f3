// Package app runs the face auto-capture pipeline: camera frames flow
// through the detector and focus tracker into a stability monitor, and a
// stable face triggers the configured actions.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/facesnap/internal/action"
	"github.com/ayusman/facesnap/internal/capture"
	"github.com/ayusman/facesnap/internal/detector"
	"github.com/ayusman/facesnap/internal/metrics"
	"github.com/ayusman/facesnap/internal/monitor"
	"github.com/ayusman/facesnap/internal/store"
	"github.com/ayusman/facesnap/internal/tracking"
)

// SettingAutoCapture is the settings key holding the auto-capture toggle.
const SettingAutoCapture = "auto_capture"

var (
	// ErrSessionActive is returned by StartSession while a session runs.
	ErrSessionActive = errors.New("session already running")
	// ErrNoSession is returned by StopSession when no session runs.
	ErrNoSession = errors.New("no session running")
)

// Config holds configuration options for the application.
type Config struct {
	Profile  string
	Monitor  monitor.Config
	Tracking tracking.Config
	// StopAfterCapture ends the session after the first photo is taken.
	StopAfterCapture bool
	// PreviewQuality is the JPEG quality of the preview stream.
	PreviewQuality int
}

// Deps are the collaborators the App drives. Store, Metrics and Events
// are optional.
type Deps struct {
	Camera   capture.Camera
	Detector detector.Detector
	Actions  action.Action
	Store    *store.Store
	Metrics  *metrics.Metrics
	Events   EventSink
}

// CaptureInfo describes the most recent photo.
type CaptureInfo struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	SessionID string    `json:"session_id"`
	Time      time.Time `json:"time"`
}

// Status is a snapshot of the application state.
type Status struct {
	Running       bool         `json:"running"`
	Enabled       bool         `json:"enabled"`
	Profile       string       `json:"profile"`
	SessionID     string       `json:"session_id,omitempty"`
	StartedAt     *time.Time   `json:"started_at,omitempty"`
	Subject       string       `json:"subject,omitempty"`
	Streak        int          `json:"streak"`
	Fired         bool         `json:"fired"`
	Notifications int          `json:"notifications"`
	LastCapture   *CaptureInfo `json:"last_capture,omitempty"`
}

// App is the main application that orchestrates face detection, stability
// monitoring and actions.
type App struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	actions  action.Action
	store    *store.Store
	metrics  *metrics.Metrics
	events   EventSink

	// startMu serializes StartSession; mu guards the fields below.
	startMu     sync.Mutex
	mu          sync.RWMutex
	enabled     bool
	session     *session
	latest      []byte
	lastCapture *CaptureInfo
}

// New creates a new App. The monitor configuration is validated here so
// that StartSession cannot fail on it.
func New(config Config, deps Deps) (*App, error) {
	if deps.Camera == nil || deps.Detector == nil || deps.Actions == nil {
		return nil, errors.New("app needs a camera, a detector and actions")
	}
	if err := config.Monitor.Validate(); err != nil {
		return nil, fmt.Errorf("invalid monitor config: %w", err)
	}
	if config.PreviewQuality <= 0 {
		config.PreviewQuality = 75
	}

	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}
	events := deps.Events
	if events == nil {
		events = discardSink{}
	}

	enabled := true
	if deps.Store != nil {
		v, err := deps.Store.Settings().Get(SettingAutoCapture)
		switch {
		case err == nil:
			enabled = v != "false"
		case !errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	return &App{
		config:   config,
		camera:   deps.Camera,
		detector: deps.Detector,
		actions:  deps.Actions,
		store:    deps.Store,
		metrics:  m,
		events:   events,
		enabled:  enabled,
	}, nil
}

// SetEnabled enables or disables actions on notification. Monitoring
// continues while disabled.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()
	slog.Info("auto-capture toggled", "enabled", enabled)
	a.events.Publish(Event{Type: EventEnabled, Time: time.Now(), Enabled: &enabled})

	if a.store != nil {
		if err := a.store.Settings().Set(SettingAutoCapture, strconv.FormatBool(enabled)); err != nil {
			slog.Warn("could not persist auto-capture setting", "error", err)
		}
	}
}

// IsEnabled returns whether actions run on notification.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Running reports whether a session is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session != nil
}

// StartSession opens the camera and starts a new monitoring session with
// a fresh monitor and tracker.
func (a *App) StartSession() (string, error) {
	a.startMu.Lock()
	defer a.startMu.Unlock()

	if a.Running() {
		return "", ErrSessionActive
	}

	// Opening a device blocks; a.mu stays free for Status and the preview.
	if err := a.camera.Open(); err != nil {
		return "", fmt.Errorf("open camera: %w", err)
	}

	sess, err := newSession(a.config)
	if err != nil {
		a.camera.Close()
		return "", err
	}

	if a.store != nil {
		rec := &store.Session{ID: sess.id, Profile: a.config.Profile, StartedAt: sess.startedAt}
		if err := a.store.Sessions().Create(rec); err != nil {
			a.camera.Close()
			return "", fmt.Errorf("record session: %w", err)
		}
	}

	a.mu.Lock()
	a.session = sess
	a.mu.Unlock()

	a.metrics.SetSessionActive(true)
	go a.run(sess)

	slog.Info("session started", "session", sess.id, "profile", a.config.Profile, "fps", a.camera.FPS())
	a.events.Publish(Event{Type: EventSessionStarted, Time: sess.startedAt, SessionID: sess.id})
	return sess.id, nil
}

// StopSession stops the running session and waits for it to wind down.
func (a *App) StopSession() error {
	a.mu.RLock()
	sess := a.session
	a.mu.RUnlock()

	if sess == nil {
		return ErrNoSession
	}

	sess.cancel()
	<-sess.done
	return nil
}

// Close stops any running session and releases the detector.
func (a *App) Close() error {
	if err := a.StopSession(); err != nil && !errors.Is(err, ErrNoSession) {
		return err
	}
	return a.detector.Close()
}

// Status returns a snapshot of the application state.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	st := Status{
		Enabled:     a.enabled,
		Profile:     a.config.Profile,
		LastCapture: a.lastCapture,
	}
	if sess := a.session; sess != nil {
		started := sess.startedAt
		st.Running = true
		st.SessionID = sess.id
		st.StartedAt = &started
		st.Streak = sess.state.Count
		st.Fired = sess.state.Fired
		st.Notifications = sess.notifications
		if sess.state.HasSubject {
			st.Subject = sess.state.Subject.String()
		}
	}
	return st
}

// LatestJPEG returns the most recent preview frame, or nil before the first.
func (a *App) LatestJPEG() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}

// Metrics returns the application metrics.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// session is one monitoring run. A Monitor lives exactly one session.
type session struct {
	id        string
	startedAt time.Time
	monitor   *monitor.Monitor[uuid.UUID]
	tracker   *tracking.FocusTracker

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// guarded by App.mu
	state         monitor.State[uuid.UUID]
	notifications int
}

func newSession(cfg Config) (*session, error) {
	m, err := monitor.New[uuid.UUID](cfg.Monitor)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &session{
		id:        uuid.NewString(),
		startedAt: time.Now(),
		monitor:   m,
		tracker:   tracking.NewFocusTracker(cfg.Tracking),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}, nil
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}
