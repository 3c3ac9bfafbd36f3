package app

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/ayusman/facesnap/internal/action"
	"github.com/ayusman/facesnap/internal/detector"
	"github.com/ayusman/facesnap/internal/monitor"
	"github.com/ayusman/facesnap/internal/tracking"
)

// run is the detection loop of a session. It reads one frame per tick at
// the camera frame rate and returns when the session is canceled or, with
// StopAfterCapture, after the first photo.
//
// Per frame:
// 1. Keep a JPEG of the frame for the preview stream
// 2. Detect faces
// 3. Let the focus tracker turn detections into observations
// 4. Feed each observation to the monitor
// 5. On notification, run the actions
func (a *App) run(sess *session) {
	defer close(sess.done)
	defer a.finish(sess)

	fps := a.camera.FPS()
	if fps <= 0 {
		fps = 15
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-sess.ctx.Done():
			return
		case <-ticker.C:
			if a.tick(sess) {
				slog.Info("photo taken, ending session", "session", sess.id)
				return
			}
		}
	}
}

// tick processes one frame and reports whether the session should end.
func (a *App) tick(sess *session) bool {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.metrics.FrameError()
		slog.Debug("frame read failed", "error", err)
		return false
	}
	a.metrics.FrameRead()

	a.keepPreview(frame)

	start := time.Now()
	faces, err := a.detector.Detect(frame)
	frame.Close()
	if err != nil {
		a.metrics.FrameError()
		slog.Warn("face detection failed", "error", err)
		return false
	}
	obs := a.track(sess, faces)
	a.metrics.FrameProcessed(len(faces), time.Since(start))

	return a.observe(sess, obs)
}

func (a *App) keepPreview(frame *gocv.Mat) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, *frame, []int{gocv.IMWriteJpegQuality, a.config.PreviewQuality})
	if err != nil {
		return
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	a.mu.Lock()
	a.latest = data
	a.mu.Unlock()
}

// handleFaces runs the detections of one frame through the tracker and
// monitor. It reports whether a photo was taken and the session should end.
func (a *App) handleFaces(sess *session, faces []detector.Face) bool {
	return a.observe(sess, a.track(sess, faces))
}

func (a *App) track(sess *session, faces []detector.Face) []tracking.Observation {
	obs, err := sess.tracker.Process(faces)
	if err != nil {
		slog.Warn("tracker update failed", "error", err)
	}
	return obs
}

func (a *App) observe(sess *session, obs []tracking.Observation) bool {
	stop := false
	for _, o := range obs {
		a.metrics.Observation(o.Kind.String())
		note, fired := sess.monitor.Observe(o)
		state := sess.monitor.State()

		a.mu.Lock()
		sess.state = state
		a.mu.Unlock()
		a.metrics.SetStreak(state.Count)

		a.events.Publish(observationEvent(sess.id, o, state))

		if fired && a.notify(sess, note) && a.config.StopAfterCapture {
			stop = true
		}
	}
	return stop
}

func observationEvent(sessionID string, o tracking.Observation, state monitor.State[uuid.UUID]) Event {
	e := Event{
		Type:      EventObservation,
		Time:      time.Now(),
		SessionID: sessionID,
		Kind:      o.Kind.String(),
		Streak:    state.Count,
	}
	if o.Kind == monitor.KindAppeared || o.Kind == monitor.KindUpdated {
		e.Subject = o.Subject.String()
	}
	return e
}

// notify handles a fired notification and reports whether a photo was taken.
func (a *App) notify(sess *session, note monitor.Notification[uuid.UUID]) bool {
	now := time.Now()
	a.metrics.Notification()

	a.mu.Lock()
	sess.notifications++
	enabled := a.enabled
	a.mu.Unlock()

	if a.store != nil {
		if err := a.store.Sessions().IncrementNotifications(sess.id); err != nil {
			slog.Warn("could not count notification", "session", sess.id, "error", err)
		}
	}

	slog.Info("stable face",
		"session", sess.id,
		"subject", note.Subject,
		"streak", note.Streak,
		"enabled", enabled,
	)
	a.events.Publish(Event{
		Type:      EventNotification,
		Time:      now,
		SessionID: sess.id,
		Subject:   note.Subject.String(),
		Streak:    note.Streak,
	})

	if !enabled {
		return false
	}

	ev := &action.Event{
		SessionID: sess.id,
		Profile:   a.config.Profile,
		Subject:   note.Subject,
		Streak:    note.Streak,
		Time:      now,
	}
	// Errors are logged per action by the chain.
	_ = a.actions.Handle(sess.ctx, ev)

	if !ev.Captured() {
		return false
	}

	a.metrics.Capture()
	a.mu.Lock()
	a.lastCapture = &CaptureInfo{ID: ev.CaptureID, Path: ev.PhotoPath, SessionID: sess.id, Time: now}
	a.mu.Unlock()

	a.events.Publish(Event{
		Type:      EventCapture,
		Time:      time.Now(),
		SessionID: sess.id,
		Subject:   note.Subject.String(),
		Streak:    note.Streak,
		PhotoPath: ev.PhotoPath,
		CaptureID: ev.CaptureID,
	})
	return true
}

// finish ends the focused track, closes the camera and records the end of
// the session.
func (a *App) finish(sess *session) {
	a.observe(sess, sess.tracker.Reset())
	sess.cancel()

	if err := a.camera.Close(); err != nil {
		slog.Warn("error closing camera", "error", err)
	}

	ended := time.Now()
	if a.store != nil {
		if err := a.store.Sessions().End(sess.id, ended); err != nil {
			slog.Warn("could not end session", "session", sess.id, "error", err)
		}
	}

	a.mu.Lock()
	if a.session == sess {
		a.session = nil
	}
	notifications := sess.notifications
	a.mu.Unlock()

	a.metrics.SetSessionActive(false)
	a.metrics.SetStreak(0)

	slog.Info("session stopped", "session", sess.id, "notifications", notifications, "duration", ended.Sub(sess.startedAt))
	a.events.Publish(Event{Type: EventSessionStopped, Time: ended, SessionID: sess.id})
}
