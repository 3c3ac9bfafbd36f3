// Package tray provides a system tray interface for the facesnap monitor.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle  func(enabled bool)
	onSession func(start bool)
	onOpen    func()
	onQuit    func()
	enabled   bool
	running   bool
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuSession     *systray.MenuItem
	menuLastCapture *systray.MenuItem
}

// New creates a new Tray instance with auto-capture enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback called when auto-capture is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSession sets the callback called when a session is started or stopped
// from the menu.
func (t *Tray) OnSession(fn func(start bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSession = fn
}

// OnOpen sets the callback called when the web UI item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetTitle("facesnap")
	systray.SetTooltip("facesnap face auto-capture")

	t.mu.Lock()
	t.menuSession = systray.AddMenuItem(sessionTitle(t.running), "Start or stop monitoring")
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle auto-capture")
	systray.AddSeparator()

	t.menuLastCapture = systray.AddMenuItem("Last capture: none", "Most recent photo")
	t.menuLastCapture.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open...", "Open the web UI in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit facesnap")

	go func() {
		for {
			select {
			case <-t.menuSession.ClickedCh:
				t.handleSession()
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Auto-capture on"
	}
	return "○ Auto-capture off"
}

func sessionTitle(running bool) string {
	if running {
		return "Stop monitoring"
	}
	return "Start monitoring"
}

// handleToggle flips auto-capture and reports the new state.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleSession asks for a session start when none runs, a stop otherwise.
// The menu title follows SetRunning, not the click.
func (t *Tray) handleSession() {
	t.mu.RLock()
	start := !t.running
	callback := t.onSession
	t.mu.RUnlock()

	if callback != nil {
		callback(start)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetRunning updates the session menu item.
func (t *Tray) SetRunning(running bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = running
	if t.menuSession != nil {
		t.menuSession.SetTitle(sessionTitle(running))
	}
}

// SetEnabled updates the auto-capture item without calling OnToggle.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// SetLastCapture updates the last capture display in the menu.
func (t *Tray) SetLastCapture(label string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastCapture != nil {
		if label == "" {
			t.menuLastCapture.SetTitle("Last capture: none")
		} else {
			t.menuLastCapture.SetTitle("Last capture: " + label)
		}
	}
}

// IsEnabled returns the current auto-capture state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// IsRunning returns the last state passed to SetRunning.
func (t *Tray) IsRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}
