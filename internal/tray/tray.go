// Package tray provides the desktop system tray menu for a garland session.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/garland/internal/gesture"
	"github.com/ayusman/garland/internal/tracker"
)

// Tray represents the system tray menu.
type Tray struct {
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	enabled  bool
	status   tracker.Status
	last     gesture.Gesture
	seen     bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuStatus      *systray.MenuItem
	menuLastGesture *systray.MenuItem
}

// New creates a new Tray instance with detection enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
		status:  tracker.StatusInitializing,
	}
}

// OnToggle sets the callback function to be called when detection is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback for the "Open Preview..." item.
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

// Run starts the system tray. It must be called from the main goroutine and
// blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Garland")
	systray.SetTooltip("Garland gesture particles")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem(statusTitle(t.status), "Tracker status")
	t.menuStatus.Disable()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture detection")
	systray.AddSeparator()

	t.menuLastGesture = systray.AddMenuItem(gestureTitle(t.last, t.seen), "Last detected gesture")
	t.menuLastGesture.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Preview...", "Open the preview in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Garland")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func statusTitle(s tracker.Status) string {
	if s.Failed() {
		return "⚠ " + string(s)
	}
	return "Status: " + string(s)
}

func gestureTitle(g gesture.Gesture, seen bool) string {
	if !seen {
		return "Last: none"
	}
	return "Last: " + g.String()
}

// handleToggle flips detection and reports the new state.
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
}

// SetStatus shows the tracker status.
func (t *Tray) SetStatus(s tracker.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = s
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(statusTitle(s))
	}
}

// SetLastGesture shows the most recent non-idle gesture.
func (t *Tray) SetLastGesture(g gesture.Gesture) {
	if g == gesture.Idle {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last, t.seen = g, true
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(gestureTitle(g, true))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Status returns the last status shown.
func (t *Tray) Status() tracker.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}
