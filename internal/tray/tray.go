// Package tray provides the system tray menu for GestureDrop.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/gesturedrop/internal/dispatch"
)

// Tray is the system tray menu: detection toggle, last gesture, clipboard
// version, a link to the viewer and quit.
type Tray struct {
	mu       sync.RWMutex
	enabled  bool
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()

	menuToggle      *systray.MenuItem
	menuLastGesture *systray.MenuItem
	menuClipboard   *systray.MenuItem
}

// New creates a Tray showing the given detection state.
func New(enabled bool) *Tray {
	return &Tray{enabled: enabled}
}

// OnToggle sets the callback for the detection toggle.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpenViewer sets the callback for the viewer menu item.
func (t *Tray) OnOpenViewer(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback for the quit menu item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run shows the tray and blocks until Quit is called. It must run on the
// main goroutine on macOS.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("GestureDrop")
	systray.SetTooltip("GestureDrop gesture control and clipboard sync")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture detection")
	systray.AddSeparator()
	t.menuLastGesture = systray.AddMenuItem(LastGestureTitle(nil), "Last handled gesture")
	t.menuLastGesture.Disable()
	t.menuClipboard = systray.AddMenuItem(ClipboardTitle(0), "Shared clipboard version")
	t.menuClipboard.Disable()
	t.mu.Unlock()

	systray.AddSeparator()
	menuOpen := systray.AddMenuItem("Open Viewer...", "Open the clipboard viewer in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit GestureDrop")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.call(t.onOpen)
			case <-menuQuit.ClickedCh:
				t.call(t.onQuit)
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	t.menuToggle.SetTitle(toggleTitle(enabled))
	callback := t.onToggle
	t.mu.Unlock()

	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) call(fn func()) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if fn != nil {
		go fn()
	}
}

// SetLastResult shows the most recently handled gesture.
func (t *Tray) SetLastResult(res dispatch.Result) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(LastGestureTitle(&res))
	}
}

// SetClipboardVersion shows the shared clipboard version.
func (t *Tray) SetClipboardVersion(v uint64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuClipboard != nil {
		t.menuClipboard.SetTitle(ClipboardTitle(v))
	}
}

// SetEnabled shows a detection state changed elsewhere, such as through
// the HTTP API.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// IsEnabled returns the detection state the menu shows.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

// LastGestureTitle renders the last-gesture menu line.
func LastGestureTitle(res *dispatch.Result) string {
	if res == nil || res.Event.Label == "" {
		return "Last: none"
	}
	if res.Outcome == dispatch.OutcomeOK {
		return fmt.Sprintf("Last: %s", res.Event.Label)
	}
	return fmt.Sprintf("Last: %s (%s)", res.Event.Label, res.Outcome)
}

// ClipboardTitle renders the clipboard menu line.
func ClipboardTitle(v uint64) string {
	if v == 0 {
		return "Clipboard: empty"
	}
	return fmt.Sprintf("Clipboard: v%d", v)
}
