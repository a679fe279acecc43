// Package plugin discovers and runs external OS helper executables. A plugin
// reads one JSON request on stdin and writes one JSON response on stdout.
package plugin

import "encoding/json"

// Actions a plugin may declare in its manifest.
const (
	ActionScroll         = "scroll"
	ActionSwitchTab      = "switch-tab"
	ActionScreenshot     = "screenshot"
	ActionClipboardRead  = "clipboard-read"
	ActionClipboardWrite = "clipboard-write"
	ActionShortcut       = "shortcut"
)

// Manifest describes a plugin's metadata and the actions it provides.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
	// Platforms limits the plugin to GOOS values. Empty means any.
	Platforms []string `json:"platforms,omitempty"`
}

// Provides reports whether the manifest declares action.
func (m Manifest) Provides(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request is sent to a plugin on stdin.
type Request struct {
	Action  string          `json:"action"`
	// Gesture is the label that triggered the call, empty for calls made
	// outside gesture handling.
	Gesture string          `json:"gesture,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// DirectionParams carries the direction for scroll and switch-tab.
type DirectionParams struct {
	Direction string `json:"direction"`
}

// ShortcutParams names a key chord: "copy" or "paste".
type ShortcutParams struct {
	Name string `json:"name"`
}

// ClipboardData is the payload of clipboard-read responses and
// clipboard-write requests. Image is PNG data, base64 in JSON.
type ClipboardData struct {
	Text  string `json:"text,omitempty"`
	Image []byte `json:"image,omitempty"`
}

// ImageData is the payload of a screenshot response.
type ImageData struct {
	PNG []byte `json:"png"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
