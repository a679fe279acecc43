// Package main provides the OS control plugin for macOS.
// It scrolls, switches tabs, captures the screen and moves data through the
// system clipboard using osascript, screencapture, pbcopy and pbpaste.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Params  json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type directionParams struct {
	Direction string `json:"direction"`
}

type shortcutParams struct {
	Name string `json:"name"`
}

type clipboardData struct {
	Text  string `json:"text,omitempty"`
	Image []byte `json:"image,omitempty"`
}

type imageData struct {
	PNG []byte `json:"png"`
}

// actionHandler handles one action and returns optional response data.
type actionHandler func(params json.RawMessage) (any, error)

var actionHandlers = map[string]actionHandler{
	"scroll":          scroll,
	"switch-tab":      switchTab,
	"screenshot":      screenshot,
	"clipboard-read":  clipboardRead,
	"clipboard-write": clipboardWrite,
	"shortcut":        shortcut,
}

// Key codes for System Events.
const (
	keyPageUp   = 116
	keyPageDown = 121
)

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeResponse(Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
		return
	}

	data, err := handler(req.Params)
	if err != nil {
		msg := fmt.Sprintf("action %s failed: %v", req.Action, err)
		if req.Gesture != "" {
			msg = fmt.Sprintf("action %s for %s failed: %v", req.Action, req.Gesture, err)
		}
		writeResponse(Response{Error: msg})
		return
	}

	writeResponse(Response{Success: true, Data: data})
}

func scroll(params json.RawMessage) (any, error) {
	var p directionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("failed to parse params: %w", err)
	}

	switch p.Direction {
	case "up":
		return nil, runAppleScript(fmt.Sprintf(`tell application "System Events" to key code %d`, keyPageUp))
	case "down":
		return nil, runAppleScript(fmt.Sprintf(`tell application "System Events" to key code %d`, keyPageDown))
	}
	return nil, fmt.Errorf("unknown direction %q", p.Direction)
}

func switchTab(params json.RawMessage) (any, error) {
	var p directionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("failed to parse params: %w", err)
	}

	key := "]"
	if p.Direction == "previous" {
		key = "["
	}
	return nil, runAppleScript(fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {command down, shift down}`, key))
}

func screenshot(json.RawMessage) (any, error) {
	dir, err := os.MkdirTemp("", "gesturedrop-shot")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "screen.png")
	if out, err := exec.Command("screencapture", "-x", "-t", "png", path).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, string(out))
	}

	png, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return imageData{PNG: png}, nil
}

func clipboardRead(json.RawMessage) (any, error) {
	out, err := exec.Command("pbpaste").Output()
	if err != nil {
		return nil, err
	}
	return clipboardData{Text: string(out)}, nil
}

func clipboardWrite(params json.RawMessage) (any, error) {
	var p clipboardData
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("failed to parse params: %w", err)
	}

	if len(p.Image) > 0 {
		return nil, writeImage(p.Image)
	}

	cmd := exec.Command("pbcopy")
	cmd.Stdin = strings.NewReader(p.Text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, string(out))
	}
	return nil, nil
}

func writeImage(png []byte) error {
	f, err := os.CreateTemp("", "gesturedrop-*.png")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(png); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return runAppleScript(fmt.Sprintf(`set the clipboard to (read (POSIX file %q) as «class PNGf»)`, f.Name()))
}

func shortcut(params json.RawMessage) (any, error) {
	var p shortcutParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("failed to parse params: %w", err)
	}

	var key string
	switch p.Name {
	case "copy":
		key = "c"
	case "paste":
		key = "v"
	default:
		return nil, fmt.Errorf("unknown shortcut %q", p.Name)
	}
	return nil, runAppleScript(fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {command down}`, key))
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
