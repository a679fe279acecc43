package osctl

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/gesturedrop/internal/clipboard"
	"github.com/ayusman/gesturedrop/internal/dispatch"
	"github.com/ayusman/gesturedrop/internal/gesture"
	"github.com/ayusman/gesturedrop/internal/plugin"
)

// installPlugin writes a shell plugin that records its stdin to log and
// prints reply.
func installPlugin(t *testing.T, root, name string, actions []string, reply string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	logPath := filepath.Join(dir, "requests.log")
	script := "#!/bin/sh\ncat >> " + logPath + "\necho >> " + logPath + "\necho '" + reply + "'\n"
	if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}

	manifest, _ := json.Marshal(plugin.Manifest{Name: name, Executable: "run.sh", Actions: actions})
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), manifest, 0644); err != nil {
		t.Fatal(err)
	}
	return logPath
}

func readRequests(t *testing.T, path string) []plugin.Request {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read request log: %v", err)
	}
	var reqs []plugin.Request
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var req plugin.Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			t.Fatalf("bad request line %q: %v", line, err)
		}
		reqs = append(reqs, req)
	}
	return reqs
}

func TestPlugins_RoutesActions(t *testing.T) {
	root := t.TempDir()
	inputLog := installPlugin(t, root, "input",
		[]string{plugin.ActionScroll, plugin.ActionSwitchTab, plugin.ActionShortcut},
		`{"success":true}`)
	clipLog := installPlugin(t, root, "clip",
		[]string{plugin.ActionClipboardRead, plugin.ActionClipboardWrite},
		`{"success":true,"data":{"text":"from plugin"}}`)

	backend, err := New(BackendPlugin, Options{PluginDir: root, PluginTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if err := backend.Scroll(ctx, dispatch.ScrollDown); err != nil {
		t.Fatalf("Scroll() error = %v", err)
	}
	if err := backend.SwitchTab(ctx, dispatch.TabPrevious); err != nil {
		t.Fatalf("SwitchTab() error = %v", err)
	}
	if err := backend.Shortcut(ctx, dispatch.ShortcutCopy); err != nil {
		t.Fatalf("Shortcut() error = %v", err)
	}

	text, err := backend.ReadText(ctx)
	if err != nil {
		t.Fatalf("ReadText() error = %v", err)
	}
	if text != "from plugin" {
		t.Errorf("expected text from plugin, got %q", text)
	}
	if err := backend.WriteText(ctx, "hello"); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}

	inputs := readRequests(t, inputLog)
	if len(inputs) != 3 {
		t.Fatalf("expected 3 input requests, got %d", len(inputs))
	}
	var dir plugin.DirectionParams
	json.Unmarshal(inputs[1].Params, &dir)
	if inputs[1].Action != plugin.ActionSwitchTab || dir.Direction != "previous" {
		t.Errorf("expected switch-tab previous, got %s %s", inputs[1].Action, dir.Direction)
	}

	clips := readRequests(t, clipLog)
	if len(clips) != 2 || clips[1].Action != plugin.ActionClipboardWrite {
		t.Fatalf("expected read then write, got %+v", clips)
	}
	var data plugin.ClipboardData
	json.Unmarshal(clips[1].Params, &data)
	if data.Text != "hello" {
		t.Errorf("expected written text 'hello', got %q", data.Text)
	}
}

func TestPlugins_ReportsTriggeringGesture(t *testing.T) {
	root := t.TempDir()
	inputLog := installPlugin(t, root, "input", []string{plugin.ActionScroll}, `{"success":true}`)

	backend, err := New(BackendPlugin, Options{PluginDir: root, PluginTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	d := dispatch.New(backend, clipboard.NewStore())
	res := d.Handle(context.Background(), gesture.Event{Label: gesture.LabelScrollDown, Dispatchable: true})
	if res.Outcome != dispatch.OutcomeOK {
		t.Fatalf("expected ok, got %s (%v)", res.Outcome, res.Err)
	}
	if err := backend.Scroll(context.Background(), dispatch.ScrollUp); err != nil {
		t.Fatalf("Scroll() error = %v", err)
	}

	reqs := readRequests(t, inputLog)
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	if reqs[0].Gesture != string(gesture.LabelScrollDown) {
		t.Errorf("expected gesture scroll_down, got %q", reqs[0].Gesture)
	}
	if reqs[1].Gesture != "" {
		t.Errorf("expected no gesture outside dispatch, got %q", reqs[1].Gesture)
	}
}

func TestPlugins_Screenshot(t *testing.T) {
	root := t.TempDir()
	installPlugin(t, root, "shot", []string{plugin.ActionScreenshot}, `{"success":true,"data":{"png":"iVBORw0KGgo="}}`)

	backend, err := New(BackendPlugin, Options{PluginDir: root})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	png, err := backend.Screenshot(context.Background())
	if err != nil {
		t.Fatalf("Screenshot() error = %v", err)
	}
	if string(png[1:4]) != "PNG" {
		t.Errorf("expected PNG signature, got %v", png)
	}
}

func TestPlugins_MissingAction(t *testing.T) {
	backend, err := New(BackendPlugin, Options{PluginDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = backend.Scroll(context.Background(), dispatch.ScrollUp)
	if !errors.Is(err, plugin.ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestNew_Backends(t *testing.T) {
	backend, err := New(BackendNone, Options{})
	if err != nil || backend != nil {
		t.Errorf("expected nil backend for none, got %v, %v", backend, err)
	}

	if _, err := New("teleport", Options{}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
