package tray

import (
	"testing"

	"github.com/ayusman/gesturedrop/internal/dispatch"
	"github.com/ayusman/gesturedrop/internal/gesture"
)

func TestLastGestureTitle(t *testing.T) {
	tests := []struct {
		name string
		res  *dispatch.Result
		want string
	}{
		{name: "nothing yet", res: nil, want: "Last: none"},
		{name: "ok", res: &dispatch.Result{Event: gesture.Event{Label: gesture.LabelCopy}, Outcome: dispatch.OutcomeOK}, want: "Last: copy"},
		{name: "skipped", res: &dispatch.Result{Event: gesture.Event{Label: gesture.LabelPaste}, Outcome: dispatch.OutcomeSkipped}, want: "Last: paste (skipped)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LastGestureTitle(tt.res); got != tt.want {
				t.Errorf("LastGestureTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClipboardTitle(t *testing.T) {
	if got := ClipboardTitle(0); got != "Clipboard: empty" {
		t.Errorf("ClipboardTitle(0) = %q", got)
	}
	if got := ClipboardTitle(7); got != "Clipboard: v7" {
		t.Errorf("ClipboardTitle(7) = %q", got)
	}
}

func TestNew_BeforeRun(t *testing.T) {
	tr := New(false)
	if tr.IsEnabled() {
		t.Error("expected disabled tray")
	}

	// Updates before the menu exists are ignored.
	tr.SetLastResult(dispatch.Result{})
	tr.SetClipboardVersion(3)
}

func TestTray_SetEnabled(t *testing.T) {
	tr := New(true)

	tr.SetEnabled(false)
	if tr.IsEnabled() {
		t.Error("expected tray to show disabled after an outside change")
	}
	tr.SetEnabled(true)
	if !tr.IsEnabled() {
		t.Error("expected tray to show enabled again")
	}
}
