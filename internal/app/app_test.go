package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/gesturedrop/internal/capture"
	"github.com/ayusman/gesturedrop/internal/clipboard"
	"github.com/ayusman/gesturedrop/internal/config"
	"github.com/ayusman/gesturedrop/internal/detector"
	"github.com/ayusman/gesturedrop/internal/dispatch"
	"github.com/ayusman/gesturedrop/internal/gesture"
	"github.com/ayusman/gesturedrop/internal/store"
)

var fakePNG = []byte("\x89PNG\r\n\x1a\nfake")

// screenOS is a dispatch.OS whose only working primitive is Screenshot.
type screenOS struct{}

func (screenOS) Scroll(context.Context, dispatch.ScrollDirection) error { return nil }
func (screenOS) SwitchTab(context.Context, dispatch.TabDirection) error { return nil }
func (screenOS) Screenshot(context.Context) ([]byte, error)             { return fakePNG, nil }
func (screenOS) ReadText(context.Context) (string, error)               { return "", nil }
func (screenOS) WriteText(context.Context, string) error                { return nil }
func (screenOS) WriteImage(context.Context, []byte) error               { return nil }
func (screenOS) Shortcut(context.Context, dispatch.Shortcut) error      { return nil }

func testSettings(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		MotionThresh:  1.0,
		CommitFrames:  3,
		Cooldown:      time.Second,
		MinVisible:    15,
		MinVisibility: 0.5,
		MinHandScore:  0.5,
		PinchRatio:    0.25,
		SessionTTL:    time.Minute,
		SweepInterval: time.Minute,
		QueueSize:     4,
		PluginTimeout: time.Second,
		ScreenshotDir: t.TempDir(),
		SendShortcuts: true,
		KeepEvents:    100,
		DeviceName:    "desk",
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestApp(t *testing.T, s *store.Store) (*App, *detector.MockDetector) {
	t.Helper()
	det := detector.NewMockDetector()
	a, err := New(Config{
		Settings:  testSettings(t),
		Store:     s,
		Clipboard: clipboard.NewStore(),
		OS:        screenOS{},
		Camera:    capture.NewMockCamera(nil, false),
		Detector:  det,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a, det
}

func hands(h ...detector.HandLandmarks) []detector.HandLandmarks { return h }

func TestNew_RequiresClipboard(t *testing.T) {
	if _, err := New(Config{Settings: testSettings(t), Detector: detector.NewMockDetector()}); err == nil {
		t.Error("expected error without a clipboard store")
	}
}

func TestApp_StepCommitsAfterThreeFrames(t *testing.T) {
	a, _ := newTestApp(t, nil)
	start := time.Unix(1000, 0)

	for i := 0; i < 2; i++ {
		if _, ok := a.step(hands(detector.PinchLandmarks()), start.Add(time.Duration(i)*100*time.Millisecond)); ok {
			t.Fatalf("frame %d committed early", i)
		}
	}
	ev, ok := a.step(hands(detector.PinchLandmarks()), start.Add(200*time.Millisecond))
	if !ok {
		t.Fatal("expected a commit on the third frame")
	}
	if ev.Label != gesture.LabelScreenshot || ev.Pose != gesture.PosePinch {
		t.Errorf("got %s/%s, want screenshot/pinch", ev.Label, ev.Pose)
	}
	if a.Dispatcher().Pending() != 1 {
		t.Errorf("expected event queued, pending = %d", a.Dispatcher().Pending())
	}
}

func TestApp_MissingHandBreaksRun(t *testing.T) {
	a, _ := newTestApp(t, nil)
	start := time.Unix(1000, 0)
	seq := [][]detector.HandLandmarks{
		hands(detector.FistLandmarks()),
		hands(detector.FistLandmarks()),
		nil,
		hands(detector.FistLandmarks()),
		hands(detector.FistLandmarks()),
	}

	for i, h := range seq {
		if _, ok := a.step(h, start.Add(time.Duration(i)*100*time.Millisecond)); ok {
			t.Fatalf("frame %d committed, want no commit", i)
		}
	}
}

func TestApp_DispatchesAndRecords(t *testing.T) {
	s := newTestStore(t)
	a, _ := newTestApp(t, s)

	results := make(chan dispatch.Result, 1)
	a.OnResult(func(r dispatch.Result) { results <- r })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Dispatcher().Run(ctx)

	start := time.Unix(1000, 0)
	for i := 0; i < 3; i++ {
		a.step(hands(detector.PinchLandmarks()), start.Add(time.Duration(i)*100*time.Millisecond))
	}

	var res dispatch.Result
	select {
	case res = <-results:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the dispatched result")
	}

	if res.Outcome != dispatch.OutcomeOK || res.Version != 1 {
		t.Fatalf("got %s v%d, want ok v1 (err %v)", res.Outcome, res.Version, res.Err)
	}

	entry := a.Clipboard().Read()
	if entry.Kind != clipboard.KindImage || entry.Origin != "desk" {
		t.Errorf("unexpected entry %+v", entry)
	}

	last, ok := a.LastResult()
	if !ok || last.Event.ID != res.Event.ID {
		t.Error("LastResult() should return the handled event")
	}

	events, err := s.Events().List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 recorded event, got %d", len(events))
	}
	if events[0].Label != "screenshot" || events[0].Outcome != "ok" || events[0].Version != 1 {
		t.Errorf("unexpected recorded event %+v", events[0])
	}
}

func TestApp_Bindings(t *testing.T) {
	s := newTestStore(t)
	a, _ := newTestApp(t, s)

	if err := a.SetBinding(gesture.PoseFist, "copy"); err != nil {
		t.Fatalf("SetBinding() error = %v", err)
	}
	if got := a.Bindings()[gesture.PoseFist]; got != gesture.LabelCopy {
		t.Errorf("fist bound to %s, want copy", got)
	}

	start := time.Unix(1000, 0)
	var ev gesture.Event
	for i := 0; i < 3; i++ {
		ev, _ = a.step(hands(detector.FistLandmarks()), start.Add(time.Duration(i)*100*time.Millisecond))
	}
	if ev.Label != gesture.LabelCopy {
		t.Errorf("rebound fist committed %q, want copy", ev.Label)
	}

	reloaded, _ := newTestApp(t, s)
	if got := reloaded.Bindings()[gesture.PoseFist]; got != gesture.LabelCopy {
		t.Errorf("after reload fist bound to %s, want copy", got)
	}

	if err := a.ResetBinding(gesture.PoseFist); err != nil {
		t.Fatalf("ResetBinding() error = %v", err)
	}
	if got := a.Bindings()[gesture.PoseFist]; got != gesture.LabelScrollUp {
		t.Errorf("after reset fist bound to %s, want scroll_up", got)
	}
	if _, err := s.Bindings().Get("fist"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected stored override removed, got %v", err)
	}
	if err := a.ResetBinding(gesture.PoseFist); err != nil {
		t.Errorf("second ResetBinding() error = %v", err)
	}
}

func TestApp_BindingErrors(t *testing.T) {
	a, _ := newTestApp(t, nil)

	if err := a.SetBinding("wave", "copy"); !errors.Is(err, ErrUnknownPose) {
		t.Errorf("unknown pose error = %v", err)
	}
	if err := a.SetBinding(gesture.PoseFist, "teleport"); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("unknown label error = %v", err)
	}
	if err := a.ResetBinding("wave"); !errors.Is(err, ErrUnknownPose) {
		t.Errorf("reset unknown pose error = %v", err)
	}
}

func TestApp_BindingToNoneIsInert(t *testing.T) {
	a, _ := newTestApp(t, nil)

	if err := a.SetBinding(gesture.PoseFist, "none"); err != nil {
		t.Fatalf("SetBinding() error = %v", err)
	}

	start := time.Unix(1000, 0)
	for i := 0; i < 5; i++ {
		if _, ok := a.step(hands(detector.FistLandmarks()), start.Add(time.Duration(i)*100*time.Millisecond)); ok {
			t.Fatal("pose bound to none should not commit")
		}
	}
}

func TestApp_EnabledIsPersisted(t *testing.T) {
	s := newTestStore(t)
	a, _ := newTestApp(t, s)

	if !a.IsEnabled() {
		t.Fatal("detection should start enabled")
	}
	a.SetEnabled(false)

	reloaded, _ := newTestApp(t, s)
	if reloaded.IsEnabled() {
		t.Error("disabled state should survive a restart")
	}
}

func TestApp_LoadIgnoresBadBindings(t *testing.T) {
	s := newTestStore(t)
	s.Bindings().Set(&store.Binding{Pose: "wave", Label: "copy"})
	s.Bindings().Set(&store.Binding{Pose: "fist", Label: "teleport"})
	s.Bindings().Set(&store.Binding{Pose: "point", Label: "paste"})

	a, _ := newTestApp(t, s)
	b := a.Bindings()
	if b[gesture.PoseFist] != gesture.LabelScrollUp {
		t.Errorf("fist = %s, want default scroll_up", b[gesture.PoseFist])
	}
	if b[gesture.PosePoint] != gesture.LabelPaste {
		t.Errorf("point = %s, want paste", b[gesture.PosePoint])
	}
}

func TestApp_EnabledChangeListeners(t *testing.T) {
	a, _ := newTestApp(t, nil)

	var got []bool
	a.OnEnabledChange(func(enabled bool) { got = append(got, enabled) })

	a.SetEnabled(false)
	a.SetEnabled(false)
	a.SetEnabled(true)

	if len(got) != 2 || got[0] || !got[1] {
		t.Errorf("expected one notice per change [false true], got %v", got)
	}
}

func TestApp_ConcurrentBindingsAllApply(t *testing.T) {
	for round := 0; round < 50; round++ {
		a, _ := newTestApp(t, nil)

		var wg sync.WaitGroup
		for _, b := range []struct {
			pose  gesture.Pose
			label string
		}{
			{gesture.PosePinch, "paste"},
			{gesture.PoseFist, "copy"},
			{gesture.PoseOpenPalm, "screenshot"},
		} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := a.SetBinding(b.pose, b.label); err != nil {
					t.Errorf("SetBinding(%s) error = %v", b.pose, err)
				}
			}()
		}
		wg.Wait()

		c := a.classifier.Load()
		now := time.Now()
		if got := c.Classify(detector.NewFrame(detector.PinchLandmarks(), now)).Label; got != gesture.LabelPaste {
			t.Fatalf("round %d: pinch classifies as %s, want paste", round, got)
		}
		if got := c.Classify(detector.NewFrame(detector.FistLandmarks(), now)).Label; got != gesture.LabelCopy {
			t.Fatalf("round %d: fist classifies as %s, want copy", round, got)
		}
		if got := c.Classify(detector.NewFrame(detector.OpenPalmLandmarks(), now)).Label; got != gesture.LabelScreenshot {
			t.Fatalf("round %d: open palm classifies as %s, want screenshot", round, got)
		}
	}
}
