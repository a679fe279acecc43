package app

import (
	"testing"
	"time"

	"github.com/ayusman/gesturedrop/internal/capture"
	"github.com/ayusman/gesturedrop/internal/clipboard"
	"github.com/ayusman/gesturedrop/internal/detector"
	"gocv.io/x/gocv"
)

func solid(t *testing.T, v float64) capture.Frame {
	t.Helper()
	m := gocv.NewMatWithSize(capture.DefaultHeight, capture.DefaultWidth, gocv.MatTypeCV8UC3)
	if v != 0 {
		m.SetTo(gocv.NewScalar(v, v, v, 0))
	}
	return capture.Frame{Mat: m}
}

func TestApp_ProcessFrameIsMotionGated(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	a, det := newTestApp(t, nil)
	det.SetHands(hands(detector.OpenPalmLandmarks()))
	start := time.Unix(1000, 0)

	f := solid(t, 0)
	f.At = start
	if a.processFrame(f) {
		t.Error("baseline frame should not change rate")
	}
	if det.Calls() != 0 {
		t.Fatal("detector should not run while idle")
	}

	f = solid(t, 255)
	f.At = start.Add(100 * time.Millisecond)
	if !a.processFrame(f) {
		t.Error("motion should switch to the active rate")
	}
	if det.Calls() != 1 {
		t.Errorf("detector calls = %d, want 1", det.Calls())
	}

	// Still frames keep the loop active until the idle timeout.
	f = solid(t, 255)
	f.At = start.Add(200 * time.Millisecond)
	a.processFrame(f)
	if det.Calls() != 2 {
		t.Errorf("detector calls = %d, want 2", det.Calls())
	}

	f = solid(t, 255)
	f.At = start.Add(100*time.Millisecond + capture.IdleTimeout + time.Millisecond)
	if !a.processFrame(f) {
		t.Error("stillness past the idle timeout should switch to idle")
	}
	if det.Calls() != 2 {
		t.Errorf("detector ran while idle, calls = %d", det.Calls())
	}
}

func newSensingApp(t *testing.T) (*App, *detector.MockDetector) {
	t.Helper()
	settings := testSettings(t)
	settings.Sense = true
	det := detector.NewMockDetector()
	a, err := New(Config{
		Settings:  settings,
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

func TestApp_PreviewOnlyWhenSensing(t *testing.T) {
	a, _ := newTestApp(t, nil)
	if a.Preview() != nil {
		t.Error("expected no preview with sensing off")
	}
	s, _ := newSensingApp(t)
	if s.Preview() == nil {
		t.Error("expected a preview with sensing on")
	}
}

func TestApp_CommitShowsLabelOnPreview(t *testing.T) {
	a, _ := newSensingApp(t)
	start := time.Unix(1000, 0)

	for i := 0; i < 3; i++ {
		a.step(hands(detector.PinchLandmarks()), start.Add(time.Duration(i)*100*time.Millisecond))
	}

	line, active, _ := a.Preview().Overlay(start.Add(300 * time.Millisecond))
	if !active || line != "Gesture: screenshot" {
		t.Errorf("expected committed label on preview, got %q", line)
	}
}

func TestApp_ProcessFrameFeedsPreview(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	a, _ := newSensingApp(t)
	frames, cancel := a.Preview().Subscribe()
	defer cancel()

	f := solid(t, 0)
	f.At = time.Unix(1000, 0)
	a.processFrame(f)

	select {
	case data := <-frames:
		if len(data) == 0 {
			t.Error("expected an encoded frame")
		}
	default:
		t.Fatal("expected the processed frame on the preview")
	}
}
