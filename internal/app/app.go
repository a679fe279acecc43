// Package app wires the sensing loop to the dispatcher, the clipboard store
// and persistence.
package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/ayusman/gesturedrop/internal/capture"
	"github.com/ayusman/gesturedrop/internal/clipboard"
	"github.com/ayusman/gesturedrop/internal/clipsync"
	"github.com/ayusman/gesturedrop/internal/config"
	"github.com/ayusman/gesturedrop/internal/detector"
	"github.com/ayusman/gesturedrop/internal/dispatch"
	"github.com/ayusman/gesturedrop/internal/gesture"
	"github.com/ayusman/gesturedrop/internal/store"
	"golang.org/x/sync/errgroup"
)

// settingEnabled is the settings key that persists the detection toggle.
const settingEnabled = "detection_enabled"

// Config holds the application's collaborators. Camera and Detector are
// optional; the real webcam and the MediaPipe detector are used when nil.
type Config struct {
	Settings  config.Config
	Store     *store.Store
	Clipboard *clipboard.Store
	Sync      *clipsync.Service
	OS        dispatch.OS
	Camera    capture.Camera
	Detector  detector.Detector
}

// App owns the gesture pipeline from camera frames to dispatched actions.
type App struct {
	settings config.Config
	store    *store.Store
	clip     *clipboard.Store
	sync     *clipsync.Service

	camera    capture.Camera
	preview   *capture.Preview
	motion    *capture.MotionDetector
	pacer     *capture.Pacer
	detector  detector.Detector
	debouncer *gesture.Debouncer

	registry   *gesture.Registry
	classifier atomic.Pointer[gesture.Classifier]
	dispatcher *dispatch.Dispatcher
	enabled    atomic.Bool
	events     int

	// bindMu serializes rebinding with the classifier swap.
	bindMu sync.Mutex

	mu        sync.RWMutex
	last      dispatch.Result
	listeners []func(dispatch.Result)
	toggles   []func(enabled bool)
}

// New builds an App and loads stored bindings and the detection toggle.
func New(cfg Config) (*App, error) {
	if cfg.Clipboard == nil {
		return nil, fmt.Errorf("app: clipboard store is required")
	}
	s := cfg.Settings

	a := &App{
		settings:  s,
		store:     cfg.Store,
		clip:      cfg.Clipboard,
		sync:      cfg.Sync,
		camera:    cfg.Camera,
		motion:    capture.NewMotionDetector(s.MotionThresh),
		pacer:     capture.NewPacer(),
		detector:  cfg.Detector,
		debouncer: gesture.NewDebouncer(gesture.DebounceConfig{CommitFrames: s.CommitFrames, Cooldown: s.Cooldown}),
		registry:  gesture.DefaultRegistry(s.PinchRatio),
	}
	if a.sync == nil {
		a.sync = clipsync.NewService(a.clip, clipsync.NewSessions(s.SessionTTL))
	}
	if a.camera == nil {
		a.camera = capture.NewCamera(s.CameraID)
	}
	if s.Sense {
		a.preview = capture.NewPreview()
	}
	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
			a.detector = mp
			log.Println("Using MediaPipe hand detection")
		} else {
			log.Printf("MediaPipe not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
		}
	}

	a.dispatcher = dispatch.New(cfg.OS, a.clip,
		dispatch.WithQueueSize(s.QueueSize),
		dispatch.WithActionTimeout(s.PluginTimeout),
		dispatch.WithDeviceName(s.DeviceName),
		dispatch.WithScreenshotDir(s.ScreenshotDir),
		dispatch.WithShortcuts(s.SendShortcuts),
		dispatch.WithObserver(a.record),
	)

	if err := a.loadBindings(); err != nil {
		return nil, fmt.Errorf("load bindings: %w", err)
	}
	a.rebuildClassifier()

	enabled := true
	if a.store != nil {
		v, err := a.store.Settings().GetBool(settingEnabled, true)
		if err != nil {
			log.Printf("Failed to read detection setting: %v", err)
		}
		enabled = v
	}
	a.enabled.Store(enabled)

	return a, nil
}

// Run starts the dispatcher, the session sweeper and, when sensing is
// configured, the camera loop. It blocks until ctx is cancelled or one of
// them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.dispatcher.Run(ctx) })
	g.Go(func() error { return a.sync.Sessions().Run(ctx, a.settings.SweepInterval) })
	if a.settings.Sense {
		g.Go(func() error { return a.runPipeline(ctx) })
	}

	return g.Wait()
}

// SetEnabled turns gesture detection on or off and persists the choice.
// Toggle listeners run on every change, whichever surface made it.
func (a *App) SetEnabled(enabled bool) {
	if a.enabled.Swap(enabled) == enabled {
		return
	}
	if a.store != nil {
		if err := a.store.Settings().SetBool(settingEnabled, enabled); err != nil {
			log.Printf("Failed to persist detection setting: %v", err)
		}
	}

	a.mu.RLock()
	toggles := append([]func(bool){}, a.toggles...)
	a.mu.RUnlock()
	for _, fn := range toggles {
		fn(enabled)
	}
}

// OnEnabledChange registers fn to be called when detection is turned on or
// off.
func (a *App) OnEnabledChange(fn func(enabled bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.toggles = append(a.toggles, fn)
}

// IsEnabled reports whether gesture detection is on.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// OnResult registers fn to be called after every handled gesture.
func (a *App) OnResult(fn func(dispatch.Result)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// LastResult returns the most recently handled gesture.
func (a *App) LastResult() (dispatch.Result, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last, !a.last.HandledAt.IsZero()
}

// Preview returns the live camera preview, or nil when sensing is off.
func (a *App) Preview() *capture.Preview {
	return a.preview
}

// Dispatcher returns the action dispatcher.
func (a *App) Dispatcher() *dispatch.Dispatcher {
	return a.dispatcher
}

// Sync returns the clipboard sync service.
func (a *App) Sync() *clipsync.Service {
	return a.sync
}

// Clipboard returns the shared clipboard store.
func (a *App) Clipboard() *clipboard.Store {
	return a.clip
}

// Store returns the persistence layer, which may be nil.
func (a *App) Store() *store.Store {
	return a.store
}
