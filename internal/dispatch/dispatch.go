// Package dispatch turns committed gesture events into OS actions and
// clipboard writes, one event at a time, off the sensing loop.
package dispatch

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ayusman/gesturedrop/internal/clipboard"
	"github.com/ayusman/gesturedrop/internal/gesture"
)

// ScrollDirection is the wheel direction for Scroll.
type ScrollDirection string

const (
	ScrollUp   ScrollDirection = "up"
	ScrollDown ScrollDirection = "down"
)

// TabDirection selects the neighbouring tab for SwitchTab.
type TabDirection string

const (
	TabNext     TabDirection = "next"
	TabPrevious TabDirection = "previous"
)

// Shortcut is a clipboard key chord.
type Shortcut string

const (
	ShortcutCopy  Shortcut = "copy"
	ShortcutPaste Shortcut = "paste"
)

// OS is the set of desktop primitives actions are built from.
type OS interface {
	Scroll(ctx context.Context, dir ScrollDirection) error
	SwitchTab(ctx context.Context, dir TabDirection) error
	// Screenshot captures the primary screen as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	ReadText(ctx context.Context) (string, error)
	WriteText(ctx context.Context, text string) error
	// WriteImage places PNG data on the OS clipboard.
	WriteImage(ctx context.Context, png []byte) error
	Shortcut(ctx context.Context, s Shortcut) error
}

// Outcome summarizes how an event was handled.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeSkipped Outcome = "skipped"
	OutcomeStale   Outcome = "stale"
	OutcomeError   Outcome = "error"
)

// Result is reported to observers for every handled event.
type Result struct {
	Event     gesture.Event
	Outcome   Outcome
	Version   uint64 // clipboard version written, if any
	Detail    string
	Err       error
	HandledAt time.Time
}

// Observer receives results on the dispatcher goroutine. It must not block.
type Observer func(Result)

// Defaults.
const (
	DefaultQueueSize     = 16
	DefaultActionTimeout = 5 * time.Second
	// copyDelay gives the focused app time to fill the clipboard after the
	// copy chord.
	copyDelay = 180 * time.Millisecond
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithQueueSize sets the pending event capacity.
func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queueSize = n
		}
	}
}

// WithActionTimeout bounds each OS interaction.
func WithActionTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithDeviceName sets the origin recorded on locally produced entries.
func WithDeviceName(name string) Option {
	return func(d *Dispatcher) {
		if name != "" {
			d.device = name
		}
	}
}

// WithScreenshotDir also saves every screenshot as a PNG file in dir.
func WithScreenshotDir(dir string) Option {
	return func(d *Dispatcher) {
		d.screenshotDir = dir
	}
}

// WithShortcuts controls whether copy and paste send the key chord around
// the clipboard access.
func WithShortcuts(enabled bool) Option {
	return func(d *Dispatcher) {
		d.shortcuts = enabled
	}
}

// WithObserver registers an observer at construction.
func WithObserver(fn Observer) Option {
	return func(d *Dispatcher) {
		d.observers = append(d.observers, fn)
	}
}

// Dispatcher executes gesture events in commit order on a single worker.
type Dispatcher struct {
	os    OS
	clip  *clipboard.Store
	queue chan gesture.Event

	queueSize     int
	timeout       time.Duration
	device        string
	screenshotDir string
	shortcuts     bool
	copyDelay     time.Duration
	now           func() time.Time

	mu        sync.RWMutex
	observers []Observer
}

// New creates a dispatcher. os may be nil, in which case OS actions are
// skipped and only clipboard-store actions run.
func New(os OS, clip *clipboard.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		os:        os,
		clip:      clip,
		queueSize: DefaultQueueSize,
		timeout:   DefaultActionTimeout,
		device:    "local",
		shortcuts: true,
		copyDelay: copyDelay,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = make(chan gesture.Event, d.queueSize)
	return d
}

// Observe registers an observer.
func (d *Dispatcher) Observe(fn Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, fn)
}

// Submit queues an event without blocking. It reports false when the queue
// is full and the event was dropped.
func (d *Dispatcher) Submit(ev gesture.Event) bool {
	select {
	case d.queue <- ev:
		return true
	default:
		log.Printf("Dispatch queue full, dropping %s event %s", ev.Label, ev.ID)
		return false
	}
}

// Pending returns the number of queued events.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Run handles queued events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-d.queue:
			d.Handle(ctx, ev)
		}
	}
}

type eventKey struct{}

// ContextWithEvent returns a copy of ctx carrying the event being handled,
// so OS backends can tell which gesture triggered a call.
func ContextWithEvent(ctx context.Context, ev gesture.Event) context.Context {
	return context.WithValue(ctx, eventKey{}, ev)
}

// EventFromContext returns the event stored by ContextWithEvent.
func EventFromContext(ctx context.Context) (gesture.Event, bool) {
	ev, ok := ctx.Value(eventKey{}).(gesture.Event)
	return ev, ok
}

// Handle executes one event synchronously and notifies observers.
func (d *Dispatcher) Handle(ctx context.Context, ev gesture.Event) Result {
	res := d.handle(ctx, ev)
	res.Event = ev
	res.HandledAt = d.now()

	switch res.Outcome {
	case OutcomeError:
		log.Printf("Action %s failed: %v", ev.Label, res.Err)
	case OutcomeStale:
		log.Printf("Action %s discarded stale clipboard write: %v", ev.Label, res.Err)
	case OutcomeOK:
		log.Printf("Action %s done%s", ev.Label, versionSuffix(res.Version))
	}

	d.mu.RLock()
	observers := d.observers
	d.mu.RUnlock()
	for _, fn := range observers {
		fn(res)
	}
	return res
}

func (d *Dispatcher) handle(ctx context.Context, ev gesture.Event) Result {
	if !ev.Dispatchable {
		return Result{Outcome: OutcomeSkipped, Detail: "not dispatchable"}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	ctx = ContextWithEvent(ctx, ev)

	switch ev.Label.Normalize() {
	case gesture.LabelScrollUp:
		return d.scroll(ctx, ScrollUp)
	case gesture.LabelScrollDown:
		return d.scroll(ctx, ScrollDown)
	case gesture.LabelSwitchTab:
		return d.switchTab(ctx, ev.Direction)
	case gesture.LabelScreenshot:
		return d.screenshot(ctx)
	case gesture.LabelCopy:
		return d.copy(ctx)
	case gesture.LabelPaste:
		return d.paste(ctx)
	}
	return Result{Outcome: OutcomeSkipped, Detail: "no action"}
}
