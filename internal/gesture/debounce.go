package gesture

import (
	"time"

	"github.com/google/uuid"
)

// Phase is the debouncer's state name.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCandidate
	PhaseCooldown
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCandidate:
		return "candidate"
	case PhaseCooldown:
		return "cooldown"
	}
	return "unknown"
}

// State is a snapshot of the debouncer.
type State struct {
	Phase Phase
	Label Label     // set in PhaseCandidate
	Run   int       // consecutive matching frames in PhaseCandidate
	Until time.Time // cooldown deadline in PhaseCooldown
}

// DebounceConfig controls how long a label must hold and how long the
// machine stays quiet after a commit.
type DebounceConfig struct {
	CommitFrames int
	Cooldown     time.Duration
}

// DefaultDebounceConfig returns the default thresholds.
func DefaultDebounceConfig() DebounceConfig {
	return DebounceConfig{
		CommitFrames: 3,
		Cooldown:     time.Second,
	}
}

// Event is a committed gesture.
type Event struct {
	ID          string
	Label       Label
	Pose        Pose
	Direction   Direction
	CommittedAt time.Time
	// Dispatchable is false for events that are recorded but must not
	// trigger an action.
	Dispatchable bool
}

// Debouncer turns a jittery candidate stream into committed events.
// It is not safe for concurrent use; the sensing loop owns it.
type Debouncer struct {
	config DebounceConfig
	state  State
}

// NewDebouncer creates a debouncer in the idle state.
func NewDebouncer(config DebounceConfig) *Debouncer {
	if config.CommitFrames < 1 {
		config.CommitFrames = 1
	}
	if config.Cooldown < 0 {
		config.Cooldown = 0
	}
	return &Debouncer{config: config}
}

// State returns the current state.
func (d *Debouncer) State() State {
	return d.state
}

// Reset drops any run in progress. A pending cooldown is kept so a reset
// cannot shorten the spacing between events.
func (d *Debouncer) Reset() {
	if d.state.Phase == PhaseCandidate {
		d.state = State{Phase: PhaseIdle}
	}
}

// Feed consumes one candidate and reports a committed event, if any.
func (d *Debouncer) Feed(c Candidate) (Event, bool) {
	label := c.Label.Normalize()

	switch d.state.Phase {
	case PhaseCooldown:
		if c.At.Before(d.state.Until) {
			return Event{}, false
		}
		// The frame that ends the cooldown never starts a run.
		d.state = State{Phase: PhaseIdle}
		return Event{}, false

	case PhaseCandidate:
		if label == d.state.Label {
			d.state.Run++
			return d.maybeCommit(c)
		}
		if label == LabelNone {
			d.state = State{Phase: PhaseIdle}
			return Event{}, false
		}
		d.state = State{Phase: PhaseCandidate, Label: label, Run: 1}
		return d.maybeCommit(c)

	default:
		if label == LabelNone {
			return Event{}, false
		}
		d.state = State{Phase: PhaseCandidate, Label: label, Run: 1}
		return d.maybeCommit(c)
	}
}

func (d *Debouncer) maybeCommit(c Candidate) (Event, bool) {
	if d.state.Run < d.config.CommitFrames {
		return Event{}, false
	}

	ev := Event{
		ID:           uuid.NewString(),
		Label:        d.state.Label,
		Pose:         c.Pose,
		Direction:    c.Direction,
		CommittedAt:  c.At,
		Dispatchable: true,
	}
	d.state = State{Phase: PhaseCooldown, Until: c.At.Add(d.config.Cooldown)}
	return ev, true
}
