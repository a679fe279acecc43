package gesture

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// feedSeq feeds labels at a fixed frame interval and returns the frame
// indexes (0-based) that committed an event.
func feedSeq(d *Debouncer, labels []Label, step time.Duration) ([]int, []Event) {
	var frames []int
	var events []Event
	for i, l := range labels {
		c := Candidate{Label: l, At: epoch.Add(time.Duration(i) * step)}
		if ev, ok := d.Feed(c); ok {
			frames = append(frames, i)
			events = append(events, ev)
		}
	}
	return frames, events
}

func repeat(l Label, n int) []Label {
	out := make([]Label, n)
	for i := range out {
		out[i] = l
	}
	return out
}

func TestDebouncer_CommitsAtThreshold(t *testing.T) {
	d := NewDebouncer(DebounceConfig{CommitFrames: 3, Cooldown: time.Second})

	seq := []Label{LabelScrollUp, LabelScrollUp, LabelScrollUp, LabelScrollUp, LabelScrollDown}
	frames, events := feedSeq(d, seq, 100*time.Millisecond)

	if len(events) != 1 {
		t.Fatalf("expected exactly 1 event, got %d", len(events))
	}
	// Third frame (index 2) reaches the threshold.
	if frames[0] != 2 {
		t.Errorf("expected commit on frame index 2, got %d", frames[0])
	}
	if events[0].Label != LabelScrollUp {
		t.Errorf("expected scroll_up, got %s", events[0].Label)
	}
	if want := epoch.Add(200 * time.Millisecond); !events[0].CommittedAt.Equal(want) {
		t.Errorf("expected commit time %v, got %v", want, events[0].CommittedAt)
	}
	if events[0].ID == "" {
		t.Error("expected event to carry an id")
	}
	if !events[0].Dispatchable {
		t.Error("expected committed event to be dispatchable")
	}
	if d.State().Phase != PhaseCooldown {
		t.Errorf("expected cooldown after commit, got %s", d.State().Phase)
	}
}

func TestDebouncer_OneEventPerHeldRun(t *testing.T) {
	d := NewDebouncer(DebounceConfig{CommitFrames: 3, Cooldown: time.Second})

	// 30 frames at 100ms span 2.9s: commit at 0.2s, cooldown to 1.2s,
	// idle frame at 1.2s, new run 1.3-1.5s commits, cooldown to 2.5s,
	// idle at 2.5s, run 2.6-2.8s commits.
	frames, _ := feedSeq(d, repeat(LabelCopy, 30), 100*time.Millisecond)

	want := []int{2, 15, 28}
	if len(frames) != len(want) {
		t.Fatalf("expected commits at %v, got %v", want, frames)
	}
	for i := range want {
		if frames[i] != want[i] {
			t.Errorf("commit %d: expected frame %d, got %d", i, want[i], frames[i])
		}
	}
}

func TestDebouncer_CommitsAreSpacedByCooldown(t *testing.T) {
	cooldown := 500 * time.Millisecond
	d := NewDebouncer(DebounceConfig{CommitFrames: 2, Cooldown: cooldown})

	seq := []Label{}
	for i := 0; i < 10; i++ {
		seq = append(seq, LabelScrollUp, LabelScrollDown, LabelPaste)
	}
	_, events := feedSeq(d, repeat(LabelScreenshot, 50), 33*time.Millisecond)

	for i := 1; i < len(events); i++ {
		gap := events[i].CommittedAt.Sub(events[i-1].CommittedAt)
		if gap < cooldown {
			t.Errorf("events %d and %d are %v apart, want at least %v", i-1, i, gap, cooldown)
		}
	}

	// An alternating stream never holds long enough to commit.
	d = NewDebouncer(DebounceConfig{CommitFrames: 2, Cooldown: cooldown})
	if _, events := feedSeq(d, seq, 33*time.Millisecond); len(events) != 0 {
		t.Errorf("expected no events from alternating labels, got %d", len(events))
	}
}

func TestDebouncer_InterruptedRun(t *testing.T) {
	tests := []struct {
		name string
		seq  []Label
	}{
		{"interrupted by none", []Label{LabelCopy, LabelCopy, LabelNone, LabelCopy, LabelCopy}},
		{"interrupted by another label", []Label{LabelCopy, LabelCopy, LabelPaste, LabelCopy, LabelCopy}},
		{"too short", []Label{LabelCopy, LabelCopy}},
		{"only none", repeat(LabelNone, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDebouncer(DebounceConfig{CommitFrames: 3, Cooldown: time.Second})
			if _, events := feedSeq(d, tt.seq, 100*time.Millisecond); len(events) != 0 {
				t.Errorf("expected no events, got %d", len(events))
			}
		})
	}
}

func TestDebouncer_LabelSwitchStartsNewRun(t *testing.T) {
	d := NewDebouncer(DebounceConfig{CommitFrames: 3, Cooldown: time.Second})

	seq := []Label{LabelCopy, LabelCopy, LabelPaste, LabelPaste, LabelPaste}
	frames, events := feedSeq(d, seq, 100*time.Millisecond)

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Label != LabelPaste || frames[0] != 4 {
		t.Errorf("expected paste at frame 4, got %s at %d", events[0].Label, frames[0])
	}
}

func TestDebouncer_CooldownIgnoresFrames(t *testing.T) {
	d := NewDebouncer(DebounceConfig{CommitFrames: 1, Cooldown: time.Second})

	if _, ok := d.Feed(Candidate{Label: LabelScrollUp, At: epoch}); !ok {
		t.Fatal("expected commit with threshold 1")
	}

	for _, offset := range []time.Duration{100 * time.Millisecond, 500 * time.Millisecond, 999 * time.Millisecond} {
		if _, ok := d.Feed(Candidate{Label: LabelPaste, At: epoch.Add(offset)}); ok {
			t.Errorf("expected no event %v into cooldown", offset)
		}
	}

	// The frame that ends the cooldown is consumed.
	if _, ok := d.Feed(Candidate{Label: LabelPaste, At: epoch.Add(time.Second)}); ok {
		t.Error("expected the cooldown-ending frame to be consumed")
	}
	if d.State().Phase != PhaseIdle {
		t.Errorf("expected idle after cooldown, got %s", d.State().Phase)
	}

	if _, ok := d.Feed(Candidate{Label: LabelPaste, At: epoch.Add(1100 * time.Millisecond)}); !ok {
		t.Error("expected commit after cooldown ended")
	}
}

func TestDebouncer_UnknownLabelIsNone(t *testing.T) {
	d := NewDebouncer(DebounceConfig{CommitFrames: 2, Cooldown: time.Second})

	seq := []Label{LabelCopy, Label("wave"), LabelCopy}
	if _, events := feedSeq(d, seq, 100*time.Millisecond); len(events) != 0 {
		t.Errorf("expected unknown label to break the run, got %d events", len(events))
	}

	d = NewDebouncer(DebounceConfig{CommitFrames: 2, Cooldown: time.Second})
	if _, events := feedSeq(d, repeat(Label("wave"), 5), 100*time.Millisecond); len(events) != 0 {
		t.Errorf("expected unknown labels never to commit, got %d events", len(events))
	}
}

func TestDebouncer_Reset(t *testing.T) {
	d := NewDebouncer(DebounceConfig{CommitFrames: 3, Cooldown: time.Second})

	d.Feed(Candidate{Label: LabelCopy, At: epoch})
	d.Feed(Candidate{Label: LabelCopy, At: epoch.Add(100 * time.Millisecond)})
	d.Reset()

	if d.State().Phase != PhaseIdle {
		t.Fatalf("expected idle after reset, got %s", d.State().Phase)
	}
	if _, ok := d.Feed(Candidate{Label: LabelCopy, At: epoch.Add(200 * time.Millisecond)}); ok {
		t.Error("expected reset to discard the partial run")
	}

	// Reset during cooldown keeps the cooldown.
	d = NewDebouncer(DebounceConfig{CommitFrames: 1, Cooldown: time.Second})
	d.Feed(Candidate{Label: LabelCopy, At: epoch})
	d.Reset()
	if d.State().Phase != PhaseCooldown {
		t.Errorf("expected cooldown to survive reset, got %s", d.State().Phase)
	}
}

func TestDebouncer_EventCarriesPoseAndDirection(t *testing.T) {
	d := NewDebouncer(DebounceConfig{CommitFrames: 2, Cooldown: time.Second})

	c := Candidate{Label: LabelSwitchTab, Pose: PosePoint, Direction: DirectionLeft, At: epoch}
	d.Feed(c)
	c.At = epoch.Add(50 * time.Millisecond)
	ev, ok := d.Feed(c)
	if !ok {
		t.Fatal("expected commit")
	}
	if ev.Pose != PosePoint || ev.Direction != DirectionLeft {
		t.Errorf("expected point/left, got %s/%s", ev.Pose, ev.Direction)
	}
}

func TestNewDebouncer_ClampsConfig(t *testing.T) {
	d := NewDebouncer(DebounceConfig{CommitFrames: 0, Cooldown: -time.Second})

	if _, ok := d.Feed(Candidate{Label: LabelCopy, At: epoch}); !ok {
		t.Error("expected zero commit frames to behave as 1")
	}
}
