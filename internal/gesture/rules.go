package gesture

import (
	"fmt"
	"sort"
	"sync"
)

// Predicate decides whether a feature set shows a pose.
type Predicate func(f Features) bool

// Rule binds a pose predicate to a label at a priority. Lower priorities
// are evaluated first.
type Rule struct {
	Pose     Pose
	Label    Label
	Priority int
	Match    Predicate
}

// Registry is the ordered list of rules a Classifier evaluates.
// Adding a gesture is one Register call.
type Registry struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry returns a registry holding the built-in vocabulary.
func DefaultRegistry(pinchRatio float64) *Registry {
	r := NewRegistry()
	for _, rule := range DefaultRules(pinchRatio) {
		// Built-in rules are known valid.
		_ = r.Register(rule)
	}
	return r
}

// Register adds a rule. A pose may only be registered once.
func (r *Registry) Register(rule Rule) error {
	if rule.Match == nil {
		return fmt.Errorf("rule %q has no predicate", rule.Pose)
	}
	if rule.Pose == "" {
		return fmt.Errorf("rule has no pose")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.rules {
		if existing.Pose == rule.Pose {
			return fmt.Errorf("pose %q already registered", rule.Pose)
		}
	}
	rule.Label = rule.Label.Normalize()
	r.rules = append(r.rules, rule)
	return nil
}

// Rebind changes the label produced by an existing pose.
func (r *Registry) Rebind(pose Pose, label Label) error {
	if !label.Valid() {
		return fmt.Errorf("unknown label %q", label)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.rules {
		if r.rules[i].Pose == pose {
			r.rules[i].Label = label
			return nil
		}
	}
	return fmt.Errorf("pose %q not registered", pose)
}

// Rules returns the rules in evaluation order: ascending priority, ties in
// registration order.
func (r *Registry) Rules() []Rule {
	r.mu.RLock()
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// Bindings returns the current pose to label mapping.
func (r *Registry) Bindings() map[Pose]Label {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[Pose]Label, len(r.rules))
	for _, rule := range r.rules {
		out[rule.Pose] = rule.Label
	}
	return out
}

// DefaultRules returns the built-in pose rules. Pinch comes first because
// a pinching hand also satisfies the point rule; open palm sits after the
// two-finger and rock rules so partially opened hands resolve to the more
// specific pose.
func DefaultRules(pinchRatio float64) []Rule {
	return []Rule{
		{
			Pose:     PosePinch,
			Label:    DefaultBindings[PosePinch],
			Priority: 10,
			Match: func(f Features) bool {
				return f.PinchRatio < pinchRatio && f.IndexRaised &&
					!f.Extended[Middle] && !f.Extended[Ring] && !f.Extended[Pinky]
			},
		},
		{
			Pose:     PoseRockSign,
			Label:    DefaultBindings[PoseRockSign],
			Priority: 20,
			Match: func(f Features) bool {
				return f.Only(Index, Pinky)
			},
		},
		{
			Pose:     PoseTwoFinger,
			Label:    DefaultBindings[PoseTwoFinger],
			Priority: 30,
			Match: func(f Features) bool {
				return f.Only(Index, Middle)
			},
		},
		{
			Pose:     PosePoint,
			Label:    DefaultBindings[PosePoint],
			Priority: 40,
			Match: func(f Features) bool {
				return f.Only(Index) && f.Direction != DirectionNone
			},
		},
		{
			Pose:     PoseOpenPalm,
			Label:    DefaultBindings[PoseOpenPalm],
			Priority: 50,
			Match: func(f Features) bool {
				return f.ExtendedCount() == 5
			},
		},
		{
			Pose:     PoseFist,
			Label:    DefaultBindings[PoseFist],
			Priority: 60,
			Match: func(f Features) bool {
				return f.ExtendedCount() == 0
			},
		},
	}
}
