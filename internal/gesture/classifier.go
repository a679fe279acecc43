package gesture

import (
	"time"

	"github.com/ayusman/gesturedrop/internal/detector"
)

// ClassifierConfig holds the tracking-quality gates applied before any rule runs.
type ClassifierConfig struct {
	// MinVisible is the number of landmarks that must be tracked.
	MinVisible int
	// MinVisibility is the per-landmark visibility that counts as tracked.
	MinVisibility float64
	// MinHandScore rejects hands the detector itself is unsure of.
	MinHandScore float64
}

// DefaultClassifierConfig returns the default tracking gates.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		MinVisible:    15,
		MinVisibility: 0.5,
		MinHandScore:  0.5,
	}
}

// Candidate is the classification of a single frame.
type Candidate struct {
	Label      Label
	Pose       Pose
	Direction  Direction
	Confidence float64
	At         time.Time
}

// None returns an empty candidate at t.
func None(at time.Time) Candidate {
	return Candidate{Label: LabelNone, At: at}
}

// Classifier maps one landmark frame to one candidate. It holds no state
// between frames.
type Classifier struct {
	config ClassifierConfig
	rules  []Rule
}

// NewClassifier creates a classifier over a snapshot of the registry's rules.
func NewClassifier(config ClassifierConfig, registry *Registry) *Classifier {
	return &Classifier{
		config: config,
		rules:  registry.Rules(),
	}
}

// Classify returns the first rule match for the frame, or a none candidate
// with zero confidence when tracking is too weak or nothing matches.
func (c *Classifier) Classify(frame detector.LandmarkFrame) Candidate {
	hand := &frame.Hand

	if hand.VisibleCount(c.config.MinVisibility) < c.config.MinVisible {
		return None(frame.At)
	}
	if hand.Score < c.config.MinHandScore {
		return None(frame.At)
	}

	features := Extract(hand)

	for _, rule := range c.rules {
		if !rule.Match(features) {
			continue
		}
		if rule.Label == LabelNone {
			// A pose bound to none is recognized but inert.
			return None(frame.At)
		}
		return Candidate{
			Label:      rule.Label,
			Pose:       rule.Pose,
			Direction:  features.Direction,
			Confidence: confidence(hand),
			At:         frame.At,
		}
	}

	return None(frame.At)
}

func confidence(h *detector.HandLandmarks) float64 {
	c := h.Score * h.MeanVisibility()
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
