package gesture

import (
	"math"

	"github.com/ayusman/gesturedrop/internal/detector"
)

// Finger indexes into Features.Extended.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
)

const (
	// A finger counts as extended when its tip is this much farther from
	// the wrist than its PIP joint.
	fingerExtendRatio = 1.1
	// The thumb folds across the palm, so it is measured against the pinky
	// knuckle instead of the wrist.
	thumbExtendRatio = 1.05
	// Pointing vectors shorter than this fraction of the palm have no direction.
	minPointLength = 0.3
)

var fingerJoints = [...]struct{ pip, tip int }{
	Index:  {detector.IndexPIP, detector.IndexTip},
	Middle: {detector.MiddlePIP, detector.MiddleTip},
	Ring:   {detector.RingPIP, detector.RingTip},
	Pinky:  {detector.PinkyPIP, detector.PinkyTip},
}

// Features are the geometric quantities rules are written against.
type Features struct {
	Extended [5]bool
	// PinchRatio is the thumb tip to index tip distance in palm units.
	PinchRatio float64
	// IndexRaised is true when the index tip sits above its knuckle.
	IndexRaised bool
	Direction   Direction
}

// ExtendedCount counts extended fingers, thumb included.
func (f Features) ExtendedCount() int {
	n := 0
	for _, e := range f.Extended {
		if e {
			n++
		}
	}
	return n
}

// Only reports whether exactly the listed non-thumb fingers are extended.
// The thumb is ignored.
func (f Features) Only(fingers ...int) bool {
	want := [5]bool{}
	for _, finger := range fingers {
		want[finger] = true
	}
	for finger := Index; finger <= Pinky; finger++ {
		if f.Extended[finger] != want[finger] {
			return false
		}
	}
	return true
}

// Extract computes Features from one hand.
func Extract(h *detector.HandLandmarks) Features {
	var f Features
	p := h.Points
	wrist := p[detector.Wrist]

	for finger := Index; finger <= Pinky; finger++ {
		j := fingerJoints[finger]
		f.Extended[finger] = detector.Distance2D(wrist, p[j.tip]) > detector.Distance2D(wrist, p[j.pip])*fingerExtendRatio
	}

	pinkyBase := p[detector.PinkyMCP]
	f.Extended[Thumb] = detector.Distance2D(p[detector.ThumbTip], pinkyBase) >
		detector.Distance2D(p[detector.ThumbIP], pinkyBase)*thumbExtendRatio

	palm := h.PalmSize()
	if palm < 1e-9 {
		f.PinchRatio = math.Inf(1)
		return f
	}
	f.PinchRatio = detector.Distance2D(p[detector.ThumbTip], p[detector.IndexTip]) / palm
	f.IndexRaised = p[detector.IndexTip].Y < p[detector.IndexMCP].Y
	f.Direction = pointing(p[detector.IndexMCP], p[detector.IndexTip], palm)

	return f
}

func pointing(from, to detector.Point3D, palm float64) Direction {
	dx := to.X - from.X
	dy := to.Y - from.Y
	if math.Hypot(dx, dy) < palm*minPointLength {
		return DirectionNone
	}
	if math.Abs(dx) > math.Abs(dy) {
		if dx > 0 {
			return DirectionRight
		}
		return DirectionLeft
	}
	if dy < 0 {
		return DirectionUp
	}
	return DirectionDown
}
