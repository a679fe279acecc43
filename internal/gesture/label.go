// Package gesture classifies hand landmark frames into gesture candidates
// and debounces them into committed events.
package gesture

import "strings"

// Label is the action a pose stands for.
type Label string

const (
	LabelNone       Label = "none"
	LabelScrollUp   Label = "scroll_up"
	LabelScrollDown Label = "scroll_down"
	LabelSwitchTab  Label = "switch_tab"
	LabelScreenshot Label = "screenshot"
	LabelCopy       Label = "copy"
	LabelPaste      Label = "paste"
)

// Labels lists every non-none label.
var Labels = []Label{
	LabelScrollUp,
	LabelScrollDown,
	LabelSwitchTab,
	LabelScreenshot,
	LabelCopy,
	LabelPaste,
}

// Valid reports whether l is part of the vocabulary (none included).
func (l Label) Valid() bool {
	if l == LabelNone {
		return true
	}
	for _, known := range Labels {
		if l == known {
			return true
		}
	}
	return false
}

// Normalize maps unknown labels to LabelNone.
func (l Label) Normalize() Label {
	if l == "" || !l.Valid() {
		return LabelNone
	}
	return l
}

// ParseLabel parses a label name case-insensitively. Unknown names yield
// LabelNone and false.
func ParseLabel(s string) (Label, bool) {
	l := Label(strings.ToLower(strings.TrimSpace(s)))
	if l == "" || !l.Valid() {
		return LabelNone, false
	}
	return l, true
}

// Pose is a hand shape recognized by a rule.
type Pose string

const (
	PoseFist      Pose = "fist"
	PoseOpenPalm  Pose = "open_palm"
	PosePoint     Pose = "point"
	PosePinch     Pose = "pinch"
	PoseTwoFinger Pose = "two_finger"
	PoseRockSign  Pose = "rock_sign"
)

// DefaultBindings maps each built-in pose to its label.
var DefaultBindings = map[Pose]Label{
	PoseFist:      LabelScrollUp,
	PoseOpenPalm:  LabelScrollDown,
	PosePoint:     LabelSwitchTab,
	PosePinch:     LabelScreenshot,
	PoseTwoFinger: LabelCopy,
	PoseRockSign:  LabelPaste,
}

// Direction is where the index finger points, in image orientation.
type Direction string

const (
	DirectionNone  Direction = ""
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)
