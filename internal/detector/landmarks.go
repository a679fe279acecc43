package detector

import (
	"math"
	"time"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D represents a 3D point in normalized image space.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
//
// Visibility holds a per-landmark confidence in [0,1]. Sources that do not
// report one fill it with 1.0 (see FullyVisible).
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Visibility [NumLandmarks]float64 `json:"visibility"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// LandmarkFrame is one detected hand at one camera tick.
type LandmarkFrame struct {
	Hand HandLandmarks
	At   time.Time
}

// NewFrame wraps a hand into a frame stamped with at.
func NewFrame(hand HandLandmarks, at time.Time) LandmarkFrame {
	return LandmarkFrame{Hand: hand, At: at}
}

// Distance calculates the Euclidean distance between two 3D points.
func Distance(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Distance2D ignores depth. MediaPipe's z is relative and noisy, so
// image-plane distances are preferred for thresholds.
func Distance2D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// FullyVisible marks every landmark as visible.
func (h *HandLandmarks) FullyVisible() {
	for i := range h.Visibility {
		h.Visibility[i] = 1.0
	}
}

// VisibleCount returns how many landmarks have visibility of at least min.
func (h *HandLandmarks) VisibleCount(min float64) int {
	n := 0
	for _, v := range h.Visibility {
		if v >= min {
			n++
		}
	}
	return n
}

// MeanVisibility returns the average landmark visibility.
func (h *HandLandmarks) MeanVisibility() float64 {
	var sum float64
	for _, v := range h.Visibility {
		sum += v
	}
	return sum / NumLandmarks
}

// PalmSize returns the wrist to middle-finger MCP distance, used as the
// hand's scale reference.
func (h *HandLandmarks) PalmSize() float64 {
	return Distance2D(h.Points[Wrist], h.Points[MiddleMCP])
}
