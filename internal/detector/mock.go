package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Preset hands are built on a right hand, palm facing the camera, wrist at
// (0.5, 0.8) in image coordinates (y grows downward).

var fingerBases = map[int]Point3D{
	IndexMCP:  {X: 0.55, Y: 0.68},
	MiddleMCP: {X: 0.50, Y: 0.66},
	RingMCP:   {X: 0.45, Y: 0.68},
	PinkyMCP:  {X: 0.40, Y: 0.70},
}

func baseHand() HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}
	h.Points[Wrist] = Point3D{X: 0.5, Y: 0.8}
	h.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.76}
	h.Points[ThumbMCP] = Point3D{X: 0.60, Y: 0.72}
	for mcp, p := range fingerBases {
		h.Points[mcp] = p
	}
	h.FullyVisible()
	return h
}

// extendFinger points a finger straight up from its MCP, fanning slightly
// away from the middle finger.
func extendFinger(h *HandLandmarks, mcp int) {
	base := h.Points[mcp]
	spread := (base.X - 0.50) * 0.5
	h.Points[mcp+1] = Point3D{X: base.X + spread*0.4, Y: base.Y - 0.12}
	h.Points[mcp+2] = Point3D{X: base.X + spread*0.7, Y: base.Y - 0.22}
	h.Points[mcp+3] = Point3D{X: base.X + spread, Y: base.Y - 0.30}
}

// curlFinger folds a finger so its tip sits back below the knuckle.
func curlFinger(h *HandLandmarks, mcp int) {
	base := h.Points[mcp]
	h.Points[mcp+1] = Point3D{X: base.X, Y: base.Y - 0.03, Z: -0.04}
	h.Points[mcp+2] = Point3D{X: base.X - 0.01, Y: base.Y, Z: -0.04}
	h.Points[mcp+3] = Point3D{X: base.X - 0.01, Y: base.Y + 0.03, Z: -0.02}
}

func extendThumb(h *HandLandmarks) {
	h.Points[ThumbIP] = Point3D{X: 0.65, Y: 0.67}
	h.Points[ThumbTip] = Point3D{X: 0.70, Y: 0.62}
}

func tuckThumb(h *HandLandmarks) {
	h.Points[ThumbIP] = Point3D{X: 0.57, Y: 0.70, Z: -0.02}
	h.Points[ThumbTip] = Point3D{X: 0.50, Y: 0.72, Z: -0.03}
}

func buildHand(thumb bool, index, middle, ring, pinky bool) HandLandmarks {
	h := baseHand()
	if thumb {
		extendThumb(&h)
	} else {
		tuckThumb(&h)
	}
	for mcp, extended := range map[int]bool{IndexMCP: index, MiddleMCP: middle, RingMCP: ring, PinkyMCP: pinky} {
		if extended {
			extendFinger(&h, mcp)
		} else {
			curlFinger(&h, mcp)
		}
	}
	return h
}

// FistLandmarks returns a closed fist with the thumb tucked across the palm.
func FistLandmarks() HandLandmarks {
	return buildHand(false, false, false, false, false)
}

// OpenPalmLandmarks returns a preset HandLandmarks representing an open palm gesture.
// All fingers are extended outward.
func OpenPalmLandmarks() HandLandmarks {
	return buildHand(true, true, true, true, true)
}

// PointLandmarks returns an index finger pointing up, other fingers curled.
func PointLandmarks() HandLandmarks {
	return buildHand(false, true, false, false, false)
}

// PointLeftLandmarks returns an index finger pointing toward the left edge of the image.
func PointLeftLandmarks() HandLandmarks {
	h := buildHand(false, false, false, false, false)
	h.Points[IndexPIP] = Point3D{X: 0.45, Y: 0.66}
	h.Points[IndexDIP] = Point3D{X: 0.38, Y: 0.66}
	h.Points[IndexTip] = Point3D{X: 0.30, Y: 0.66}
	return h
}

// TwoFingerLandmarks returns index and middle fingers raised in a V.
func TwoFingerLandmarks() HandLandmarks {
	return buildHand(false, true, true, false, false)
}

// RockSignLandmarks returns index and pinky raised with middle and ring curled.
func RockSignLandmarks() HandLandmarks {
	return buildHand(false, true, false, false, true)
}

// PinchLandmarks returns the thumb tip touching the index tip with the
// remaining fingers curled.
func PinchLandmarks() HandLandmarks {
	h := buildHand(false, false, false, false, false)
	h.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.58}
	h.Points[IndexDIP] = Point3D{X: 0.60, Y: 0.52}
	h.Points[IndexTip] = Point3D{X: 0.62, Y: 0.50}
	h.Points[ThumbIP] = Point3D{X: 0.65, Y: 0.62}
	h.Points[ThumbTip] = Point3D{X: 0.63, Y: 0.52}
	return h
}

// ThumbsUpLandmarks returns a preset HandLandmarks representing a thumbs up gesture.
// No pose in the default vocabulary matches it.
func ThumbsUpLandmarks() HandLandmarks {
	h := buildHand(true, false, false, false, false)
	h.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.55}
	h.Points[ThumbTip] = Point3D{X: 0.58, Y: 0.42}
	return h
}

// Occluded returns a copy of h where only the first visible landmarks are
// tracked.
func Occluded(h HandLandmarks, visible int) HandLandmarks {
	for i := range h.Visibility {
		if i < visible {
			h.Visibility[i] = 1.0
		} else {
			h.Visibility[i] = 0.0
		}
	}
	return h
}
