package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	blurKernel    = 21
	diffThreshold = 25
)

// MotionDetector compares each frame with the previous one and reports the
// share of pixels that changed.
type MotionDetector struct {
	mu          sync.Mutex
	threshold   float64
	prev        gocv.Mat
	initialized bool
}

// NewMotionDetector returns a detector that reports motion when more than
// threshold percent of the pixels change between frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prev:      gocv.NewMat(),
	}
}

// Detect reports whether frame differs enough from the last frame seen, and
// the changed-pixel percentage. The first frame only sets the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: blurKernel, Y: blurKernel}, 0, 0, gocv.BorderDefault)

	if !m.initialized {
		blurred.CopyTo(&m.prev)
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prev, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, diffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(mask)) / float64(mask.Rows()*mask.Cols()) * 100
	blurred.CopyTo(&m.prev)

	return changed > m.threshold, changed
}

// Reset forgets the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases the baseline frame. The detector may be reused afterwards.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.prev.Empty() {
		m.prev.Close()
		m.prev = gocv.NewMat()
	}
	m.initialized = false
}

// SetThreshold changes the motion threshold. Non-positive values are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

const (
	IdleFPS     = 5
	ActiveFPS   = 15
	IdleTimeout = 2 * time.Second
)

// Pacer switches the sensing loop between a slow idle rate and a fast
// active rate. Motion makes it active; IdleTimeout without motion makes it
// idle again.
type Pacer struct {
	active     bool
	lastMotion time.Time
	timeout    time.Duration
}

// NewPacer returns a pacer in the idle state.
func NewPacer() *Pacer {
	return &Pacer{timeout: IdleTimeout}
}

// Observe records whether frame at t had motion and reports whether the
// rate changed.
func (p *Pacer) Observe(motion bool, t time.Time) (changed bool) {
	if motion {
		p.lastMotion = t
		if !p.active {
			p.active = true
			return true
		}
		return false
	}
	if p.active && t.Sub(p.lastMotion) > p.timeout {
		p.active = false
		return true
	}
	return false
}

// Active reports whether the loop should be classifying frames.
func (p *Pacer) Active() bool {
	return p.active
}

// FPS returns the rate for the current state.
func (p *Pacer) FPS() int {
	if p.active {
		return ActiveFPS
	}
	return IdleFPS
}

// Interval returns the tick period for the current state.
func (p *Pacer) Interval() time.Duration {
	return time.Second / time.Duration(p.FPS())
}
