package capture

import (
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MockCamera plays back a fixed set of images. Each read is stamped one
// frame interval, at the current FPS, after the previous one.
type MockCamera struct {
	mu     sync.Mutex
	frames []*gocv.Mat
	index  int
	loop   bool
	open   bool
	fps    int
	start  time.Time
	next   time.Time
	reads  int
}

// NewMockCamera returns a camera over frames. With loop set, playback
// restarts after the last frame.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
		fps:    15,
		start:  time.Unix(0, 0),
	}
}

// SetStart sets the timestamp of the first frame read after Open.
func (c *MockCamera) SetStart(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = t
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	c.index = 0
	c.reads = 0
	c.next = c.start
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *MockCamera) Read() (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return Frame{}, ErrCameraNotOpen
	}
	if c.index >= len(c.frames) {
		if !c.loop || len(c.frames) == 0 {
			return Frame{}, ErrNoFrame
		}
		c.index = 0
	}

	mat := c.frames[c.index].Clone()
	at := c.next
	c.next = c.next.Add(time.Second / time.Duration(c.fps))
	c.index++
	c.reads++

	return Frame{Mat: mat, At: at}, nil
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Reads returns how many frames have been handed out since Open.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}
