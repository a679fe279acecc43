package capture

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// LabelTTL is how long a committed gesture stays drawn on the preview.
const LabelTTL = 1600 * time.Millisecond

var (
	labelColor = color.RGBA{R: 255, G: 255, A: 255}
	idleColor  = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	infoColor  = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

// Preview keeps live viewers supplied with annotated JPEG frames. Frames
// are only encoded while at least one viewer is subscribed.
type Preview struct {
	mu      sync.Mutex
	label   string
	labelAt time.Time
	footer  string

	subs   map[int]chan []byte
	nextID int
}

// NewPreview creates a Preview with no viewers.
func NewPreview() *Preview {
	return &Preview{subs: make(map[int]chan []byte)}
}

// SetFooter sets the info line drawn at the bottom of every frame.
func (p *Preview) SetFooter(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.footer = text
}

// ShowLabel draws label on frames captured within LabelTTL of at.
func (p *Preview) ShowLabel(label string, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.label = label
	p.labelAt = at
}

// Overlay returns the gesture line and the footer for a frame captured at.
func (p *Preview) Overlay(at time.Time) (line string, active bool, footer string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.label != "" && !at.Before(p.labelAt) && at.Sub(p.labelAt) < LabelTTL {
		return fmt.Sprintf("Gesture: %s", p.label), true, p.footer
	}
	return "Gesture: None", false, p.footer
}

// Watching reports whether any viewer is subscribed.
func (p *Preview) Watching() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs) > 0
}

// Subscribe returns a channel of encoded frames and a cancel function. A
// slow viewer only receives the newest frame.
func (p *Preview) Subscribe() (<-chan []byte, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan []byte, 1)
	id := p.nextID
	p.nextID++
	p.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.subs, id)
		})
	}
}

// Update annotates a copy of frame and sends it to every viewer. frame is
// not modified.
func (p *Preview) Update(frame *gocv.Mat, at time.Time) error {
	if frame == nil || frame.Empty() || !p.Watching() {
		return nil
	}

	img := frame.Clone()
	defer img.Close()

	line, active, footer := p.Overlay(at)
	if active {
		gocv.PutText(&img, line, image.Pt(20, 50), gocv.FontHersheySimplex, 0.8, labelColor, 2)
	} else {
		gocv.PutText(&img, line, image.Pt(20, 50), gocv.FontHersheySimplex, 0.7, idleColor, 2)
	}
	if footer != "" {
		gocv.PutText(&img, footer, image.Pt(20, img.Rows()-20), gocv.FontHersheySimplex, 0.5, infoColor, 1)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	buf.Close()

	p.publish(data)
	return nil
}

func (p *Preview) publish(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ch := range p.subs {
		select {
		case ch <- data:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- data:
			default:
			}
		}
	}
}
