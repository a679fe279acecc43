package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/ayusman/gesturedrop/internal/capture"
	"github.com/ayusman/gesturedrop/internal/detector"
	"github.com/ayusman/gesturedrop/internal/gesture"
)

// runPipeline reads camera frames until ctx is done. Frames are classified
// only while the pacer is active, which motion switches on and
// capture.IdleTimeout of stillness switches off.
func (a *App) runPipeline(ctx context.Context) error {
	if err := a.camera.Open(); err != nil {
		return err
	}
	defer func() {
		if err := a.camera.Close(); err != nil {
			log.Printf("Error closing camera: %v", err)
		}
		a.motion.Close()
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
		log.Println("Detection pipeline stopped")
	}()

	a.camera.SetFPS(a.pacer.FPS())
	ticker := time.NewTicker(a.pacer.Interval())
	defer ticker.Stop()

	log.Println("Detection pipeline started")

	wasEnabled := a.IsEnabled()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		enabled := a.IsEnabled()
		if enabled != wasEnabled {
			wasEnabled = enabled
			a.debouncer.Reset()
			a.motion.Reset()
		}
		if !enabled {
			continue
		}

		frame, err := a.camera.Read()
		if err != nil {
			if !errors.Is(err, capture.ErrNoFrame) {
				log.Printf("Error reading frame: %v", err)
			}
			continue
		}

		if a.processFrame(frame) {
			a.camera.SetFPS(a.pacer.FPS())
			ticker.Reset(a.pacer.Interval())
		}
	}
}

// processFrame runs one frame through motion gating, detection and
// classification. It closes the frame and reports whether the pacer
// changed rate.
func (a *App) processFrame(frame capture.Frame) (rateChanged bool) {
	defer frame.Close()

	if a.preview != nil {
		if err := a.preview.Update(&frame.Mat, frame.At); err != nil {
			log.Printf("Error updating preview: %v", err)
		}
	}

	moved, _ := a.motion.Detect(&frame.Mat)
	if a.pacer.Observe(moved, frame.At) {
		rateChanged = true
		if a.pacer.Active() {
			log.Println("Switched to active mode")
		} else {
			a.debouncer.Reset()
			log.Println("Switched to idle mode")
		}
	}
	if !a.pacer.Active() {
		return rateChanged
	}

	hands, err := a.detector.Detect(&frame.Mat)
	if err != nil {
		log.Printf("Error detecting hands: %v", err)
		hands = nil
	}
	a.step(hands, frame.At)
	return rateChanged
}

// step classifies the primary hand and feeds the debouncer. A frame
// without a hand counts as none. Committed events go to the dispatcher.
func (a *App) step(hands []detector.HandLandmarks, at time.Time) (gesture.Event, bool) {
	candidate := gesture.None(at)
	if hand, ok := detector.PrimaryHand(hands); ok {
		candidate = a.classifier.Load().Classify(detector.NewFrame(hand, at))
	}

	ev, ok := a.debouncer.Feed(candidate)
	if !ok {
		return gesture.Event{}, false
	}

	log.Printf("Gesture committed: %s (pose %s)", ev.Label, ev.Pose)
	if a.preview != nil {
		a.preview.ShowLabel(string(ev.Label), ev.CommittedAt)
	}
	a.dispatcher.Submit(ev)
	return ev, true
}
