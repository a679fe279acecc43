package app

import (
	"errors"
	"fmt"
	"log"

	"github.com/ayusman/gesturedrop/internal/gesture"
	"github.com/ayusman/gesturedrop/internal/store"
)

var (
	// ErrUnknownPose is returned for a pose no rule recognizes.
	ErrUnknownPose = errors.New("unknown pose")
	// ErrUnknownLabel is returned for a label outside the vocabulary.
	ErrUnknownLabel = errors.New("unknown label")
)

// Bindings returns the current pose to label mapping.
func (a *App) Bindings() map[gesture.Pose]gesture.Label {
	return a.registry.Bindings()
}

// SetBinding makes pose produce label, persists the override and swaps in
// a classifier built from the new rules.
func (a *App) SetBinding(pose gesture.Pose, label string) error {
	l, ok := gesture.ParseLabel(label)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	if _, known := a.registry.Bindings()[pose]; !known {
		return fmt.Errorf("%w: %q", ErrUnknownPose, pose)
	}

	a.bindMu.Lock()
	defer a.bindMu.Unlock()

	if a.store != nil {
		if err := a.store.Bindings().Set(&store.Binding{Pose: string(pose), Label: string(l)}); err != nil {
			return fmt.Errorf("save binding: %w", err)
		}
	}
	if err := a.registry.Rebind(pose, l); err != nil {
		return err
	}
	a.rebuildClassifier()

	log.Printf("Bound %s to %s", pose, l)
	return nil
}

// ResetBinding restores the built-in label for pose.
func (a *App) ResetBinding(pose gesture.Pose) error {
	def, ok := gesture.DefaultBindings[pose]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPose, pose)
	}

	a.bindMu.Lock()
	defer a.bindMu.Unlock()

	if a.store != nil {
		if err := a.store.Bindings().Delete(string(pose)); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("delete binding: %w", err)
		}
	}
	if err := a.registry.Rebind(pose, def); err != nil {
		return err
	}
	a.rebuildClassifier()

	log.Printf("Reset %s to %s", pose, def)
	return nil
}

func (a *App) loadBindings() error {
	if a.store == nil {
		return nil
	}

	bindings, err := a.store.Bindings().List()
	if err != nil {
		return err
	}

	for _, b := range bindings {
		label, ok := gesture.ParseLabel(b.Label)
		if !ok {
			log.Printf("Ignoring binding %s: unknown label %q", b.Pose, b.Label)
			continue
		}
		if err := a.registry.Rebind(gesture.Pose(b.Pose), label); err != nil {
			log.Printf("Ignoring binding %s: %v", b.Pose, err)
		}
	}

	log.Printf("Loaded %d gesture bindings from database", len(bindings))
	return nil
}

func (a *App) rebuildClassifier() {
	a.classifier.Store(gesture.NewClassifier(gesture.ClassifierConfig{
		MinVisible:    a.settings.MinVisible,
		MinVisibility: a.settings.MinVisibility,
		MinHandScore:  a.settings.MinHandScore,
	}, a.registry))
}
