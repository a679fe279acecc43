package app

import (
	"log"

	"github.com/ayusman/gesturedrop/internal/dispatch"
	"github.com/ayusman/gesturedrop/internal/store"
)

// pruneEvery is how many recorded events pass between log prunes.
const pruneEvery = 50

// record logs a handled gesture to the database and notifies listeners.
// It runs on the dispatcher goroutine.
func (a *App) record(res dispatch.Result) {
	if a.store != nil {
		a.persist(res)
	}

	a.mu.Lock()
	a.last = res
	listeners := a.listeners
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(res)
	}
}

func (a *App) persist(res dispatch.Result) {
	detail := res.Detail
	if res.Err != nil {
		detail = res.Err.Error()
	}

	err := a.store.Events().Create(&store.Event{
		ID:          res.Event.ID,
		Label:       string(res.Event.Label),
		Pose:        string(res.Event.Pose),
		Direction:   string(res.Event.Direction),
		CommittedAt: res.Event.CommittedAt,
		HandledAt:   res.HandledAt,
		Outcome:     string(res.Outcome),
		Version:     res.Version,
		Detail:      detail,
	})
	if err != nil {
		log.Printf("Failed to record gesture event: %v", err)
		return
	}

	a.events++
	if a.settings.KeepEvents <= 0 || a.events%pruneEvery != 0 {
		return
	}
	if n, err := a.store.Events().Prune(a.settings.KeepEvents); err != nil {
		log.Printf("Failed to prune gesture events: %v", err)
	} else if n > 0 {
		log.Printf("Pruned %d old gesture events", n)
	}
}
