package store

import (
	"fmt"
	"testing"
	"time"
)

func TestEventRepository_CreateList(t *testing.T) {
	s := newTestStore(t)
	repo := s.Events()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		e := &Event{
			ID:          fmt.Sprintf("ev-%d", i),
			Label:       "screenshot",
			Pose:        "pinch",
			CommittedAt: base.Add(time.Duration(i) * time.Second),
			HandledAt:   base.Add(time.Duration(i)*time.Second + 50*time.Millisecond),
			Outcome:     "ok",
			Version:     uint64(i + 1),
		}
		if err := repo.Create(e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	events, err := repo.List(2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != "ev-2" || events[1].ID != "ev-1" {
		t.Errorf("expected newest first, got %s, %s", events[0].ID, events[1].ID)
	}
	if events[0].Version != 3 || events[0].Pose != "pinch" || events[0].Outcome != "ok" {
		t.Errorf("unexpected event fields %+v", events[0])
	}
	if !events[0].CommittedAt.Equal(base.Add(2 * time.Second)) {
		t.Errorf("expected committed_at to round-trip, got %v", events[0].CommittedAt)
	}
	if events[0].HandledAt.IsZero() {
		t.Error("expected handled_at to round-trip")
	}

	all, _ := repo.List(0)
	if len(all) != 3 {
		t.Errorf("expected all 3 events with limit 0, got %d", len(all))
	}
}

func TestEventRepository_UnhandledEvent(t *testing.T) {
	s := newTestStore(t)
	repo := s.Events()

	if err := repo.Create(&Event{ID: "x", Label: "copy", CommittedAt: time.Now(), Outcome: "skipped"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	events, err := repo.List(10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 1 || !events[0].HandledAt.IsZero() {
		t.Errorf("expected one event without handled_at, got %+v", events)
	}
}

func TestEventRepository_Prune(t *testing.T) {
	s := newTestStore(t)
	repo := s.Events()

	base := time.Now()
	for i := 0; i < 5; i++ {
		repo.Create(&Event{
			ID:          fmt.Sprintf("ev-%d", i),
			Label:       "copy",
			CommittedAt: base.Add(time.Duration(i) * time.Second),
			Outcome:     "ok",
		})
	}

	removed, err := repo.Prune(2)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 3 {
		t.Errorf("expected 3 removed, got %d", removed)
	}

	n, _ := repo.Count()
	if n != 2 {
		t.Errorf("expected 2 left, got %d", n)
	}

	events, _ := repo.List(0)
	if events[0].ID != "ev-4" || events[1].ID != "ev-3" {
		t.Errorf("expected newest events kept, got %s, %s", events[0].ID, events[1].ID)
	}
}
