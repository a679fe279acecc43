package store

import (
	"database/sql"
	"time"
)

// Event is a committed gesture and how it was handled.
type Event struct {
	ID          string
	Label       string
	Pose        string
	Direction   string
	CommittedAt time.Time
	HandledAt   time.Time
	Outcome     string
	Version     uint64
	Detail      string
}

// EventRepository stores the gesture event log.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create appends an event to the log.
func (r *EventRepository) Create(e *Event) error {
	var handled any
	if !e.HandledAt.IsZero() {
		handled = e.HandledAt
	}

	_, err := r.db.Exec(
		`INSERT INTO gesture_events (id, label, pose, direction, committed_at, handled_at, outcome, version, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Label, e.Pose, e.Direction, e.CommittedAt, handled, e.Outcome, int64(e.Version), e.Detail,
	)
	return err
}

// List returns the most recent events, newest first. A non-positive limit
// returns all events.
func (r *EventRepository) List(limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, label, pose, direction, committed_at, handled_at, outcome, version, detail
		 FROM gesture_events ORDER BY committed_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var handled sql.NullTime
		var version int64

		err := rows.Scan(&e.ID, &e.Label, &e.Pose, &e.Direction, &e.CommittedAt, &handled, &e.Outcome, &version, &e.Detail)
		if err != nil {
			return nil, err
		}

		if handled.Valid {
			e.HandledAt = handled.Time
		}
		e.Version = uint64(version)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// Count returns the number of logged events.
func (r *EventRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM gesture_events`).Scan(&n)
	return n, err
}

// Prune keeps the newest keep events and deletes the rest. It returns the
// number of deleted rows.
func (r *EventRepository) Prune(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	result, err := r.db.Exec(
		`DELETE FROM gesture_events WHERE id NOT IN (
			SELECT id FROM gesture_events ORDER BY committed_at DESC, rowid DESC LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
