package clipsync

import (
	"errors"
	"fmt"

	"github.com/ayusman/gesturedrop/internal/clipboard"
)

// ErrNoDevice is returned when an exchange carries no device id.
var ErrNoDevice = errors.New("device id required")

// PullResult is the answer to a pull. Entry is only set when Changed.
type PullResult struct {
	Changed bool
	Version uint64
	Entry   clipboard.Entry
}

// StaleError reports a rejected push together with the version that won.
type StaleError struct {
	Attempted uint64
	Current   uint64
	Err       error
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("push version %d rejected, current is %d", e.Attempted, e.Current)
}

func (e *StaleError) Unwrap() error {
	return e.Err
}

// Service binds the clipboard store to device sessions. It is transport-free;
// internal/server maps it onto HTTP.
type Service struct {
	store    *clipboard.Store
	sessions *Sessions
}

// NewService creates a sync service.
func NewService(store *clipboard.Store, sessions *Sessions) *Service {
	return &Service{store: store, sessions: sessions}
}

// Sessions returns the session table.
func (s *Service) Sessions() *Sessions {
	return s.sessions
}

// Current returns the current entry without affecting any session.
func (s *Service) Current() clipboard.Entry {
	return s.store.Read()
}

// Watch subscribes to accepted writes.
func (s *Service) Watch() (<-chan clipboard.Entry, func()) {
	return s.store.Subscribe()
}

// Pull answers a device poll. since, when non-nil, overrides the version the
// session last acknowledged. A device that already holds the current version
// gets no payload; otherwise it gets the full entry and its session
// acknowledges the current version.
func (s *Service) Pull(deviceID string, since *uint64) (PullResult, error) {
	if deviceID == "" {
		return PullResult{}, ErrNoDevice
	}

	current := s.store.Read()

	sess := s.sessions.update(deviceID, func(sess *Session) {
		sess.Pulls++
	})
	acked := sess.AckedVersion
	if since != nil {
		acked = *since
	}

	if acked == current.Version {
		return PullResult{Changed: false, Version: current.Version}, nil
	}

	s.sessions.Ack(deviceID, current.Version)
	return PullResult{Changed: true, Version: current.Version, Entry: current}, nil
}

// Push writes a device's entry through the same version gate as local
// gestures. A zero version means "next version". Rejected writes return a
// *StaleError wrapping clipboard.ErrStaleWrite.
func (s *Service) Push(deviceID string, e clipboard.Entry) (clipboard.Entry, error) {
	if deviceID == "" {
		return clipboard.Entry{}, ErrNoDevice
	}

	s.sessions.update(deviceID, func(sess *Session) {
		sess.Pushes++
	})

	e.Origin = deviceID
	if e.Version == 0 {
		e.Version = s.store.Version() + 1
	}

	accepted, err := s.store.Write(e)
	if err != nil {
		if errors.Is(err, clipboard.ErrStaleWrite) {
			return clipboard.Entry{}, &StaleError{
				Attempted: e.Version,
				Current:   s.store.Version(),
				Err:       err,
			}
		}
		return clipboard.Entry{}, err
	}

	// The pusher already holds what it sent.
	s.sessions.Ack(deviceID, accepted.Version)
	return accepted, nil
}
