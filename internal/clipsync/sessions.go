// Package clipsync exposes the clipboard store to remote devices through
// pull and push exchanges, tracking what each device has already seen.
package clipsync

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"
)

// DefaultSessionTTL is how long a device may stay silent before its session
// is dropped.
const DefaultSessionTTL = 10 * time.Minute

// Session is what the server remembers about one device. It holds a version
// number, never a copy of the payload.
type Session struct {
	DeviceID     string    `json:"device_id"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	AckedVersion uint64    `json:"acked_version"`
	Pulls        int       `json:"pulls"`
	Pushes       int       `json:"pushes"`
}

// Sessions is the device session table.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessions creates an empty table. A non-positive ttl uses DefaultSessionTTL.
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Touch returns the session for deviceID, creating it on first contact, and
// marks it as seen now.
func (s *Sessions) Touch(deviceID string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.touch(deviceID)
}

func (s *Sessions) touch(deviceID string) *Session {
	now := s.now()
	sess, ok := s.sessions[deviceID]
	if !ok {
		sess = &Session{DeviceID: deviceID, FirstSeen: now}
		s.sessions[deviceID] = sess
	}
	sess.LastSeen = now
	return sess
}

// Ack records that deviceID holds version. Acknowledgements never move
// backwards.
func (s *Sessions) Ack(deviceID string, version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.touch(deviceID)
	if version > sess.AckedVersion {
		sess.AckedVersion = version
	}
}

func (s *Sessions) update(deviceID string, fn func(*Session)) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.touch(deviceID)
	fn(sess)
	return *sess
}

// Get returns the session for deviceID without touching it.
func (s *Sessions) Get(deviceID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[deviceID]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// List returns all sessions, most recently seen first.
func (s *Sessions) List() []Session {
	s.mu.Lock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, *sess)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].DeviceID < out[j].DeviceID
		}
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	return out
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Expire drops sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Sessions) Expire(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.LastSeen) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run expires idle sessions every interval until ctx is cancelled.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Expire(s.now()); n > 0 {
				log.Printf("Expired %d idle device session(s)", n)
			}
		}
	}
}
