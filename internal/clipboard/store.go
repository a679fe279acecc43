// Package clipboard holds the single shared clipboard value that gestures
// write and remote devices pull.
package clipboard

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

var (
	// ErrStaleWrite is returned when a write does not advance the version.
	ErrStaleWrite = errors.New("stale clipboard write")
	// ErrInvalidEntry is returned for entries with an unknown kind or a
	// malformed payload.
	ErrInvalidEntry = errors.New("invalid clipboard entry")
	// ErrTooLarge is returned when the payload exceeds the store limit.
	ErrTooLarge = errors.New("clipboard payload too large")
	// ErrClosed is returned by writes after Close.
	ErrClosed = errors.New("clipboard store closed")
)

// DefaultMaxPayloadBytes bounds the encoded payload of a single entry.
const DefaultMaxPayloadBytes = 10 << 20

// Kind is the payload type of an entry.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Entry is one clipboard value. Image payloads are standard base64.
type Entry struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Payload   string    `json:"payload"`
	Version   uint64    `json:"version"`
	Origin    string    `json:"origin"`
	CreatedAt time.Time `json:"created_at"`
	Digest    string    `json:"digest"`
}

// Empty is what Read returns before the first accepted write.
var Empty = Entry{}

// IsEmpty reports whether e is the empty entry.
func (e Entry) IsEmpty() bool {
	return e.Version == 0
}

// Bytes returns the raw payload: the text itself or the decoded image.
func (e Entry) Bytes() ([]byte, error) {
	if e.Kind == KindImage {
		return base64.StdEncoding.DecodeString(e.Payload)
	}
	return []byte(e.Payload), nil
}

// NewText builds an unversioned text entry.
func NewText(text string) Entry {
	return Entry{Kind: KindText, Payload: text}
}

// NewImage builds an unversioned image entry from raw image bytes.
func NewImage(data []byte) Entry {
	return Entry{Kind: KindImage, Payload: base64.StdEncoding.EncodeToString(data)}
}

// Digest returns the hex blake3 digest of a payload.
func Digest(payload string) string {
	sum := blake3.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:16])
}

// Option configures a Store.
type Option func(*Store)

// WithMaxPayloadBytes sets the payload size limit. Non-positive values keep
// the default.
func WithMaxPayloadBytes(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxPayload = n
		}
	}
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is a versioned single-value register. Writes are serialized; reads
// are lock-free and always see a fully built entry.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[Entry]

	maxPayload int
	now        func() time.Time

	subMu  sync.Mutex
	subs   map[int]chan Entry
	nextID int
	closed bool
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		maxPayload: DefaultMaxPayloadBytes,
		now:        time.Now,
		subs:       make(map[int]chan Entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	empty := Empty
	s.current.Store(&empty)
	return s
}

// Read returns the current entry, or Empty.
func (s *Store) Read() Entry {
	return *s.current.Load()
}

// Version returns the current version, 0 when empty.
func (s *Store) Version() uint64 {
	return s.current.Load().Version
}

// Write replaces the current entry if e.Version is greater than the current
// version. The accepted entry is returned with ID, CreatedAt and Digest set.
// A rejected write leaves the store unchanged and returns ErrStaleWrite
// wrapped with the current version.
func (s *Store) Write(e Entry) (Entry, error) {
	if err := s.validate(e); err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	if s.isClosed() {
		s.mu.Unlock()
		return Entry{}, ErrClosed
	}
	cur := s.current.Load()
	if e.Version <= cur.Version {
		s.mu.Unlock()
		return Entry{}, fmt.Errorf("%w: version %d, current %d", ErrStaleWrite, e.Version, cur.Version)
	}

	e.ID = uuid.NewString()
	e.CreatedAt = s.now()
	e.Digest = Digest(e.Payload)
	accepted := e
	s.current.Store(&accepted)
	// Publishing under mu keeps notices in version order.
	s.publish(accepted)
	s.mu.Unlock()

	return accepted, nil
}

func (s *Store) validate(e Entry) error {
	switch e.Kind {
	case KindText:
	case KindImage:
		if e.Payload == "" {
			return fmt.Errorf("%w: empty image", ErrInvalidEntry)
		}
		if _, err := base64.StdEncoding.DecodeString(e.Payload); err != nil {
			return fmt.Errorf("%w: image payload is not base64: %v", ErrInvalidEntry, err)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEntry, e.Kind)
	}
	if len(e.Payload) > s.maxPayload {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(e.Payload), s.maxPayload)
	}
	return nil
}

// Subscribe returns a channel that receives every accepted entry and a
// function that cancels the subscription. Delivery never blocks the writer:
// a subscriber that has not drained its previous notification only sees the
// newest one.
func (s *Store) Subscribe() (<-chan Entry, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ch := make(chan Entry, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

func (s *Store) publish(e Entry) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
			// Replace the undelivered notification with the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- e:
			default:
			}
		}
	}
}

func (s *Store) isClosed() bool {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return s.closed
}

// Close rejects further writes and closes all subscriber channels. The last
// entry stays readable.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
