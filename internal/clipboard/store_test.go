package clipboard

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestStore_EmptyRead(t *testing.T) {
	s := NewStore()

	got := s.Read()
	if !got.IsEmpty() {
		t.Errorf("expected empty entry, got %+v", got)
	}
	if s.Version() != 0 {
		t.Errorf("expected version 0, got %d", s.Version())
	}
}

func TestStore_TextRoundTrip(t *testing.T) {
	s := NewStore()

	e := NewText("héllo, wörld\n")
	e.Version = 1
	e.Origin = "laptop"

	accepted, err := s.Write(e)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if accepted.ID == "" || accepted.Digest == "" || accepted.CreatedAt.IsZero() {
		t.Errorf("expected id, digest and timestamp to be filled, got %+v", accepted)
	}

	got := s.Read()
	if got.Kind != KindText {
		t.Errorf("expected kind text, got %s", got.Kind)
	}
	if got.Payload != "héllo, wörld\n" {
		t.Errorf("expected identical payload, got %q", got.Payload)
	}
	if got.Origin != "laptop" {
		t.Errorf("expected origin laptop, got %q", got.Origin)
	}
	if got != accepted {
		t.Errorf("expected Read to return the accepted entry")
	}
}

func TestStore_ImageRoundTrip(t *testing.T) {
	s := NewStore()

	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 0xff, 0x00}
	e := NewImage(png)
	e.Version = 1

	if _, err := s.Write(e); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got := s.Read()
	if got.Kind != KindImage {
		t.Fatalf("expected kind image, got %s", got.Kind)
	}
	decoded, err := got.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if !bytes.Equal(decoded, png) {
		t.Errorf("expected decoded image to match original bytes")
	}
}

func TestStore_MonotoneWrites(t *testing.T) {
	s := NewStore()

	for v := uint64(1); v <= 5; v++ {
		e := NewText("v")
		e.Version = v
		if _, err := s.Write(e); err != nil {
			t.Fatalf("Write(v=%d) error = %v", v, err)
		}
	}
	before := s.Read()

	for _, v := range []uint64{0, 1, 4, 5} {
		e := NewText("late")
		e.Version = v
		_, err := s.Write(e)
		if !errors.Is(err, ErrStaleWrite) {
			t.Errorf("version %d: expected ErrStaleWrite, got %v", v, err)
		}
		if s.Read() != before {
			t.Errorf("version %d: stale write changed the current entry", v)
		}
	}

	e := NewText("newer")
	e.Version = 9
	if _, err := s.Write(e); err != nil {
		t.Fatalf("Write(v=9) error = %v", err)
	}
	if s.Version() != 9 {
		t.Errorf("expected version to jump to 9, got %d", s.Version())
	}
}

func TestStore_Validation(t *testing.T) {
	s := NewStore(WithMaxPayloadBytes(8))

	tests := []struct {
		name  string
		entry Entry
		want  error
	}{
		{"unknown kind", Entry{Kind: "video", Payload: "x", Version: 1}, ErrInvalidEntry},
		{"bad base64", Entry{Kind: KindImage, Payload: "not base64!", Version: 1}, ErrInvalidEntry},
		{"empty image", Entry{Kind: KindImage, Version: 1}, ErrInvalidEntry},
		{"too large", Entry{Kind: KindText, Payload: "123456789", Version: 1}, ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Write(tt.entry)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if !s.Read().IsEmpty() {
		t.Error("expected rejected writes to leave the store empty")
	}
}

func TestStore_ConcurrentWritersSameVersion(t *testing.T) {
	s := NewStore()

	const writers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := NewText("race")
			e.Version = 1
			if _, err := s.Write(e); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if accepted != 1 {
		t.Errorf("expected exactly one writer to win version 1, got %d", accepted)
	}
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore()
	ch, cancel := s.Subscribe()
	defer cancel()

	e := NewText("first")
	e.Version = 1
	s.Write(e)

	select {
	case got := <-ch:
		if got.Version != 1 {
			t.Errorf("expected version 1, got %d", got.Version)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for notification")
	}

	// A slow subscriber only sees the newest entry.
	for v := uint64(2); v <= 4; v++ {
		e := NewText("burst")
		e.Version = v
		s.Write(e)
	}
	select {
	case got := <-ch:
		if got.Version != 4 {
			t.Errorf("expected latest version 4, got %d", got.Version)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for notification")
	}
}

func TestStore_SubscribeSeesNewestAfterConcurrentWrites(t *testing.T) {
	for round := 0; round < 200; round++ {
		s := NewStore()
		ch, cancel := s.Subscribe()

		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 4; i++ {
					e := NewText("race")
					e.Version = s.Version() + 1
					s.Write(e)
				}
			}()
		}
		wg.Wait()

		select {
		case got := <-ch:
			if got.Version != s.Version() {
				t.Fatalf("round %d: pending notice is v%d, store is at v%d", round, got.Version, s.Version())
			}
		default:
			t.Fatalf("round %d: no pending notice", round)
		}
		cancel()
	}
}

func TestStore_Close(t *testing.T) {
	s := NewStore()
	ch, _ := s.Subscribe()

	e := NewText("kept")
	e.Version = 1
	s.Write(e)
	<-ch

	s.Close()

	if _, ok := <-ch; ok {
		t.Error("expected subscriber channel to be closed")
	}
	e.Version = 2
	if _, err := s.Write(e); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if s.Read().Payload != "kept" {
		t.Error("expected last entry to stay readable after close")
	}

	// Close is idempotent.
	s.Close()
}
