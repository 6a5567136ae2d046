package cache

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is the cancellation cause of a fetch replaced by a newer one
// for the same slot.
var ErrSuperseded = errors.New("superseded by a newer request")

// Slots tracks the latest fetch per (client, view). Starting a fetch cancels
// the previous one in the same slot, so a stale response never renders after
// the selection changed.
type Slots struct {
	mu     sync.Mutex
	seq    uint64
	active map[slotKey]slotEntry
}

type slotKey struct {
	client, view string
}

type slotEntry struct {
	id     uint64
	cancel context.CancelCauseFunc
}

func NewSlots() *Slots {
	return &Slots{active: make(map[slotKey]slotEntry)}
}

// Start registers a fetch and returns its context and a release function.
// The release function must be called when the fetch is done.
func (s *Slots) Start(ctx context.Context, client, view string) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	if client == "" {
		return ctx, func() { cancel(nil) }
	}
	k := slotKey{client: client, view: view}

	s.mu.Lock()
	s.seq++
	id := s.seq
	if prev, ok := s.active[k]; ok {
		prev.cancel(ErrSuperseded)
	}
	s.active[k] = slotEntry{id: id, cancel: cancel}
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		if cur, ok := s.active[k]; ok && cur.id == id {
			delete(s.active, k)
		}
		s.mu.Unlock()
		cancel(nil)
	}
}

// Superseded reports whether ctx was cancelled by a newer fetch.
func Superseded(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrSuperseded)
}

// Len returns the number of slots with a fetch in progress.
func (s *Slots) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
