package cache

import (
	"context"
	"testing"
)

func TestSlotsSupersede(t *testing.T) {
	s := NewSlots()

	first, releaseFirst := s.Start(context.Background(), "client-1", "transactions")
	second, releaseSecond := s.Start(context.Background(), "client-1", "transactions")
	defer releaseSecond()

	if first.Err() == nil || !Superseded(first) {
		t.Fatalf("first fetch should be superseded, err = %v", first.Err())
	}
	if second.Err() != nil {
		t.Fatalf("second fetch should be live")
	}
	releaseFirst()
	if s.Len() != 1 {
		t.Fatalf("releasing a superseded fetch must keep the newer slot, len = %d", s.Len())
	}
}

func TestSlotsIndependent(t *testing.T) {
	s := NewSlots()
	a, releaseA := s.Start(context.Background(), "client-1", "transactions")
	b, releaseB := s.Start(context.Background(), "client-1", "analytics")
	c, releaseC := s.Start(context.Background(), "client-2", "transactions")
	defer releaseA()
	defer releaseB()
	defer releaseC()

	for i, ctx := range []context.Context{a, b, c} {
		if ctx.Err() != nil {
			t.Fatalf("slot %d cancelled", i)
		}
	}
}

func TestSlotsRelease(t *testing.T) {
	s := NewSlots()
	ctx, release := s.Start(context.Background(), "client-1", "overview")
	release()
	if s.Len() != 0 {
		t.Fatalf("len = %d", s.Len())
	}
	if ctx.Err() == nil || Superseded(ctx) {
		t.Fatalf("released context should be cancelled without supersession")
	}
}

func TestSlotsAnonymous(t *testing.T) {
	s := NewSlots()
	a, ra := s.Start(context.Background(), "", "overview")
	b, rb := s.Start(context.Background(), "", "overview")
	defer ra()
	defer rb()
	if a.Err() != nil || b.Err() != nil {
		t.Fatalf("anonymous fetches never supersede each other")
	}
}
