package categorize

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	err   error
	calls []int64
	codes []string
}

func (f *fakeStore) SetOperationCategory(ctx context.Context, id int64, code string) error {
	f.calls = append(f.calls, id)
	f.codes = append(f.codes, code)
	return f.err
}

type fakeInvalidator struct {
	names [][]string
}

func (f *fakeInvalidator) Invalidate(names ...string) {
	f.names = append(f.names, names)
}

type fakePublisher struct {
	err    error
	events []int64
	at     []time.Time
}

func (f *fakePublisher) PublishOperationCategorized(ctx context.Context, id int64, code string, at time.Time) error {
	f.events = append(f.events, id)
	f.at = append(f.at, at)
	return f.err
}

type recorder struct {
	got []Notification
}

func (r *recorder) Notify(ctx context.Context, n Notification) {
	r.got = append(r.got, n)
}

func TestCategorizeSuccess(t *testing.T) {
	st := &fakeStore{}
	inv := &fakeInvalidator{}
	pub := &fakePublisher{}
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := New(st, inv, []string{"uncategorized-operations", "operations"},
		WithPublisher(pub), WithClock(func() time.Time { return fixed }))
	rec := &recorder{}

	if err := svc.Categorize(context.Background(), 42, " 400100 ", rec); err != nil {
		t.Fatalf("categorize: %v", err)
	}
	if len(st.calls) != 1 || st.calls[0] != 42 || st.codes[0] != "400100" {
		t.Fatalf("store calls = %v %v", st.calls, st.codes)
	}
	if len(inv.names) != 1 || inv.names[0][0] != "uncategorized-operations" {
		t.Fatalf("invalidations = %v", inv.names)
	}
	if len(pub.events) != 1 || !pub.at[0].Equal(fixed) {
		t.Fatalf("events = %v %v", pub.events, pub.at)
	}
	if len(rec.got) != 1 || rec.got[0].Level != LevelSuccess {
		t.Fatalf("notifications = %+v", rec.got)
	}
}

func TestCategorizeFailureNotifiesOnce(t *testing.T) {
	boom := errors.New("permission denied")
	st := &fakeStore{err: boom}
	inv := &fakeInvalidator{}
	pub := &fakePublisher{}
	svc := New(st, inv, []string{"uncategorized-operations"}, WithPublisher(pub))
	rec := &recorder{}

	err := svc.Categorize(context.Background(), 7, "400100", rec)
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if len(st.calls) != 1 {
		t.Fatalf("exactly one update expected, got %d", len(st.calls))
	}
	if len(rec.got) != 1 || rec.got[0].Level != LevelError || rec.got[0].Message != FailureMessage {
		t.Fatalf("notifications = %+v", rec.got)
	}
	if len(inv.names) != 0 {
		t.Fatalf("failed categorization must not invalidate, got %v", inv.names)
	}
	if len(pub.events) != 0 {
		t.Fatalf("failed categorization must not publish")
	}
}

func TestCategorizeValidation(t *testing.T) {
	cases := []struct {
		id   int64
		code string
		want error
	}{
		{0, "400100", ErrInvalidOperation},
		{-3, "400100", ErrInvalidOperation},
		{5, "", ErrInvalidCategory},
		{5, "   ", ErrInvalidCategory},
	}
	for i, tc := range cases {
		st := &fakeStore{}
		rec := &recorder{}
		svc := New(st, nil, nil)
		err := svc.Categorize(context.Background(), tc.id, tc.code, rec)
		if !errors.Is(err, tc.want) {
			t.Fatalf("case %d: got %v want %v", i, err, tc.want)
		}
		if len(st.calls) != 0 {
			t.Fatalf("case %d: invalid input must not reach the store", i)
		}
		if len(rec.got) != 1 || rec.got[0].Level != LevelError {
			t.Fatalf("case %d: notifications = %+v", i, rec.got)
		}
	}
}

func TestPublishFailureDoesNotFailCategorization(t *testing.T) {
	st := &fakeStore{}
	pub := &fakePublisher{err: errors.New("broker unavailable")}
	svc := New(st, &fakeInvalidator{}, nil, WithPublisher(pub))
	rec := &recorder{}

	if err := svc.Categorize(context.Background(), 1, "400100", rec); err != nil {
		t.Fatalf("publish errors must be swallowed: %v", err)
	}
	if len(rec.got) != 1 || rec.got[0].Level != LevelSuccess {
		t.Fatalf("notifications = %+v", rec.got)
	}
}

func TestNilNotifier(t *testing.T) {
	svc := New(&fakeStore{}, nil, nil)
	if err := svc.Categorize(context.Background(), 1, "x", nil); err != nil {
		t.Fatalf("categorize: %v", err)
	}
}
