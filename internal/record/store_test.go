package record

import (
	"context"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	s, err := NewStore(fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("record.NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStartAndByRoom(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b, err := s.Start(ctx, "battle-gen4ou-1", "gen4ou", "rival")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if b.ID == "" || b.StartedAt.IsZero() {
		t.Fatalf("battle = %+v", b)
	}

	got, err := s.ByRoom(ctx, "battle-gen4ou-1")
	if err != nil {
		t.Fatalf("ByRoom: %v", err)
	}
	if got == nil || got.ID != b.ID || got.Opponent != "rival" {
		t.Fatalf("got = %+v, want id %s", got, b.ID)
	}

	none, err := s.ByRoom(ctx, "battle-gen4ou-999")
	if err != nil || none != nil {
		t.Fatalf("missing room = %+v, %v", none, err)
	}
}

func TestTurnCounting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Start(ctx, "room", "gen4ou", ""); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := s.Turn(ctx, "room"); err != nil {
			t.Fatalf("Turn: %v", err)
		}
	}
	b, err := s.ByRoom(ctx, "room")
	if err != nil {
		t.Fatal(err)
	}
	if b.Turns != 3 {
		t.Fatalf("turns = %d, want 3", b.Turns)
	}

	// Turns against an unknown room are a no-op, not an error.
	if err := s.Turn(ctx, "other"); err != nil {
		t.Fatalf("Turn on unknown room: %v", err)
	}
}

func TestFinishAndTally(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, outcome := range []Outcome{OutcomeWin, OutcomeWin, OutcomeLoss, OutcomeTie} {
		room := fmt.Sprintf("room-%d", i)
		if _, err := s.Start(ctx, room, "gen4ou", ""); err != nil {
			t.Fatal(err)
		}
		b, err := s.Finish(ctx, room, outcome)
		if err != nil {
			t.Fatalf("Finish: %v", err)
		}
		if b.Outcome != outcome || b.EndedAt.IsZero() {
			t.Fatalf("finished = %+v", b)
		}
	}

	wins, losses, ties, err := s.Tally(ctx, "gen4ou")
	if err != nil {
		t.Fatalf("Tally: %v", err)
	}
	if wins != 2 || losses != 1 || ties != 1 {
		t.Fatalf("tally = %d/%d/%d", wins, losses, ties)
	}

	// A format with no battles tallies zero.
	w, l, ti, err := s.Tally(ctx, "gen1ou")
	if err != nil || w != 0 || l != 0 || ti != 0 {
		t.Fatalf("empty tally = %d/%d/%d, %v", w, l, ti, err)
	}
}

func TestFinishUnknownRoom(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Finish(context.Background(), "nope", OutcomeWin); err == nil {
		t.Fatal("expected error for unknown room")
	}
}
