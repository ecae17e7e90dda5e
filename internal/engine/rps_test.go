package engine

import (
	"errors"
	"testing"
)

func TestRoundWinner_PrecedenceTable(t *testing.T) {
	cases := []struct {
		c1, c2 Choice
		want   Seat
	}{
		{ChoiceRock, ChoiceRock, SeatNone},
		{ChoicePaper, ChoicePaper, SeatNone},
		{ChoiceScissors, ChoiceScissors, SeatNone},
		{ChoiceRock, ChoiceScissors, Seat1},
		{ChoiceScissors, ChoicePaper, Seat1},
		{ChoicePaper, ChoiceRock, Seat1},
		{ChoiceScissors, ChoiceRock, Seat2},
		{ChoicePaper, ChoiceScissors, Seat2},
		{ChoiceRock, ChoicePaper, Seat2},
	}
	for _, tc := range cases {
		t.Run(string(tc.c1)+"_vs_"+string(tc.c2), func(t *testing.T) {
			r := seatedRoom(t, VariantRockPaperScissors)
			_, r = mustApply(t, r, Seat1, Command{Type: CmdChoose, Choice: tc.c1})
			_, r = mustApply(t, r, Seat2, Command{Type: CmdChoose, Choice: tc.c2})
			_, r = mustApply(t, r, Seat1, Command{Type: CmdResolveRound})

			if got := r.State.(*RPSState).RoundWinner; got != tc.want {
				t.Fatalf("winner: got %q, want %q", got, tc.want)
			}
			total := r.Counter(Seat1) + r.Counter(Seat2)
			if tc.want == SeatNone && total != 0 {
				t.Fatalf("tie must not score, got total %d", total)
			}
			if tc.want != SeatNone && (total != 1 || r.Counter(tc.want) != 1) {
				t.Fatalf("winner must score exactly once, counters %d/%d", r.Counter(Seat1), r.Counter(Seat2))
			}
			if r.Status != StatusResult || r.Outcome != nil {
				t.Fatalf("round result should not conclude the match")
			}
		})
	}
}

func TestRPS_ChoiceSlotAcceptsOnce(t *testing.T) {
	r := seatedRoom(t, VariantRockPaperScissors)
	_, r = mustApply(t, r, Seat1, Command{Type: CmdChoose, Choice: ChoiceRock})

	if _, _, err := Apply(r, Seat1, Command{Type: CmdChoose, Choice: ChoicePaper}); !errors.Is(err, ErrSlotFilled) {
		t.Fatalf("want ErrSlotFilled, got %v", err)
	}
	if _, _, err := Apply(r, Seat2, Command{Type: CmdChoose, Choice: "lizard"}); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("want ErrIllegalMove, got %v", err)
	}
	if _, _, err := Apply(r, Seat1, Command{Type: CmdResolveRound}); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("resolve with one choice: want ErrIllegalMove, got %v", err)
	}
}

func TestRPS_NextRoundKeepsScoresAndEndMatchConcludes(t *testing.T) {
	r := seatedRoom(t, VariantRockPaperScissors)
	round := func(c1, c2 Choice) {
		_, r = mustApply(t, r, Seat1, Command{Type: CmdChoose, Choice: c1})
		_, r = mustApply(t, r, Seat2, Command{Type: CmdChoose, Choice: c2})
		_, r = mustApply(t, r, Seat1, Command{Type: CmdResolveRound})
	}

	round(ChoiceRock, ChoiceScissors)
	if _, _, err := Apply(r, Seat2, Command{Type: CmdChoose, Choice: ChoiceRock}); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("choose during round result: want ErrNotPlaying, got %v", err)
	}
	_, r = mustApply(t, r, Seat2, Command{Type: CmdNextRound})
	s := r.State.(*RPSState)
	if s.Seat1 != ChoiceNone || s.Seat2 != ChoiceNone || s.Round != 2 || r.Status != StatusPlaying {
		t.Fatalf("next round not cleared: %+v status=%s", s, r.Status)
	}
	if r.Counter(Seat1) != 1 {
		t.Fatalf("cumulative score lost")
	}

	round(ChoicePaper, ChoiceRock)
	events, r := mustApply(t, r, Seat2, Command{Type: CmdEndMatch})
	if !ContainsEvent(events, EvtGameCompleted) {
		t.Fatalf("expected EvtGameCompleted")
	}
	if r.Outcome == nil || r.Outcome.Winner != Seat1 {
		t.Fatalf("want seat1 to win the match, got %+v", r.Outcome)
	}
	if p, _ := Points(r, Seat1); p != 2 {
		t.Fatalf("seat1 points: got %d, want 2", p)
	}
	if _, _, err := Apply(r, Seat1, Command{Type: CmdNextRound}); !errors.Is(err, ErrGameCompleted) {
		t.Fatalf("next round after end: want ErrGameCompleted, got %v", err)
	}
}

func TestAutomatic_RPSResolvedBySeat1(t *testing.T) {
	r := seatedRoom(t, VariantRockPaperScissors)
	if _, _, ok := Automatic(r); ok {
		t.Fatalf("nothing to resolve yet")
	}
	_, r = mustApply(t, r, Seat2, Command{Type: CmdChoose, Choice: ChoiceRock})
	_, r = mustApply(t, r, Seat1, Command{Type: CmdChoose, Choice: ChoiceRock})

	seat, cmd, ok := Automatic(r)
	if !ok || seat != Seat1 || cmd.Type != CmdResolveRound {
		t.Fatalf("got %s %+v %v", seat, cmd, ok)
	}
}
