package engine

import "fmt"

type Choice string

const (
	ChoiceNone     Choice = ""
	ChoiceRock     Choice = "rock"
	ChoicePaper    Choice = "paper"
	ChoiceScissors Choice = "scissors"
)

var beats = map[Choice]Choice{
	ChoiceRock:     ChoiceScissors,
	ChoiceScissors: ChoicePaper,
	ChoicePaper:    ChoiceRock,
}

func ParseChoice(s string) (Choice, bool) {
	c := Choice(s)
	_, ok := beats[c]
	return c, ok
}

// RoundWinner applies rock > scissors > paper > rock. SeatNone means a tie.
func RoundWinner(c1, c2 Choice) Seat {
	switch {
	case c1 == c2:
		return SeatNone
	case beats[c1] == c2:
		return Seat1
	default:
		return Seat2
	}
}

type RPSState struct {
	Seat1       Choice `json:"seat1"`
	Seat2       Choice `json:"seat2"`
	Round       int    `json:"round"`
	RoundWinner Seat   `json:"roundWinner"`
	RoundResult string `json:"roundResult"`
}

func newRPS() *RPSState { return &RPSState{Round: 1} }

func (*RPSState) Variant() Variant { return VariantRockPaperScissors }

func (s *RPSState) clone() VariantState {
	c := *s
	return &c
}

func (s *RPSState) canAct(_ *Room, seat Seat) bool {
	return s.ChoiceOf(seat) == ChoiceNone
}

func (s *RPSState) ChoiceOf(seat Seat) Choice {
	switch seat {
	case Seat1:
		return s.Seat1
	case Seat2:
		return s.Seat2
	default:
		return ChoiceNone
	}
}

func (s *RPSState) setChoice(seat Seat, c Choice) {
	switch seat {
	case Seat1:
		s.Seat1 = c
	case Seat2:
		s.Seat2 = c
	}
}

// BothChosen reports whether the round is ready to resolve.
func (s *RPSState) BothChosen() bool {
	return s.Seat1 != ChoiceNone && s.Seat2 != ChoiceNone
}

func applyRPS(r *Room, s *RPSState, seat Seat, cmd Command) ([]Event, error) {
	switch cmd.Type {
	case CmdChoose:
		if r.Status != StatusPlaying {
			return nil, ErrNotPlaying
		}
		if _, ok := beats[cmd.Choice]; !ok {
			return nil, ErrIllegalMove
		}
		if s.ChoiceOf(seat) != ChoiceNone {
			return nil, ErrSlotFilled
		}
		s.setChoice(seat, cmd.Choice)
		return []Event{{Type: EvtChoiceMade, Seat: seat}}, nil

	case CmdResolveRound:
		if r.Status != StatusPlaying {
			return nil, ErrNotPlaying
		}
		if !s.BothChosen() {
			return nil, ErrIllegalMove
		}
		w := RoundWinner(s.Seat1, s.Seat2)
		s.RoundWinner = w
		if w == SeatNone {
			s.RoundResult = fmt.Sprintf("both played %s: tie", s.Seat1)
		} else {
			r.bump(w)
			s.RoundResult = fmt.Sprintf("%s beats %s: %s wins the round",
				s.ChoiceOf(w), s.ChoiceOf(w.Other()), displayName(r, w))
		}
		r.Status = StatusResult
		return []Event{{Type: EvtRoundResolved, Seat: w}}, nil

	case CmdNextRound:
		if r.Status != StatusResult {
			return nil, ErrIllegalMove
		}
		if !r.Full() {
			return nil, ErrNotPlaying
		}
		s.Seat1, s.Seat2 = ChoiceNone, ChoiceNone
		s.RoundWinner = SeatNone
		s.RoundResult = ""
		s.Round++
		r.Status = StatusPlaying
		return []Event{{Type: EvtRoundStarted}}, nil

	case CmdEndMatch:
		if r.Status == StatusWaiting {
			return nil, ErrNotPlaying
		}
		summary := fmt.Sprintf("final score %d-%d", r.Counter(Seat1), r.Counter(Seat2))
		return []Event{r.conclude(r.higherCounter(), summary)}, nil

	default:
		return nil, ErrWrongVariant
	}
}

func displayName(r *Room, seat Seat) string {
	if p := r.Player(seat); p != nil && p.DisplayName != "" {
		return p.DisplayName
	}
	return string(seat)
}
