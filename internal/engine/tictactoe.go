package engine

type Mark string

const (
	MarkEmpty Mark = ""
	MarkX     Mark = "X"
	MarkO     Mark = "O"
)

// MarkFor returns the symbol a seat plays with. seat1 is always X.
func MarkFor(seat Seat) Mark {
	switch seat {
	case Seat1:
		return MarkX
	case Seat2:
		return MarkO
	default:
		return MarkEmpty
	}
}

var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

type TicTacToeState struct {
	Board [9]Mark `json:"board"`
}

func newTicTacToe() *TicTacToeState { return &TicTacToeState{} }

func (*TicTacToeState) Variant() Variant { return VariantTicTacToe }

func (s *TicTacToeState) clone() VariantState {
	c := *s
	return &c
}

func (s *TicTacToeState) canAct(r *Room, seat Seat) bool {
	return r.Turn == seat
}

// Winner returns the mark completing any line, or MarkEmpty.
func (s *TicTacToeState) Winner() Mark {
	for _, line := range winLines {
		a := s.Board[line[0]]
		if a != MarkEmpty && a == s.Board[line[1]] && a == s.Board[line[2]] {
			return a
		}
	}
	return MarkEmpty
}

func (s *TicTacToeState) Filled() bool {
	for _, m := range s.Board {
		if m == MarkEmpty {
			return false
		}
	}
	return true
}

func applyTicTacToe(r *Room, s *TicTacToeState, seat Seat, cmd Command) ([]Event, error) {
	if cmd.Type != CmdPlaceMark {
		return nil, ErrWrongVariant
	}
	if err := requireTurn(r, seat); err != nil {
		return nil, err
	}
	if cmd.Cell < 0 || cmd.Cell >= len(s.Board) {
		return nil, ErrIllegalMove
	}
	if s.Board[cmd.Cell] != MarkEmpty {
		return nil, ErrCellOccupied
	}

	s.Board[cmd.Cell] = MarkFor(seat)
	events := []Event{{Type: EvtMarkPlaced, Seat: seat}}

	switch {
	case s.Winner() != MarkEmpty:
		events = append(events, r.conclude(seat, string(MarkFor(seat))+" wins"))
	case s.Filled():
		events = append(events, r.conclude(SeatNone, "draw"))
	default:
		events = append(events, r.passTurn())
	}
	return events, nil
}
