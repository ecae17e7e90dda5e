package engine

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// Automatic names the follow-up command a client must issue on its own,
// without user input, and which seat is responsible for it. Resolution of
// simultaneous rounds belongs to seat1 so that exactly one writer performs
// it; a revealed memory pair is settled by whoever revealed it.
func Automatic(r Room) (Seat, Command, bool) {
	if r.Status != StatusPlaying || r.Outcome != nil || !r.Full() {
		return SeatNone, Command{}, false
	}
	switch s := r.State.(type) {
	case *RPSState:
		if s.BothChosen() {
			return Seat1, Command{Type: CmdResolveRound}, true
		}
	case *QuizState:
		if s.Revealed {
			return Seat1, Command{Type: CmdAdvanceQuestion}, true
		}
		if s.BothAnswered() {
			return Seat1, Command{Type: CmdResolveRound}, true
		}
	case *MemoryState:
		if len(s.Revealed()) == 2 {
			return r.Turn, Command{Type: CmdResolvePair}, true
		}
	}
	return SeatNone, Command{}, false
}

const (
	PointsWin  = 10
	PointsDraw = 5
	PointsLoss = 2
)

// Points maps a concluded room to the ledger credit owed to seat. ok is
// false while the room has no outcome.
func Points(r Room, seat Seat) (int, bool) {
	if r.Outcome == nil || !seat.Valid() {
		return 0, false
	}
	switch r.Variant {
	case VariantTicTacToe:
		switch {
		case r.Outcome.Draw:
			return PointsDraw, true
		case r.Outcome.Winner == seat:
			return PointsWin, true
		default:
			return PointsLoss, true
		}
	case VariantHangman:
		if r.Outcome.Winner == seat {
			return PointsWin, true
		}
		return PointsLoss, true
	case VariantRockPaperScissors:
		return r.Counter(seat), true
	case VariantMemoryMatch, VariantQuiz:
		return r.Counter(seat) * 2, true
	default:
		return 0, false
	}
}
