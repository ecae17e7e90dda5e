package engine

import (
	"errors"
)

var ErrWrongTurn = errors.New("invalid turn")
var ErrNotPlaying = errors.New("room is not accepting moves")
var ErrNotSeated = errors.New("caller holds no seat")
var ErrCellOccupied = errors.New("cell occupied")
var ErrIllegalMove = errors.New("illegal move")
var ErrSlotFilled = errors.New("seat already acted this round")
var ErrWrongVariant = errors.New("command does not belong to this game")
var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrGameCompleted = errors.New("game already completed")

type Variant string

const (
	VariantTicTacToe         Variant = "tic-tac-toe"
	VariantRockPaperScissors Variant = "rock-paper-scissors"
	VariantMemoryMatch       Variant = "memory-match"
	VariantHangman           Variant = "hangman"
	VariantQuiz              Variant = "quiz"
)

// Variants lists every playable game in menu order.
var Variants = []Variant{
	VariantTicTacToe,
	VariantRockPaperScissors,
	VariantMemoryMatch,
	VariantHangman,
	VariantQuiz,
}

func ParseVariant(s string) (Variant, bool) {
	for _, v := range Variants {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}

type Seat string

const (
	SeatNone Seat = ""
	Seat1    Seat = "seat1"
	Seat2    Seat = "seat2"
)

// Other returns the opposing seat.
func (s Seat) Other() Seat {
	switch s {
	case Seat1:
		return Seat2
	case Seat2:
		return Seat1
	default:
		return SeatNone
	}
}

func (s Seat) Valid() bool { return s == Seat1 || s == Seat2 }

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
	StatusResult  Status = "result"
)

type CommandType string

const (
	CmdPlaceMark       CommandType = "PlaceMark"
	CmdChoose          CommandType = "Choose"
	CmdResolveRound    CommandType = "ResolveRound"
	CmdNextRound       CommandType = "NextRound"
	CmdEndMatch        CommandType = "EndMatch"
	CmdFlipCard        CommandType = "FlipCard"
	CmdResolvePair     CommandType = "ResolvePair"
	CmdGuessLetter     CommandType = "GuessLetter"
	CmdAnswer          CommandType = "Answer"
	CmdAdvanceQuestion CommandType = "AdvanceQuestion"
)

/*
	PlaceMark       -> MarkPlaced -> TurnAdvanced | GameCompleted
	Choose          -> ChoiceMade
	ResolveRound    -> RoundResolved (rps: status=result; quiz: answers revealed)
	NextRound       -> RoundStarted (rps only, cumulative scores kept)
	EndMatch        -> GameCompleted (rps only)
	FlipCard        -> CardFlipped [-> PairRevealed on the second card]
	ResolvePair     -> PairMatched | PairMissed -> TurnAdvanced | GameCompleted
	GuessLetter     -> LetterGuessed -> TurnAdvanced | GameCompleted
	Answer          -> AnswerRecorded
	AdvanceQuestion -> QuestionAdvanced | GameCompleted
*/

type Command struct {
	Type   CommandType
	Cell   int
	Choice Choice
	Card   int
	Letter string
	Option string
}

type EventType string

const (
	EvtMarkPlaced       EventType = "MarkPlaced"
	EvtChoiceMade       EventType = "ChoiceMade"
	EvtRoundResolved    EventType = "RoundResolved"
	EvtRoundStarted     EventType = "RoundStarted"
	EvtCardFlipped      EventType = "CardFlipped"
	EvtPairRevealed     EventType = "PairRevealed"
	EvtPairMatched      EventType = "PairMatched"
	EvtPairMissed       EventType = "PairMissed"
	EvtLetterGuessed    EventType = "LetterGuessed"
	EvtAnswerRecorded   EventType = "AnswerRecorded"
	EvtQuestionAdvanced EventType = "QuestionAdvanced"
	EvtTurnAdvanced     EventType = "TurnAdvanced"
	EvtGameCompleted    EventType = "GameCompleted"
)

type Event struct {
	Type EventType
	Seat Seat
}

// Apply validates cmd against r on behalf of seat and returns the events
// it produced together with the successor room. r is never mutated.
func Apply(r Room, seat Seat, cmd Command) ([]Event, Room, error) {
	if !seat.Valid() || r.Player(seat) == nil {
		return nil, r, ErrNotSeated
	}
	if r.Outcome != nil {
		return nil, r, ErrGameCompleted
	}

	next := r.Clone()
	var (
		events []Event
		err    error
	)

	switch st := next.State.(type) {
	case *TicTacToeState:
		events, err = applyTicTacToe(&next, st, seat, cmd)
	case *RPSState:
		events, err = applyRPS(&next, st, seat, cmd)
	case *MemoryState:
		events, err = applyMemory(&next, st, seat, cmd)
	case *HangmanState:
		events, err = applyHangman(&next, st, seat, cmd)
	case *QuizState:
		events, err = applyQuiz(&next, st, seat, cmd)
	default:
		err = ErrUnsupportedCommand
	}
	if err != nil {
		return nil, r, err
	}
	return events, next, nil
}

// requireTurn is the gate shared by the strictly turn-based variants.
func requireTurn(r *Room, seat Seat) error {
	if r.Status != StatusPlaying {
		return ErrNotPlaying
	}
	if r.Turn != seat {
		return ErrWrongTurn
	}
	return nil
}

func (r *Room) conclude(winner Seat, summary string) Event {
	r.Status = StatusResult
	r.Turn = SeatNone
	r.Outcome = &Outcome{Winner: winner, Draw: winner == SeatNone, Summary: summary}
	return Event{Type: EvtGameCompleted, Seat: winner}
}

func (r *Room) passTurn() Event {
	r.Turn = r.Turn.Other()
	return Event{Type: EvtTurnAdvanced, Seat: r.Turn}
}

// higherCounter returns the seat with the larger per-game counter, or
// SeatNone on a tie.
func (r *Room) higherCounter() Seat {
	a, b := r.Counter(Seat1), r.Counter(Seat2)
	switch {
	case a > b:
		return Seat1
	case b > a:
		return Seat2
	default:
		return SeatNone
	}
}
