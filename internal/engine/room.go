package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
)

var ErrInvalidRoom = errors.New("invalid room")

type Player struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"displayName"`
	// Counter is the per-game tally: score for rock-paper-scissors, memory
	// match and quiz, wrong guesses for hangman. Tic-tac-toe leaves it at 0.
	Counter int `json:"counter"`
}

type Outcome struct {
	Winner  Seat   `json:"winner,omitempty"`
	Draw    bool   `json:"draw"`
	Summary string `json:"summary,omitempty"`
}

// VariantState is the per-game payload of a Room. Its concrete type is
// determined by Room.Variant.
type VariantState interface {
	Variant() Variant
	clone() VariantState
	canAct(r *Room, seat Seat) bool
}

type Room struct {
	ID      string       `json:"roomId"`
	Variant Variant      `json:"variant"`
	Seat1   *Player      `json:"seat1"`
	Seat2   *Player      `json:"seat2"`
	Status  Status       `json:"status"`
	Turn    Seat         `json:"turn"`
	State   VariantState `json:"state"`
	Outcome *Outcome     `json:"outcome"`
}

func (r *Room) UnmarshalJSON(data []byte) error {
	type plain Room
	var aux struct {
		plain
		State json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	state, err := newBlankState(aux.Variant)
	if err != nil {
		return err
	}
	if len(aux.State) > 0 && string(aux.State) != "null" {
		if err := json.Unmarshal(aux.State, state); err != nil {
			return fmt.Errorf("decode %s state: %w", aux.Variant, err)
		}
	}

	*r = Room(aux.plain)
	r.State = state
	return nil
}

func newBlankState(v Variant) (VariantState, error) {
	switch v {
	case VariantTicTacToe:
		return &TicTacToeState{}, nil
	case VariantRockPaperScissors:
		return &RPSState{}, nil
	case VariantMemoryMatch:
		return &MemoryState{}, nil
	case VariantHangman:
		return &HangmanState{}, nil
	case VariantQuiz:
		return &QuizState{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown variant %q", ErrInvalidRoom, v)
	}
}

// Clone returns a deep copy of r.
func (r Room) Clone() Room {
	c := r
	if r.Seat1 != nil {
		p := *r.Seat1
		c.Seat1 = &p
	}
	if r.Seat2 != nil {
		p := *r.Seat2
		c.Seat2 = &p
	}
	if r.Outcome != nil {
		o := *r.Outcome
		c.Outcome = &o
	}
	if r.State != nil {
		c.State = r.State.clone()
	}
	return c
}

func (r *Room) Player(seat Seat) *Player {
	switch seat {
	case Seat1:
		return r.Seat1
	case Seat2:
		return r.Seat2
	default:
		return nil
	}
}

func (r *Room) SetPlayer(seat Seat, p *Player) {
	switch seat {
	case Seat1:
		r.Seat1 = p
	case Seat2:
		r.Seat2 = p
	}
}

// SeatOf reports which seat identity occupies, if any.
func (r *Room) SeatOf(identity string) Seat {
	if r.Seat1 != nil && r.Seat1.Identity == identity {
		return Seat1
	}
	if r.Seat2 != nil && r.Seat2.Identity == identity {
		return Seat2
	}
	return SeatNone
}

func (r *Room) Full() bool { return r.Seat1 != nil && r.Seat2 != nil }

func (r *Room) Counter(seat Seat) int {
	if p := r.Player(seat); p != nil {
		return p.Counter
	}
	return 0
}

func (r *Room) bump(seat Seat) {
	if p := r.Player(seat); p != nil {
		p.Counter++
	}
}

// Concluded reports whether the room holds a final outcome awaiting reset.
func (r *Room) Concluded() bool { return r.Outcome != nil }

// CanAct reports whether seat's controls should be enabled right now.
func CanAct(r Room, seat Seat) bool {
	if !seat.Valid() || r.Player(seat) == nil || !r.Full() {
		return false
	}
	if r.Status != StatusPlaying || r.State == nil {
		return false
	}
	return r.State.canAct(&r, seat)
}

// NewRoom builds the initial document for a room created by host.
func NewRoom(id string, v Variant, host Player, rng *rand.Rand) (Room, error) {
	state, err := initialState(v, rng)
	if err != nil {
		return Room{}, err
	}
	host.Counter = 0
	return Room{
		ID:      id,
		Variant: v,
		Seat1:   &host,
		Status:  StatusWaiting,
		Turn:    startingTurn(v),
		State:   state,
	}, nil
}

// Reset reinitialises the game payload while keeping both seat identities.
func Reset(r Room, rng *rand.Rand) (Room, error) {
	state, err := initialState(r.Variant, rng)
	if err != nil {
		return r, err
	}
	next := r.Clone()
	for _, p := range []*Player{next.Seat1, next.Seat2} {
		if p != nil {
			p.Counter = 0
		}
	}
	next.State = state
	next.Outcome = nil
	next.Turn = startingTurn(r.Variant)
	next.Status = StatusWaiting
	if next.Full() {
		next.Status = StatusPlaying
	}
	return next, nil
}

func initialState(v Variant, rng *rand.Rand) (VariantState, error) {
	switch v {
	case VariantTicTacToe:
		return newTicTacToe(), nil
	case VariantRockPaperScissors:
		return newRPS(), nil
	case VariantMemoryMatch:
		return newMemory(rng), nil
	case VariantHangman:
		return newHangman(rng), nil
	case VariantQuiz:
		return newQuiz(rng), nil
	default:
		return nil, fmt.Errorf("%w: unknown variant %q", ErrInvalidRoom, v)
	}
}

func startingTurn(v Variant) Seat {
	switch v {
	case VariantTicTacToe, VariantMemoryMatch, VariantHangman:
		return Seat1
	default:
		// simultaneous-choice games have no turn holder
		return SeatNone
	}
}

// Validate checks the structural invariants of a room document.
func Validate(r Room) error {
	if r.State == nil || r.State.Variant() != r.Variant {
		return fmt.Errorf("%w: state does not match variant %q", ErrInvalidRoom, r.Variant)
	}
	switch r.Status {
	case StatusWaiting:
		if r.Full() {
			return fmt.Errorf("%w: waiting with both seats filled", ErrInvalidRoom)
		}
	case StatusPlaying:
		if !r.Full() {
			return fmt.Errorf("%w: playing with a vacant seat", ErrInvalidRoom)
		}
		if r.Turn != SeatNone && r.Player(r.Turn) == nil {
			return fmt.Errorf("%w: turn references vacant %s", ErrInvalidRoom, r.Turn)
		}
	case StatusResult:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRoom, r.Status)
	}
	if r.Outcome != nil && r.Status != StatusResult {
		return fmt.Errorf("%w: outcome recorded outside result", ErrInvalidRoom)
	}
	return nil
}
