package engine

import (
	"fmt"
	"math/rand/v2"
)

// DeckSize is the number of cards on a memory-match table.
const DeckSize = 16

type Card struct {
	Symbol  string `json:"symbol"`
	FaceUp  bool   `json:"faceUp"`
	Matched bool   `json:"matched"`
}

type MemoryState struct {
	Cards []Card `json:"cards"`
}

func newMemory(rng *rand.Rand) *MemoryState {
	symbols := memorySymbols[:DeckSize/2]
	cards := make([]Card, 0, DeckSize)
	for _, sym := range symbols {
		cards = append(cards, Card{Symbol: sym}, Card{Symbol: sym})
	}
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return &MemoryState{Cards: cards}
}

func (*MemoryState) Variant() Variant { return VariantMemoryMatch }

func (s *MemoryState) clone() VariantState {
	return &MemoryState{Cards: append([]Card(nil), s.Cards...)}
}

func (s *MemoryState) canAct(r *Room, seat Seat) bool {
	return r.Turn == seat && len(s.Revealed()) < 2
}

// Revealed returns the indices of face-up cards that are not yet matched.
func (s *MemoryState) Revealed() []int {
	var idx []int
	for i, c := range s.Cards {
		if c.FaceUp && !c.Matched {
			idx = append(idx, i)
		}
	}
	return idx
}

func (s *MemoryState) MatchedPairs() int {
	n := 0
	for _, c := range s.Cards {
		if c.Matched {
			n++
		}
	}
	return n / 2
}

func (s *MemoryState) allMatched() bool { return s.MatchedPairs()*2 == len(s.Cards) }

func applyMemory(r *Room, s *MemoryState, seat Seat, cmd Command) ([]Event, error) {
	switch cmd.Type {
	case CmdFlipCard:
		if err := requireTurn(r, seat); err != nil {
			return nil, err
		}
		if cmd.Card < 0 || cmd.Card >= len(s.Cards) {
			return nil, ErrIllegalMove
		}
		if len(s.Revealed()) >= 2 {
			return nil, ErrIllegalMove
		}
		c := &s.Cards[cmd.Card]
		if c.FaceUp || c.Matched {
			return nil, ErrCellOccupied
		}
		c.FaceUp = true
		events := []Event{{Type: EvtCardFlipped, Seat: seat}}
		if len(s.Revealed()) == 2 {
			events = append(events, Event{Type: EvtPairRevealed, Seat: seat})
		}
		return events, nil

	case CmdResolvePair:
		if err := requireTurn(r, seat); err != nil {
			return nil, err
		}
		up := s.Revealed()
		if len(up) != 2 {
			return nil, ErrIllegalMove
		}
		a, b := &s.Cards[up[0]], &s.Cards[up[1]]
		if a.Symbol != b.Symbol {
			a.FaceUp, b.FaceUp = false, false
			return []Event{{Type: EvtPairMissed, Seat: seat}, r.passTurn()}, nil
		}

		a.Matched, b.Matched = true, true
		r.bump(seat)
		events := []Event{{Type: EvtPairMatched, Seat: seat}}
		if s.allMatched() {
			summary := fmt.Sprintf("pairs %d-%d", r.Counter(Seat1), r.Counter(Seat2))
			events = append(events, r.conclude(r.higherCounter(), summary))
		}
		return events, nil

	default:
		return nil, ErrWrongVariant
	}
}
