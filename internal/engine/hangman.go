package engine

import (
	"math/rand/v2"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxWrongGuesses ends a hangman game for the seat that reaches it.
const MaxWrongGuesses = 6

type HangmanState struct {
	Word    string   `json:"word"`
	Guessed []string `json:"guessedLetters"`
}

func newHangman(rng *rand.Rand) *HangmanState {
	return &HangmanState{Word: hangmanWords[rng.IntN(len(hangmanWords))], Guessed: []string{}}
}

func (*HangmanState) Variant() Variant { return VariantHangman }

func (s *HangmanState) clone() VariantState {
	return &HangmanState{Word: s.Word, Guessed: append([]string{}, s.Guessed...)}
}

func (s *HangmanState) canAct(r *Room, seat Seat) bool {
	return r.Turn == seat
}

// NormalizeLetter lower-cases a single-letter guess. ok is false for
// anything that is not exactly one letter.
func NormalizeLetter(in string) (string, bool) {
	in = strings.ToLower(strings.TrimSpace(in))
	if utf8.RuneCountInString(in) != 1 {
		return "", false
	}
	r, _ := utf8.DecodeRuneInString(in)
	if !unicode.IsLetter(r) {
		return "", false
	}
	return in, true
}

func (s *HangmanState) HasGuessed(letter string) bool {
	return slices.Contains(s.Guessed, letter)
}

// Solved reports whether every letter of the word has been guessed.
func (s *HangmanState) Solved() bool {
	for _, r := range s.Word {
		if !s.HasGuessed(string(r)) {
			return false
		}
	}
	return true
}

// Masked renders the word with unguessed letters hidden.
func (s *HangmanState) Masked() string {
	var b strings.Builder
	for i, r := range s.Word {
		if i > 0 {
			b.WriteByte(' ')
		}
		if s.HasGuessed(string(r)) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func applyHangman(r *Room, s *HangmanState, seat Seat, cmd Command) ([]Event, error) {
	if cmd.Type != CmdGuessLetter {
		return nil, ErrWrongVariant
	}
	if err := requireTurn(r, seat); err != nil {
		return nil, err
	}
	letter, ok := NormalizeLetter(cmd.Letter)
	if !ok {
		return nil, ErrIllegalMove
	}
	if s.HasGuessed(letter) {
		return nil, ErrCellOccupied
	}

	s.Guessed = append(s.Guessed, letter)
	events := []Event{{Type: EvtLetterGuessed, Seat: seat}}

	if strings.Contains(s.Word, letter) {
		if s.Solved() {
			events = append(events, r.conclude(seat, "the word was "+s.Word))
		}
		return events, nil
	}

	r.bump(seat)
	if r.Counter(seat) >= MaxWrongGuesses {
		return append(events, r.conclude(seat.Other(), "the word was "+s.Word)), nil
	}
	return append(events, r.passTurn()), nil
}
