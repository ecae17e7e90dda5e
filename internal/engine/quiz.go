package engine

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// QuestionCount is how many questions one quiz game asks.
const QuestionCount = 5

type Question struct {
	Prompt  string   `json:"question"`
	Options []string `json:"options"`
	Correct string   `json:"correctAnswer"`
}

type QuizState struct {
	Questions []Question `json:"questions"`
	Index     int        `json:"currentQuestionIndex"`
	Seat1     string     `json:"seat1"`
	Seat2     string     `json:"seat2"`
	// Revealed is set once both answers are scored and cleared when the
	// next question is shown.
	Revealed bool `json:"revealed"`
}

func newQuiz(rng *rand.Rand) *QuizState {
	picked := rng.Perm(len(questionBank))[:QuestionCount]
	qs := make([]Question, 0, QuestionCount)
	for _, i := range picked {
		q := questionBank[i]
		q.Options = slices.Clone(q.Options)
		qs = append(qs, q)
	}
	return &QuizState{Questions: qs}
}

func (*QuizState) Variant() Variant { return VariantQuiz }

func (s *QuizState) clone() VariantState {
	c := *s
	c.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		q.Options = slices.Clone(q.Options)
		c.Questions[i] = q
	}
	return &c
}

func (s *QuizState) canAct(_ *Room, seat Seat) bool {
	return !s.Revealed && s.AnswerOf(seat) == ""
}

func (s *QuizState) Current() Question { return s.Questions[s.Index] }

func (s *QuizState) AnswerOf(seat Seat) string {
	switch seat {
	case Seat1:
		return s.Seat1
	case Seat2:
		return s.Seat2
	default:
		return ""
	}
}

func (s *QuizState) setAnswer(seat Seat, a string) {
	switch seat {
	case Seat1:
		s.Seat1 = a
	case Seat2:
		s.Seat2 = a
	}
}

func (s *QuizState) BothAnswered() bool { return s.Seat1 != "" && s.Seat2 != "" }

func applyQuiz(r *Room, s *QuizState, seat Seat, cmd Command) ([]Event, error) {
	if r.Status != StatusPlaying {
		return nil, ErrNotPlaying
	}
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return nil, ErrIllegalMove
	}

	switch cmd.Type {
	case CmdAnswer:
		if s.Revealed || s.AnswerOf(seat) != "" {
			return nil, ErrSlotFilled
		}
		if !slices.Contains(s.Current().Options, cmd.Option) {
			return nil, ErrIllegalMove
		}
		s.setAnswer(seat, cmd.Option)
		return []Event{{Type: EvtAnswerRecorded, Seat: seat}}, nil

	case CmdResolveRound:
		if s.Revealed || !s.BothAnswered() {
			return nil, ErrIllegalMove
		}
		correct := s.Current().Correct
		for _, st := range []Seat{Seat1, Seat2} {
			if s.AnswerOf(st) == correct {
				r.bump(st)
			}
		}
		s.Revealed = true
		return []Event{{Type: EvtRoundResolved}}, nil

	case CmdAdvanceQuestion:
		if !s.Revealed {
			return nil, ErrIllegalMove
		}
		if s.Index == len(s.Questions)-1 {
			summary := fmt.Sprintf("final score %d-%d", r.Counter(Seat1), r.Counter(Seat2))
			return []Event{r.conclude(r.higherCounter(), summary)}, nil
		}
		s.Index++
		s.Seat1, s.Seat2 = "", ""
		s.Revealed = false
		return []Event{{Type: EvtQuestionAdvanced}}, nil

	default:
		return nil, ErrWrongVariant
	}
}
