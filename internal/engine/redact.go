package engine

// Redact returns the copy of r that is safe to show a player while the game
// runs: the hangman word is masked, face-down memory cards lose their
// symbol, and quiz answers stay hidden until their question is revealed.
// A concluded room is returned unchanged.
func Redact(r Room) Room {
	out := r.Clone()
	if out.Concluded() || out.State == nil {
		return out
	}
	switch s := out.State.(type) {
	case *HangmanState:
		s.Word = s.Masked()
	case *MemoryState:
		for i := range s.Cards {
			if !s.Cards[i].FaceUp && !s.Cards[i].Matched {
				s.Cards[i].Symbol = ""
			}
		}
	case *QuizState:
		for i := range s.Questions {
			if i > s.Index || (i == s.Index && !s.Revealed) {
				s.Questions[i].Correct = ""
			}
		}
	}
	return out
}
