package types

// Room:
//   roomId: string
//   variant: "tic-tac-toe" | "rock-paper-scissors" | "memory-match" | "hangman" | "quiz"
//   seat1, seat2: { identity, displayName, counter } | null
//   status: "waiting" | "playing" | "result"
//   turn: "seat1" | "seat2" | ""
//   outcome: { winner: "seat1" | "seat2" | "", draw: boolean, summary: string } | null
//   state: one of
//     tic-tac-toe:          { board: ("" | "X" | "O")[9] }
//     rock-paper-scissors:  { seat1, seat2: choice, round, roundWinner, roundResult }
//     memory-match:         { cards: { symbol, faceUp, matched }[16] }
//     hangman:              { word, guessedLetters: string[] }
//     quiz:                 { questions: { question, options, correctAnswer }[5],
//                             currentQuestionIndex, seat1, seat2, revealed }
//
// Counters: tic-tac-toe unused, rock-paper-scissors round wins,
// memory-match pairs, hangman wrong guesses, quiz correct answers.
