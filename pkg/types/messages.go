package types

// Client -> Server
// Connect with GET /ws?room=<id>&identity=<id>&name=<display name>&variant=<variant>
// (variant is only needed when the room does not exist yet).
//
// PlaceMark (tic-tac-toe):
//   cell: 0..8
//
// Choose (rock-paper-scissors):
//   choice: "rock" | "paper" | "scissors"
//
// NextRound / EndMatch (rock-paper-scissors): {}
//
// FlipCard (memory-match):
//   card: 0..15
//
// GuessLetter (hangman):
//   letter: string
//
// Answer (quiz):
//   option: string
//
// Reset: {}  rematch once the room shows a result
// Leave: {}  give up the seat and keep watching

// Server -> Client
// RoomSnapshot: sent after every change to the room
//   version: number
//   role: "seat1" | "seat2" | "spectator"
//   canAct: boolean
//   room: Room (see snapshot.go)
//
// Error:
//   error: string
