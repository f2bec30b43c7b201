// internal/game/types.go
//
// Core type definitions for the guessing game.
// Defines:
//   - Mark: per-digit display result of a guess (hit/present/miss).
//   - Mode/State: session mode and coarse lifecycle state.
//   - Game: state for a single in-progress or finished single-player session.

package game

import "time"

// Mark represents the evaluation result for a single digit in a guess.
//   - "hit":     digit is correct and in the correct position.
//   - "present": digit occurs elsewhere in the target (and is not already claimed).
//   - "miss":    digit has no unclaimed occurrence in the target.
type Mark string

const (
	MarkHit     Mark = "hit"
	MarkPresent Mark = "present"
	MarkMiss    Mark = "miss"
)

// Mode selects how a single-player session progresses.
type Mode string

const (
	ModeClassic     Mode = "classic"     // one number of a chosen length
	ModeProgressive Mode = "progressive" // levels from 2 up to 5 digits
)

// State is the coarse session state reported to clients.
type State string

const (
	StatePlaying State = "playing"
	StateWon     State = "won"
	StateLost    State = "lost"
)

const (
	MinDigits = 2
	MaxDigits = 5
)

// Attempt is one accepted guess within the current level.
type Attempt struct {
	Guess   string  `json:"guess"`
	Outcome Outcome `json:"outcome"`
	Marks   []Mark  `json:"marks"`
	Score   int     `json:"score"`
}

// Game holds the state of a single-player session.
type Game struct {
	ID              string     `json:"id"`
	Mode            Mode       `json:"mode"`
	Difficulty      Difficulty `json:"difficulty"`
	DigitCount      int        `json:"digitCount"`  // length of the current target
	MaxAttempts     int        `json:"maxAttempts"` // per level
	Target          string     `json:"target"`
	Attempts        []Attempt  `json:"attempts"`     // current level only
	TotalGuesses    int        `json:"totalGuesses"` // across all levels
	Score           int        `json:"score"`        // score of the latest guess
	TotalScore      int        `json:"totalScore"`
	CompletedLevels []int      `json:"completedLevels"`
	Finished        bool       `json:"finished"`
	Won             bool       `json:"won"`
	StartedAt       time.Time  `json:"startedAt"`

	targets TargetFunc
}

// GuessResult is returned from ApplyGuess.
type GuessResult struct {
	Guess          string  `json:"guess"`
	Marks          []Mark  `json:"marks"`
	Outcome        Outcome `json:"outcome"`
	Feedback       string  `json:"feedback"` // e.g. "1B2C"
	Score          int     `json:"score"`
	TotalScore     int     `json:"totalScore"`
	Attempt        int     `json:"attempt"`
	AttemptsLeft   int     `json:"attemptsLeft"`
	State          State   `json:"state"`
	LevelComplete  bool    `json:"levelComplete,omitempty"`
	NextDigitCount int     `json:"nextDigitCount,omitempty"`
	Target         string  `json:"target,omitempty"` // revealed once finished
}

// View is the client-safe projection of a Game; the target is withheld until the end.
type View struct {
	ID              string     `json:"id"`
	Mode            Mode       `json:"mode"`
	Difficulty      Difficulty `json:"difficulty"`
	DigitCount      int        `json:"digitCount"`
	MaxAttempts     int        `json:"maxAttempts"`
	Attempts        []Attempt  `json:"attempts"`
	Score           int        `json:"score"`
	TotalScore      int        `json:"totalScore"`
	CompletedLevels []int      `json:"completedLevels"`
	State           State      `json:"state"`
	Target          string     `json:"target,omitempty"`
}
