package game

import "strings"

// Difficulty is a game tier. It controls the score multiplier and how many
// attempts a player gets per number.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
	Crazy  Difficulty = "crazy"
)

// Difficulties lists every tier in ascending order.
var Difficulties = []Difficulty{Easy, Medium, Hard, Crazy}

// ParseDifficulty accepts a tier name in any case.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", invalid("difficulty", "unknown tier %q", s)
	}
	return d, nil
}

// Valid reports whether d is one of the four tiers.
func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Medium, Hard, Crazy:
		return true
	}
	return false
}

// Multiplier is the score multiplier for the tier.
func (d Difficulty) Multiplier() (int, error) {
	switch d {
	case Easy:
		return 1, nil
	case Medium:
		return 2, nil
	case Hard:
		return 3, nil
	case Crazy:
		return 4, nil
	}
	return 0, invalid("difficulty", "unknown tier %q", string(d))
}

// MaxAttempts is the number of guesses allowed per number.
func (d Difficulty) MaxAttempts() (int, error) {
	switch d {
	case Easy:
		return 5, nil
	case Medium:
		return 4, nil
	case Hard:
		return 3, nil
	case Crazy:
		return 2, nil
	}
	return 0, invalid("difficulty", "unknown tier %q", string(d))
}
