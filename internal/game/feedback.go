// internal/game/feedback.go
//
// Feedback engine: compares a guessed number with the target number.
// Responsibilities:
//   - Validate both digit strings (equal, non-zero length; ASCII digits only).
//   - Count bulls (right digit, right place) and cows (right digit, wrong place).
//   - Classify each guess position as hit/present/miss for colour-coded display.
//
// Every position on both sides is consumed at most once across the two passes,
// so repeated digits are never double counted: "1123" vs "1444" is 1B0C and
// "1123" vs "1111" is 2B0C.

package game

import "strconv"

// Outcome is the aggregate bulls/cows result of one guess.
type Outcome struct {
	PositionMatches int `json:"positionMatches"` // bulls
	ValueMatches    int `json:"valueMatches"`    // cows
}

// String renders the outcome as a short label, e.g. "1B2C".
func (o Outcome) String() string {
	return strconv.Itoa(o.PositionMatches) + "B" + strconv.Itoa(o.ValueMatches) + "C"
}

// Evaluate runs both passes and returns the bulls/cows outcome.
func Evaluate(guess, target string) (Outcome, error) {
	if err := validatePair(guess, target); err != nil {
		return Outcome{}, err
	}
	var out Outcome
	n := len(target)
	guessUsed := make([]bool, n)
	targetUsed := make([]bool, n)

	// Pass 1: exact positions.
	for i := 0; i < n; i++ {
		if guess[i] == target[i] {
			out.PositionMatches++
			guessUsed[i], targetUsed[i] = true, true
		}
	}

	// Pass 2: each remaining guess digit claims the first free target position holding it.
	for i := 0; i < n; i++ {
		if guessUsed[i] {
			continue
		}
		for j := 0; j < n; j++ {
			if !targetUsed[j] && target[j] == guess[i] {
				out.ValueMatches++
				targetUsed[j] = true
				break
			}
		}
	}
	return out, nil
}

// PositionMatches counts exact-position matches only (pass 1).
// This is the correct-digit count the score calculator consumes.
func PositionMatches(guess, target string) (int, error) {
	if err := validatePair(guess, target); err != nil {
		return 0, err
	}
	n := 0
	for i := 0; i < len(target); i++ {
		if guess[i] == target[i] {
			n++
		}
	}
	return n, nil
}

// Marks classifies every guess position.
//
// Pass 1 marks hits and counts the unmatched target digits; pass 2 marks a
// non-hit digit present while unmatched copies of it remain, miss otherwise.
func Marks(guess, target string) ([]Mark, error) {
	if err := validatePair(guess, target); err != nil {
		return nil, err
	}
	n := len(target)
	res := make([]Mark, n)
	var counts [10]int

	for i := 0; i < n; i++ {
		if guess[i] == target[i] {
			res[i] = MarkHit
		} else {
			counts[target[i]-'0']++
		}
	}
	for i := 0; i < n; i++ {
		if res[i] == MarkHit {
			continue
		}
		d := guess[i] - '0'
		if counts[d] > 0 {
			res[i] = MarkPresent
			counts[d]--
		} else {
			res[i] = MarkMiss
		}
	}
	return res, nil
}

// ValidateDigits checks that s is a non-empty string of ASCII digits.
func ValidateDigits(field, s string) error {
	if s == "" {
		return invalid(field, "must not be empty")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return invalid(field, "non-digit character %q at position %d", s[i], i)
		}
	}
	return nil
}

func validatePair(guess, target string) error {
	if err := ValidateDigits("guess", guess); err != nil {
		return err
	}
	if err := ValidateDigits("target", target); err != nil {
		return err
	}
	if len(guess) != len(target) {
		return invalid("guess", "length %d does not match target length %d", len(guess), len(target))
	}
	return nil
}
