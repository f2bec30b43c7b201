// internal/game/score.go
//
// Score calculator for a single submitted guess.
//
//   digitScore    = correctDigits * 100
//   completeBonus = isComplete ? 500 * dm : 0
//   attemptsBonus = isComplete ? round(1000 * dm * (max - attempt + 1) / max) : 0
//   total         = round(digitScore * dm * digitMul + completeBonus + attemptsBonus)
//
// dm is the difficulty multiplier, digitMul the digit-count multiplier. Only the
// digit score is scaled by digitMul; both bonuses are scaled by dm alone.

package game

import "math"

// ScoreInputs describes one guess outcome for scoring. IsComplete is taken
// as given and is not re-derived from CorrectDigits.
type ScoreInputs struct {
	Difficulty    Difficulty `json:"difficulty"`
	DigitCount    int        `json:"digitCount"`
	CorrectDigits int        `json:"correctDigits"`
	IsComplete    bool       `json:"isComplete"`
	AttemptCount  int        `json:"attemptCount"` // 1-based
	MaxAttempts   int        `json:"maxAttempts"`
}

// DigitMultiplier returns the digit-count multiplier. Only 2 to 5 digits are scored.
func DigitMultiplier(digitCount int) (float64, error) {
	switch digitCount {
	case 2:
		return 1, nil
	case 3:
		return 1.5, nil
	case 4:
		return 2, nil
	case 5:
		return 2.5, nil
	}
	return 0, invalid("digitCount", "%d is not scored (want 2-5)", digitCount)
}

// Score computes the integer score for one guess.
func Score(in ScoreInputs) (int, error) {
	dm, err := in.Difficulty.Multiplier()
	if err != nil {
		return 0, err
	}
	digitMul, err := DigitMultiplier(in.DigitCount)
	if err != nil {
		return 0, err
	}
	if in.CorrectDigits < 0 || in.CorrectDigits > in.DigitCount {
		return 0, invalid("correctDigits", "%d outside [0, %d]", in.CorrectDigits, in.DigitCount)
	}
	if in.AttemptCount < 1 {
		return 0, invalid("attemptCount", "must be at least 1, got %d", in.AttemptCount)
	}

	digitScore := float64(in.CorrectDigits * 100)
	var completeBonus, attemptsBonus float64
	if in.IsComplete {
		if in.MaxAttempts < 1 {
			return 0, invalid("maxAttempts", "must be at least 1, got %d", in.MaxAttempts)
		}
		if in.AttemptCount > in.MaxAttempts {
			return 0, invalid("attemptCount", "%d exceeds maxAttempts %d", in.AttemptCount, in.MaxAttempts)
		}
		completeBonus = float64(500 * dm)
		remaining := float64(in.MaxAttempts - in.AttemptCount + 1)
		attemptsBonus = roundHalfUp(1000 * float64(dm) * remaining / float64(in.MaxAttempts))
	}

	total := roundHalfUp(digitScore*float64(dm)*digitMul + completeBonus + attemptsBonus)
	return int(total), nil
}

// roundHalfUp rounds .5 towards +Inf, matching the scores already on the leaderboard.
func roundHalfUp(x float64) float64 { return math.Floor(x + 0.5) }
