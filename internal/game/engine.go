// internal/game/engine.go
//
// Single-player session engine.
// Responsibilities:
//   - Create classic or progressive sessions for a difficulty tier.
//   - Validate and apply guesses (length, digits only).
//   - Evaluate each guess (bulls/cows + marks) and score it.
//   - Track state transitions: playing → won/lost, and progressive level-ups.
//
// A rejected guess never changes attempt counters or scores.

package game

import (
	"errors"
	"strings"
	"time"
)

// Options configures a new session.
type Options struct {
	Mode       Mode
	Difficulty Difficulty
	DigitCount int        // classic only; progressive always starts at MinDigits
	Targets    TargetFunc // nil means RandomTarget
}

// New constructs a new game and draws its first target.
func New(opts Options) (*Game, error) {
	if opts.Mode == "" {
		opts.Mode = ModeClassic
	}
	maxAttempts, err := opts.Difficulty.MaxAttempts()
	if err != nil {
		return nil, err
	}

	digits := opts.DigitCount
	switch opts.Mode {
	case ModeClassic:
		if digits < MinDigits || digits > MaxDigits {
			return nil, invalid("digitCount", "%d outside [%d, %d]", digits, MinDigits, MaxDigits)
		}
	case ModeProgressive:
		digits = MinDigits
	default:
		return nil, invalid("mode", "unknown mode %q", string(opts.Mode))
	}

	g := &Game{
		ID:              randomID(),
		Mode:            opts.Mode,
		Difficulty:      opts.Difficulty,
		DigitCount:      digits,
		MaxAttempts:     maxAttempts,
		Attempts:        []Attempt{},
		CompletedLevels: []int{},
		StartedAt:       time.Now().UTC(),
		targets:         opts.Targets,
	}
	if err := g.drawTarget(); err != nil {
		return nil, err
	}
	return g, nil
}

// SetTargets replaces the target source, e.g. after the game was loaded from a store.
func (g *Game) SetTargets(fn TargetFunc) { g.targets = fn }

// ApplyGuess validates, evaluates and scores a guess, mutating the game state.
//
// State transitions:
//   - Exact match in classic mode → won.
//   - Exact match in progressive mode → level complete; won after the 5-digit level.
//   - Otherwise, reaching MaxAttempts in the current level → lost.
func (g *Game) ApplyGuess(guess string) (*GuessResult, error) {
	if g.Finished {
		return nil, ErrGameFinished
	}
	guess = strings.TrimSpace(guess)
	if err := ValidateDigits("guess", guess); err != nil {
		return nil, err
	}
	if len(guess) != g.DigitCount {
		return nil, invalid("guess", "want %d digits, got %d", g.DigitCount, len(guess))
	}

	outcome, err := Evaluate(guess, g.Target)
	if err != nil {
		return nil, err
	}
	marks, err := Marks(guess, g.Target)
	if err != nil {
		return nil, err
	}
	complete := guess == g.Target
	attempt := len(g.Attempts) + 1
	score, err := Score(ScoreInputs{
		Difficulty:    g.Difficulty,
		DigitCount:    g.DigitCount,
		CorrectDigits: outcome.PositionMatches,
		IsComplete:    complete,
		AttemptCount:  attempt,
		MaxAttempts:   g.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}

	g.Attempts = append(g.Attempts, Attempt{Guess: guess, Outcome: outcome, Marks: marks, Score: score})
	g.TotalGuesses++
	g.Score = score

	res := &GuessResult{
		Guess:        guess,
		Marks:        marks,
		Outcome:      outcome,
		Feedback:     outcome.String(),
		Score:        score,
		Attempt:      attempt,
		AttemptsLeft: g.MaxAttempts - attempt,
	}

	switch {
	case complete && g.Mode == ModeProgressive:
		g.TotalScore += score
		g.CompletedLevels = append(g.CompletedLevels, g.DigitCount)
		res.LevelComplete = true
		if g.DigitCount >= MaxDigits {
			g.Finished, g.Won = true, true
			res.Target = g.Target
			break
		}
		g.DigitCount++
		g.Attempts = []Attempt{}
		if err := g.drawTarget(); err != nil {
			return nil, err
		}
		res.NextDigitCount = g.DigitCount
		res.AttemptsLeft = g.MaxAttempts
	case complete:
		g.TotalScore = score
		g.Finished, g.Won = true, true
		res.Target = g.Target
	case attempt >= g.MaxAttempts:
		if g.Mode == ModeClassic {
			g.TotalScore = score
		}
		g.Finished = true
		res.Target = g.Target
	}

	res.TotalScore = g.TotalScore
	res.State = g.State()
	return res, nil
}

// State reports the coarse session state.
func (g *Game) State() State {
	if g.Finished {
		if g.Won {
			return StateWon
		}
		return StateLost
	}
	return StatePlaying
}

// View returns the client-safe projection of the game.
func (g *Game) View() View {
	v := View{
		ID:              g.ID,
		Mode:            g.Mode,
		Difficulty:      g.Difficulty,
		DigitCount:      g.DigitCount,
		MaxAttempts:     g.MaxAttempts,
		Attempts:        g.Attempts,
		Score:           g.Score,
		TotalScore:      g.TotalScore,
		CompletedLevels: g.CompletedLevels,
		State:           g.State(),
	}
	if g.Finished {
		v.Target = g.Target
	}
	return v
}

func (g *Game) drawTarget() error {
	next := g.targets
	if next == nil {
		next = RandomTarget
	}
	t, err := next(g.DigitCount)
	if err != nil {
		return err
	}
	if len(t) != g.DigitCount {
		return errors.New("game: target source returned wrong length")
	}
	g.Target = t
	return nil
}
