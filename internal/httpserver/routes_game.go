package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/TonyXvr/DigitGuesser/internal/game"
	"github.com/TonyXvr/DigitGuesser/internal/metrics"
	"github.com/TonyXvr/DigitGuesser/internal/results"
)

type newGameReq struct {
	Mode       string `json:"mode"`
	Difficulty string `json:"difficulty"`
	DigitCount int    `json:"digitCount"`
}

type guessReq struct {
	GameID string `json:"gameId"`
	Guess  string `json:"guess"`
}

// handleNewGame starts a classic or progressive session.
// Defaults: classic, medium, 4 digits.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var body newGameReq
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.Mode == "" {
		body.Mode = string(game.ModeClassic)
	}
	if body.Difficulty == "" {
		body.Difficulty = string(game.Medium)
	}
	if body.DigitCount == 0 {
		body.DigitCount = 4
	}
	diff, err := game.ParseDifficulty(body.Difficulty)
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := game.New(game.Options{
		Mode:       game.Mode(strings.ToLower(strings.TrimSpace(body.Mode))),
		Difficulty: diff,
		DigitCount: body.DigitCount,
		Targets:    s.targets,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.games.Save(r.Context(), g); err != nil {
		writeError(w, r, err)
		return
	}
	s.playerID(w, r)
	writeJSON(w, http.StatusCreated, g.View())
}

// handleGuess applies a guess to a stored session.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var body guessReq
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.GameID == "" {
		writeError(w, r, &game.InvalidInputError{Field: "gameId", Reason: "required"})
		return
	}

	played, err := s.applyStoredGuess(r.Context(), body.GameID, body.Guess)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res := played.res
	mode := string(played.mode)
	metrics.ObserveGuess(mode, res.Outcome.PositionMatches == len(res.Guess))
	if played.finished {
		metrics.ObserveFinished(mode, played.won, played.totalScore)
		if me := currentUser(r); me != nil {
			s.recordResult(me.ID, played)
		}
	}
	writeJSON(w, http.StatusOK, res)
}

// playedGuess copies what handlers need from a game while guessMu is held.
// finished is set only for the guess that ended the game.
type playedGuess struct {
	res          *game.GuessResult
	gameID       string
	mode         game.Mode
	difficulty   game.Difficulty
	digits       int
	finished     bool
	won          bool
	totalScore   int
	totalGuesses int
}

// applyStoredGuess loads, mutates and saves a game under guessMu.
func (s *Server) applyStoredGuess(ctx context.Context, id, guess string) (playedGuess, error) {
	s.guessMu.Lock()
	defer s.guessMu.Unlock()

	g, err := s.games.Get(ctx, id)
	if err != nil {
		return playedGuess{}, err
	}
	g.SetTargets(s.targets)
	res, err := g.ApplyGuess(guess)
	if err != nil {
		return playedGuess{}, err
	}
	if err := s.games.Save(ctx, g); err != nil {
		return playedGuess{}, err
	}
	return playedGuess{
		res:          res,
		gameID:       g.ID,
		mode:         g.Mode,
		difficulty:   g.Difficulty,
		digits:       g.DigitCount,
		finished:     g.Finished,
		won:          g.Won,
		totalScore:   g.TotalScore,
		totalGuesses: g.TotalGuesses,
	}, nil
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	s.guessMu.Lock()
	g, err := s.games.Get(r.Context(), chi.URLParam(r, "id"))
	var v game.View
	if err == nil {
		v = g.View()
	}
	s.guessMu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// recordResult persists a finished game for a signed-in player. Failures are logged only.
func (s *Server) recordResult(profileID string, g playedGuess) {
	if s.results == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.results.SaveResult(ctx, results.GameResult{
		ProfileID:  profileID,
		Score:      g.totalScore,
		Difficulty: string(g.difficulty),
		Digits:     g.digits,
		Mode:       string(g.mode),
		Won:        g.won,
		Guesses:    g.totalGuesses,
	})
	if err != nil {
		log.Warn().Err(err).Str("gameId", g.gameID).Str("profile", profileID).Msg("save game result")
	}
}
