package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/TonyXvr/DigitGuesser/internal/game"
	"github.com/TonyXvr/DigitGuesser/internal/results"
)

// mountResultRoutes registers the global leaderboard and per-profile history.
func (s *Server) mountResultRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(s.needResults)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.With(s.requireAuth()).Get("/stats/me", s.handleStatsMe)
		r.With(s.requireAuth()).Get("/results/mine", s.handleResultsMine)
	})
}

// handleLeaderboard serves GET /leaderboard?difficulty=&digits=&limit=.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := results.LeaderboardQuery{}
	v := r.URL.Query()
	if d := v.Get("difficulty"); d != "" {
		diff, err := game.ParseDifficulty(d)
		if err != nil {
			writeError(w, r, err)
			return
		}
		q.Difficulty = string(diff)
	}
	var err error
	if q.Digits, err = intParam(v.Get("digits"), "digits"); err != nil {
		writeError(w, r, err)
		return
	}
	if q.Digits != 0 && (q.Digits < game.MinDigits || q.Digits > game.MaxDigits) {
		writeError(w, r, &game.InvalidInputError{Field: "digits", Reason: "out of range"})
		return
	}
	if q.Limit, err = intParam(v.Get("limit"), "limit"); err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := s.results.Leaderboard(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []results.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": rows})
}

func (s *Server) handleStatsMe(w http.ResponseWriter, r *http.Request) {
	st, err := s.results.Stats(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleResultsMine(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"), "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := s.results.ProfileResults(r.Context(), currentUser(r).ID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []results.GameResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": rows})
}

// intParam parses an optional non-negative integer query parameter.
func intParam(v, field string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &game.InvalidInputError{Field: field, Reason: "want a non-negative integer"}
	}
	return n, nil
}
