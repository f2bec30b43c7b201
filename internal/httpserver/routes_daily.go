// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start a daily game (creates or reuses session)
//   - POST /daily/guess       → submit a guess for today's daily game
//   - GET  /daily/leaderboard → fetch top 20 results for today (or a given date)
//
// Each player can play once per day (enforced by the results store + session map).
// The number is derived from date + salt, so everyone gets the same one.

package httpserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/TonyXvr/DigitGuesser/internal/daily"
	"github.com/TonyXvr/DigitGuesser/internal/game"
	"github.com/TonyXvr/DigitGuesser/internal/metrics"
)

const dailyLeaderboardSize = 20

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv        *Server
	salt       string
	digits     int
	difficulty game.Difficulty
	sessions   map[string]*dailySession // active sessions keyed by playerID|date
	day        string                   // date the sessions map was last pruned for
	mu         sync.Mutex               // guards sessions and day
}

// dailySession links a player's day to the stored game.
type dailySession struct {
	GameID   string
	PlayerID string
	Date     string
	Start    time.Time
	Finished bool
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router, guessLimit func(http.Handler) http.Handler) {
	diff, err := game.ParseDifficulty(s.cfg.Daily.Difficulty)
	if err != nil {
		diff = game.Medium
	}
	s.daily = &dailyServer{
		srv:        s,
		salt:       s.cfg.Daily.Salt,
		digits:     s.cfg.Daily.Digits,
		difficulty: diff,
		sessions:   make(map[string]*dailySession),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", s.daily.handleNew)
		r.With(guessLimit).Post("/guess", s.daily.handleGuess)
		r.Get("/leaderboard", s.daily.handleLeaderboard)
	})
}

func (d *dailyServer) today() time.Time { return d.srv.now().UTC() }

// played reports whether the player already has a stored result for date.
func (d *dailyServer) played(ctx context.Context, playerID, date string) bool {
	if d.srv.results == nil {
		return false
	}
	ok, err := d.srv.results.DailyPlayed(ctx, playerID, date)
	if err != nil {
		log.Warn().Err(err).Str("player", playerID).Msg("daily played lookup")
		return false
	}
	return ok
}

// -----------------------------------------------------------------------------
// /daily/new

type dailyNewRes struct {
	GameID      string          `json:"gameId,omitempty"`
	Date        string          `json:"date"`
	Played      bool            `json:"played"`
	DigitCount  int             `json:"digitCount"`
	Difficulty  game.Difficulty `json:"difficulty"`
	MaxAttempts int             `json:"maxAttempts"`
}

// handleNew creates or reuses a daily session for the current date.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid := d.srv.playerID(w, r)
	now := d.today()
	date := daily.DateKey(now)
	maxAttempts, _ := d.difficulty.MaxAttempts()
	res := dailyNewRes{Date: date, DigitCount: d.digits, Difficulty: d.difficulty, MaxAttempts: maxAttempts}

	if d.played(r.Context(), uid, date) {
		res.Played = true
		writeJSON(w, http.StatusOK, res)
		return
	}

	key := uid + "|" + date
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pruneLocked(r.Context(), date)
	if sess, ok := d.sessions[key]; ok {
		res.GameID, res.Played = sess.GameID, sess.Finished
		writeJSON(w, http.StatusOK, res)
		return
	}

	g, err := game.New(game.Options{
		Mode:       game.ModeClassic,
		Difficulty: d.difficulty,
		DigitCount: d.digits,
		Targets:    game.FixedTargets(daily.Target(now, d.salt, d.digits)),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := d.srv.games.Save(r.Context(), g); err != nil {
		writeError(w, r, err)
		return
	}
	d.sessions[key] = &dailySession{GameID: g.ID, PlayerID: uid, Date: date, Start: now}
	res.GameID = g.ID
	writeJSON(w, http.StatusCreated, res)
}

// -----------------------------------------------------------------------------
// /daily/guess

// handleGuess applies a guess to today's session and stores the result once finished.
func (d *dailyServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	uid := d.srv.playerID(w, r)

	var body guessReq
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	date := daily.DateKey(d.today())
	key := uid + "|" + date

	d.mu.Lock()
	sess, ok := d.sessions[key]
	d.mu.Unlock()
	if !ok || sess.GameID != body.GameID {
		writeCode(w, http.StatusConflict, "no_session", "start today's challenge first")
		return
	}

	played, err := d.srv.applyStoredGuess(r.Context(), sess.GameID, body.Guess)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res := played.res
	metrics.ObserveGuess("daily", res.Outcome.PositionMatches == len(res.Guess))

	if played.finished {
		metrics.ObserveFinished("daily", played.won, played.totalScore)
		if err := d.srv.games.Delete(r.Context(), played.gameID); err != nil {
			log.Warn().Err(err).Str("gameId", played.gameID).Msg("drop finished daily game")
		}
		saved := false
		if d.srv.results != nil {
			err := d.srv.results.SaveDaily(r.Context(), daily.Result{
				PlayerID:  uid,
				Date:      date,
				Digits:    played.digits,
				Score:     played.totalScore,
				Guesses:   played.totalGuesses,
				Won:       played.won,
				ElapsedMs: int(d.srv.now().Sub(sess.Start).Milliseconds()),
			})
			if err != nil {
				log.Warn().Err(err).Str("player", uid).Str("date", date).Msg("save daily result")
			}
			saved = err == nil
		}

		d.mu.Lock()
		if saved {
			// The stored result now answers "played today".
			delete(d.sessions, key)
		} else {
			sess.Finished = true
		}
		d.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, res)
}

// pruneLocked drops sessions from earlier dates, and their unfinished games,
// the first time it sees a new date. Callers hold d.mu.
func (d *dailyServer) pruneLocked(ctx context.Context, date string) {
	if d.day == date {
		return
	}
	for key, sess := range d.sessions {
		if sess.Date == date {
			continue
		}
		delete(d.sessions, key)
		if !sess.Finished {
			if err := d.srv.games.Delete(ctx, sess.GameID); err != nil {
				log.Warn().Err(err).Str("gameId", sess.GameID).Msg("drop stale daily game")
			}
		}
	}
	d.day = date
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

type dailyLBRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.today())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, r, &game.InvalidInputError{Field: "date", Reason: "want YYYY-MM-DD"})
		return
	}
	rows := []daily.LBRow{}
	if d.srv.results != nil {
		var err error
		if rows, err = d.srv.results.DailyLeaderboard(r.Context(), date, dailyLeaderboardSize); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, dailyLBRes{Date: date, Top: rows})
}
