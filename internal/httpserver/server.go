// internal/httpserver/server.go
//
// HTTP server wiring for the DigitGuesser backend.
// Responsibilities:
//   - Router + middleware (request IDs, real IP, access log, panic recovery, JSON, CORS, timeouts).
//   - Public endpoints: "/", "/health", "/metrics".
//   - Single-player game endpoints (optional auth): /game/*.
//   - Daily challenge (optional auth): /daily/*.
//   - Auth + profile endpoints: /auth/*, /stats/me, /results/mine.
//   - Global leaderboard: /leaderboard.
//   - Multiplayer rooms (require auth): /rooms/*, including a WebSocket snapshot stream.
//   - Assistant chat proxy: /chat.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with the player when a valid token is present;
//     guests are identified by an anonymous cookie.
//   - Errors are JSON {"error": code, "message": detail}; see errorStatus.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/TonyXvr/DigitGuesser/internal/chat"
	"github.com/TonyXvr/DigitGuesser/internal/config"
	"github.com/TonyXvr/DigitGuesser/internal/game"
	"github.com/TonyXvr/DigitGuesser/internal/metrics"
	"github.com/TonyXvr/DigitGuesser/internal/ratelimit"
	"github.com/TonyXvr/DigitGuesser/internal/results"
	"github.com/TonyXvr/DigitGuesser/internal/rooms"
	"github.com/TonyXvr/DigitGuesser/internal/store"
)

// Deps are the collaborators a Server routes requests to.
type Deps struct {
	Config  *config.Config
	Games   store.Store        // single-player and daily sessions
	Results results.Store      // nil answers account and leaderboard routes with 503
	Rooms   *rooms.Manager     // nil creates an in-memory manager
	Chat    *chat.Client       // nil or keyless disables /chat with 503
	Limiter *ratelimit.Limiter // nil disables rate limiting
	Targets game.TargetFunc    // nil draws random targets
	Now     func() time.Time   // nil uses time.Now
}

// Server bundles the router and its dependencies.
type Server struct {
	r       *chi.Mux
	cfg     *config.Config
	games   store.Store
	results results.Store
	rooms   *rooms.Manager
	chat    *chat.Client
	limiter *ratelimit.Limiter
	targets game.TargetFunc
	now     func() time.Time
	daily   *dailyServer

	guessMu sync.Mutex // serializes read-modify-write of stored games
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	if d.Config == nil {
		d.Config = config.Defaults()
	}
	if d.Games == nil {
		d.Games = store.NewMemoryStore()
	}
	if d.Rooms == nil {
		d.Rooms = rooms.NewManager(d.Targets)
	}
	if d.Limiter == nil {
		d.Limiter = ratelimit.New(nil)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	s := &Server{
		r:       chi.NewRouter(),
		cfg:     d.Config,
		games:   d.Games,
		results: d.Results,
		rooms:   d.Rooms,
		chat:    d.Chat,
		limiter: d.Limiter,
		targets: d.Targets,
		now:     d.Now,
	}
	if s.rooms.OnFinish == nil {
		s.rooms.OnFinish = s.saveRoomResults
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(accessLog)
	if s.cfg.Sentry.DSN != "" {
		s.r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}
	s.r.Use(chimw.Recoverer)
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	// Long-lived; registered outside the timeout group.
	s.r.With(s.requireAuth()).Get("/rooms/{id}/ws", s.handleRoomWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(s.cfg.Server.WriteTimeout))

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"service":   "digitguess",
				"endpoints": []string{"/health", "/metrics", "POST /game/new", "POST /game/guess", "/daily/*", "/auth/*", "/leaderboard", "/rooms", "POST /chat"},
			})
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		})
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())

		guessLimit := s.limiter.Middleware("guess", s.cfg.RateLimit.GuessPerWindow, s.cfg.RateLimit.Window, nil)

		// Game endpoints: optional auth (guests can play)
		r.Group(func(r chi.Router) {
			r.Use(s.withOptionalAuth())
			r.Post("/game/new", s.handleNewGame)
			r.With(guessLimit).Post("/game/guess", s.handleGuess)
			r.Get("/game/{id}", s.handleGetGame)

			s.mountDaily(r, guessLimit)
		})

		s.mountAuthRoutes(r)
		s.mountResultRoutes(r)
		s.mountRoomRoutes(r, guessLimit)
		s.mountChat(r)
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})
	s.r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method_not_allowed"})
	})

	return s
}

// Handler exposes the router as an http.Handler.
func (s *Server) Handler() http.Handler { return s.r }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Rooms exposes the room manager so the caller can run its janitor.
func (s *Server) Rooms() *rooms.Manager { return s.rooms }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
// needResults answers 503 when the server runs without a results store.
func (s *Server) needResults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.results == nil {
			writeCode(w, http.StatusServiceUnavailable, "results_unavailable", "accounts and leaderboards are disabled")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.Server.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one structured line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		ev := log.Info()
		if ww.Status() >= 500 {
			ev = log.Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("http")
	})
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError maps err to a status and code. 5xx details are logged and reported,
// never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	body := errorBody{Error: code}
	if status < 500 {
		body.Message = err.Error()
	} else {
		log.Error().Err(err).Str("path", r.URL.Path).Str("request_id", chimw.GetReqID(r.Context())).Msg("request failed")
		captureError(r, err)
	}
	writeJSON(w, status, body)
}

func writeCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrInvalidInput), errors.Is(err, chat.ErrNoMessages):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, store.ErrNotFound), errors.Is(err, results.ErrNotFound), errors.Is(err, rooms.ErrRoomNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, results.ErrNicknameTaken):
		return http.StatusConflict, "nickname_taken"
	case errors.Is(err, game.ErrGameFinished):
		return http.StatusConflict, "game_finished"
	case errors.Is(err, rooms.ErrRoomFull):
		return http.StatusConflict, "room_full"
	case errors.Is(err, rooms.ErrRoomStarted):
		return http.StatusConflict, "room_started"
	case errors.Is(err, rooms.ErrNotPlaying):
		return http.StatusConflict, "room_not_playing"
	case errors.Is(err, rooms.ErrNotEnoughPlayers):
		return http.StatusConflict, "not_enough_players"
	case errors.Is(err, rooms.ErrNotHost):
		return http.StatusForbidden, "not_host"
	case errors.Is(err, rooms.ErrNotInRoom):
		return http.StatusForbidden, "not_in_room"
	case errors.Is(err, chat.ErrNotConfigured):
		return http.StatusServiceUnavailable, "chat_not_configured"
	case errors.Is(err, chat.ErrUpstream):
		return http.StatusBadGateway, "chat_upstream"
	}
	return http.StatusInternalServerError, "internal"
}

// captureError forwards err to Sentry using the request-scoped hub when present.
func captureError(r *http.Request, err error) {
	if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}

// decodeJSON reads a JSON body into v; an empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &game.InvalidInputError{Field: "body", Reason: "malformed JSON"}
	}
	return nil
}

// saveRoomResults persists every player's outcome when a room finishes.
func (s *Server) saveRoomResults(room rooms.Room) {
	metrics.ActiveRooms.Set(float64(s.rooms.Count()))
	for _, p := range room.Players {
		metrics.ObserveFinished("room", p.Won, p.Score)
		if s.results == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := s.results.SaveResult(ctx, results.GameResult{
			ProfileID:  p.ID,
			Score:      p.Score,
			Difficulty: string(room.Difficulty),
			Digits:     room.Digits,
			Mode:       "multiplayer",
			Won:        p.Won,
			Guesses:    p.Attempts,
		})
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("room", room.ID).Str("player", p.ID).Msg("save room result")
		}
	}
}
