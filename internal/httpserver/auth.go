package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/TonyXvr/DigitGuesser/internal/game"
	"github.com/TonyXvr/DigitGuesser/internal/results"
)

const anonCookieName = "digitguess_anon"

// authUser is placed into request context by auth middleware.
type authUser struct {
	ID       string
	Nickname string
}

// ctxUserKey is the context key type for storing authUser.
type ctxUserKey struct{}

func currentUser(r *http.Request) *authUser {
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	return me
}

type credentialsReq struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type profileResp struct {
	ID          string    `json:"id"`
	Nickname    string    `json:"nickname"`
	CreatedAt   time.Time `json:"createdAt"`
	GamesPlayed int       `json:"gamesPlayed"`
	Wins        int       `json:"wins"`
	Streak      int       `json:"streak"`
}

func toProfileResp(p *results.Profile) profileResp {
	return profileResp{
		ID:          p.ID,
		Nickname:    p.Nickname,
		CreatedAt:   p.CreatedAt,
		GamesPlayed: p.GamesPlayed,
		Wins:        p.Wins,
		Streak:      p.Streak,
	}
}

// mountAuthRoutes registers /auth/*.
func (s *Server) mountAuthRoutes(r chi.Router) {
	r.With(s.needResults).Post("/auth/signup", s.handleSignup)
	r.With(s.needResults).Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)
	r.With(s.needResults, s.requireAuth()).Get("/auth/me", s.handleMe)
}

// handleSignup creates a profile, signs a JWT and sets the auth cookie.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	nickname := strings.TrimSpace(body.Nickname)
	if err := validateSignup(nickname, body.Password); err != nil {
		writeError(w, r, err)
		return
	}
	h, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.results.CreateProfile(r.Context(), nickname, string(h))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.issueToken(w, p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProfileResp(p))
}

// handleLogin verifies credentials and sets the auth cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.results.ProfileByNickname(r.Context(), strings.TrimSpace(body.Nickname))
	if err != nil && !errors.Is(err, results.ErrNotFound) {
		writeError(w, r, err)
		return
	}
	if p == nil || !checkPassword(p.PasswordHash, body.Password) {
		writeCode(w, http.StatusUnauthorized, "invalid_credentials", "invalid nickname or password")
		return
	}
	if err := s.issueToken(w, p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResp(p))
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, err := s.results.ProfileByID(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResp(p))
}

func (s *Server) issueToken(w http.ResponseWriter, p *results.Profile) error {
	tok, exp, err := s.signJWT(p.ID, p.Nickname)
	if err != nil {
		return err
	}
	s.setAuthCookie(w, tok, exp)
	w.Header().Set("X-Auth-Token", tok)
	return nil
}

// --------------------------- optional auth ---------------------------------

// withOptionalAuth decorates requests with user context if a valid JWT is present.
// It never 401s; used for routes where guests are allowed.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if me, err := s.authenticate(r); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, me))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAuth enforces a valid JWT for a profile that still exists.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			me, err := s.authenticate(r)
			if err != nil {
				writeCode(w, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserKey{}, me)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

var (
	errNoToken      = errors.New("missing token")
	errInvalidToken = errors.New("invalid token")
)

func (s *Server) authenticate(r *http.Request) (*authUser, error) {
	tokenStr := s.bearerOrCookie(r)
	if tokenStr == "" {
		return nil, errNoToken
	}
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Auth.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	id, _ := claims["id"].(string)
	if id == "" || s.results == nil {
		return nil, errInvalidToken
	}
	p, err := s.results.ProfileByID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, results.ErrNotFound) {
			log.Warn().Err(err).Str("profile", id).Msg("load profile for token")
		}
		return nil, errInvalidToken
	}
	return &authUser{ID: p.ID, Nickname: p.Nickname}, nil
}

// playerID is the signed-in profile id, or the anonymous cookie id for guests.
func (s *Server) playerID(w http.ResponseWriter, r *http.Request) string {
	if me := currentUser(r); me != nil {
		return me.ID
	}
	return s.ensureAnonID(w, r)
}

// ensureAnonID returns an existing anon cookie or sets a new one.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := "anon-" + uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production(),
		SameSite: s.sameSite(),
		Expires:  s.now().Add(180 * 24 * time.Hour),
	})
	return id
}

// ------------------------ credentials & validation -------------------------

func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// validateSignup enforces nickname/password rules.
func validateSignup(nickname, password string) error {
	if len(nickname) < 3 || len(nickname) > 24 {
		return &game.InvalidInputError{Field: "nickname", Reason: "must be 3-24 characters"}
	}
	for _, r := range nickname {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return &game.InvalidInputError{Field: "nickname", Reason: "letters, numbers and underscore only"}
		}
	}
	if len(password) < 8 || len(password) > 100 {
		return &game.InvalidInputError{Field: "password", Reason: "must be 8-100 characters"}
	}
	return nil
}

// ------------------------------ JWT & cookies ------------------------------

// signJWT creates an HS256 JWT with id/nickname claims.
func (s *Server) signJWT(id, nickname string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(time.Duration(s.cfg.Auth.ExpiresDays) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"nickname": nickname,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := t.SignedString([]byte(s.cfg.Auth.JWTSecret))
	return ss, exp, err
}

func (s *Server) sameSite() http.SameSite {
	if s.cfg.Production() {
		return http.SameSiteNoneMode // required for cross-site cookies when Secure
	}
	return http.SameSiteLaxMode
}

func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production(),
		SameSite: s.sameSite(),
		Expires:  exp,
	})
}

func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Auth.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production(),
		SameSite: s.sameSite(),
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a token from the Authorization header, the auth cookie,
// or (for WebSocket upgrades, which cannot set headers in browsers) ?token=.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.Auth.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return r.URL.Query().Get("token")
}
