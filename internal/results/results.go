// internal/results/results.go
//
// Durable storage for player profiles, finished games and daily results.
// Two backends share the Store interface:
//   - SQLite (sqlite.go): mattn/go-sqlite3, single file, default for local runs.
//   - Postgres (postgres.go): pgxpool, for shared deployments.
//
// Schemas live in assets/sql/<dialect> and are applied on open.

package results

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TonyXvr/DigitGuesser/internal/daily"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrNicknameTaken = errors.New("nickname taken")
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// Profile is a registered player.
type Profile struct {
	ID           string    `json:"id"`
	Nickname     string    `json:"nickname"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	GamesPlayed  int       `json:"gamesPlayed"`
	Wins         int       `json:"wins"`
	Streak       int       `json:"streak"`
}

// GameResult is one finished game of a registered player.
type GameResult struct {
	ID         string    `json:"id"`
	ProfileID  string    `json:"profileId"`
	Score      int       `json:"score"`
	Difficulty string    `json:"difficulty"`
	Digits     int       `json:"digits"`
	Mode       string    `json:"mode"`
	Won        bool      `json:"won"`
	Guesses    int       `json:"guesses"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LeaderboardEntry is one row of the global leaderboard.
type LeaderboardEntry struct {
	Nickname   string    `json:"nickname"`
	Score      int       `json:"score"`
	Difficulty string    `json:"difficulty"`
	Digits     int       `json:"digits"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LeaderboardQuery filters the global leaderboard. Zero values mean "any".
type LeaderboardQuery struct {
	Difficulty string
	Digits     int
	Limit      int
}

// Stats aggregates a profile's history.
type Stats struct {
	ProfileID   string `json:"profileId"`
	GamesPlayed int    `json:"gamesPlayed"`
	Wins        int    `json:"wins"`
	Streak      int    `json:"streak"`
	BestScore   int    `json:"bestScore"`
	TotalScore  int    `json:"totalScore"`
}

// Store persists profiles and results.
type Store interface {
	// CreateProfile inserts a profile; nicknames are unique ignoring case.
	CreateProfile(ctx context.Context, nickname, passwordHash string) (*Profile, error)
	ProfileByNickname(ctx context.Context, nickname string) (*Profile, error)
	ProfileByID(ctx context.Context, id string) (*Profile, error)

	// SaveResult records a finished game and bumps the profile's counters
	// in the same transaction: a win extends the streak, a loss resets it.
	SaveResult(ctx context.Context, r GameResult) (*GameResult, error)
	Leaderboard(ctx context.Context, q LeaderboardQuery) ([]LeaderboardEntry, error)
	ProfileResults(ctx context.Context, profileID string, limit int) ([]GameResult, error)
	Stats(ctx context.Context, profileID string) (*Stats, error)

	daily.Store

	Close() error
}

// Open selects a backend by driver name ("sqlite" or "postgres").
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(driver) {
	case "", "sqlite", "sqlite3":
		return OpenSQLite(ctx, dsn)
	case "postgres", "postgresql", "pgx":
		return OpenPostgres(ctx, dsn)
	}
	return nil, fmt.Errorf("results: unknown driver %q", driver)
}

// normalize applies defaults shared by both backends.
func (q LeaderboardQuery) normalize() LeaderboardQuery {
	q.Difficulty = strings.ToLower(strings.TrimSpace(q.Difficulty))
	if q.Limit <= 0 {
		q.Limit = DefaultLeaderboardLimit
	}
	if q.Limit > MaxLeaderboardLimit {
		q.Limit = MaxLeaderboardLimit
	}
	return q
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > MaxLeaderboardLimit {
		return MaxLeaderboardLimit
	}
	return limit
}
