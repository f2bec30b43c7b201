// internal/results/sqlite.go
//
// SQLite backend.
//   - Opens the database file with WAL, busy timeout and foreign keys.
//   - Applies embedded migrations once each, recorded in _migrations.
//   - Timestamps are stored as fixed-width UTC text so they sort lexically.

package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/TonyXvr/DigitGuesser/assets"
	"github.com/TonyXvr/DigitGuesser/internal/daily"
)

const tsLayout = "2006-01-02T15:04:05.000000Z"

type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

func openDB(path string) (*sql.DB, error) {
	if path == "" {
		path = "./data/digitguess.db"
	}
	file, _, _ := strings.Cut(path, "?")
	if dir := filepath.Dir(file); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", path+sep+"_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open %s: %w", file, err)
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}
	files, scripts, err := migrationScripts("sqlite")
	if err != nil {
		return err
	}

	for _, f := range files {
		var done int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, scripts[f]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Str("driver", "sqlite").Msg("applied")
	}
	return nil
}

// migrationScripts returns the sorted *.sql names of a dialect and their contents.
func migrationScripts(dialect string) ([]string, map[string]string, error) {
	fsys, err := assets.Migrations(dialect)
	if err != nil {
		return nil, nil, err
	}
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(names)
	scripts := make(map[string]string, len(names))
	for _, n := range names {
		b, err := fs.ReadFile(fsys, n)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", n, err)
		}
		scripts[n] = string(b)
	}
	return names, scripts, nil
}

func (s *sqliteStore) Close() error { return s.db.Close() }

/* ------------------------------ profiles ------------------------------- */

func (s *sqliteStore) CreateProfile(ctx context.Context, nickname, passwordHash string) (*Profile, error) {
	p := &Profile{
		ID:           uuid.NewString(),
		Nickname:     nickname,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, nickname, password_hash, created_at) VALUES (?,?,?,?)`,
		p.ID, p.Nickname, p.PasswordHash, p.CreatedAt.Format(tsLayout))
	if isUniqueViolation(err) {
		return nil, ErrNicknameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return p, nil
}

func (s *sqliteStore) ProfileByNickname(ctx context.Context, nickname string) (*Profile, error) {
	return scanProfile(s.db.QueryRowContext(ctx, `
        SELECT id, nickname, password_hash, created_at, games_played, wins, streak
        FROM profiles WHERE lower(nickname)=lower(?)`, nickname))
}

func (s *sqliteStore) ProfileByID(ctx context.Context, id string) (*Profile, error) {
	return scanProfile(s.db.QueryRowContext(ctx, `
        SELECT id, nickname, password_hash, created_at, games_played, wins, streak
        FROM profiles WHERE id=?`, id))
}

func scanProfile(row *sql.Row) (*Profile, error) {
	var p Profile
	var created string
	err := row.Scan(&p.ID, &p.Nickname, &p.PasswordHash, &created, &p.GamesPlayed, &p.Wins, &p.Streak)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt = parseTS(created)
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func parseTS(v string) time.Time {
	t, err := time.Parse(tsLayout, v)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, v)
	}
	return t
}

/* ------------------------------- results ------------------------------- */

func (s *sqliteStore) SaveResult(ctx context.Context, r GameResult) (*GameResult, error) {
	r.ID = uuid.NewString()
	r.Difficulty = strings.ToLower(r.Difficulty)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.CreatedAt = r.CreatedAt.UTC().Truncate(time.Microsecond)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := bumpStatsSQLite(ctx, tx, r.ProfileID, r.Won); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO game_results (id, profile_id, score, difficulty, digits, mode, won, guesses, created_at)
        VALUES (?,?,?,?,?,?,?,?,?)`,
		r.ID, r.ProfileID, r.Score, r.Difficulty, r.Digits, r.Mode, r.Won, r.Guesses, r.CreatedAt.Format(tsLayout),
	); err != nil {
		return nil, fmt.Errorf("insert result: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &r, nil
}

// bumpStatsSQLite increments games played; wins and streak follow the outcome.
func bumpStatsSQLite(ctx context.Context, tx *sql.Tx, profileID string, won bool) error {
	var gp, wins, streak int
	err := tx.QueryRowContext(ctx, `SELECT games_played, wins, streak FROM profiles WHERE id=?`, profileID).
		Scan(&gp, &wins, &streak)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	gp, wins, streak = nextStats(gp, wins, streak, won)
	_, err = tx.ExecContext(ctx, `UPDATE profiles SET games_played=?, wins=?, streak=? WHERE id=?`,
		gp, wins, streak, profileID)
	return err
}

func nextStats(gp, wins, streak int, won bool) (int, int, int) {
	gp++
	if won {
		wins++
		streak++
	} else {
		streak = 0
	}
	return gp, wins, streak
}

func (s *sqliteStore) Leaderboard(ctx context.Context, q LeaderboardQuery) ([]LeaderboardEntry, error) {
	q = q.normalize()
	var where []string
	var args []any
	if q.Difficulty != "" {
		where = append(where, "r.difficulty=?")
		args = append(args, q.Difficulty)
	}
	if q.Digits > 0 {
		where = append(where, "r.digits=?")
		args = append(args, q.Digits)
	}
	query := `SELECT p.nickname, r.score, r.difficulty, r.digits, r.created_at
        FROM game_results r JOIN profiles p ON p.id = r.profile_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY r.score DESC, r.created_at ASC LIMIT ?"
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LeaderboardEntry, 0, q.Limit)
	for rows.Next() {
		var e LeaderboardEntry
		var created string
		if err := rows.Scan(&e.Nickname, &e.Score, &e.Difficulty, &e.Digits, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = parseTS(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqliteStore) ProfileResults(ctx context.Context, profileID string, limit int) ([]GameResult, error) {
	limit = clampLimit(limit, 50)
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, profile_id, score, difficulty, digits, mode, won, guesses, created_at
        FROM game_results WHERE profile_id=? ORDER BY created_at DESC LIMIT ?`, profileID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GameResult{}
	for rows.Next() {
		var r GameResult
		var created string
		if err := rows.Scan(&r.ID, &r.ProfileID, &r.Score, &r.Difficulty, &r.Digits, &r.Mode, &r.Won, &r.Guesses, &created); err != nil {
			return nil, err
		}
		r.CreatedAt = parseTS(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Stats(ctx context.Context, profileID string) (*Stats, error) {
	st := &Stats{ProfileID: profileID}
	err := s.db.QueryRowContext(ctx, `
        SELECT p.games_played, p.wins, p.streak,
               COALESCE(MAX(r.score), 0), COALESCE(SUM(r.score), 0)
        FROM profiles p LEFT JOIN game_results r ON r.profile_id = p.id
        WHERE p.id=?
        GROUP BY p.id`, profileID).
		Scan(&st.GamesPlayed, &st.Wins, &st.Streak, &st.BestScore, &st.TotalScore)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

/* -------------------------------- daily -------------------------------- */

func (s *sqliteStore) DailyPlayed(ctx context.Context, playerID, date string) (bool, error) {
	var cnt int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM daily_results WHERE player_id=? AND date=?`, playerID, date,
	).Scan(&cnt); err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (s *sqliteStore) SaveDaily(ctx context.Context, r daily.Result) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO daily_results
            (player_id, date, digits, score, guesses, won, elapsed_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.PlayerID, r.Date, r.Digits, r.Score, r.Guesses, r.Won, r.ElapsedMs,
	)
	return err
}

func (s *sqliteStore) DailyLeaderboard(ctx context.Context, date string, limit int) ([]daily.LBRow, error) {
	limit = clampLimit(limit, 20)
	rows, err := s.db.QueryContext(ctx, `
        SELECT d.player_id, COALESCE(p.nickname, 'guest'), d.score, d.guesses, d.elapsed_ms
        FROM daily_results d LEFT JOIN profiles p ON p.id = d.player_id
        WHERE d.date=?
        ORDER BY d.score DESC, d.guesses ASC, d.elapsed_ms ASC, d.created_at ASC
        LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]daily.LBRow, 0, limit)
	for rows.Next() {
		var r daily.LBRow
		if err := rows.Scan(&r.PlayerID, &r.Nickname, &r.Score, &r.Guesses, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
