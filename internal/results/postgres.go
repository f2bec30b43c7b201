package results

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/TonyXvr/DigitGuesser/internal/daily"
)

type pgStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool to dsn, pings it and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (Store, error) {
	if dsn == "" {
		return nil, errors.New("results: DATABASE_URL is required for postgres")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := migratePostgres(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &pgStore{pool: pool}, nil
}

func migratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}
	files, scripts, err := migrationScripts("postgres")
	if err != nil {
		return err
	}
	for _, f := range files {
		var done int
		err := pool.QueryRow(ctx, `SELECT 1 FROM _migrations WHERE name=$1`, f).Scan(&done)
		if err == nil {
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, scripts[f]); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO _migrations(name) VALUES ($1)`, f); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Str("driver", "postgres").Msg("applied")
	}
	return nil
}

func (s *pgStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *pgStore) CreateProfile(ctx context.Context, nickname, passwordHash string) (*Profile, error) {
	p := &Profile{ID: uuid.NewString(), Nickname: nickname, PasswordHash: passwordHash}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO profiles (id, nickname, password_hash) VALUES ($1,$2,$3) RETURNING created_at`,
		p.ID, p.Nickname, p.PasswordHash,
	).Scan(&p.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return nil, ErrNicknameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return p, nil
}

func (s *pgStore) ProfileByNickname(ctx context.Context, nickname string) (*Profile, error) {
	return s.scanProfile(s.pool.QueryRow(ctx, `
        SELECT id, nickname, password_hash, created_at, games_played, wins, streak
        FROM profiles WHERE lower(nickname)=lower($1)`, nickname))
}

func (s *pgStore) ProfileByID(ctx context.Context, id string) (*Profile, error) {
	return s.scanProfile(s.pool.QueryRow(ctx, `
        SELECT id, nickname, password_hash, created_at, games_played, wins, streak
        FROM profiles WHERE id=$1`, id))
}

func (s *pgStore) scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Nickname, &p.PasswordHash, &p.CreatedAt, &p.GamesPlayed, &p.Wins, &p.Streak)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *pgStore) SaveResult(ctx context.Context, r GameResult) (*GameResult, error) {
	r.ID = uuid.NewString()
	r.Difficulty = strings.ToLower(r.Difficulty)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.CreatedAt = r.CreatedAt.UTC().Truncate(time.Microsecond)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var gp, wins, streak int
	err = tx.QueryRow(ctx, `SELECT games_played, wins, streak FROM profiles WHERE id=$1 FOR UPDATE`, r.ProfileID).
		Scan(&gp, &wins, &streak)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	gp, wins, streak = nextStats(gp, wins, streak, r.Won)
	if _, err := tx.Exec(ctx, `UPDATE profiles SET games_played=$1, wins=$2, streak=$3 WHERE id=$4`,
		gp, wins, streak, r.ProfileID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `
        INSERT INTO game_results (id, profile_id, score, difficulty, digits, mode, won, guesses, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		r.ID, r.ProfileID, r.Score, r.Difficulty, r.Digits, r.Mode, r.Won, r.Guesses, r.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert result: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *pgStore) Leaderboard(ctx context.Context, q LeaderboardQuery) ([]LeaderboardEntry, error) {
	q = q.normalize()
	var where []string
	var args []any
	if q.Difficulty != "" {
		args = append(args, q.Difficulty)
		where = append(where, fmt.Sprintf("r.difficulty=$%d", len(args)))
	}
	if q.Digits > 0 {
		args = append(args, q.Digits)
		where = append(where, fmt.Sprintf("r.digits=$%d", len(args)))
	}
	query := `SELECT p.nickname, r.score, r.difficulty, r.digits, r.created_at
        FROM game_results r JOIN profiles p ON p.id = r.profile_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, q.Limit)
	query += fmt.Sprintf(" ORDER BY r.score DESC, r.created_at ASC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LeaderboardEntry, 0, q.Limit)
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Nickname, &e.Score, &e.Difficulty, &e.Digits, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *pgStore) ProfileResults(ctx context.Context, profileID string, limit int) ([]GameResult, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT id, profile_id, score, difficulty, digits, mode, won, guesses, created_at
        FROM game_results WHERE profile_id=$1 ORDER BY created_at DESC LIMIT $2`,
		profileID, clampLimit(limit, 50))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GameResult{}
	for rows.Next() {
		var r GameResult
		if err := rows.Scan(&r.ID, &r.ProfileID, &r.Score, &r.Difficulty, &r.Digits, &r.Mode, &r.Won, &r.Guesses, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *pgStore) Stats(ctx context.Context, profileID string) (*Stats, error) {
	st := &Stats{ProfileID: profileID}
	err := s.pool.QueryRow(ctx, `
        SELECT p.games_played, p.wins, p.streak,
               COALESCE(MAX(r.score), 0)::int, COALESCE(SUM(r.score), 0)::int
        FROM profiles p LEFT JOIN game_results r ON r.profile_id = p.id
        WHERE p.id=$1
        GROUP BY p.id`, profileID).
		Scan(&st.GamesPlayed, &st.Wins, &st.Streak, &st.BestScore, &st.TotalScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *pgStore) DailyPlayed(ctx context.Context, playerID, date string) (bool, error) {
	var played bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM daily_results WHERE player_id=$1 AND date=$2)`, playerID, date,
	).Scan(&played)
	return played, err
}

func (s *pgStore) SaveDaily(ctx context.Context, r daily.Result) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO daily_results (player_id, date, digits, score, guesses, won, elapsed_ms)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (player_id, date) DO NOTHING`,
		r.PlayerID, r.Date, r.Digits, r.Score, r.Guesses, r.Won, r.ElapsedMs,
	)
	return err
}

func (s *pgStore) DailyLeaderboard(ctx context.Context, date string, limit int) ([]daily.LBRow, error) {
	limit = clampLimit(limit, 20)
	rows, err := s.pool.Query(ctx, `
        SELECT d.player_id, COALESCE(p.nickname, 'guest'), d.score, d.guesses, d.elapsed_ms
        FROM daily_results d LEFT JOIN profiles p ON p.id = d.player_id
        WHERE d.date=$1
        ORDER BY d.score DESC, d.guesses ASC, d.elapsed_ms ASC, d.created_at ASC
        LIMIT $2`, date, limit)
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
