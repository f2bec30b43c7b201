package results

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TonyXvr/DigitGuesser/internal/daily"
)

func openTestSQLite(t *testing.T) Store {
	t.Helper()
	st, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// exerciseStore runs the shared behaviour checks against any backend.
// Nicknames carry a suffix so runs against a shared Postgres do not collide.
func exerciseStore(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	sfx := uuid.NewString()[:8]

	alice, err := st.CreateProfile(ctx, "Alice_"+sfx, "hash-a")
	require.NoError(t, err)
	assert.NotEmpty(t, alice.ID)
	assert.False(t, alice.CreatedAt.IsZero())

	_, err = st.CreateProfile(ctx, "ALICE_"+sfx, "hash-b")
	assert.ErrorIs(t, err, ErrNicknameTaken)

	got, err := st.ProfileByNickname(ctx, "alice_"+sfx)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "hash-a", got.PasswordHash)

	_, err = st.ProfileByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	bob, err := st.CreateProfile(ctx, "bob_"+sfx, "hash-b")
	require.NoError(t, err)

	base := time.Now().UTC().Add(-time.Hour)
	for i, r := range []GameResult{
		{ProfileID: alice.ID, Score: 1950, Difficulty: "Easy", Digits: 3, Mode: "classic", Won: true, Guesses: 1},
		{ProfileID: alice.ID, Score: 900, Difficulty: "hard", Digits: 2, Mode: "classic", Won: true, Guesses: 3},
		{ProfileID: alice.ID, Score: 300, Difficulty: "easy", Digits: 3, Mode: "classic", Won: false, Guesses: 5},
		{ProfileID: bob.ID, Score: 1200, Difficulty: "easy", Digits: 3, Mode: "classic", Won: true, Guesses: 2},
	} {
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		saved, err := st.SaveResult(ctx, r)
		require.NoError(t, err)
		assert.NotEmpty(t, saved.ID)
		assert.Equal(t, strings.ToLower(r.Difficulty), saved.Difficulty)
	}

	_, err = st.SaveResult(ctx, GameResult{ProfileID: "ghost", Score: 1, Difficulty: "easy", Digits: 2, Mode: "classic"})
	assert.ErrorIs(t, err, ErrNotFound)

	stats, err := st.Stats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.GamesPlayed)
	assert.Equal(t, 2, stats.Wins)
	assert.Equal(t, 0, stats.Streak, "the loss resets the streak")
	assert.Equal(t, 1950, stats.BestScore)
	assert.Equal(t, 3150, stats.TotalScore)

	mine, err := st.ProfileResults(ctx, alice.ID, 0)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, 300, mine[0].Score, "newest first")
	assert.False(t, mine[0].Won)

	lb, err := st.Leaderboard(ctx, LeaderboardQuery{Difficulty: "EASY", Digits: 3, Limit: MaxLeaderboardLimit})
	require.NoError(t, err)
	var mineOnly []LeaderboardEntry
	for _, e := range lb {
		if e.Nickname == "Alice_"+sfx || e.Nickname == "bob_"+sfx {
			mineOnly = append(mineOnly, e)
		}
	}
	require.Len(t, mineOnly, 3)
	assert.Equal(t, []int{1950, 1200, 300}, []int{mineOnly[0].Score, mineOnly[1].Score, mineOnly[2].Score})

	date := "2026-10-15-" + sfx
	played, err := st.DailyPlayed(ctx, alice.ID, date)
	require.NoError(t, err)
	assert.False(t, played)

	require.NoError(t, st.SaveDaily(ctx, daily.Result{PlayerID: alice.ID, Date: date, Digits: 4, Score: 2000, Guesses: 3, Won: true, ElapsedMs: 9000}))
	require.NoError(t, st.SaveDaily(ctx, daily.Result{PlayerID: alice.ID, Date: date, Digits: 4, Score: 9999, Guesses: 1, Won: true, ElapsedMs: 1}))
	require.NoError(t, st.SaveDaily(ctx, daily.Result{PlayerID: "anon-1", Date: date, Digits: 4, Score: 2000, Guesses: 2, Won: true, ElapsedMs: 12000}))

	played, err = st.DailyPlayed(ctx, alice.ID, date)
	require.NoError(t, err)
	assert.True(t, played)

	rows, err := st.DailyLeaderboard(ctx, date, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "guest", rows[0].Nickname, "fewer guesses wins the tie")
	assert.Equal(t, "Alice_"+sfx, rows[1].Nickname)
	assert.Equal(t, 2000, rows[1].Score, "second insert for the same day is ignored")
}

func TestSQLiteStore(t *testing.T) {
	exerciseStore(t, openTestSQLite(t))
}

func TestSQLiteMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "again.db")
	st, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	_, err = st.CreateProfile(context.Background(), "carol", "h")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	defer st.Close()
	p, err := st.ProfileByNickname(context.Background(), "carol")
	require.NoError(t, err)
	assert.Equal(t, "carol", p.Nickname)
}

func TestLeaderboardQueryNormalize(t *testing.T) {
	q := LeaderboardQuery{Difficulty: " Hard "}.normalize()
	assert.Equal(t, "hard", q.Difficulty)
	assert.Equal(t, DefaultLeaderboardLimit, q.Limit)
	assert.Equal(t, MaxLeaderboardLimit, LeaderboardQuery{Limit: 5000}.normalize().Limit)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "")
	assert.Error(t, err)
}

// Runs only if DATABASE_URL is set.
func TestPostgresStoreIntegration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	st, err := OpenPostgres(context.Background(), dsn)
	require.NoError(t, err)
	defer st.Close()
	exerciseStore(t, st)
}
