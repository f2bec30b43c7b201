package store

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TonyXvr/DigitGuesser/internal/game"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	g, err := game.New(game.Options{Difficulty: game.Medium, DigitCount: 3, Targets: game.FixedTargets("472")})
	require.NoError(t, err)
	_, err = g.ApplyGuess("427")
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, g))

	got, err := s.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
	assert.Equal(t, "472", got.Target)
	assert.Equal(t, game.Medium, got.Difficulty)
	require.Len(t, got.Attempts, 1)
	assert.Equal(t, "1B2C", got.Attempts[0].Outcome.String())

	// A loaded game keeps playing.
	res, err := got.ApplyGuess("472")
	require.NoError(t, err)
	assert.Equal(t, game.StateWon, res.State)

	require.NoError(t, s.Delete(ctx, g.ID))
	_, err = s.Get(ctx, g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Delete(ctx, g.ID))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())

	_, err := NewMemoryStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// Runs only if REDIS_ADDR is set.
func TestRedisStoreIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD"), DB: db})
	defer rdb.Close()

	exerciseStore(t, NewRedisStore(rdb, time.Minute))
}
