package rooms

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TonyXvr/DigitGuesser/internal/game"
)

func newTestRoom(t *testing.T, m *Manager, maxPlayers int) Room {
	t.Helper()
	r, err := m.Create("host", "Hosty", CreateOptions{MaxPlayers: maxPlayers, Difficulty: game.Medium, Digits: 3})
	require.NoError(t, err)
	return r
}

func TestCreate(t *testing.T) {
	m := NewManager(nil)

	r := newTestRoom(t, m, 0)
	assert.Len(t, r.ID, CodeLength)
	assert.Equal(t, DefaultMaxPlayers, r.MaxPlayers)
	assert.Equal(t, StatusWaiting, r.Status)
	assert.Equal(t, "host", r.HostID)
	assert.Equal(t, "Hosty's room", r.Name)
	assert.Equal(t, 4, r.MaxAttempts)
	require.Len(t, r.Players, 1)
	assert.Equal(t, PlayerReady, r.Players[0].Status)
	assert.Empty(t, r.Target)
	assert.Equal(t, 1, m.Count())

	tests := []struct {
		name string
		opts CreateOptions
	}{
		{"too many players", CreateOptions{MaxPlayers: 5, Difficulty: game.Easy, Digits: 3}},
		{"one player", CreateOptions{MaxPlayers: 1, Difficulty: game.Easy, Digits: 3}},
		{"too few digits", CreateOptions{Difficulty: game.Easy, Digits: 1}},
		{"too many digits", CreateOptions{Difficulty: game.Easy, Digits: 6}},
		{"unknown difficulty", CreateOptions{Difficulty: "insane", Digits: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Create("h", "H", tt.opts)
			assert.ErrorIs(t, err, game.ErrInvalidInput)
		})
	}
}

func TestUniqueCodes(t *testing.T) {
	m := NewManager(nil)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		r := newTestRoom(t, m, 2)
		assert.False(t, seen[r.ID], "duplicate code %s", r.ID)
		seen[r.ID] = true
	}
}

func TestJoin(t *testing.T) {
	m := NewManager(game.FixedTargets("472"))
	r := newTestRoom(t, m, 2)

	_, err := m.Join("NOPE00", "p2", "Two")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	got, err := m.Join(r.ID, "p2", "Two")
	require.NoError(t, err)
	assert.Len(t, got.Players, 2)

	got, err = m.Join(r.ID, "p2", "Two")
	require.NoError(t, err, "rejoining is a no-op")
	assert.Len(t, got.Players, 2)

	_, err = m.Join(r.ID, "p3", "Three")
	assert.ErrorIs(t, err, ErrRoomFull)

	// Codes are matched case-insensitively.
	_, err = m.Get(" " + strings.ToLower(r.ID))
	assert.NoError(t, err)

	_, err = m.Start(r.ID, "host")
	require.NoError(t, err)
	_, err = m.Join(r.ID, "p4", "Four")
	assert.ErrorIs(t, err, ErrRoomStarted)
}

func TestStartRules(t *testing.T) {
	m := NewManager(game.FixedTargets("472"))
	r := newTestRoom(t, m, 3)

	_, err := m.Start(r.ID, "host")
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)

	_, err = m.Join(r.ID, "p2", "Two")
	require.NoError(t, err)
	_, err = m.Start(r.ID, "p2")
	assert.ErrorIs(t, err, ErrNotHost)

	_, err = m.Guess(r.ID, "host", "472")
	assert.ErrorIs(t, err, ErrNotPlaying)

	started, err := m.Start(r.ID, "host")
	require.NoError(t, err)
	assert.Equal(t, StatusPlaying, started.Status)
	assert.Empty(t, started.Target, "target stays hidden while playing")
	for _, p := range started.Players {
		assert.Equal(t, PlayerPlaying, p.Status)
	}

	_, err = m.Start(r.ID, "host")
	assert.ErrorIs(t, err, ErrRoomStarted)
}

func TestGuessFlow(t *testing.T) {
	m := NewManager(game.FixedTargets("472"))
	var finished []Room
	m.OnFinish = func(r Room) { finished = append(finished, r) }

	r := newTestRoom(t, m, 2)
	_, err := m.Join(r.ID, "p2", "Two")
	require.NoError(t, err)
	_, err = m.Start(r.ID, "host")
	require.NoError(t, err)

	_, err = m.Guess(r.ID, "stranger", "472")
	assert.ErrorIs(t, err, ErrNotInRoom)
	_, err = m.Guess(r.ID, "p2", "47")
	assert.ErrorIs(t, err, game.ErrInvalidInput)
	_, err = m.Guess(r.ID, "p2", "4a2")
	assert.ErrorIs(t, err, game.ErrInvalidInput)

	res, err := m.Guess(r.ID, "host", "472")
	require.NoError(t, err)
	assert.True(t, res.Won)
	assert.Equal(t, "3B0C", res.Feedback)
	assert.Equal(t, 3900, res.Score) // 900 + 1000 + 2000
	assert.Equal(t, PlayerFinished, res.PlayerStatus)
	assert.Equal(t, StatusPlaying, res.Room.Status, "other player still going")

	_, err = m.Guess(r.ID, "host", "472")
	assert.ErrorIs(t, err, game.ErrGameFinished)

	res, err = m.Guess(r.ID, "p2", "427")
	require.NoError(t, err)
	assert.Equal(t, "1B2C", res.Feedback)
	assert.Equal(t, 300, res.Score)
	assert.Equal(t, 3, res.AttemptsLeft)

	for _, g := range []string{"111", "123"} {
		_, err = m.Guess(r.ID, "p2", g)
		require.NoError(t, err)
	}
	assert.Empty(t, finished)

	res, err = m.Guess(r.ID, "p2", "999")
	require.NoError(t, err)
	assert.False(t, res.Won)
	assert.Equal(t, PlayerFinished, res.PlayerStatus)
	assert.Equal(t, StatusFinished, res.Room.Status)
	assert.Equal(t, "472", res.Room.Target)

	p2, ok := res.Room.Player("p2")
	require.True(t, ok)
	assert.Equal(t, 4, p2.Attempts)
	assert.Equal(t, "999", p2.LastGuess)
	assert.Equal(t, "0B0C", p2.LastFeedback)

	require.Len(t, finished, 1)
	assert.Equal(t, r.ID, finished[0].ID)
}

func TestLeave(t *testing.T) {
	m := NewManager(game.FixedTargets("472"))
	r := newTestRoom(t, m, 3)
	_, err := m.Join(r.ID, "p2", "Two")
	require.NoError(t, err)

	_, err = m.Leave(r.ID, "ghost")
	assert.ErrorIs(t, err, ErrNotInRoom)

	got, err := m.Leave(r.ID, "host")
	require.NoError(t, err)
	assert.Equal(t, "p2", got.HostID, "host role passes on")
	assert.Len(t, got.Players, 1)

	_, err = m.Leave(r.ID, "p2")
	require.NoError(t, err)
	_, err = m.Get(r.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Equal(t, 0, m.Count())
}

func TestLeaveFinishesRoomWhenRestAreDone(t *testing.T) {
	m := NewManager(game.FixedTargets("472"))
	done := 0
	m.OnFinish = func(Room) { done++ }

	r := newTestRoom(t, m, 2)
	_, err := m.Join(r.ID, "p2", "Two")
	require.NoError(t, err)
	_, err = m.Start(r.ID, "host")
	require.NoError(t, err)
	_, err = m.Guess(r.ID, "host", "472")
	require.NoError(t, err)

	got, err := m.Leave(r.ID, "p2")
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, got.Status)
	assert.Equal(t, 1, done)
}

func TestAvailable(t *testing.T) {
	m := NewManager(game.FixedTargets("472"))
	first := newTestRoom(t, m, 2)
	time.Sleep(2 * time.Millisecond)
	second := newTestRoom(t, m, 3)
	time.Sleep(2 * time.Millisecond)
	full := newTestRoom(t, m, 2)
	_, err := m.Join(full.ID, "p2", "Two")
	require.NoError(t, err)

	list := m.Available()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)
}

func TestSubscribe(t *testing.T) {
	m := NewManager(game.FixedTargets("472"))
	r := newTestRoom(t, m, 2)

	ch, cancel, err := m.Subscribe(r.ID)
	require.NoError(t, err)

	snap := <-ch
	assert.Len(t, snap.Players, 1)

	_, err = m.Join(r.ID, "p2", "Two")
	require.NoError(t, err)
	snap = <-ch
	assert.Len(t, snap.Players, 2)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	_, _, err = m.Subscribe("NOPE00")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestSubscriptionClosesWithRoom(t *testing.T) {
	m := NewManager(nil)
	r := newTestRoom(t, m, 2)
	ch, cancel, err := m.Subscribe(r.ID)
	require.NoError(t, err)
	defer cancel()
	<-ch

	_, err = m.Leave(r.ID, "host")
	require.NoError(t, err)
	_, open := <-ch
	assert.False(t, open)
}

func TestSweep(t *testing.T) {
	m := NewManager(nil)
	newTestRoom(t, m, 2)
	assert.Equal(t, 0, m.Sweep(time.Hour))
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, m.Sweep(time.Millisecond))
	assert.Equal(t, 0, m.Count())
}

func TestSweepDropsFinishedRooms(t *testing.T) {
	m := NewManager(game.FixedTargets("472"))
	r := newTestRoom(t, m, 2)
	idle := newTestRoom(t, m, 2)
	_, err := m.Join(r.ID, "p2", "Two")
	require.NoError(t, err)
	_, err = m.Start(r.ID, "host")
	require.NoError(t, err)
	_, err = m.Guess(r.ID, "host", "472")
	require.NoError(t, err)
	res, err := m.Guess(r.ID, "p2", "472")
	require.NoError(t, err)
	require.Equal(t, StatusFinished, res.Room.Status)

	assert.Equal(t, 1, m.Sweep(time.Hour))
	_, err = m.Get(r.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = m.Get(idle.ID)
	assert.NoError(t, err, "waiting room is still fresh")
}
