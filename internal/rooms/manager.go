// internal/rooms/manager.go
//
// Multiplayer rooms.
//   - A host creates a room (2–4 players, one difficulty and digit count) and joins it.
//   - Players join while the room is waiting; the host starts once two are present.
//   - Everyone races the same hidden number with the difficulty's attempt budget.
//   - The room finishes when every player has either solved it or run out of attempts.
//
// All state is in memory and guarded by one mutex. Subscribers receive a snapshot
// after every change; the hidden number is only included once the room is finished.

package rooms

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/TonyXvr/DigitGuesser/internal/game"
)

const (
	CodeLength        = 6
	MinPlayers        = 2
	DefaultMaxPlayers = 4
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrRoomStarted      = errors.New("room already started")
	ErrNotHost          = errors.New("only the host can do that")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrNotPlaying       = errors.New("room is not playing")
	ErrNotInRoom        = errors.New("player not in room")
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

type PlayerStatus string

const (
	PlayerReady    PlayerStatus = "ready"
	PlayerPlaying  PlayerStatus = "playing"
	PlayerFinished PlayerStatus = "finished"
)

// Player is one participant. Score is the score of the player's latest guess.
type Player struct {
	ID           string       `json:"id"`
	Nickname     string       `json:"nickname"`
	Score        int          `json:"score"`
	Status       PlayerStatus `json:"status"`
	Attempts     int          `json:"attempts"`
	Won          bool         `json:"won"`
	LastGuess    string       `json:"lastGuess,omitempty"`
	LastFeedback string       `json:"lastFeedback,omitempty"`
	JoinedAt     time.Time    `json:"joinedAt"`
}

// Room is a snapshot; mutating it has no effect on the manager.
type Room struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	HostID      string          `json:"hostId"`
	Status      Status          `json:"status"`
	MaxPlayers  int             `json:"maxPlayers"`
	Difficulty  game.Difficulty `json:"difficulty"`
	Digits      int             `json:"digits"`
	MaxAttempts int             `json:"maxAttempts"`
	Players     []Player        `json:"players"`
	Target      string          `json:"target,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Player returns the participant with the given id.
func (r Room) Player(id string) (Player, bool) {
	for _, p := range r.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// CreateOptions describes a new room. Zero MaxPlayers means DefaultMaxPlayers.
type CreateOptions struct {
	Name       string
	MaxPlayers int
	Difficulty game.Difficulty
	Digits     int
}

// GuessResult reports one accepted guess.
type GuessResult struct {
	Outcome      game.Outcome `json:"outcome"`
	Feedback     string       `json:"feedback"`
	Score        int          `json:"score"`
	Attempt      int          `json:"attempt"`
	AttemptsLeft int          `json:"attemptsLeft"`
	Won          bool         `json:"won"`
	PlayerStatus PlayerStatus `json:"playerStatus"`
	Room         Room         `json:"room"`
}

type room struct {
	Room
	target string
	subs   map[int]chan Room
}

// Manager owns every room.
type Manager struct {
	mu      sync.Mutex
	rooms   map[string]*room
	targets game.TargetFunc
	nextSub int

	// OnFinish, if set, is called once per room when it finishes, outside the lock.
	OnFinish func(Room)
}

// NewManager creates an empty manager. A nil targets uses game.RandomTarget.
func NewManager(targets game.TargetFunc) *Manager {
	if targets == nil {
		targets = game.RandomTarget
	}
	return &Manager{rooms: make(map[string]*room), targets: targets}
}

// Create makes a room and seats the host in it.
func (m *Manager) Create(hostID, nickname string, opts CreateOptions) (Room, error) {
	if hostID == "" {
		return Room{}, &game.InvalidInputError{Field: "hostId", Reason: "empty"}
	}
	if opts.MaxPlayers == 0 {
		opts.MaxPlayers = DefaultMaxPlayers
	}
	if opts.MaxPlayers < MinPlayers || opts.MaxPlayers > DefaultMaxPlayers {
		return Room{}, &game.InvalidInputError{
			Field:  "maxPlayers",
			Reason: fmt.Sprintf("%d outside [%d, %d]", opts.MaxPlayers, MinPlayers, DefaultMaxPlayers),
		}
	}
	if opts.Digits < game.MinDigits || opts.Digits > game.MaxDigits {
		return Room{}, &game.InvalidInputError{
			Field:  "digits",
			Reason: fmt.Sprintf("%d outside [%d, %d]", opts.Digits, game.MinDigits, game.MaxDigits),
		}
	}
	maxAttempts, err := opts.Difficulty.MaxAttempts()
	if err != nil {
		return Room{}, err
	}
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = nickname + "'s room"
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	code, err := m.uniqueCode()
	if err != nil {
		return Room{}, err
	}
	now := time.Now().UTC()
	r := &room{
		Room: Room{
			ID:          code,
			Name:        name,
			HostID:      hostID,
			Status:      StatusWaiting,
			MaxPlayers:  opts.MaxPlayers,
			Difficulty:  opts.Difficulty,
			Digits:      opts.Digits,
			MaxAttempts: maxAttempts,
			Players:     []Player{{ID: hostID, Nickname: nickname, Status: PlayerReady, JoinedAt: now}},
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		subs: make(map[int]chan Room),
	}
	m.rooms[code] = r
	return r.snapshot(), nil
}

// Join seats a player in a waiting room. Joining a room you are already in is a no-op.
func (m *Manager) Join(roomID, playerID, nickname string) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.get(roomID)
	if err != nil {
		return Room{}, err
	}
	if r.index(playerID) >= 0 {
		return r.snapshot(), nil
	}
	if r.Status != StatusWaiting {
		return Room{}, ErrRoomStarted
	}
	if len(r.Players) >= r.MaxPlayers {
		return Room{}, ErrRoomFull
	}
	r.Players = append(r.Players, Player{ID: playerID, Nickname: nickname, Status: PlayerReady, JoinedAt: time.Now().UTC()})
	r.touch()
	m.publish(r)
	return r.snapshot(), nil
}

// Leave removes a player. The longest-seated remaining player becomes host;
// an empty room is deleted and its subscribers are closed.
func (m *Manager) Leave(roomID, playerID string) (Room, error) {
	m.mu.Lock()
	r, err := m.get(roomID)
	if err != nil {
		m.mu.Unlock()
		return Room{}, err
	}
	i := r.index(playerID)
	if i < 0 {
		m.mu.Unlock()
		return Room{}, ErrNotInRoom
	}
	r.Players = append(r.Players[:i], r.Players[i+1:]...)
	r.touch()

	if len(r.Players) == 0 {
		m.remove(r)
		snap := r.snapshot()
		m.mu.Unlock()
		return snap, nil
	}
	if r.HostID == playerID {
		r.HostID = r.Players[0].ID
	}
	finished := r.Status == StatusPlaying && r.allFinished()
	if finished {
		r.Status = StatusFinished
	}
	m.publish(r)
	snap := r.snapshot()
	m.mu.Unlock()

	if finished {
		m.finished(snap)
	}
	return snap, nil
}

// Start begins the game: host only, at least two players, room still waiting.
func (m *Manager) Start(roomID, playerID string) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.get(roomID)
	if err != nil {
		return Room{}, err
	}
	if r.HostID != playerID {
		return Room{}, ErrNotHost
	}
	if r.Status != StatusWaiting {
		return Room{}, ErrRoomStarted
	}
	if len(r.Players) < MinPlayers {
		return Room{}, ErrNotEnoughPlayers
	}
	target, err := m.targets(r.Digits)
	if err != nil {
		return Room{}, err
	}
	if len(target) != r.Digits {
		return Room{}, errors.New("rooms: target source returned wrong length")
	}
	r.target = target
	r.Status = StatusPlaying
	for i := range r.Players {
		r.Players[i].Status = PlayerPlaying
		r.Players[i].Score = 0
		r.Players[i].Attempts = 0
	}
	r.touch()
	m.publish(r)
	return r.snapshot(), nil
}

// Guess evaluates a player's guess against the room's number.
func (m *Manager) Guess(roomID, playerID, guess string) (*GuessResult, error) {
	m.mu.Lock()
	r, err := m.get(roomID)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if r.Status != StatusPlaying {
		m.mu.Unlock()
		return nil, ErrNotPlaying
	}
	i := r.index(playerID)
	if i < 0 {
		m.mu.Unlock()
		return nil, ErrNotInRoom
	}
	p := &r.Players[i]
	if p.Status == PlayerFinished {
		m.mu.Unlock()
		return nil, game.ErrGameFinished
	}

	res, err := r.apply(p, strings.TrimSpace(guess))
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	finished := r.allFinished()
	if finished {
		r.Status = StatusFinished
	}
	r.touch()
	m.publish(r)
	res.Room = r.snapshot()
	m.mu.Unlock()

	if finished {
		m.finished(res.Room)
	}
	return res, nil
}

func (r *room) apply(p *Player, guess string) (*GuessResult, error) {
	if err := game.ValidateDigits("guess", guess); err != nil {
		return nil, err
	}
	if len(guess) != r.Digits {
		return nil, &game.InvalidInputError{Field: "guess", Reason: fmt.Sprintf("want %d digits, got %d", r.Digits, len(guess))}
	}
	outcome, err := game.Evaluate(guess, r.target)
	if err != nil {
		return nil, err
	}
	attempt := p.Attempts + 1
	complete := guess == r.target
	score, err := game.Score(game.ScoreInputs{
		Difficulty:    r.Difficulty,
		DigitCount:    r.Digits,
		CorrectDigits: outcome.PositionMatches,
		IsComplete:    complete,
		AttemptCount:  attempt,
		MaxAttempts:   r.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}

	p.Attempts = attempt
	p.Score = score
	p.LastGuess = guess
	p.LastFeedback = outcome.String()
	if complete {
		p.Won = true
		p.Status = PlayerFinished
	} else if attempt >= r.MaxAttempts {
		p.Status = PlayerFinished
	}
	return &GuessResult{
		Outcome:      outcome,
		Feedback:     p.LastFeedback,
		Score:        score,
		Attempt:      attempt,
		AttemptsLeft: r.MaxAttempts - attempt,
		Won:          p.Won,
		PlayerStatus: p.Status,
	}, nil
}

// Get returns a snapshot of one room.
func (m *Manager) Get(roomID string) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, err := m.get(roomID)
	if err != nil {
		return Room{}, err
	}
	return r.snapshot(), nil
}

// Available lists waiting rooms with a free seat, newest first.
func (m *Manager) Available() []Room {
	m.mu.Lock()
	out := make([]Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		if r.Status == StatusWaiting && len(r.Players) < r.MaxPlayers {
			out = append(out, r.snapshot())
		}
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of live rooms.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// Subscribe returns a channel of snapshots for a room, starting with the current one.
// Slow readers miss intermediate snapshots rather than blocking the room.
// The channel is closed by cancel or when the room is removed.
func (m *Manager) Subscribe(roomID string) (<-chan Room, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.get(roomID)
	if err != nil {
		return nil, nil, err
	}
	id := m.nextSub
	m.nextSub++
	ch := make(chan Room, 8)
	ch <- r.snapshot()
	r.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if c, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel, nil
}

// Sweep drops finished rooms and rooms nobody has touched for idle. Returns the count removed.
func (m *Manager) Sweep(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().UTC().Add(-idle)
	n := 0
	for _, r := range m.rooms {
		if r.Status == StatusFinished || r.UpdatedAt.Before(cutoff) {
			m.remove(r)
			n++
		}
	}
	return n
}

func (m *Manager) get(roomID string) (*room, error) {
	r, ok := m.rooms[strings.ToUpper(strings.TrimSpace(roomID))]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

func (m *Manager) remove(r *room) {
	delete(m.rooms, r.ID)
	for id, c := range r.subs {
		delete(r.subs, id)
		close(c)
	}
}

func (m *Manager) publish(r *room) {
	snap := r.snapshot()
	for _, c := range r.subs {
		select {
		case c <- snap:
		default:
		}
	}
}

func (m *Manager) finished(snap Room) {
	if m.OnFinish != nil {
		m.OnFinish(snap)
	}
}

// uniqueCode draws a fresh room code; the caller holds m.mu.
func (m *Manager) uniqueCode() (string, error) {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	for attempt := 0; attempt < 100; attempt++ {
		b := make([]byte, CodeLength)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		for i := range b {
			b[i] = charset[int(b[i])%len(charset)]
		}
		if _, exists := m.rooms[string(b)]; !exists {
			return string(b), nil
		}
	}
	return "", errors.New("rooms: could not generate a unique code")
}

func (r *room) index(playerID string) int {
	for i := range r.Players {
		if r.Players[i].ID == playerID {
			return i
		}
	}
	return -1
}

func (r *room) allFinished() bool {
	for _, p := range r.Players {
		if p.Status != PlayerFinished {
			return false
		}
	}
	return true
}

func (r *room) touch() { r.UpdatedAt = time.Now().UTC() }

func (r *room) snapshot() Room {
	s := r.Room
	s.Players = append([]Player(nil), r.Players...)
	if r.Status == StatusFinished {
		s.Target = r.target
	}
	return s
}
