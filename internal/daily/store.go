package daily

import "context"

// Result is one player's finished daily challenge.
type Result struct {
	PlayerID  string `json:"playerId"`
	Date      string `json:"date"`
	Digits    int    `json:"digits"`
	Score     int    `json:"score"`
	Guesses   int    `json:"guesses"`
	Won       bool   `json:"won"`
	ElapsedMs int    `json:"elapsedMs"`
}

// LBRow is a daily leaderboard line. Nickname is "guest" for anonymous players.
// PlayerID stays server side: for guests it is the anon cookie value.
type LBRow struct {
	PlayerID  string `json:"-"`
	Nickname  string `json:"nickname"`
	Score     int    `json:"score"`
	Guesses   int    `json:"guesses"`
	ElapsedMs int    `json:"elapsedMs"`
}

// Store persists daily results. At most one result per player and date is kept;
// later inserts for the same pair are ignored.
type Store interface {
	DailyPlayed(ctx context.Context, playerID, date string) (bool, error)
	SaveDaily(ctx context.Context, r Result) error
	// DailyLeaderboard orders by score desc, then guesses asc, then elapsed asc.
	DailyLeaderboard(ctx context.Context, date string, limit int) ([]LBRow, error)
}
