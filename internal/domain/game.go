package domain

import "time"

// GameInfo describes a playable title. Games are opaque timers to the backend.
type GameInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MinSeconds int    `json:"min_time"`
}

var catalog = []GameInfo{
	{ID: "snake", Name: "Snake", MinSeconds: 60},
	{ID: "flappy", Name: "Flappy", MinSeconds: 45},
	{ID: "memory", Name: "Memory", MinSeconds: 90},
	{ID: "quiz", Name: "Quiz", MinSeconds: 120},
	{ID: "puzzle", Name: "Puzzle", MinSeconds: 90},
}

// Games returns the game catalog.
func Games() []GameInfo {
	out := make([]GameInfo, len(catalog))
	copy(out, catalog)
	return out
}

// LookupGame finds a game by id.
func LookupGame(id string) (GameInfo, bool) {
	for _, g := range catalog {
		if g.ID == id {
			return g, true
		}
	}
	return GameInfo{}, false
}

type GameSession struct {
	ID             string     `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"user_id"`
	GameID         string     `db:"game_id" json:"game_id"`
	StartedAt      time.Time  `db:"started_at" json:"started_at"`
	EndedAt        *time.Time `db:"ended_at" json:"ended_at,omitempty"`
	ElapsedSeconds int64      `db:"elapsed_seconds" json:"elapsed_seconds"`
}

// GamePlay is a finished play session to be credited to a user.
type GamePlay struct {
	UserID         string
	GameID         string
	SessionID      string
	SessionSeconds int64
	BonusCoins     int64
	EndedAt        time.Time
}

// GamePlayResult is the user's state after a game play was recorded.
type GamePlayResult struct {
	TotalPlaySeconds int64 `json:"total_play_seconds"`
	DistinctGames    int   `json:"distinct_games"`
	Coins            int64 `json:"coins"`
	NewGame          bool  `json:"new_game"`
}

// RankEntry is one row of the earnings ranking.
type RankEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Coins  int64  `json:"coins"`
}
