package models

import "time"

type Score struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Score      int64     `json:"score"`
	Difficulty string    `json:"difficulty"`
	TimeTaken  int64     `json:"time"`
	CreatedAt  time.Time `json:"created_at"`
}

type LeaderboardEntry struct {
	ID         int64     `json:"id"`
	Score      int64     `json:"score"`
	Difficulty string    `json:"difficulty"`
	TimeTaken  int64     `json:"time"`
	CreatedAt  time.Time `json:"created_at"`
	Username   string    `json:"username"`
}

type ProfileStats struct {
	GamesPlayed int64   `json:"games_played"`
	BestScore   int64   `json:"best_score"`
	AvgScore    float64 `json:"avg_score"`
	BestTime    int64   `json:"best_time"`
}

// ScoreStats is the aggregate used to evaluate achievements on the client.
type ScoreStats struct {
	TotalGames          int64      `json:"total_games"`
	BestScore           int64      `json:"best_score"`
	TotalScore          int64      `json:"total_score"`
	AvgScore            float64    `json:"avg_score"`
	BestTime            int64      `json:"best_time"`
	LongestTime         int64      `json:"longest_time"`
	AvgTime             float64    `json:"avg_time"`
	EasyCompleted       int64      `json:"easy_completed"`
	MediumCompleted     int64      `json:"medium_completed"`
	HardCompleted       int64      `json:"hard_completed"`
	MasterCompleted     int64      `json:"master_completed"`
	GamesUnder15s       int64      `json:"games_under_15s"`
	GamesUnder30s       int64      `json:"games_under_30s"`
	GamesUnder60s       int64      `json:"games_under_60s"`
	GamesOver5Min       int64      `json:"games_over_5min"`
	GamesOver10Min      int64      `json:"games_over_10min"`
	EasyUnder30s        int64      `json:"easy_under_30s"`
	EasyUnder15s        int64      `json:"easy_under_15s"`
	MediumUnder60s      int64      `json:"medium_under_60s"`
	HardUnder120s       int64      `json:"hard_under_120s"`
	HighScoreGames      int64      `json:"high_score_games"`
	VeryHighScoreGames  int64      `json:"very_high_score_games"`
	UltraHighScoreGames int64      `json:"ultra_high_score_games"`
	FirstGameDate       *time.Time `json:"first_game_date"`
	LastGameDate        *time.Time `json:"last_game_date"`
}
