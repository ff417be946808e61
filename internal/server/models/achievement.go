package models

import "time"

type UserAchievement struct {
	AchievementID string    `json:"achievement_id"`
	CompletedAt   time.Time `json:"completed_at"`
}

type AchievementStats struct {
	ScoreStats
	MatchStats
}
