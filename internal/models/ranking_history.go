// internal/models/ranking_history.go
package models

import "time"

// RankingHistoryEntry holds the overall score a company had on one calendar day.
type RankingHistoryEntry struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"companyId"`
	OverallScore float64   `json:"overallScore"`
	RecordedAt   time.Time `json:"recordedAt"`
}

// ScoreMovement compares the latest score inside a window with the latest one before it.
type ScoreMovement struct {
	CompanyID     string    `json:"companyId"`
	CompanyName   string    `json:"companyName"`
	PreviousScore float64   `json:"previousScore"`
	CurrentScore  float64   `json:"currentScore"`
	Delta         float64   `json:"delta"`
	RecordedAt    time.Time `json:"recordedAt"`
}
