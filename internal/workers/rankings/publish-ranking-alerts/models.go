package publishrankingalerts

import "ranking-workers/internal/models"

type Input struct {
	Threshold float64 `json:"threshold,omitempty"`
	Hours     int     `json:"hours,omitempty"`
}

type Output struct {
	Movements []models.ScoreMovement `json:"movements"`
	Published int                    `json:"published"`
	EmailSent bool                   `json:"emailSent"`
}

func (o *Output) Variables() map[string]interface{} {
	return map[string]interface{}{
		"movements": o.Movements,
		"published": o.Published,
		"emailSent": o.EmailSent,
	}
}
