package computereviewrankings

import (
	"ranking-workers/internal/ranking"
)

type Input struct {
	Filters       ranking.Filters       `json:"filters"`
	SortBy        string                `json:"sortBy,omitempty"`
	SortDirection ranking.SortDirection `json:"sortDirection,omitempty"`
}

type Output struct {
	Dataset  *ranking.ReviewsDataset `json:"dataset"`
	Cached   bool                    `json:"cached"`
	Degraded bool                    `json:"degraded"`
}

func (o *Output) Variables() map[string]interface{} {
	return map[string]interface{}{
		"dataset":  o.Dataset,
		"cached":   o.Cached,
		"degraded": o.Degraded,
	}
}
