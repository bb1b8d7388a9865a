package computerankings

import (
	"ranking-workers/internal/ranking"
)

type Input struct {
	Filters       ranking.Filters       `json:"filters"`
	SortBy        string                `json:"sortBy,omitempty"`
	SortDirection ranking.SortDirection `json:"sortDirection,omitempty"`
	RecordHistory *bool                 `json:"recordHistory,omitempty"`
}

type Output struct {
	Dataset  *ranking.RankingsDataset `json:"dataset"`
	Cached   bool                     `json:"cached"`
	Degraded bool                     `json:"degraded"`
}

// Variables are the process variables the job completes with.
func (o *Output) Variables() map[string]interface{} {
	return map[string]interface{}{
		"dataset":  o.Dataset,
		"cached":   o.Cached,
		"degraded": o.Degraded,
	}
}
