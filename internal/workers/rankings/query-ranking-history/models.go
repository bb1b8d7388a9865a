package queryrankinghistory

import "ranking-workers/internal/models"

type Input struct {
	CompanyID string `json:"companyId"`
	Days      int    `json:"days,omitempty"`
}

type Output struct {
	CompanyID string                       `json:"companyId"`
	Days      int                          `json:"days"`
	Entries   []models.RankingHistoryEntry `json:"entries"`
	Cached    bool                         `json:"cached"`
	Degraded  bool                         `json:"degraded"`
}

func (o *Output) Variables() map[string]interface{} {
	return map[string]interface{}{
		"companyId": o.CompanyID,
		"days":      o.Days,
		"entries":   o.Entries,
		"cached":    o.Cached,
		"degraded":  o.Degraded,
	}
}
