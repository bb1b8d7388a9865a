package indexrankings

import "time"

// Input is empty: the index always holds the unfiltered rankings.
type Input struct{}

type Output struct {
	Index       string    `json:"index"`
	Indexed     int       `json:"indexed"`
	Failed      int       `json:"failed"`
	Skipped     bool      `json:"skipped"`
	GeneratedAt time.Time `json:"generatedAt"`
}

func (o *Output) Variables() map[string]interface{} {
	return map[string]interface{}{
		"index":       o.Index,
		"indexed":     o.Indexed,
		"failed":      o.Failed,
		"skipped":     o.Skipped,
		"generatedAt": o.GeneratedAt,
	}
}
