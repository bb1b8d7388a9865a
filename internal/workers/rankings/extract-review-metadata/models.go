package extractreviewmetadata

import "ranking-workers/internal/ranking"

// Input carries the review metadata either as an object or as the JSON text
// stored on the review row.
type Input struct {
	Metadata interface{} `json:"metadata"`
	Admin    bool        `json:"admin,omitempty"`
}

type Output struct {
	Metadata ranking.ReviewMetadata `json:"metadata"`
}

func (o *Output) Variables() map[string]interface{} {
	return map[string]interface{}{"metadata": o.Metadata}
}
