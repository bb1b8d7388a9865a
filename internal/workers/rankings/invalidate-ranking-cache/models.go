package invalidaterankingcache

type Input struct {
	Tags      []string `json:"tags,omitempty"`
	CompanyID string   `json:"companyId,omitempty"`
}

type Output struct {
	InvalidatedKeys int64    `json:"invalidatedKeys"`
	Tags            []string `json:"tags"`
}

func (o *Output) Variables() map[string]interface{} {
	return map[string]interface{}{
		"invalidatedKeys": o.InvalidatedKeys,
		"tags":            o.Tags,
	}
}
