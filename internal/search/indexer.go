// internal/search/indexer.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/multierr"

	"ranking-workers/internal/common/logger"
	"ranking-workers/internal/common/metrics"
	"ranking-workers/internal/ranking"
)

const rankingsIndexSuffix = "company-rankings"

// RankingDocument is what the marketplace search index stores per company.
type RankingDocument struct {
	CompanyID        string         `json:"companyId"`
	Name             string         `json:"name"`
	Slug             string         `json:"slug"`
	Country          string         `json:"country,omitempty"`
	Scores           ranking.Scores `json:"scores"`
	ReviewCount      int            `json:"reviewCount"`
	AverageRating    *float64       `json:"averageRating"`
	FavoritesCount   int            `json:"favoritesCount"`
	HasCashback      bool           `json:"hasCashback"`
	EvaluationModels []string       `json:"evaluationModels"`
	AccountTypes     []string       `json:"accountTypes"`
	MaxPlanPrice     *float64       `json:"maxPlanPrice"`
	GeneratedAt      time.Time      `json:"generatedAt"`
}

type IndexResult struct {
	Index   string `json:"index"`
	Indexed int    `json:"indexed"`
	Failed  int    `json:"failed"`
}

type bulkResponse struct {
	Errors bool                                `json:"errors"`
	Items  []map[string]bulkResponseItemResult `json:"items"`
}

type bulkResponseItemResult struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error,omitempty"`
}

// Indexer publishes ranking datasets to Elasticsearch.
type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(client *elasticsearch.Client, indexPrefix string, log logger.Logger) *Indexer {
	index := rankingsIndexSuffix
	if indexPrefix != "" {
		index = indexPrefix + "-" + rankingsIndexSuffix
	}
	return &Indexer{client: client, index: index, logger: log}
}

func (i *Indexer) Index() string {
	return i.index
}

// NewDocument builds the search document of one ranked company.
func NewDocument(c *ranking.CompanyRanking, generatedAt time.Time) RankingDocument {
	return RankingDocument{
		CompanyID:        c.CompanyID,
		Name:             c.Name,
		Slug:             c.Slug,
		Country:          c.Country,
		Scores:           c.Scores,
		ReviewCount:      c.Metrics.ReviewCount,
		AverageRating:    c.Metrics.AverageRating,
		FavoritesCount:   c.FavoritesCount,
		HasCashback:      c.Metrics.HasCashback,
		EvaluationModels: c.Metrics.EvaluationModels,
		AccountTypes:     c.Metrics.AccountTypes,
		MaxPlanPrice:     c.Metrics.MaxPlanPrice,
		GeneratedAt:      generatedAt,
	}
}

// IndexRankings writes every company of dataset in one bulk request, using
// the company id as document id. Per-item failures are counted and returned
// together as one error.
func (i *Indexer) IndexRankings(ctx context.Context, dataset *ranking.RankingsDataset) (*IndexResult, error) {
	result := &IndexResult{Index: i.index}
	if dataset == nil || len(dataset.Companies) == 0 {
		return result, nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for idx := range dataset.Companies {
		c := &dataset.Companies[idx]
		meta := map[string]map[string]string{"index": {"_index": i.index, "_id": c.CompanyID}}
		if err := enc.Encode(meta); err != nil {
			return result, fmt.Errorf("encode bulk meta: %w", err)
		}
		if err := enc.Encode(NewDocument(c, dataset.GeneratedAt)); err != nil {
			return result, fmt.Errorf("encode document %s: %w", c.CompanyID, err)
		}
	}

	res, err := i.client.Bulk(
		bytes.NewReader(body.Bytes()),
		i.client.Bulk.WithContext(ctx),
		i.client.Bulk.WithIndex(i.index),
	)
	if err != nil {
		return result, fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return result, fmt.Errorf("bulk request: %s", res.Status())
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return result, fmt.Errorf("decode bulk response: %w", err)
	}

	var itemErrs error
	for _, item := range parsed.Items {
		for _, r := range item {
			if r.Error == nil && r.Status < 300 {
				result.Indexed++
				continue
			}
			result.Failed++
			reason := fmt.Sprintf("status %d", r.Status)
			if r.Error != nil {
				reason = r.Error.Type + ": " + r.Error.Reason
			}
			itemErrs = multierr.Append(itemErrs, fmt.Errorf("document %s: %s", r.ID, reason))
		}
	}

	metrics.RankingIndexedDocuments.WithLabelValues("indexed").Add(float64(result.Indexed))
	metrics.RankingIndexedDocuments.WithLabelValues("failed").Add(float64(result.Failed))

	i.logger.Info("ranking documents indexed", map[string]interface{}{
		"index":   i.index,
		"indexed": result.Indexed,
		"failed":  result.Failed,
	})
	return result, itemErrs
}
