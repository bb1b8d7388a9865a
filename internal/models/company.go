// internal/models/company.go
package models

import (
	"encoding/json"
	"time"
)

const (
	ReviewStatusApproved      = "APPROVED"
	TransactionStatusRedeemed = "REDEEMED"
)

// CompanySnapshot is one company plus every nested record needed to score it,
// read at a single point in time.
type CompanySnapshot struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	Slug           string                `json:"slug"`
	LogoURL        string                `json:"logoUrl,omitempty"`
	Country        string                `json:"country,omitempty"`
	Rating         *float64              `json:"rating,omitempty"`
	CashbackRate   *float64              `json:"cashbackRate,omitempty"`
	FavoritesCount int                   `json:"favoritesCount"`
	Reviews        []Review              `json:"reviews"`
	Plans          []Plan                `json:"plans"`
	Transactions   []CashbackTransaction `json:"transactions"`
	Clicks         []Click               `json:"clicks"`
}

type Review struct {
	ID          string          `json:"id"`
	Rating      float64         `json:"rating"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	PublishedAt *time.Time      `json:"publishedAt,omitempty"`
}

// EffectiveDate is the publication date when known, otherwise the creation date.
func (r Review) EffectiveDate() time.Time {
	if r.PublishedAt != nil {
		return *r.PublishedAt
	}
	return r.CreatedAt
}

type Plan struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	EvaluationModel *string `json:"evaluationModel,omitempty"`
	AccountType     *string `json:"accountType,omitempty"`
	ProfitSplit     *string `json:"profitSplit,omitempty"`
	Price           float64 `json:"price"`
	Currency        string  `json:"currency"`
}

type CashbackTransaction struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	Points      float64    `json:"points"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	FulfilledAt *time.Time `json:"fulfilledAt,omitempty"`
}

type Click struct {
	CreatedAt time.Time `json:"createdAt"`
}
