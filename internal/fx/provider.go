// internal/fx/provider.go
package fx

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ranking-workers/internal/common/cache"
	commonhttp "ranking-workers/internal/common/http"
	"ranking-workers/internal/common/logger"
	"ranking-workers/internal/ranking"
)

const cacheTag = "fx-rates"

// RatesResponse is the payload of the rates endpoint: units of each
// currency per one unit of Base.
type RatesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Provider fetches live exchange rates and layers them over the static
// fallback table. Every failure path yields the fallback table.
type Provider struct {
	client   *commonhttp.Client
	url      string
	cache    *cache.Cache
	ttl      time.Duration
	fallback ranking.StaticRates
	logger   logger.Logger
}

func NewProvider(client *commonhttp.Client, url string, c *cache.Cache, ttl time.Duration, log logger.Logger) *Provider {
	return &Provider{
		client:   client,
		url:      url,
		cache:    c,
		ttl:      ttl,
		fallback: ranking.FallbackUSDRates,
		logger:   log,
	}
}

// Rates returns the converter to use for one computation.
func (p *Provider) Rates(ctx context.Context) ranking.RateConverter {
	if p == nil || p.url == "" {
		return ranking.FallbackUSDRates
	}

	resp, err := p.load(ctx)
	if err != nil {
		p.logger.Warn("using fallback exchange rates", map[string]interface{}{
			"url":   p.url,
			"error": err.Error(),
		})
		return p.fallback
	}
	return p.fallback.Merge(toUSDPerUnit(resp))
}

func (p *Provider) load(ctx context.Context) (*RatesResponse, error) {
	key := ""
	if p.cache != nil {
		key = p.cache.Key("fx", strings.ToLower(ranking.BaseCurrency))
		var cached RatesResponse
		hit, err := p.cache.Get(ctx, key, &cached)
		if err != nil {
			p.logger.Warn("fx cache read failed", map[string]interface{}{"error": err.Error()})
		}
		if hit {
			return &cached, nil
		}
	}

	var resp RatesResponse
	if err := p.client.GetJSON(ctx, p.url, &resp); err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	if !strings.EqualFold(resp.Base, ranking.BaseCurrency) {
		return nil, fmt.Errorf("rates base is %q, want %s", resp.Base, ranking.BaseCurrency)
	}
	if len(resp.Rates) == 0 {
		return nil, fmt.Errorf("rates response is empty")
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, resp, p.ttl, cacheTag); err != nil {
			p.logger.Warn("fx cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return &resp, nil
}

// toUSDPerUnit inverts per-USD quotes into USD per unit of currency.
func toUSDPerUnit(resp *RatesResponse) map[string]decimal.Decimal {
	one := decimal.NewFromInt(1)
	out := make(map[string]decimal.Decimal, len(resp.Rates))
	for code, perUSD := range resp.Rates {
		if perUSD <= 0 {
			continue
		}
		out[code] = one.DivRound(decimal.NewFromFloat(perUSD), 8)
	}
	return out
}
