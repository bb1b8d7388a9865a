// internal/service/cache_ops.go
package service

import (
	"context"
	"strings"

	"ranking-workers/internal/common/errors"
	"ranking-workers/internal/ranking"
)

// Invalidate drops every cached entry under tags, or under AllTags when
// none are given. A "ranking-history:<companyId>" tag drops one company.
func (s *RankingService) Invalidate(ctx context.Context, tags ...string) (int64, error) {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	if len(cleaned) == 0 {
		cleaned = AllTags
	}
	if s.cache == nil {
		return 0, nil
	}

	removed, err := s.cache.Invalidate(ctx, cleaned...)
	if err != nil {
		return removed, errors.NewCacheFailedError("invalidate", err)
	}

	s.logger.Info("ranking cache invalidated", map[string]interface{}{
		"tags":    cleaned,
		"removed": removed,
	})
	return removed, nil
}

// ExtractMetadata parses a review metadata value with the public or admin
// link cap.
func (s *RankingService) ExtractMetadata(value interface{}, admin bool) ranking.ReviewMetadata {
	linkCap := ranking.PublicLinkCap
	if admin {
		linkCap = ranking.AdminLinkCap
	}
	return ranking.ExtractMetadataValue(value, linkCap)
}
