package services

import (
	"context"
	"slices"
	"time"

	"github.com/adsynq/adsynq/internal/insights"
	"github.com/adsynq/adsynq/internal/models"
)

// InsightsService reports performance across the user's connected
// platforms.
type InsightsService struct {
	store     Store
	collector *insights.Collector
}

func NewInsightsService(s Store, c *insights.Collector) *InsightsService {
	return &InsightsService{store: s, collector: c}
}

// Summary aggregates stats between from and to for every platform the
// user has connected.
func (s *InsightsService) Summary(ctx context.Context, userID string, from, to time.Time) (insights.Summary, error) {
	conns, err := s.store.ListConnections(ctx, userID)
	if err != nil {
		return insights.Summary{}, err
	}

	var platforms []models.Platform
	for _, p := range models.Platforms {
		if slices.ContainsFunc(conns, func(c models.PlatformConnection) bool { return c.Platform == p }) {
			platforms = append(platforms, p)
		}
	}
	return s.collector.Collect(ctx, userID, platforms, from, to)
}
