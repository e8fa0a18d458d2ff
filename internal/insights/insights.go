// Package insights aggregates per-platform performance into one summary.
package insights

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/adsynq/adsynq/internal/models"
)

// ErrNoData is returned when every requested platform failed.
var ErrNoData = errors.New("no platform returned stats")

// Summary is the cross-platform aggregate shown on the dashboard.
type Summary struct {
	Platforms         []models.PlatformStats     `json:"platforms"`
	Spend             float64                    `json:"spend"`
	Impressions       int64                      `json:"impressions"`
	Clicks            int64                      `json:"clicks"`
	Conversions       float64                    `json:"conversions"`
	CTR               float64                    `json:"ctr"` // percent
	CostPerConversion float64                    `json:"cost_per_conversion"`
	Currency          string                     `json:"currency,omitempty"`
	Failed            map[models.Platform]string `json:"failed,omitempty"`
}

// Aggregate totals stats. CTR is clicks/impressions*100 and zero without
// impressions; Currency is set only when every platform reports the same.
func Aggregate(stats []models.PlatformStats) Summary {
	s := Summary{Platforms: stats}
	currency, mixed := "", false
	for _, st := range stats {
		s.Spend += st.Spend
		s.Impressions += st.Impressions
		s.Clicks += st.Clicks
		s.Conversions += st.Conversions
		switch {
		case st.Currency == "":
		case currency == "":
			currency = st.Currency
		case currency != st.Currency:
			mixed = true
		}
	}
	if !mixed {
		s.Currency = currency
	}
	if s.Impressions > 0 {
		s.CTR = round2(float64(s.Clicks) / float64(s.Impressions) * 100)
	}
	if s.Conversions > 0 {
		s.CostPerConversion = round2(s.Spend / s.Conversions)
	}
	s.Spend = round2(s.Spend)
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// StatsFetcher loads the stats of one platform.
type StatsFetcher interface {
	FetchStats(ctx context.Context, userID string, p models.Platform, from, to time.Time) (models.PlatformStats, error)
}

// Collector fetches platforms concurrently and aggregates what arrives.
type Collector struct {
	fetcher StatsFetcher
	limit   int
	log     *zap.Logger
}

// NewCollector creates a collector running at most limit fetches at once.
func NewCollector(fetcher StatsFetcher, limit int, logger *zap.Logger) *Collector {
	if limit <= 0 {
		limit = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{fetcher: fetcher, limit: limit, log: logger}
}

// Collect fetches every platform. A failing platform is listed in
// Summary.Failed and left out of the totals.
func (c *Collector) Collect(
	ctx context.Context,
	userID string,
	platforms []models.Platform,
	from, to time.Time,
) (Summary, error) {
	results := make([]models.PlatformStats, len(platforms))
	errs := make([]error, len(platforms))

	var g errgroup.Group
	g.SetLimit(c.limit)
	for i, p := range platforms {
		g.Go(func() error {
			results[i], errs[i] = c.fetcher.FetchStats(ctx, userID, p, from, to)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	var ok []models.PlatformStats
	failed := map[models.Platform]string{}
	for i, p := range platforms {
		if errs[i] != nil {
			c.log.Warn("platform stats unavailable",
				zap.String("platform", p.String()),
				zap.String("user_id", userID),
				zap.Error(errs[i]))
			failed[p] = errs[i].Error()
			continue
		}
		ok = append(ok, results[i])
	}

	if len(platforms) > 0 && len(ok) == 0 {
		return Summary{Failed: failed}, fmt.Errorf("%w: %w", ErrNoData, errors.Join(errs...))
	}

	s := Aggregate(ok)
	if len(failed) > 0 {
		s.Failed = failed
	}
	return s, nil
}
