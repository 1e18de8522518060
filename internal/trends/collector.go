package trends

import (
	"context"

	"trendcrawl/internal/models"
)

// Collector gathers the current items of one trend source.
type Collector interface {
	ID() string
	Collect(ctx context.Context) ([]models.TrendItem, error)
}

// StaticCollector always returns a fixed item list. It backs sources that
// are curated by hand and doubles as a test stand-in.
type StaticCollector struct {
	Source string
	Items  []models.TrendItem
}

func (s StaticCollector) ID() string { return s.Source }

func (s StaticCollector) Collect(ctx context.Context) ([]models.TrendItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.TrendItem, len(s.Items))
	copy(out, s.Items)
	for i := range out {
		out[i].Source = s.Source
	}
	return out, nil
}
