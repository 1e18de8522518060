package trends

import (
	"context"
	"errors"
	"time"

	"trendcrawl/internal/models"
)

// SiteCrawler is the part of the crawl engine a SiteCollector needs.
type SiteCrawler interface {
	CrawlSite(ctx context.Context, seed string, maxPages int) (models.CrawlReport, error)
}

// SiteCollector crawls a site and reports each successfully read page as
// a trend item. Useful for blogs and news sites without a feed.
type SiteCollector struct {
	id       string
	seed     string
	maxPages int
	crawler  SiteCrawler
	now      func() time.Time
}

func NewSiteCollector(id, seed string, maxPages int, crawler SiteCrawler) *SiteCollector {
	return &SiteCollector{id: id, seed: seed, maxPages: maxPages, crawler: crawler, now: time.Now}
}

func (c *SiteCollector) ID() string { return c.id }

func (c *SiteCollector) Collect(ctx context.Context) ([]models.TrendItem, error) {
	report, err := c.crawler.CrawlSite(ctx, c.seed, c.maxPages)
	if err != nil {
		return nil, err
	}
	now := c.now()
	var items []models.TrendItem
	for _, p := range report.Pages {
		if !p.OK() || p.WordCount == 0 {
			continue
		}
		items = append(items, models.TrendItem{
			Source:      c.id,
			Title:       p.Title,
			Description: plainText(p.Content, 300),
			Link:        p.URL,
			Metrics: map[string]any{
				"word_count": p.WordCount,
				"label":      p.Label,
				"videos":     len(p.Videos),
				"images":     len(p.Images),
			},
			Timestamp: now,
		})
	}
	if len(items) == 0 && report.Statistics.TotalPages > 0 {
		return nil, errors.New("no readable pages on " + c.seed)
	}
	return items, nil
}
