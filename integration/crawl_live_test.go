//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendcrawl/internal/crawler"
	"trendcrawl/internal/trends"
)

func TestCrawlGoBlog(t *testing.T) {
	client := crawler.NewHTTPClient(25*time.Second, 5*time.Second, 5*1024*1024, "")
	opts := crawler.DefaultOptions()
	e := crawler.NewEngine(client, opts, crawler.WithRobots(crawler.NewRobotsPolicy(client.Client(), client.UserAgent())))

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	report, err := e.CrawlSite(ctx, "https://go.dev/blog/", 3)
	require.NoError(t, err)
	if report.Statistics.SuccessfulPages == 0 {
		t.Skipf("skipping: no page could be fetched (network/robots): %+v", report.Pages)
	}
	assert.LessOrEqual(t, report.Statistics.TotalPages, 3)
	assert.NotEmpty(t, report.Topics)
	for _, p := range report.Pages {
		for _, l := range p.InternalLinks {
			assert.Contains(t, l.URL, "https://go.dev/")
		}
	}
}

func TestHackerNewsFrontPage(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	items, err := trends.NewHackerNewsCollector("hn", "", "", 10, nil).Collect(ctx)
	if err != nil {
		t.Skipf("skipping: hn algolia unreachable: %v", err)
	}
	assert.NotEmpty(t, items)
}
