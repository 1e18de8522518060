package trends

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"trendcrawl/internal/models"
)

const feedTimeout = 15 * time.Second

// RSSCollector reads an RSS or Atom feed.
type RSSCollector struct {
	id       string
	feedURL  string
	maxItems int
	parser   *gofeed.Parser
	now      func() time.Time
}

func NewRSSCollector(id, feedURL string, maxItems int, client *http.Client) *RSSCollector {
	p := gofeed.NewParser()
	if client != nil {
		p.Client = client
	}
	p.UserAgent = "trendcrawl/1.0"
	return &RSSCollector{id: id, feedURL: feedURL, maxItems: maxItems, parser: p, now: time.Now}
}

func (c *RSSCollector) ID() string { return c.id }

func (c *RSSCollector) Collect(ctx context.Context) ([]models.TrendItem, error) {
	ctx, cancel := context.WithTimeout(ctx, feedTimeout)
	defer cancel()

	feed, err := c.parser.ParseURLWithContext(c.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", c.feedURL, err)
	}

	items := make([]models.TrendItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if c.maxItems > 0 && len(items) >= c.maxItems {
			break
		}
		link := entryLink(entry)
		if link == "" || strings.TrimSpace(entry.Title) == "" {
			continue
		}
		m := map[string]any{"feed": feed.Title}
		if entry.Author != nil && entry.Author.Name != "" {
			m["author"] = entry.Author.Name
		}
		if len(entry.Categories) > 0 {
			m["categories"] = entry.Categories
		}
		items = append(items, models.TrendItem{
			Source:      c.id,
			Title:       strings.TrimSpace(entry.Title),
			Description: plainText(firstNonEmpty(entry.Description, entry.Content), 300),
			Link:        link,
			Metrics:     m,
			Timestamp:   c.published(entry),
		})
	}
	return items, nil
}

func (c *RSSCollector) published(entry *gofeed.Item) time.Time {
	switch {
	case entry.PublishedParsed != nil:
		return *entry.PublishedParsed
	case entry.UpdatedParsed != nil:
		return *entry.UpdatedParsed
	}
	return c.now()
}

// entryLink prefers the explicit link and falls back to a URL-shaped GUID.
func entryLink(entry *gofeed.Item) string {
	if entry.Link != "" {
		return entry.Link
	}
	if strings.HasPrefix(entry.GUID, "http") {
		return entry.GUID
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// plainText strips markup from feed descriptions and caps the result at n runes.
func plainText(s string, n int) string {
	if strings.Contains(s, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		s = string(r[:n])
	}
	return s
}
