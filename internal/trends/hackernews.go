package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trendcrawl/internal/models"
)

const HNAlgoliaURL = "https://hn.algolia.com/api/v1/search"

type hnResponse struct {
	Hits []hnHit `json:"hits"`
}

type hnHit struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	CreatedAtI  int64  `json:"created_at_i"`
	StoryText   string `json:"story_text"`
	ObjectID    string `json:"objectID"`
}

// HackerNewsCollector queries the HN Algolia search API. With an empty
// query it returns the current front page.
type HackerNewsCollector struct {
	id       string
	endpoint string
	query    string
	maxItems int
	client   *http.Client
}

func NewHackerNewsCollector(id, endpoint, query string, maxItems int, client *http.Client) *HackerNewsCollector {
	if endpoint == "" {
		endpoint = HNAlgoliaURL
	}
	if maxItems <= 0 {
		maxItems = 20
	}
	if client == nil {
		client = &http.Client{Timeout: feedTimeout}
	}
	return &HackerNewsCollector{id: id, endpoint: endpoint, query: query, maxItems: maxItems, client: client}
}

func (c *HackerNewsCollector) ID() string { return c.id }

func (c *HackerNewsCollector) Collect(ctx context.Context) ([]models.TrendItem, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("hn endpoint: %w", err)
	}
	q := u.Query()
	if c.query != "" {
		q.Set("query", c.query)
		q.Set("tags", "story")
	} else {
		q.Set("tags", "front_page")
	}
	q.Set("hitsPerPage", strconv.Itoa(c.maxItems))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hn search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hn search: status %d", resp.StatusCode)
	}

	var body hnResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&body); err != nil {
		return nil, fmt.Errorf("hn decode: %w", err)
	}

	items := make([]models.TrendItem, 0, len(body.Hits))
	for _, h := range body.Hits {
		if h.Title == "" {
			continue
		}
		discussion := "https://news.ycombinator.com/item?id=" + h.ObjectID
		link := h.URL
		if link == "" {
			link = discussion
		}
		items = append(items, models.TrendItem{
			Source:      c.id,
			Title:       h.Title,
			Description: plainText(h.StoryText, 300),
			Link:        link,
			Metrics: map[string]any{
				"points":     h.Points,
				"comments":   h.NumComments,
				"author":     h.Author,
				"discussion": discussion,
			},
			Timestamp: time.Unix(h.CreatedAtI, 0),
		})
		if len(items) >= c.maxItems {
			break
		}
	}
	return items, nil
}
