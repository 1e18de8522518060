package trends

import (
	"encoding/json"

	"trendcrawl/internal/models"
)

// SourceTrends is the item list of one configured source.
type SourceTrends struct {
	Source string             `json:"source"`
	Items  []models.TrendItem `json:"items"`
}

// Result is what CollectAll hands to callers: either Live data, or Fallback
// when live data fell under the floor and static content was added.
type Result interface {
	Sources() []SourceTrends
	FallbackActive() bool
	// Flatten lists every item, live first, in source order.
	Flatten() []models.TrendItem
	Total() int

	sealed()
}

type Live struct {
	Data []SourceTrends
}

type Fallback struct {
	Data   []SourceTrends
	Static []models.TrendItem
}

func (Live) sealed()     {}
func (Fallback) sealed() {}

func (r Live) Sources() []SourceTrends     { return r.Data }
func (r Fallback) Sources() []SourceTrends { return r.Data }

func (Live) FallbackActive() bool     { return false }
func (Fallback) FallbackActive() bool { return true }

func (r Live) Flatten() []models.TrendItem { return flatten(r.Data) }

func (r Fallback) Flatten() []models.TrendItem {
	return append(flatten(r.Data), r.Static...)
}

func (r Live) Total() int     { return countItems(r.Data) }
func (r Fallback) Total() int { return countItems(r.Data) + len(r.Static) }

// Source returns the items of one source, or nil when it is not configured.
func Source(r Result, id string) []models.TrendItem {
	for _, s := range r.Sources() {
		if s.Source == id {
			return s.Items
		}
	}
	return nil
}

type resultJSON struct {
	FallbackActive bool                          `json:"fallback_active"`
	Sources        map[string][]models.TrendItem `json:"sources"`
	Static         []models.TrendItem            `json:"static,omitempty"`
	Total          int                           `json:"total"`
}

func (r Live) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{Sources: bySource(r.Data), Total: r.Total()})
}

func (r Fallback) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{FallbackActive: true, Sources: bySource(r.Data), Static: r.Static, Total: r.Total()})
}

func flatten(data []SourceTrends) []models.TrendItem {
	out := make([]models.TrendItem, 0, countItems(data))
	for _, s := range data {
		out = append(out, s.Items...)
	}
	return out
}

func countItems(data []SourceTrends) int {
	n := 0
	for _, s := range data {
		n += len(s.Items)
	}
	return n
}

func bySource(data []SourceTrends) map[string][]models.TrendItem {
	m := make(map[string][]models.TrendItem, len(data))
	for _, s := range data {
		m[s.Source] = s.Items
	}
	return m
}
