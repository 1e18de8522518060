package trends

import (
	"time"

	"trendcrawl/internal/models"
)

// StaticSource is the source id carried by static fallback items.
const StaticSource = "inspiration"

type staticTip struct {
	title, description, category string
}

var staticTips = []staticTip{
	{"Copywriting tip", "Use specific numbers in headlines to make them more credible", "copywriting"},
	{"Engagement strategy", "Ask a direct question in the first 3 seconds of the video", "engagement"},
	{"Algorithm insight", "Videos of 15 to 30 seconds tend to reach a wider audience on short-form platforms", "algorithm"},
	{"Quote", "\"Content is king, but context is God\" - Gary Vaynerchuk", "motivation"},
	{"Viral technique", "Structure scripts as problem, agitation, solution", "viral"},
	{"Content design", "Contrasting colours hold visual attention for longer", "design"},
	{"Mobile trend", "Vertical video outperforms horizontal on social feeds", "mobile"},
	{"Viewer psychology", "The first 3 seconds decide most of a video's retention", "psychology"},
}

// StaticContent returns the hand-written items shown when live data is thin.
// Timestamps are set to now so consumers can sort them with live items.
func StaticContent(now time.Time) []models.TrendItem {
	out := make([]models.TrendItem, 0, len(staticTips))
	for _, t := range staticTips {
		out = append(out, models.TrendItem{
			Source:      StaticSource,
			Title:       t.title,
			Description: t.description,
			Metrics:     map[string]any{"category": t.category},
			Timestamp:   now,
		})
	}
	return out
}
