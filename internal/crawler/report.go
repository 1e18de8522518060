package crawler

import (
	"fmt"
	"sort"
	"strings"

	"trendcrawl/internal/models"
)

const (
	topPagesLimit  = 5
	topTopicsLimit = 15
)

// buildReport aggregates page records and transcripts into a CrawlReport.
func (e *Engine) buildReport(runID string, seeds []string, pages []models.PageRecord, transcripts []models.VideoTranscript) models.CrawlReport {
	if pages == nil {
		pages = []models.PageRecord{}
	}
	if transcripts == nil {
		transcripts = []models.VideoTranscript{}
	}

	stats := models.CrawlStats{
		TotalPages:        len(pages),
		TranscribedVideos: len(transcripts),
	}
	var ok []models.PageRecord
	var content, topicText strings.Builder
	for _, p := range pages {
		stats.TotalWords += p.WordCount
		stats.TotalVideos += len(p.Videos)
		stats.TotalImages += len(p.Images)
		if !p.OK() {
			continue
		}
		stats.SuccessfulPages++
		ok = append(ok, p)
		if p.Content != "" {
			fmt.Fprintf(&content, "PAGE: %s\nURL: %s\nCONTENT: %s\n\n", p.Title, p.URL, p.Content)
		}
		// topics come from page text only, not from the formatted block
		topicText.WriteString(p.Title)
		topicText.WriteByte('\n')
		topicText.WriteString(p.Content)
		topicText.WriteByte('\n')
	}

	top := make([]models.PageRecord, len(ok))
	copy(top, ok)
	sort.SliceStable(top, func(i, j int) bool { return top[i].WordCount > top[j].WordCount })
	if len(top) > topPagesLimit {
		top = top[:topPagesLimit]
	}

	var video strings.Builder
	for _, t := range transcripts {
		fmt.Fprintf(&video, "VIDEO: %s\nURL: %s\nTRANSCRIPT: %s\n\n", t.VideoTitle, t.VideoURL, t.Transcript)
	}

	return models.CrawlReport{
		RunID:            runID,
		Seeds:            seeds,
		Statistics:       stats,
		TopPages:         top,
		Topics:           e.classifier.TopTopics(topicText.String(), topTopicsLimit),
		AllContent:       content.String(),
		VideoContent:     video.String(),
		Pages:            pages,
		VideoTranscripts: transcripts,
	}
}
