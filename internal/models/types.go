
package models

import "time"

// PageStatus is the outcome of a single page fetch.
type PageStatus string

const (
	StatusSuccess PageStatus = "success"
	StatusError   PageStatus = "error"
)

// Platform tags for discovered videos.
const (
	PlatformYouTube = "YouTube"
	PlatformVimeo   = "Vimeo"
	PlatformHTML5   = "HTML5"
)

type LinkRef struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

type ImageRef struct {
	URL   string `json:"url"`
	Alt   string `json:"alt,omitempty"`
	Title string `json:"title,omitempty"`
}

type VideoRef struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
	EmbedURL string `json:"embedUrl,omitempty"`
	Title    string `json:"title"`
}

type PageRecord struct {
	URL           string     `json:"url"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Language      string     `json:"language,omitempty"`
	Content       string     `json:"content"`
	WordCount     int        `json:"wordCount"`
	InternalLinks []LinkRef  `json:"internalLinks"`
	Videos        []VideoRef `json:"videos"`
	Images        []ImageRef `json:"images"`
	Label         string     `json:"label,omitempty"`
	Status        PageStatus `json:"status"`
	Error         string     `json:"error,omitempty"`
	FetchMs       int64      `json:"fetchMs,omitempty"`
}

// OK reports whether the page was fetched and parsed.
func (p PageRecord) OK() bool { return p.Status == StatusSuccess }

type VideoTranscript struct {
	PageURL    string `json:"pageUrl"`
	PageTitle  string `json:"pageTitle"`
	VideoURL   string `json:"videoUrl"`
	VideoTitle string `json:"videoTitle"`
	Transcript string `json:"transcript"`
	WordCount  int    `json:"wordCount"`
}

type CrawlStats struct {
	TotalPages        int `json:"totalPages"`
	SuccessfulPages   int `json:"successfulPages"`
	TotalWords        int `json:"totalWords"`
	TotalVideos       int `json:"totalVideos"`
	TotalImages       int `json:"totalImages"`
	TranscribedVideos int `json:"transcribedVideos"`
}

type CrawlReport struct {
	RunID            string            `json:"runId"`
	Seeds            []string          `json:"seeds"`
	Statistics       CrawlStats        `json:"statistics"`
	TopPages         []PageRecord      `json:"topPages"`
	Topics           []string          `json:"topics,omitempty"`
	AllContent       string            `json:"allContent"`
	VideoContent     string            `json:"videoContent"`
	Pages            []PageRecord      `json:"pages"`
	VideoTranscripts []VideoTranscript `json:"videoTranscripts"`
	Error            string            `json:"error,omitempty"`
}

// TrendItem is one collected unit (post, story, article) from a trend source.
type TrendItem struct {
	Source      string         `json:"source"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Link        string         `json:"link"`
	Metrics     map[string]any `json:"metrics"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Snapshot is the persisted record for one source and one calendar day.
type Snapshot struct {
	Source    string      `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
	Trends    []TrendItem `json:"trends"`
}
