package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"trendcrawl/internal/crawler"
	"trendcrawl/internal/ioformats"
	"trendcrawl/internal/media"
	"trendcrawl/internal/models"
	"trendcrawl/internal/trends"
	"trendcrawl/pkg/logger"
)

type Crawler interface {
	CrawlSite(ctx context.Context, seed string, maxPages int) (models.CrawlReport, error)
	CrawlSites(ctx context.Context, seeds []string, maxPagesPerSite int) models.CrawlReport
	ExtractSinglePage(ctx context.Context, pageURL string) (models.CrawlReport, error)
}

type TrendSource interface {
	CollectAll(ctx context.Context) trends.Result
	LastUpdateTime() (time.Time, bool)
}

type Transcriber interface {
	Transcribe(ctx context.Context, videoURL string) (string, bool)
}

type Limits struct {
	MaxPages        int // cap on max_pages in a request
	MaxPagesPerSite int // default and cap for batch crawls
	MaxSeeds        int
}

type Handler struct {
	crawler     Crawler
	trends      TrendSource
	transcriber Transcriber
	limits      Limits
	log         *logger.Logger
}

func NewHandler(c Crawler, t TrendSource, tr Transcriber, limits Limits, log *logger.Logger) *Handler {
	if limits.MaxPages <= 0 {
		limits.MaxPages = 50
	}
	if limits.MaxPagesPerSite <= 0 {
		limits.MaxPagesPerSite = 3
	}
	if limits.MaxSeeds <= 0 {
		limits.MaxSeeds = 100
	}
	return &Handler{crawler: c, trends: t, transcriber: tr, limits: limits, log: logger.OrNop(log)}
}

type crawlReq struct {
	URL      string `json:"url" binding:"required"`
	MaxPages int    `json:"max_pages"`
}

type batchReq struct {
	URLs            []string `json:"urls" binding:"required"`
	MaxPagesPerSite int      `json:"max_pages_per_site"`
}

func errJSON(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"error": msg})
}

// CrawlSite handles POST /crawl {"url": "...", "max_pages": n}.
func (h *Handler) CrawlSite(c *gin.Context) {
	var req crawlReq
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}
	report, err := h.crawler.CrawlSite(c.Request.Context(), req.URL, clamp(req.MaxPages, 0, h.limits.MaxPages))
	if errors.Is(err, crawler.ErrInvalidURL) {
		errJSON(c, http.StatusBadRequest, "invalid url")
		return
	}
	if err != nil {
		errJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExtractPage handles POST /crawl/page {"url": "..."}. A page that cannot
// be read still answers 200 with the error inside the report.
func (h *Handler) ExtractPage(c *gin.Context) {
	var req crawlReq
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}
	report, err := h.crawler.ExtractSinglePage(c.Request.Context(), req.URL)
	if errors.Is(err, crawler.ErrInvalidURL) {
		errJSON(c, http.StatusBadRequest, "invalid url")
		return
	}
	if err != nil {
		errJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, report)
}

// CrawlBatch handles POST /crawl/batch. Malformed seeds come back as
// error records in the merged report.
func (h *Handler) CrawlBatch(c *gin.Context) {
	var req batchReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.URLs) == 0 {
		errJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}
	if len(req.URLs) > h.limits.MaxSeeds {
		errJSON(c, http.StatusRequestEntityTooLarge, "too many urls")
		return
	}
	perSite := req.MaxPagesPerSite
	if perSite <= 0 {
		perSite = h.limits.MaxPagesPerSite
	}
	perSite = clamp(perSite, 1, h.limits.MaxPages)
	c.JSON(http.StatusOK, h.crawler.CrawlSites(c.Request.Context(), req.URLs, perSite))
}

type uploadLine struct {
	URL    string              `json:"url"`
	Report *models.CrawlReport `json:"report,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// CrawlUpload handles POST /crawl/upload (multipart file=...) and streams one
// NDJSON line per seed as each site finishes.
func (h *Handler) CrawlUpload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		errJSON(c, http.StatusBadRequest, "file part 'file' required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		errJSON(c, http.StatusBadRequest, "unreadable upload")
		return
	}
	defer f.Close()

	// copy to a temp file keeping the extension, so the format reader can sniff it
	tmp, err := os.CreateTemp("", "seeds-*"+filepath.Ext(fh.Filename))
	if err != nil {
		errJSON(c, http.StatusInternalServerError, "temp file error")
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, f); err != nil {
		tmp.Close()
		errJSON(c, http.StatusInternalServerError, "copy error")
		return
	}
	tmp.Close()

	seeds, err := ioformats.ReadSeeds(tmp.Name())
	if err != nil {
		errJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(seeds.URLs)+len(seeds.Rejected) > h.limits.MaxSeeds {
		errJSON(c, http.StatusRequestEntityTooLarge, "too many urls")
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Status(http.StatusOK)
	enc := json.NewEncoder(c.Writer)
	for _, u := range seeds.Rejected {
		_ = enc.Encode(uploadLine{URL: u, Error: crawler.ErrInvalidURL.Error()})
	}
	c.Writer.Flush()

	ctx := c.Request.Context()
	for _, u := range seeds.URLs {
		if ctx.Err() != nil {
			return
		}
		report, err := h.crawler.CrawlSite(ctx, u, h.limits.MaxPagesPerSite)
		line := uploadLine{URL: u}
		if err != nil {
			line.Error = err.Error()
		} else {
			line.Report = &report
		}
		if err := enc.Encode(line); err != nil {
			h.log.Warnf("upload stream: %v", err)
			return
		}
		c.Writer.Flush()
	}
}

// Trends handles GET /trends; ?flat=true returns one list.
func (h *Handler) Trends(c *gin.Context) {
	res := h.trends.CollectAll(c.Request.Context())
	if c.Query("flat") == "true" {
		c.JSON(http.StatusOK, gin.H{
			"fallback_active": res.FallbackActive(),
			"items":           res.Flatten(),
		})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) LastUpdate(c *gin.Context) {
	t, ok := h.trends.LastUpdateTime()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"last_update": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"last_update": t.Format(time.RFC3339)})
}

type transcribeReq struct {
	URL         string `json:"url" binding:"required"`
	TargetWords int    `json:"target_words"`
}

// Transcribe handles POST /media/transcribe. It blocks for as long as
// extraction and inference take, bounded by the service timeouts.
func (h *Handler) Transcribe(c *gin.Context) {
	var req transcribeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}
	if _, err := media.DetectPlatform(req.URL); err != nil {
		errJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	text, ok := h.transcriber.Transcribe(c.Request.Context(), req.URL)
	if !ok {
		errJSON(c, http.StatusUnprocessableEntity, "transcription unavailable")
		return
	}
	out := gin.H{"url": req.URL, "transcript": text}
	if req.TargetWords > 0 {
		out["segment"] = media.SelectBestSegment(text, req.TargetWords)
	}
	c.JSON(http.StatusOK, out)
}

type segmentReq struct {
	Transcript  string `json:"transcript" binding:"required"`
	TargetWords int    `json:"target_words"`
}

func (h *Handler) Segment(c *gin.Context) {
	var req segmentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.TargetWords <= 0 {
		req.TargetWords = 100
	}
	c.JSON(http.StatusOK, gin.H{"segment": media.SelectBestSegment(req.Transcript, req.TargetWords)})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
