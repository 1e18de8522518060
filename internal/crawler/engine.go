package crawler

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"trendcrawl/internal/classifier"
	"trendcrawl/internal/metrics"
	"trendcrawl/internal/models"
	"trendcrawl/internal/parser"
	"trendcrawl/pkg/logger"
)

// Fetcher retrieves one HTML page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Response, error)
}

// Transcriber turns a video URL into text. ok is false when the video
// should be skipped; it never signals a fatal condition.
type Transcriber interface {
	Transcribe(ctx context.Context, videoURL string) (text string, ok bool)
}

type Options struct {
	MaxPages         int           // default budget when callers pass <= 0
	Delay            time.Duration // pause between consecutive fetches
	MaxVideosPerPage int
	Parser           parser.Options
}

func DefaultOptions() Options {
	return Options{
		MaxPages:         5,
		Delay:            time.Second,
		MaxVideosPerPage: 2,
		Parser:           parser.DefaultOptions(),
	}
}

// Engine performs bounded same-site crawls. Each CrawlSite call owns its
// own frontier and visited set; the engine itself holds no per-run state.
type Engine struct {
	fetcher     Fetcher
	parser      *parser.Parser
	classifier  *classifier.Classifier
	transcriber Transcriber
	robots      *RobotsPolicy
	renderer    Renderer
	opts        Options
	log         *logger.Logger
	metrics     *metrics.Metrics
}

type Option func(*Engine)

func WithTranscriber(t Transcriber) Option { return func(e *Engine) { e.transcriber = t } }
func WithRobots(r *RobotsPolicy) Option     { return func(e *Engine) { e.robots = r } }
func WithRenderer(r Renderer) Option        { return func(e *Engine) { e.renderer = r } }
func WithLogger(l *logger.Logger) Option    { return func(e *Engine) { e.log = l } }
func WithMetrics(m *metrics.Metrics) Option { return func(e *Engine) { e.metrics = m } }

func NewEngine(f Fetcher, opts Options, options ...Option) *Engine {
	def := DefaultOptions()
	if opts.MaxPages <= 0 {
		opts.MaxPages = def.MaxPages
	}
	if opts.MaxVideosPerPage <= 0 {
		opts.MaxVideosPerPage = def.MaxVideosPerPage
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	e := &Engine{
		fetcher:    f,
		parser:     parser.New(opts.Parser),
		classifier: classifier.New(),
		opts:       opts,
	}
	for _, o := range options {
		o(e)
	}
	e.log = logger.OrNop(e.log)
	return e
}

// run is the state of one crawl: frontier queue plus visited and queued sets.
type run struct {
	origin   *url.URL
	budget   int
	frontier []string
	queued   map[string]bool
	visited  map[string]bool
	limiter  *rate.Limiter

	pages       []models.PageRecord
	transcripts []models.VideoTranscript
}

// CrawlSite crawls up to maxPages pages reachable from seed on the seed's
// scheme and host. Only a malformed seed is an error; page failures are
// recorded in the report.
func (e *Engine) CrawlSite(ctx context.Context, seed string, maxPages int) (models.CrawlReport, error) {
	r, err := e.crawl(ctx, seed, maxPages)
	if err != nil {
		return models.CrawlReport{}, err
	}
	return e.buildReport(uuid.NewString(), []string{seed}, r.pages, r.transcripts), nil
}

// CrawlSites runs CrawlSite once per seed, sequentially, and merges the
// results. A malformed seed becomes an error record; the other seeds still run.
func (e *Engine) CrawlSites(ctx context.Context, seeds []string, maxPagesPerSite int) models.CrawlReport {
	runID := uuid.NewString()
	var pages []models.PageRecord
	var transcripts []models.VideoTranscript

	for i, seed := range seeds {
		if ctx.Err() != nil {
			e.log.Warnf("crawl %s cancelled before site %d/%d", runID, i+1, len(seeds))
			break
		}
		e.log.Infof("crawl %s: site %d/%d %s", runID, i+1, len(seeds), seed)
		r, err := e.crawl(ctx, seed, maxPagesPerSite)
		if err != nil {
			e.log.Warnf("crawl %s: skipping seed %q: %v", runID, seed, err)
			pages = append(pages, errorRecord(seed, err))
			continue
		}
		pages = append(pages, r.pages...)
		transcripts = append(transcripts, r.transcripts...)
		e.log.Infof("crawl %s: site done %s pages=%d transcripts=%d", runID, seed, len(r.pages), len(r.transcripts))
	}
	return e.buildReport(runID, seeds, pages, transcripts)
}

// ExtractSinglePage fetches one page and transcribes its videos. When the
// page cannot be fetched the report carries the error and zero statistics.
func (e *Engine) ExtractSinglePage(ctx context.Context, pageURL string) (models.CrawlReport, error) {
	r, err := e.crawl(ctx, pageURL, 1)
	if err != nil {
		return models.CrawlReport{}, err
	}
	runID := uuid.NewString()
	if len(r.pages) == 1 && !r.pages[0].OK() {
		return models.CrawlReport{
			RunID: runID,
			Seeds: []string{pageURL},
			Pages: r.pages,
			Error: r.pages[0].Error,
		}, nil
	}
	return e.buildReport(runID, []string{pageURL}, r.pages, r.transcripts), nil
}

func (e *Engine) crawl(ctx context.Context, seed string, maxPages int) (*run, error) {
	origin, err := ParseSeed(seed)
	if err != nil {
		return nil, err
	}
	key, _ := visitKey(origin.String())
	if maxPages <= 0 {
		maxPages = e.opts.MaxPages
	}

	limit := rate.Inf
	if e.opts.Delay > 0 {
		limit = rate.Every(e.opts.Delay)
	}
	r := &run{
		origin:   origin,
		budget:   maxPages,
		frontier: []string{origin.String()},
		queued:   map[string]bool{key: true},
		visited:  map[string]bool{},
		limiter:  rate.NewLimiter(limit, 1),
	}

	for len(r.frontier) > 0 && len(r.visited) < r.budget {
		next := r.frontier[0]
		r.frontier = r.frontier[1:]
		k, ok := visitKey(next)
		if !ok || r.visited[k] {
			continue
		}
		if err := r.limiter.Wait(ctx); err != nil {
			e.log.Warnf("crawl of %s stopped: %v", seed, err)
			break
		}
		r.visited[k] = true

		page := e.processPage(ctx, next, origin)
		r.pages = append(r.pages, page)
		if !page.OK() {
			continue
		}
		r.enqueue(page.InternalLinks)
		r.transcripts = append(r.transcripts, e.transcribePage(ctx, page)...)
	}
	return r, nil
}

// enqueue appends unseen links, keeping at most twice the budget queued.
func (r *run) enqueue(links []models.LinkRef) {
	for _, l := range links {
		if len(r.queued) >= 2*r.budget {
			return
		}
		k, ok := visitKey(l.URL)
		if !ok || r.visited[k] || r.queued[k] {
			continue
		}
		r.queued[k] = true
		r.frontier = append(r.frontier, l.URL)
	}
}

func (e *Engine) processPage(ctx context.Context, rawURL string, origin *url.URL) models.PageRecord {
	u, err := url.Parse(rawURL)
	if err != nil {
		e.metrics.Page(string(models.StatusError))
		return errorRecord(rawURL, ErrInvalidURL)
	}
	if e.robots != nil && !e.robots.Allowed(ctx, u) {
		e.metrics.Page(string(models.StatusError))
		e.log.Debugf("robots.txt disallows %s", rawURL)
		return errorRecord(rawURL, ErrDisallowed)
	}

	res, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		e.metrics.Page(string(models.StatusError))
		e.log.Warnf("fetch %s: %v", rawURL, err)
		return errorRecord(rawURL, err)
	}
	defer res.Body.Close()

	base := u
	if fu, err := url.Parse(res.FinalURL); err == nil && fu.Host != "" {
		base = fu
	}
	doc, err := e.parser.Extract(res.Body, res.ContentType, base, origin)
	if err != nil {
		e.metrics.Page(string(models.StatusError))
		e.log.Warnf("parse %s: %v", rawURL, err)
		return errorRecord(rawURL, err)
	}
	if doc.WordCount == 0 {
		doc = e.rendered(ctx, rawURL, base, origin, doc)
	}

	e.metrics.Page(string(models.StatusSuccess))
	return models.PageRecord{
		URL:           rawURL,
		Title:         doc.Title,
		Description:   doc.Description,
		Language:      doc.Language,
		Content:       doc.Text,
		WordCount:     doc.WordCount,
		InternalLinks: doc.Links,
		Videos:        doc.Videos,
		Images:        doc.Images,
		Label:         e.classifier.Classify(doc),
		Status:        models.StatusSuccess,
		FetchMs:       res.Elapsed.Milliseconds(),
	}
}

// rendered retries a low-content page through the headless renderer, if any.
func (e *Engine) rendered(ctx context.Context, rawURL string, base, origin *url.URL, plain parser.Document) parser.Document {
	if e.renderer == nil {
		e.log.Debugf("low-content page %s", rawURL)
		return plain
	}
	dom, err := e.renderer.Render(ctx, rawURL)
	if err != nil {
		e.log.Warnf("render %s: %v", rawURL, err)
		return plain
	}
	doc, err := e.parser.Extract(strings.NewReader(dom), "text/html; charset=utf-8", base, origin)
	if err != nil || doc.WordCount == 0 {
		return plain
	}
	return doc
}

func (e *Engine) transcribePage(ctx context.Context, page models.PageRecord) []models.VideoTranscript {
	if e.transcriber == nil {
		return nil
	}
	var out []models.VideoTranscript
	attempted := 0
	for _, v := range page.Videos {
		if attempted >= e.opts.MaxVideosPerPage || ctx.Err() != nil {
			break
		}
		attempted++
		text, ok := e.transcriber.Transcribe(ctx, v.URL)
		if !ok {
			e.log.Warnf("no transcript for %s on %s", v.URL, page.URL)
			continue
		}
		out = append(out, models.VideoTranscript{
			PageURL:    page.URL,
			PageTitle:  page.Title,
			VideoURL:   v.URL,
			VideoTitle: v.Title,
			Transcript: text,
			WordCount:  len(strings.Fields(text)),
		})
	}
	return out
}

func errorRecord(rawURL string, err error) models.PageRecord {
	return models.PageRecord{
		URL:           rawURL,
		Title:         "Extraction failed",
		InternalLinks: []models.LinkRef{},
		Videos:        []models.VideoRef{},
		Images:        []models.ImageRef{},
		Status:        models.StatusError,
		Error:         err.Error(),
	}
}
