// Package app wires configuration into the crawl engine, the transcription
// service and the trend cache. Both binaries build on it.
package app

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"trendcrawl/internal/config"
	"trendcrawl/internal/crawler"
	"trendcrawl/internal/media"
	"trendcrawl/internal/metrics"
	"trendcrawl/internal/parser"
	"trendcrawl/internal/trends"
	"trendcrawl/pkg/logger"
)

type App struct {
	Config   *config.Config
	Log      *logger.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Client    *crawler.HTTPClient
	Engine    *crawler.Engine // transcribes videos it finds
	Media     *media.Service
	Store     *trends.FileStore
	Cache     *trends.SnapshotCache
	Scheduler *trends.Scheduler
}

func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	log = logger.OrNop(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	cc := cfg.Crawler
	client := crawler.NewHTTPClient(cc.FetchTimeout, cc.DialTimeout, cc.SizeCap, cc.UserAgent)

	mc := cfg.Media
	mediaSvc := media.NewService(
		media.NewYTDLP(mc.YTDLPPath),
		media.WhisperLoader(mc.WhisperPath, mc.ModelPath, mc.Language),
		media.Config{
			TempDir:           mc.TempDir,
			ExtractTimeout:    mc.ExtractTimeout,
			TranscribeTimeout: mc.TranscribeTimeout,
		},
		media.WithLogger(log.With("component", "media")),
		media.WithMetrics(m),
	)

	engineOpts := crawler.Options{
		MaxPages:         cc.MaxPages,
		Delay:            cc.Delay,
		MaxVideosPerPage: cc.MaxVideosPerPage,
		Parser: parser.Options{
			ContentCap:  cc.ContentCap,
			MinLinkText: cc.MinLinkText,
			MaxLinks:    cc.MaxLinks,
			MaxImages:   cc.MaxImages,
			Readability: true,
		},
	}
	common := []crawler.Option{
		crawler.WithLogger(log.With("component", "crawler")),
		crawler.WithMetrics(m),
	}
	if cc.RespectRobots {
		common = append(common, crawler.WithRobots(crawler.NewRobotsPolicy(client.Client(), client.UserAgent())))
	}
	if cc.Headless.Enabled {
		common = append(common, crawler.WithRenderer(crawler.ChromeRenderer{Binary: cc.Headless.Binary, Timeout: cc.Headless.Timeout}))
	}
	engine := crawler.NewEngine(client, engineOpts, append(common, crawler.WithTranscriber(mediaSvc))...)
	// trend sites are crawled for text only
	siteEngine := crawler.NewEngine(client, engineOpts, common...)

	store, err := trends.NewFileStore(cfg.Trends.DataDir)
	if err != nil {
		return nil, err
	}
	cols, err := Collectors(cfg.Trends.Sources, siteEngine, client.Client(), cfg.Crawler.MaxPagesPerSite)
	if err != nil {
		return nil, err
	}
	tlog := log.With("component", "trends")
	cache := trends.NewSnapshotCache(store, cols,
		trends.Options{TTL: cfg.Trends.TTL, MinItems: cfg.Trends.MinItems},
		trends.WithLogger(tlog),
		trends.WithMetrics(m),
	)

	return &App{
		Config:    cfg,
		Log:       log,
		Registry:  reg,
		Metrics:   m,
		Client:    client,
		Engine:    engine,
		Media:     mediaSvc,
		Store:     store,
		Cache:     cache,
		Scheduler: trends.NewScheduler(cache, cfg.Trends.Schedule, tlog),
	}, nil
}

// Collectors builds one collector per configured source.
func Collectors(sources []config.SourceConfig, site trends.SiteCrawler, client *http.Client, sitePages int) ([]trends.Collector, error) {
	out := make([]trends.Collector, 0, len(sources))
	for _, s := range sources {
		switch s.Kind {
		case config.SourceRSS:
			out = append(out, trends.NewRSSCollector(s.ID, s.URL, s.MaxItems, client))
		case config.SourceHackerNews:
			out = append(out, trends.NewHackerNewsCollector(s.ID, s.URL, s.Query, s.MaxItems, client))
		case config.SourceSite:
			pages := sitePages
			if s.MaxItems > 0 {
				pages = s.MaxItems
			}
			out = append(out, trends.NewSiteCollector(s.ID, s.URL, pages, site))
		default:
			return nil, fmt.Errorf("source %s: unknown kind %q", s.ID, s.Kind)
		}
	}
	return out, nil
}
