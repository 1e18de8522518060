// Package config loads trendcrawl settings from config.yaml, the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"trendcrawl/pkg/logger"
)

type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Media   MediaConfig   `mapstructure:"media"`
	Trends  TrendsConfig  `mapstructure:"trends"`
	Server  ServerConfig  `mapstructure:"server"`
	Logger  logger.Config `mapstructure:"logger"`
}

type CrawlerConfig struct {
	MaxPages         int            `mapstructure:"max_pages"`
	MaxPagesPerSite  int            `mapstructure:"max_pages_per_site"`
	FetchTimeout     time.Duration  `mapstructure:"fetch_timeout"`
	DialTimeout      time.Duration  `mapstructure:"dial_timeout"`
	SizeCap          int64          `mapstructure:"size_cap"`
	Delay            time.Duration  `mapstructure:"delay"`
	ContentCap       int            `mapstructure:"content_cap"`
	MinLinkText      int            `mapstructure:"min_link_text"`
	MaxLinks         int            `mapstructure:"max_links"`
	MaxImages        int            `mapstructure:"max_images"`
	MaxVideosPerPage int            `mapstructure:"max_videos_per_page"`
	RespectRobots    bool           `mapstructure:"respect_robots"`
	UserAgent        string         `mapstructure:"user_agent"`
	Headless         HeadlessConfig `mapstructure:"headless"`
}

type HeadlessConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Binary  string        `mapstructure:"binary"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type MediaConfig struct {
	YTDLPPath         string        `mapstructure:"ytdlp_path"`
	WhisperPath       string        `mapstructure:"whisper_path"`
	ModelPath         string        `mapstructure:"model_path"`
	Language          string        `mapstructure:"language"`
	ExtractTimeout    time.Duration `mapstructure:"extract_timeout"`
	TranscribeTimeout time.Duration `mapstructure:"transcribe_timeout"`
	TempDir           string        `mapstructure:"temp_dir"`
}

type TrendsConfig struct {
	DataDir  string         `mapstructure:"data_dir"`
	TTL      time.Duration  `mapstructure:"ttl"`
	MinItems int            `mapstructure:"min_items"`
	Schedule []string       `mapstructure:"schedule"`
	Sources  []SourceConfig `mapstructure:"sources"`
}

// SourceConfig describes one trend source. Kind is rss, hackernews or site.
type SourceConfig struct {
	ID       string `mapstructure:"id"`
	Kind     string `mapstructure:"kind"`
	URL      string `mapstructure:"url"`
	Query    string `mapstructure:"query"`
	MaxItems int    `mapstructure:"max_items"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

const (
	SourceRSS        = "rss"
	SourceHackerNews = "hackernews"
	SourceSite       = "site"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.max_pages", 5)
	v.SetDefault("crawler.max_pages_per_site", 3)
	v.SetDefault("crawler.fetch_timeout", "10s")
	v.SetDefault("crawler.dial_timeout", "5s")
	v.SetDefault("crawler.size_cap", 5<<20)
	v.SetDefault("crawler.delay", "1s")
	v.SetDefault("crawler.content_cap", 5000)
	v.SetDefault("crawler.min_link_text", 5)
	v.SetDefault("crawler.max_links", 20)
	v.SetDefault("crawler.max_images", 10)
	v.SetDefault("crawler.max_videos_per_page", 2)
	v.SetDefault("crawler.respect_robots", true)
	v.SetDefault("crawler.user_agent", "trendcrawl/1.0 (+https://example.com/bot)")
	v.SetDefault("crawler.headless.enabled", false)
	v.SetDefault("crawler.headless.binary", "chromium")
	v.SetDefault("crawler.headless.timeout", "30s")

	v.SetDefault("media.ytdlp_path", "yt-dlp")
	v.SetDefault("media.whisper_path", "whisper-cli")
	v.SetDefault("media.model_path", "models/ggml-base.bin")
	v.SetDefault("media.language", "auto")
	v.SetDefault("media.extract_timeout", "10m")
	v.SetDefault("media.transcribe_timeout", "15m")
	v.SetDefault("media.temp_dir", "")

	v.SetDefault("trends.data_dir", "data/tendencias")
	v.SetDefault("trends.ttl", "24h")
	v.SetDefault("trends.min_items", 10)
	v.SetDefault("trends.schedule", []string{"0 7 * * *", "@every 6h"})
	v.SetDefault("trends.sources", []map[string]any{
		{"id": "hackernews", "kind": SourceHackerNews, "max_items": 20},
	})

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.development", false)
}

// Load reads configuration. An explicit path must exist; without one,
// config.yaml is searched in . and ./config and may be absent.
// Environment variables override file values (crawler.max_pages is
// TRENDCRAWL_CRAWLER_MAX_PAGES).
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("trendcrawl")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Crawler.MaxPages <= 0 || c.Crawler.MaxPagesPerSite <= 0 {
		return errors.New("crawler page budgets must be positive")
	}
	if c.Trends.MinItems < 0 {
		return errors.New("trends.min_items must not be negative")
	}
	seen := map[string]bool{}
	for i, s := range c.Trends.Sources {
		if s.ID == "" {
			return fmt.Errorf("trends.sources[%d]: id is required", i)
		}
		if strings.ContainsAny(s.ID, `/\*?[`) {
			return fmt.Errorf("trends.sources[%d]: id %q must be a plain name", i, s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("trends.sources[%d]: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
		switch s.Kind {
		case SourceHackerNews:
		case SourceRSS, SourceSite:
			if s.URL == "" {
				return fmt.Errorf("trends.sources[%d]: %s source needs a url", i, s.Kind)
			}
		default:
			return fmt.Errorf("trends.sources[%d]: unknown kind %q", i, s.Kind)
		}
	}
	return nil
}
