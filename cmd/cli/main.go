package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"trendcrawl/internal/app"
	"trendcrawl/internal/config"
	"trendcrawl/internal/ioformats"
	"trendcrawl/internal/media"
	"trendcrawl/pkg/logger"
)

var (
	cfgFile  string
	logLevel string
	output   string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "trendcrawl",
		Short:         "Crawl sites, transcribe their videos and collect trends",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml or ./config/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logger.level")
	root.PersistentFlags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	root.AddCommand(crawlCmd(), pageCmd(), trendsCmd(), transcribeCmd(), segmentCmd())
	return root
}

// setup loads config and builds the application graph.
func setup() (*app.App, func(), error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Logger.Level = logLevel
	}
	l, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(cfg, l)
	if err != nil {
		l.Sync()
		return nil, nil, err
	}
	return a, l.Sync, nil
}

func openOutput() (io.Writer, func(), error) {
	if output == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(output)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func writeJSON(v any) error {
	w, closeFn, err := openOutput()
	if err != nil {
		return err
	}
	defer closeFn()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func crawlCmd() *cobra.Command {
	var input string
	var perSite int
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl one or more sites and print the merged report",
		Example: `  trendcrawl crawl https://go.dev/blog/
  trendcrawl crawl --input seeds.csv --pages-per-site 5 -o report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := args
			if input != "" {
				urls, err := ioformats.ReadURLs(input)
				if err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				raw = append(raw, urls...)
			}
			seeds := ioformats.ValidateSeeds(raw)
			if len(seeds.URLs) == 0 {
				return fmt.Errorf("no valid seed urls (rejected: %s)", strings.Join(seeds.Rejected, ", "))
			}

			a, done, err := setup()
			if err != nil {
				return err
			}
			defer done()
			for _, r := range seeds.Rejected {
				a.Log.Warnf("skipping malformed seed %q", r)
			}
			if perSite <= 0 {
				perSite = a.Config.Crawler.MaxPagesPerSite
			}

			report := a.Engine.CrawlSites(cmd.Context(), seeds.URLs, perSite)
			a.Log.Infof("crawled %d pages (%d ok), %d videos, %d transcribed",
				report.Statistics.TotalPages, report.Statistics.SuccessfulPages,
				report.Statistics.TotalVideos, report.Statistics.TranscribedVideos)
			return writeJSON(report)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "seed file (csv with 'url' column, ndjson or txt)")
	cmd.Flags().IntVar(&perSite, "pages-per-site", 0, "page budget per site (default crawler.max_pages_per_site)")
	return cmd
}

func pageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "page <url>",
		Short: "Extract a single page and transcribe its videos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := setup()
			if err != nil {
				return err
			}
			defer done()
			report, err := a.Engine.ExtractSinglePage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(report)
		},
	}
}

func trendsCmd() *cobra.Command {
	var flat, lastUpdate bool
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Collect trends from every configured source (cached for the TTL)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := setup()
			if err != nil {
				return err
			}
			defer done()

			if lastUpdate {
				t, ok := a.Cache.LastUpdateTime()
				if !ok {
					return writeJSON(map[string]any{"last_update": nil})
				}
				return writeJSON(map[string]any{"last_update": t})
			}

			res := a.Cache.CollectAll(cmd.Context())
			if flat {
				w, closeFn, err := openOutput()
				if err != nil {
					return err
				}
				defer closeFn()
				return ioformats.WriteNDJSON(w, res.Flatten())
			}
			return writeJSON(res)
		},
	}
	cmd.Flags().BoolVar(&flat, "flat", false, "print one NDJSON line per item")
	cmd.Flags().BoolVar(&lastUpdate, "last-update", false, "only print when snapshots were last written")
	return cmd
}

func transcribeCmd() *cobra.Command {
	var target int
	var meta bool
	cmd := &cobra.Command{
		Use:   "transcribe <video-url>",
		Short: "Transcribe a YouTube, Vimeo or direct media URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := setup()
			if err != nil {
				return err
			}
			defer done()

			out := map[string]any{"url": args[0]}
			if meta {
				md, err := a.Media.Metadata(cmd.Context(), args[0])
				if err != nil {
					a.Log.Warnf("metadata: %v", err)
				} else {
					out["metadata"] = md
				}
			}
			text, err := a.Media.TranscribeErr(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out["transcript"] = text
			out["word_count"] = len(strings.Fields(text))
			if target > 0 {
				out["segment"] = media.SelectBestSegment(text, target)
			}
			return writeJSON(out)
		},
	}
	cmd.Flags().IntVar(&target, "segment", 0, "also select a segment of about N words")
	cmd.Flags().BoolVar(&meta, "metadata", false, "include yt-dlp metadata")
	return cmd
}

func segmentCmd() *cobra.Command {
	var target int
	cmd := &cobra.Command{
		Use:   "segment [file]",
		Short: "Select the best excerpt of a transcript (file or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			data, err := io.ReadAll(r)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), media.SelectBestSegment(string(data), target))
			return nil
		},
	}
	cmd.Flags().IntVarP(&target, "words", "w", 100, "target segment length in words")
	return cmd
}
