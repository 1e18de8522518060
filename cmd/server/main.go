package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trendcrawl/internal/api"
	"trendcrawl/internal/app"
	"trendcrawl/internal/config"
	"trendcrawl/pkg/logger"
)

func main() {
	cfgFile := flag.String("config", "", "config file (default ./config.yaml or ./config/config.yaml)")
	noScheduler := flag.Bool("no-scheduler", false, "serve requests without the background trend collection")
	flag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	l, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer l.Sync()

	a, err := app.New(cfg, l)
	if err != nil {
		l.Errorf("startup: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !*noScheduler {
		if err := a.Scheduler.Start(ctx); err != nil {
			l.Errorf("scheduler: %v", err)
			os.Exit(1)
		}
		defer a.Scheduler.Stop()
	}

	if !cfg.Logger.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	h := api.NewHandler(a.Engine, a.Cache, a.Media, api.Limits{
		MaxPages:        50,
		MaxPagesPerSite: cfg.Crawler.MaxPagesPerSite,
	}, l)
	metrics := promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})

	// no WriteTimeout: crawls with transcription run for minutes
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(h, metrics, l),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		l.Infof("server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	l.Infof("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	l.Infof("bye")
}
