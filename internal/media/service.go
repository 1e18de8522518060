package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"trendcrawl/internal/metrics"
	"trendcrawl/pkg/logger"
)

type Config struct {
	TempDir           string        // parent of per-video scratch dirs; empty means os.TempDir
	ExtractTimeout    time.Duration // bound on audio extraction per video
	TranscribeTimeout time.Duration // bound on inference per video
}

func DefaultConfig() Config {
	return Config{
		ExtractTimeout:    10 * time.Minute,
		TranscribeTimeout: 15 * time.Minute,
	}
}

// Service extracts audio from hosted videos and transcribes it. The speech
// model is loaded on first use and shared by every later call.
type Service struct {
	extractor Extractor
	model     *lazyModel
	cfg       Config
	log       *logger.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithLogger(l *logger.Logger) Option    { return func(s *Service) { s.log = l } }
func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func NewService(ex Extractor, load ModelLoader, cfg Config, options ...Option) *Service {
	def := DefaultConfig()
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = def.ExtractTimeout
	}
	if cfg.TranscribeTimeout <= 0 {
		cfg.TranscribeTimeout = def.TranscribeTimeout
	}
	s := &Service{
		extractor: ex,
		model:     &lazyModel{load: load},
		cfg:       cfg,
	}
	for _, o := range options {
		o(s)
	}
	s.log = logger.OrNop(s.log)
	return s
}

// Transcribe returns the transcript of videoURL. ok is false when any step
// fails; the cause is logged and the caller should skip the video.
func (s *Service) Transcribe(ctx context.Context, videoURL string) (string, bool) {
	start := time.Now()
	text, err := s.TranscribeErr(ctx, videoURL)
	if err != nil {
		s.metrics.Transcription("failed", time.Since(start).Seconds())
		s.log.Warnf("transcribe %s: %v", videoURL, err)
		return "", false
	}
	s.metrics.Transcription("ok", time.Since(start).Seconds())
	s.log.Infof("transcribed %s (%d words) in %s", videoURL, len(strings.Fields(text)), time.Since(start).Round(time.Millisecond))
	return text, true
}

// TranscribeErr is Transcribe with the failure cause returned.
func (s *Service) TranscribeErr(ctx context.Context, videoURL string) (string, error) {
	if _, err := DetectPlatform(videoURL); err != nil {
		return "", err
	}

	dir, err := os.MkdirTemp(s.cfg.TempDir, "trendcrawl-audio-*")
	if err != nil {
		return "", fmt.Errorf("scratch dir: %w", err)
	}
	defer func() {
		if rerr := os.RemoveAll(dir); rerr != nil {
			s.log.Warnf("remove %s: %v", dir, rerr)
		}
	}()

	ectx, cancel := context.WithTimeout(ctx, s.cfg.ExtractTimeout)
	audio, err := s.extractor.ExtractAudio(ectx, videoURL, dir)
	cancel()
	if err != nil {
		return "", fmt.Errorf("extract audio: %w", err)
	}

	model, err := s.model.get()
	if err != nil {
		return "", err
	}

	tctx, cancel := context.WithTimeout(ctx, s.cfg.TranscribeTimeout)
	defer cancel()
	text, err := model.Transcribe(tctx, audio)
	if err != nil {
		return "", fmt.Errorf("inference: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("empty transcript")
	}
	return text, nil
}

// Metadata probes a video without downloading it.
func (s *Service) Metadata(ctx context.Context, videoURL string) (Metadata, error) {
	if _, err := DetectPlatform(videoURL); err != nil {
		return Metadata{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ExtractTimeout)
	defer cancel()
	return s.extractor.Metadata(ctx, videoURL)
}
