package trends

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"trendcrawl/pkg/logger"
)

// DefaultSchedules runs a daily morning collection plus a refresh every six hours.
var DefaultSchedules = []string{"0 7 * * *", "@every 6h"}

// Scheduler runs CollectAll on cron schedules. A run that is still going
// when the next one fires causes that firing to be skipped.
type Scheduler struct {
	cache     *SnapshotCache
	cron      *cron.Cron
	schedules []string
	staleness time.Duration
	log       *logger.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(cache *SnapshotCache, schedules []string, log *logger.Logger) *Scheduler {
	if len(schedules) == 0 {
		schedules = DefaultSchedules
	}
	log = logger.OrNop(log)
	cl := cronLogger{log}
	return &Scheduler{
		cache: cache,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		schedules: schedules,
		staleness: 6 * time.Hour,
		log:       log,
	}
}

// Start registers the schedules and starts the cron loop. When nothing has
// been collected yet, or the last collection is older than six hours, a
// collection also runs right away in the background.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx, s.cancel = context.WithCancel(ctx)
	for _, spec := range s.schedules {
		if _, err := s.cron.AddFunc(spec, s.run); err != nil {
			s.cancel()
			return err
		}
	}
	s.cron.Start()
	s.log.Infof("trend scheduler started: %v", s.schedules)

	if last, ok := s.cache.LastUpdateTime(); !ok || time.Since(last) > s.staleness {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.run()
		}()
	}
	return nil
}

// Stop halts the cron loop and waits for running collections to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.log.Infof("trend scheduler stopped")
}

func (s *Scheduler) run() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	start := time.Now()
	s.log.Infof("scheduled trend collection starting")
	res := s.cache.CollectAll(ctx)
	for _, src := range res.Sources() {
		s.log.Infof("  %s: %d items", src.Source, len(src.Items))
	}
	s.log.Infof("scheduled trend collection done: %d items, fallback=%t, took %s",
		res.Total(), res.FallbackActive(), time.Since(start).Round(time.Millisecond))
}

// cronLogger adapts our logger to cron.Logger.
type cronLogger struct{ log *logger.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Debugf("cron: %s %v", msg, keysAndValues)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Errorf("cron: %s: %v %v", msg, err, keysAndValues)
}
