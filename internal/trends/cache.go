package trends

import (
	"context"
	"errors"
	"sync"
	"time"

	"trendcrawl/internal/metrics"
	"trendcrawl/internal/models"
	"trendcrawl/pkg/logger"
)

type Options struct {
	TTL      time.Duration // a snapshot younger than this is reused as is
	MinItems int           // below this many live items the result falls back
}

func DefaultOptions() Options {
	return Options{TTL: 24 * time.Hour, MinItems: 10}
}

// SnapshotCache collects every configured source at most once per TTL,
// persisting each batch through the FileStore and falling back to older
// snapshots or static content when collection comes up short.
type SnapshotCache struct {
	store      *FileStore
	collectors []Collector
	opts       Options
	now        func() time.Time
	static     func(time.Time) []models.TrendItem
	log        *logger.Logger
	metrics    *metrics.Metrics

	mu sync.Mutex // one CollectAll at a time
}

type Option func(*SnapshotCache)

func WithClock(now func() time.Time) Option { return func(c *SnapshotCache) { c.now = now } }
func WithLogger(l *logger.Logger) Option     { return func(c *SnapshotCache) { c.log = l } }
func WithMetrics(m *metrics.Metrics) Option  { return func(c *SnapshotCache) { c.metrics = m } }

// WithStatic replaces the built-in fallback content.
func WithStatic(items []models.TrendItem) Option {
	return func(c *SnapshotCache) {
		c.static = func(time.Time) []models.TrendItem { return items }
	}
}

func NewSnapshotCache(store *FileStore, collectors []Collector, opts Options, options ...Option) *SnapshotCache {
	def := DefaultOptions()
	if opts.TTL <= 0 {
		opts.TTL = def.TTL
	}
	if opts.MinItems <= 0 {
		opts.MinItems = def.MinItems
	}
	c := &SnapshotCache{
		store:      store,
		collectors: collectors,
		opts:       opts,
		now:        time.Now,
		static:     StaticContent,
	}
	for _, o := range options {
		o(c)
	}
	c.log = logger.OrNop(c.log)
	return c
}

// IsCacheValid reports whether today's snapshot of source exists and is
// younger than the TTL.
func (c *SnapshotCache) IsCacheValid(source string) bool {
	_, ok := c.fresh(source)
	return ok
}

func (c *SnapshotCache) fresh(source string) (models.Snapshot, bool) {
	now := c.now()
	snap, err := c.store.Load(source, now)
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			c.log.Warnf("snapshot %s unreadable, recollecting: %v", source, err)
		}
		return models.Snapshot{}, false
	}
	return snap, now.Sub(snap.Timestamp) < c.opts.TTL
}

// CollectAll returns the items of every source. Sources with a fresh
// snapshot are not collected again. A failed or empty collection falls back
// to the source's most recent snapshot. When the live total is under
// MinItems the result is a Fallback carrying static content as well.
func (c *SnapshotCache) CollectAll(ctx context.Context) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.now()
	data := make([]SourceTrends, 0, len(c.collectors))
	total := 0
	for _, col := range c.collectors {
		items := c.collectSource(ctx, col)
		if items == nil {
			items = []models.TrendItem{}
		}
		total += len(items)
		data = append(data, SourceTrends{Source: col.ID(), Items: items})
	}

	if total < c.opts.MinItems {
		c.metrics.Fallback()
		c.log.Warnf("only %d trend items collected (floor %d), adding static content", total, c.opts.MinItems)
		return Fallback{Data: data, Static: c.static(c.now())}
	}
	c.log.Infow("trends collected", "items", total, "sources", len(data), "elapsed", c.now().Sub(start).Round(time.Millisecond))
	return Live{Data: data}
}

func (c *SnapshotCache) collectSource(ctx context.Context, col Collector) []models.TrendItem {
	id := col.ID()
	if snap, ok := c.fresh(id); ok {
		c.metrics.Cache("hit")
		c.log.Debugf("using cached snapshot for %s: %d items", id, len(snap.Trends))
		return snap.Trends
	}
	c.metrics.Cache("miss")

	items, err := col.Collect(ctx)
	switch {
	case err != nil:
		c.metrics.Collector(id, "failed")
		c.log.Errorw("collect failed", "source", id, "error", err)
	case len(items) == 0:
		c.metrics.Collector(id, "empty")
		c.log.Warnf("collect %s returned no items", id)
	default:
		c.metrics.Collector(id, "ok")
		if err := c.store.Save(models.Snapshot{Source: id, Timestamp: c.now(), Trends: items}); err != nil {
			c.log.Errorf("save snapshot %s: %v", id, err)
		}
		return items
	}

	prev, err := c.store.LoadLatest(id)
	if err != nil {
		c.log.Warnf("no earlier snapshot for %s: %v", id, err)
		return nil
	}
	c.log.Infof("using snapshot of %s from %s", id, prev.Timestamp.Format(time.RFC3339))
	return prev.Trends
}

// LastUpdateTime is the newest snapshot file modification time; ok is false
// when nothing has been persisted yet.
func (c *SnapshotCache) LastUpdateTime() (time.Time, bool) {
	t, ok, err := c.store.LastModified()
	if err != nil {
		c.log.Warnf("scan snapshots: %v", err)
		return time.Time{}, false
	}
	return t, ok
}
