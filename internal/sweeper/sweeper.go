package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/Batmad01/url-shortener/internal/domain"
)

// DefaultInterval is a fixed poll with no backoff or jitter; it trades the
// staleness window of expired links against store load.
const DefaultInterval = 30 * time.Second

type Store interface {
	DeleteExpired(ctx context.Context, now time.Time, purge func(domain.ShortLink)) (int, error)
}

type Cache interface {
	Delete(ctx context.Context, keys ...string) error
}

// Sweeper periodically removes expired links from the store and purges
// their cache entries. It runs as a single background task for the lifetime
// of the process.
type Sweeper struct {
	store    Store
	cache    Cache
	interval time.Duration
	log      *slog.Logger
}

func New(store Store, cache Cache, interval time.Duration, log *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = slog.Default()
	}

	return &Sweeper{
		store:    store,
		cache:    cache,
		interval: interval,
		log:      log,
	}
}

// Run sweeps immediately, then on every tick until ctx is cancelled.
// Transient store or cache failures are logged and the loop continues on
// the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx)

		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	removed, err := s.store.DeleteExpired(ctx, time.Now(), func(link domain.ShortLink) {
		keys := []string{
			link.ShortCode,
			domain.StatsKey(link.ShortCode),
			domain.SearchKey(link.OriginalURL),
		}
		if err := s.cache.Delete(ctx, keys...); err != nil {
			s.log.Warn("failed to purge cache for expired link",
				"short_code", link.ShortCode, "error", err)
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Error("sweep iteration failed", "error", err)
		return
	}

	if removed > 0 {
		s.log.Info("removed expired links", "count", removed)
	}
}
