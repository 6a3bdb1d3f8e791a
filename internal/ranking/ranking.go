// Package ranking aggregates post reads per anonymous client and serves a
// ranked most-read listing. Counts live in a Redis sorted set; a short-lived
// per-client marker deduplicates repeat reads of the same post.
package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avolkov/website/internal/logger"
	"github.com/avolkov/website/internal/metrics"
)

const (
	rankingKey  = "posts:reads"
	dedupPrefix = "read:"
)

// Commands is the subset of the Redis client the tracker uses,
// satisfied by *redis.Client.
type Commands interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	ZIncrBy(ctx context.Context, key string, increment float64, member string) *redis.FloatCmd
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd
}

// Config holds read-tracking configuration.
type Config struct {
	// DedupWindow is how long a client's read of one post counts only once.
	DedupWindow time.Duration `env:"RANKING_DEDUP_WINDOW" envDefault:"24h"`
}

// Entry is one post in the ranked listing.
type Entry struct {
	Slug  string
	Reads int64
}

// Tracker records reads and produces rankings.
type Tracker struct {
	rdb    Commands
	window time.Duration
	log    *slog.Logger
}

// NewTracker creates a read tracker.
func NewTracker(rdb Commands, cfg Config, log *slog.Logger) *Tracker {
	if log == nil {
		log = logger.Discard()
	}
	return &Tracker{rdb: rdb, window: cfg.DedupWindow, log: log}
}

// Record counts one read of slug by clientID. Repeat reads within the dedup
// window are ignored. Failures are logged and swallowed: read tracking must
// never break a page render.
func (t *Tracker) Record(ctx context.Context, clientID, slug string) {
	if clientID == "" || slug == "" {
		return
	}

	dedupKey := fmt.Sprintf("%s%s:%s", dedupPrefix, clientID, slug)
	fresh, err := t.rdb.SetNX(ctx, dedupKey, 1, t.window).Result()
	if err != nil {
		t.log.WarnContext(ctx, "read dedup check failed",
			logger.Component("ranking"), logger.Error(err))
		return
	}
	if !fresh {
		return
	}

	if err := t.rdb.ZIncrBy(ctx, rankingKey, 1, slug).Err(); err != nil {
		t.log.WarnContext(ctx, "read count increment failed",
			logger.Component("ranking"), logger.Error(err))
		return
	}

	metrics.PostReadsTotal.Inc()
}

// Top returns the n most-read posts, most read first.
func (t *Tracker) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	zs, err := t.rdb.ZRevRangeWithScores(ctx, rankingKey, 0, int64(n)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("ranking: fetch top posts: %w", err)
	}

	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		slug, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Slug: slug, Reads: int64(z.Score)})
	}
	return entries, nil
}
