package ranking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/avolkov/website/internal/ranking"
)

// fakeRedis implements ranking.Commands with canned responses.
type fakeRedis struct {
	setNXResult bool
	setNXErr    error
	setNXKeys   []string

	zIncrErr   error
	zIncrCalls int

	zRevResult []redis.Z
	zRevErr    error
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	f.setNXKeys = append(f.setNXKeys, key)
	return redis.NewBoolResult(f.setNXResult, f.setNXErr)
}

func (f *fakeRedis) ZIncrBy(ctx context.Context, key string, increment float64, member string) *redis.FloatCmd {
	f.zIncrCalls++
	return redis.NewFloatResult(1, f.zIncrErr)
}

func (f *fakeRedis) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd {
	return redis.NewZSliceCmdResult(f.zRevResult, f.zRevErr)
}

func newTracker(rdb ranking.Commands) *ranking.Tracker {
	return ranking.NewTracker(rdb, ranking.Config{DedupWindow: 24 * time.Hour}, nil)
}

func TestTracker_Record(t *testing.T) {
	t.Run("counts a fresh read", func(t *testing.T) {
		rdb := &fakeRedis{setNXResult: true}
		tr := newTracker(rdb)

		tr.Record(context.Background(), "client-1", "my-post")

		assert.Equal(t, 1, rdb.zIncrCalls)
		assert.Equal(t, []string{"read:client-1:my-post"}, rdb.setNXKeys)
	})

	t.Run("repeat read within window is ignored", func(t *testing.T) {
		rdb := &fakeRedis{setNXResult: false}
		tr := newTracker(rdb)

		tr.Record(context.Background(), "client-1", "my-post")

		assert.Zero(t, rdb.zIncrCalls)
	})

	t.Run("redis failure is swallowed", func(t *testing.T) {
		rdb := &fakeRedis{setNXErr: errors.New("connection refused")}
		tr := newTracker(rdb)

		tr.Record(context.Background(), "client-1", "my-post")

		assert.Zero(t, rdb.zIncrCalls)
	})

	t.Run("missing client id or slug is a no-op", func(t *testing.T) {
		rdb := &fakeRedis{setNXResult: true}
		tr := newTracker(rdb)

		tr.Record(context.Background(), "", "my-post")
		tr.Record(context.Background(), "client-1", "")

		assert.Empty(t, rdb.setNXKeys)
	})
}

func TestTracker_Top(t *testing.T) {
	t.Run("returns ranked entries", func(t *testing.T) {
		rdb := &fakeRedis{zRevResult: []redis.Z{
			{Member: "first-post", Score: 12},
			{Member: "second-post", Score: 7},
		}}
		tr := newTracker(rdb)

		entries, err := tr.Top(context.Background(), 10)
		assert.NoError(t, err)
		assert.Equal(t, []ranking.Entry{
			{Slug: "first-post", Reads: 12},
			{Slug: "second-post", Reads: 7},
		}, entries)
	})

	t.Run("propagates fetch errors", func(t *testing.T) {
		rdb := &fakeRedis{zRevErr: errors.New("connection refused")}
		tr := newTracker(rdb)

		_, err := tr.Top(context.Background(), 10)
		assert.Error(t, err)
	})

	t.Run("non-positive n yields nothing", func(t *testing.T) {
		tr := newTracker(&fakeRedis{})

		entries, err := tr.Top(context.Background(), 0)
		assert.NoError(t, err)
		assert.Nil(t, entries)
	})
}
