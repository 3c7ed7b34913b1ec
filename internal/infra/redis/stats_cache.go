package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/Lirbo/trivia-game/internal/app"
	"github.com/Lirbo/trivia-game/internal/domain"
)

// StatsCache is a read-through Redis cache in front of an app.StatsStore.
// Global aggregates (leaderboards, tallies, hall of fame) are cached as
// JSON with a TTL; per-user queries pass straight through since they are
// cheap single-user lookups. Cache misses collapse onto one loader call
// via singleflight.
type StatsCache struct {
	client *redis.Client
	next   app.StatsStore
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewStatsCache(client *redis.Client, next app.StatsStore, ttl time.Duration) *StatsCache {
	return &StatsCache{
		client: client,
		next:   next,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *StatsCache) PlayedUserCount(ctx context.Context) (int, error) {
	count, err := cached(ctx, c, "trivia:stats:played", func() (int, error) {
		return c.next.PlayedUserCount(ctx)
	})
	return count, err
}

func (c *StatsCache) EasiestQuestions(ctx context.Context) ([]domain.QuestionTally, error) {
	return cached(ctx, c, "trivia:stats:easiest", func() ([]domain.QuestionTally, error) {
		return c.next.EasiestQuestions(ctx)
	})
}

func (c *StatsCache) HardestQuestions(ctx context.Context) ([]domain.QuestionTally, error) {
	return cached(ctx, c, "trivia:stats:hardest", func() ([]domain.QuestionTally, error) {
		return c.next.HardestQuestions(ctx)
	})
}

func (c *StatsCache) TopByCorrect(ctx context.Context, limit int) ([]domain.LeaderboardRow, error) {
	return cached(ctx, c, "trivia:stats:top:correct", func() ([]domain.LeaderboardRow, error) {
		return c.next.TopByCorrect(ctx, limit)
	})
}

func (c *StatsCache) TopByAnswered(ctx context.Context, limit int) ([]domain.LeaderboardRow, error) {
	return cached(ctx, c, "trivia:stats:top:answered", func() ([]domain.LeaderboardRow, error) {
		return c.next.TopByAnswered(ctx, limit)
	})
}

func (c *StatsCache) UserAnswers(ctx context.Context, userID int64) ([]domain.AnswerHistoryRow, error) {
	return c.next.UserAnswers(ctx, userID)
}

func (c *StatsCache) QuestionBreakdown(ctx context.Context) ([]domain.QuestionBreakdown, error) {
	return cached(ctx, c, "trivia:stats:breakdown", func() ([]domain.QuestionBreakdown, error) {
		return c.next.QuestionBreakdown(ctx)
	})
}

func (c *StatsCache) HallOfFame(ctx context.Context) ([]domain.HallOfFameRow, error) {
	return cached(ctx, c, "trivia:stats:halloffame", func() ([]domain.HallOfFameRow, error) {
		return c.next.HallOfFame(ctx)
	})
}

func (c *StatsCache) UserSummary(ctx context.Context, userID int64) (domain.UserSummary, error) {
	return c.next.UserSummary(ctx, userID)
}

// cached returns the JSON-decoded value under key, or loads, stores, and
// returns it on a miss. Redis errors degrade to a direct load: the cache
// never makes statistics unavailable.
func cached[T any](ctx context.Context, c *StatsCache, key string, load func() (T, error)) (T, error) {
	var zero T
	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var value T
		if err := json.Unmarshal(raw, &value); err == nil {
			return value, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var value T
			if err := json.Unmarshal(raw, &value); err == nil {
				return value, nil
			}
		}

		value, err := load()
		if err != nil {
			return zero, err
		}
		if raw, err := json.Marshal(value); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return value, nil
	})
	if err != nil {
		return zero, err
	}
	return result.(T), nil
}

func (c *StatsCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
