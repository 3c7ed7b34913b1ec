package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Lirbo/trivia-game/internal/app"
	"github.com/Lirbo/trivia-game/internal/domain"
	"github.com/Lirbo/trivia-game/internal/infra/memory"
)

func TestStatsCacheServesFromRedis(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	inner := newCountingStats(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewStatsCache(client, inner, time.Minute)

	board, err := cache.HallOfFame(ctx)
	if err != nil {
		t.Fatalf("hall of fame: %v", err)
	}
	if len(board) != 1 || board[0].Username != "u" {
		t.Fatalf("unexpected board: %+v", board)
	}
	if inner.hallOfFameCalls != 1 {
		t.Fatalf("expected one loader call, got %d", inner.hallOfFameCalls)
	}
	if !mr.Exists("trivia:stats:halloffame") {
		t.Fatalf("expected hall of fame key in redis")
	}

	if _, err := cache.HallOfFame(ctx); err != nil {
		t.Fatalf("hall of fame 2: %v", err)
	}
	if inner.hallOfFameCalls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", inner.hallOfFameCalls)
	}

	// Expiry forces a reload.
	mr.FastForward(2 * time.Minute)
	if _, err := cache.HallOfFame(ctx); err != nil {
		t.Fatalf("hall of fame 3: %v", err)
	}
	if inner.hallOfFameCalls != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", inner.hallOfFameCalls)
	}
}

func TestStatsCachePassesThroughUserQueries(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	inner := newCountingStats(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewStatsCache(client, inner, time.Minute)

	summary, err := cache.UserSummary(ctx, inner.userID)
	if err != nil {
		t.Fatalf("user summary: %v", err)
	}
	if summary.User.Username != "u" || summary.CorrectAnswers != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("per-user queries must not touch redis, keys: %v", keys)
	}
}

// countingStats wraps the memory store to count expensive loads.
type countingStats struct {
	app.StatsStore
	userID          int64
	hallOfFameCalls int
}

func (c *countingStats) HallOfFame(ctx context.Context) ([]domain.HallOfFameRow, error) {
	c.hallOfFameCalls++
	return c.StatsStore.HallOfFame(ctx)
}

func newCountingStats(t *testing.T) *countingStats {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	qid, err := store.CreateQuestion(ctx, domain.Question{
		Text:          "Q",
		Options:       [4]string{"a", "b", "c", "d"},
		CorrectChoice: 1,
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	userID, err := store.CreateUser(ctx, domain.NewUser{
		Username:     "u",
		PasswordHash: "hash",
		Email:        "u@example.com",
		DateOfBirth:  time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := store.MarkPlayStarted(ctx, userID); err != nil {
		t.Fatalf("mark play started: %v", err)
	}
	if _, err := store.SubmitAnswer(ctx, userID, qid, 1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	return &countingStats{StatsStore: store, userID: userID}
}
