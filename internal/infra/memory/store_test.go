package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Lirbo/trivia-game/internal/domain"
)

func TestNextQuestionFollowsCreationOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first, _ := store.CreateQuestion(ctx, question("Q1", 1))
	second, _ := store.CreateQuestion(ctx, question("Q2", 2))
	userID := createUser(t, store, "u")

	next, err := store.NextQuestion(ctx, userID)
	if err != nil || next.ID != first {
		t.Fatalf("expected first question, got %+v err=%v", next, err)
	}

	if _, err := store.SubmitAnswer(ctx, userID, first, 1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	next, err = store.NextQuestion(ctx, userID)
	if err != nil || next.ID != second {
		t.Fatalf("expected second question, got %+v err=%v", next, err)
	}

	if _, err := store.SubmitAnswer(ctx, userID, second, 1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := store.NextQuestion(ctx, userID); !errors.Is(err, domain.ErrQuestionsExhausted) {
		t.Fatalf("expected exhausted, got %v", err)
	}
}

func TestCounterMatchesAnswerRecords(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	userID := createUser(t, store, "u")

	for i := 0; i < 5; i++ {
		qid, _ := store.CreateQuestion(ctx, question("Q", 1))
		if _, err := store.SubmitAnswer(ctx, userID, qid, 1); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		user, _ := store.UserByID(ctx, userID)
		history, _ := store.UserAnswers(ctx, userID)
		if user.QuestionsSolved != len(history) {
			t.Fatalf("counter %d != records %d", user.QuestionsSolved, len(history))
		}
	}
}

func TestSubmitAnswerUnknownIDs(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	qid, _ := store.CreateQuestion(ctx, question("Q", 1))
	userID := createUser(t, store, "u")

	if _, err := store.SubmitAnswer(ctx, 999, qid, 1); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
	if _, err := store.SubmitAnswer(ctx, userID, 999, 1); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
}

func TestMarkPlayStartedSetsOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 12, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := NewStoreWithClock(clock)
	userID := createUser(t, store, "u")

	if err := store.MarkPlayStarted(ctx, userID); err != nil {
		t.Fatalf("mark: %v", err)
	}
	started := now

	now = now.Add(time.Hour)
	if err := store.MarkPlayStarted(ctx, userID); err != nil {
		t.Fatalf("mark again: %v", err)
	}
	user, _ := store.UserByID(ctx, userID)
	if user.PlayStartedAt == nil || !user.PlayStartedAt.Equal(started) {
		t.Fatalf("expected first timestamp preserved, got %v", user.PlayStartedAt)
	}

	if err := store.ResetProgress(ctx, userID); err != nil {
		t.Fatalf("reset: %v", err)
	}
	user, _ = store.UserByID(ctx, userID)
	if user.PlayStartedAt != nil {
		t.Fatalf("expected reset to clear timestamp, got %v", user.PlayStartedAt)
	}
}

func TestEasiestAndHardestReturnTieSets(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	q1, _ := store.CreateQuestion(ctx, question("easy-a", 1))
	q2, _ := store.CreateQuestion(ctx, question("easy-b", 1))
	q3, _ := store.CreateQuestion(ctx, question("hard", 1))

	// Two users answer q1 and q2 correctly; only one gets q3 right.
	u1 := createUser(t, store, "u1")
	u2 := createUser(t, store, "u2")
	for _, uid := range []int64{u1, u2} {
		mustSubmit(t, store, uid, q1, 1)
		mustSubmit(t, store, uid, q2, 1)
	}
	mustSubmit(t, store, u1, q3, 1)
	mustSubmit(t, store, u2, q3, 2) // wrong

	easiest, err := store.EasiestQuestions(ctx)
	if err != nil {
		t.Fatalf("easiest: %v", err)
	}
	if len(easiest) != 2 {
		t.Fatalf("expected both tied easiest questions, got %+v", easiest)
	}

	hardest, err := store.HardestQuestions(ctx)
	if err != nil {
		t.Fatalf("hardest: %v", err)
	}
	if len(hardest) != 1 || hardest[0].Question != "hard" || hardest[0].Correct != 1 {
		t.Fatalf("expected single hardest question, got %+v", hardest)
	}
}

func TestQuestionBreakdownIncludesUnanswered(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	q1, _ := store.CreateQuestion(ctx, question("answered", 1))
	store.CreateQuestion(ctx, question("untouched", 1))
	userID := createUser(t, store, "u")
	mustSubmit(t, store, userID, q1, 2) // wrong

	breakdown, err := store.QuestionBreakdown(ctx)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if len(breakdown) != 2 {
		t.Fatalf("expected 2 rows, got %+v", breakdown)
	}
	if breakdown[0].Total != 1 || breakdown[0].Correct != 0 || breakdown[0].Incorrect != 1 {
		t.Fatalf("unexpected answered row: %+v", breakdown[0])
	}
	if breakdown[1].Question != "untouched" || breakdown[1].Total != 0 {
		t.Fatalf("expected zero-answer question to appear, got %+v", breakdown[1])
	}
}

func TestHallOfFameRanksByScoreThenSpeed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 12, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := NewStoreWithClock(clock)

	q1, _ := store.CreateQuestion(ctx, question("Q1", 1))
	q2, _ := store.CreateQuestion(ctx, question("Q2", 1))

	fast := createUser(t, store, "fast")
	slow := createUser(t, store, "slow")
	champ := createUser(t, store, "champ")

	for _, uid := range []int64{fast, slow, champ} {
		if err := store.MarkPlayStarted(ctx, uid); err != nil {
			t.Fatalf("mark: %v", err)
		}
	}

	now = now.Add(time.Minute)
	mustSubmit(t, store, fast, q1, 1)
	mustSubmit(t, store, champ, q1, 1)
	now = now.Add(time.Minute)
	mustSubmit(t, store, slow, q1, 1)
	mustSubmit(t, store, champ, q2, 1)

	board, err := store.HallOfFame(ctx)
	if err != nil {
		t.Fatalf("hall of fame: %v", err)
	}
	if len(board) != 3 {
		t.Fatalf("expected 3 entries, got %+v", board)
	}
	if board[0].Username != "champ" || board[0].CorrectAnswers != 2 {
		t.Fatalf("expected champ first, got %+v", board[0])
	}
	// fast and slow both have one correct answer; fast finished earlier.
	if board[1].Username != "fast" || board[2].Username != "slow" {
		t.Fatalf("expected speed tie-break, got %+v", board[1:])
	}
}

func TestLeaderboardsOrderAndCap(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	q1, _ := store.CreateQuestion(ctx, question("Q1", 1))
	q2, _ := store.CreateQuestion(ctx, question("Q2", 1))
	top := createUser(t, store, "top")
	low := createUser(t, store, "low")

	mustSubmit(t, store, top, q1, 1)
	mustSubmit(t, store, top, q2, 1)
	mustSubmit(t, store, low, q1, 2) // wrong, still counts as answered

	byCorrect, err := store.TopByCorrect(ctx, 100)
	if err != nil {
		t.Fatalf("top by correct: %v", err)
	}
	if len(byCorrect) != 1 || byCorrect[0].Username != "top" || byCorrect[0].Count != 2 {
		t.Fatalf("unexpected correct leaderboard: %+v", byCorrect)
	}

	byAnswered, err := store.TopByAnswered(ctx, 100)
	if err != nil {
		t.Fatalf("top by answered: %v", err)
	}
	if len(byAnswered) != 2 || byAnswered[0].Username != "top" {
		t.Fatalf("unexpected answered leaderboard: %+v", byAnswered)
	}

	capped, err := store.TopByAnswered(ctx, 1)
	if err != nil {
		t.Fatalf("capped leaderboard: %v", err)
	}
	if len(capped) != 1 {
		t.Fatalf("expected cap of 1, got %+v", capped)
	}
}

func question(text string, correct int) domain.Question {
	return domain.Question{
		Text:          text,
		Options:       [4]string{"a", "b", "c", "d"},
		CorrectChoice: correct,
	}
}

func createUser(t *testing.T, store *Store, username string) int64 {
	t.Helper()
	id, err := store.CreateUser(context.Background(), domain.NewUser{
		Username:     username,
		PasswordHash: "hash",
		Email:        username + "@example.com",
		DateOfBirth:  time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return id
}

func mustSubmit(t *testing.T, store *Store, userID, questionID int64, choice int) {
	t.Helper()
	if _, err := store.SubmitAnswer(context.Background(), userID, questionID, choice); err != nil {
		t.Fatalf("submit user=%d question=%d: %v", userID, questionID, err)
	}
}
