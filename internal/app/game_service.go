package app

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Lirbo/trivia-game/internal/domain"
)

// Store abstracts the persistent trivia state (Postgres, in-memory, etc).
// Write operations are atomic: SubmitAnswer commits the answer record and
// the counter increment together or not at all, and ResetProgress clears
// records and counters as a unit.
type Store interface {
	CreateUser(ctx context.Context, user domain.NewUser) (int64, error)
	UserByUsername(ctx context.Context, username string) (domain.User, error)
	UserByID(ctx context.Context, id int64) (domain.User, error)
	CreateQuestion(ctx context.Context, question domain.Question) (int64, error)
	QuestionCount(ctx context.Context) (int, error)
	NextQuestion(ctx context.Context, userID int64) (domain.Question, error)
	SubmitAnswer(ctx context.Context, userID, questionID int64, choice int) (bool, error)
	ResetProgress(ctx context.Context, userID int64) error
	MarkPlayStarted(ctx context.Context, userID int64) error
}

// StatsStore exposes the read-only aggregate queries. The Redis layer
// decorates this interface with a TTL cache.
type StatsStore interface {
	PlayedUserCount(ctx context.Context) (int, error)
	EasiestQuestions(ctx context.Context) ([]domain.QuestionTally, error)
	HardestQuestions(ctx context.Context) ([]domain.QuestionTally, error)
	TopByCorrect(ctx context.Context, limit int) ([]domain.LeaderboardRow, error)
	TopByAnswered(ctx context.Context, limit int) ([]domain.LeaderboardRow, error)
	UserAnswers(ctx context.Context, userID int64) ([]domain.AnswerHistoryRow, error)
	QuestionBreakdown(ctx context.Context) ([]domain.QuestionBreakdown, error)
	HallOfFame(ctx context.Context) ([]domain.HallOfFameRow, error)
	UserSummary(ctx context.Context, userID int64) (domain.UserSummary, error)
}

// LeaderboardLimit caps every leaderboard query.
const LeaderboardLimit = 100

// GameService contains the trivia use cases.
type GameService struct {
	store Store
	stats StatsStore
}

func NewGameService(store Store, stats StatsStore) *GameService {
	return &GameService{store: store, stats: stats}
}

// Register hashes the password and creates the user with zero progress.
// Returns domain.ErrUsernameTaken when the username already exists; the
// uniqueness check lives in the store so concurrent registrations cannot race.
func (s *GameService) Register(ctx context.Context, username, password, email string, dob time.Time) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	id, err := s.store.CreateUser(ctx, domain.NewUser{
		Username:     username,
		PasswordHash: string(hash),
		Email:        email,
		DateOfBirth:  dob,
	})
	if err != nil {
		return domain.User{}, err
	}
	return s.store.UserByID(ctx, id)
}

// Authenticate verifies the password against the stored bcrypt hash.
// Unknown usernames yield domain.ErrUserNotFound; a hash mismatch yields
// domain.ErrInvalidCredentials.
func (s *GameService) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		return domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}

// EnsureAdmin creates the configured admin account if it does not exist
// yet. The admin is a regular users row with the admin flag set, replacing
// the hardcoded credential bypass of earlier designs.
func (s *GameService) EnsureAdmin(ctx context.Context, username, password string) error {
	if _, err := s.store.UserByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.store.CreateUser(ctx, domain.NewUser{
		Username:     username,
		PasswordHash: string(hash),
		Email:        username + "@localhost",
		DateOfBirth:  time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC),
		IsAdmin:      true,
	})
	if errors.Is(err, domain.ErrUsernameTaken) {
		// Lost a race with another process bootstrapping the same admin.
		return nil
	}
	return err
}

// CreateQuestion validates the correct-choice range and persists the
// question at the end of the sequence.
func (s *GameService) CreateQuestion(ctx context.Context, text string, options [4]string, correct int) (int64, error) {
	if correct < 1 || correct > 4 {
		return 0, domain.ErrInvalidChoice
	}
	return s.store.CreateQuestion(ctx, domain.Question{
		Text:          text,
		Options:       options,
		CorrectChoice: correct,
	})
}

// NextQuestion returns the question at the user's progress cursor, or
// domain.ErrQuestionsExhausted when every question has been answered.
func (s *GameService) NextQuestion(ctx context.Context, userID int64) (domain.Question, error) {
	return s.store.NextQuestion(ctx, userID)
}

// SubmitAnswer records the user's choice for a question and advances the
// progress counter. The store performs both writes in one transaction; a
// duplicate submission fails with domain.ErrAlreadyAnswered and changes
// nothing.
func (s *GameService) SubmitAnswer(ctx context.Context, userID, questionID int64, choice int) (bool, error) {
	if choice < 1 || choice > 4 {
		return false, domain.ErrInvalidChoice
	}
	return s.store.SubmitAnswer(ctx, userID, questionID, choice)
}

// StartPlay stamps the session start time, once: subsequent calls within
// the same play-through are no-ops until the progress is reset.
func (s *GameService) StartPlay(ctx context.Context, userID int64) error {
	return s.store.MarkPlayStarted(ctx, userID)
}

// ResetProgress deletes the user's answer records and zeroes the counter
// and play timestamp. Idempotent.
func (s *GameService) ResetProgress(ctx context.Context, userID int64) error {
	return s.store.ResetProgress(ctx, userID)
}

// User reloads a user by id, e.g. to refresh the progress counter.
func (s *GameService) User(ctx context.Context, userID int64) (domain.User, error) {
	return s.store.UserByID(ctx, userID)
}

// QuestionCount reports how many questions have been authored.
func (s *GameService) QuestionCount(ctx context.Context) (int, error) {
	return s.store.QuestionCount(ctx)
}

func (s *GameService) PlayedUserCount(ctx context.Context) (int, error) {
	return s.stats.PlayedUserCount(ctx)
}

func (s *GameService) EasiestQuestions(ctx context.Context) ([]domain.QuestionTally, error) {
	return s.stats.EasiestQuestions(ctx)
}

func (s *GameService) HardestQuestions(ctx context.Context) ([]domain.QuestionTally, error) {
	return s.stats.HardestQuestions(ctx)
}

func (s *GameService) TopByCorrect(ctx context.Context) ([]domain.LeaderboardRow, error) {
	return s.stats.TopByCorrect(ctx, LeaderboardLimit)
}

func (s *GameService) TopByAnswered(ctx context.Context) ([]domain.LeaderboardRow, error) {
	return s.stats.TopByAnswered(ctx, LeaderboardLimit)
}

func (s *GameService) UserAnswers(ctx context.Context, userID int64) ([]domain.AnswerHistoryRow, error) {
	return s.stats.UserAnswers(ctx, userID)
}

func (s *GameService) QuestionBreakdown(ctx context.Context) ([]domain.QuestionBreakdown, error) {
	return s.stats.QuestionBreakdown(ctx)
}

func (s *GameService) HallOfFame(ctx context.Context) ([]domain.HallOfFameRow, error) {
	return s.stats.HallOfFame(ctx)
}

func (s *GameService) UserSummary(ctx context.Context, userID int64) (domain.UserSummary, error) {
	return s.stats.UserSummary(ctx, userID)
}
