package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Lirbo/trivia-game/internal/domain"
)

type answerKey struct {
	userID     int64
	questionID int64
}

// Store is an in-memory implementation of app.Store and app.StatsStore.
// It backs the no-Postgres fallback mode and the unit tests, and enforces
// the same invariants as the SQL schema: unique usernames, one answer per
// (user, question) pair, and a progress counter that always matches the
// number of answer records.
type Store struct {
	mu        sync.RWMutex
	clock     func() time.Time
	users     map[int64]*domain.User
	usernames map[string]int64
	questions []domain.Question // creation order is the quiz sequence
	answers   map[answerKey]domain.AnswerRecord
	nextUser  int64
	nextQn    int64
}

func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock allows deterministic timestamps in tests.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		clock:     now,
		users:     make(map[int64]*domain.User),
		usernames: make(map[string]int64),
		answers:   make(map[answerKey]domain.AnswerRecord),
	}
}

func (s *Store) CreateUser(_ context.Context, user domain.NewUser) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usernames[user.Username]; ok {
		return 0, domain.ErrUsernameTaken
	}
	s.nextUser++
	id := s.nextUser
	s.users[id] = &domain.User{
		ID:           id,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Email:        user.Email,
		DateOfBirth:  user.DateOfBirth,
		IsAdmin:      user.IsAdmin,
	}
	s.usernames[user.Username] = id
	return id, nil
}

func (s *Store) UserByUsername(_ context.Context, username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *s.users[id], nil
}

func (s *Store) UserByID(_ context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *user, nil
}

func (s *Store) CreateQuestion(_ context.Context, question domain.Question) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextQn++
	question.ID = s.nextQn
	s.questions = append(s.questions, question)
	return question.ID, nil
}

func (s *Store) QuestionCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.questions), nil
}

func (s *Store) NextQuestion(_ context.Context, userID int64) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return domain.Question{}, domain.ErrUserNotFound
	}
	if user.QuestionsSolved >= len(s.questions) {
		return domain.Question{}, domain.ErrQuestionsExhausted
	}
	return s.questions[user.QuestionsSolved], nil
}

func (s *Store) SubmitAnswer(_ context.Context, userID, questionID int64, choice int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return false, domain.ErrUserNotFound
	}
	var question *domain.Question
	for i := range s.questions {
		if s.questions[i].ID == questionID {
			question = &s.questions[i]
			break
		}
	}
	if question == nil {
		return false, domain.ErrQuestionNotFound
	}
	key := answerKey{userID: userID, questionID: questionID}
	if _, ok := s.answers[key]; ok {
		return false, domain.ErrAlreadyAnswered
	}

	correct := choice == question.CorrectChoice
	s.answers[key] = domain.AnswerRecord{
		UserID:     userID,
		QuestionID: questionID,
		Correct:    correct,
		AnsweredAt: s.clock(),
	}
	user.QuestionsSolved++
	return correct, nil
}

func (s *Store) ResetProgress(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	for key := range s.answers {
		if key.userID == userID {
			delete(s.answers, key)
		}
	}
	user.QuestionsSolved = 0
	user.PlayStartedAt = nil
	return nil
}

func (s *Store) MarkPlayStarted(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if user.PlayStartedAt == nil {
		now := s.clock()
		user.PlayStartedAt = &now
	}
	return nil
}
