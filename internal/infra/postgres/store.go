package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Lirbo/trivia-game/internal/domain"
)

const uniqueViolation = "23505"

// Store implements app.Store on top of Postgres. The answer-submission
// and reset operations that the original schema kept in stored routines
// run here as explicit transactions with the same atomicity.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// CreateUser inserts a user with zero progress. The users.username unique
// constraint is the authority on duplicates, so two concurrent
// registrations of the same name cannot both succeed.
func (s *Store) CreateUser(ctx context.Context, user domain.NewUser) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, email, dob, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, user.Username, user.PasswordHash, user.Email, user.DateOfBirth, user.IsAdmin).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, domain.ErrUsernameTaken
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (domain.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, userColumns+`WHERE username = $1`, username))
}

func (s *Store) UserByID(ctx context.Context, id int64) (domain.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, userColumns+`WHERE id = $1`, id))
}

const userColumns = `
	SELECT id, username, password_hash, email, dob, questions_solved, play_timestamp, is_admin
	FROM users
`

func (s *Store) scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Email,
		&user.DateOfBirth,
		&user.QuestionsSolved,
		&user.PlayStartedAt,
		&user.IsAdmin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *Store) CreateQuestion(ctx context.Context, question domain.Question) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO questions (question, answer_1, answer_2, answer_3, answer_4, correct_answer)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, question.Text,
		question.Options[0], question.Options[1], question.Options[2], question.Options[3],
		question.CorrectChoice,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create question: %w", err)
	}
	return id, nil
}

func (s *Store) QuestionCount(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return count, nil
}

// NextQuestion returns the question at the user's progress cursor: the
// row at offset questions_solved in creation order. No row means the user
// has answered everything.
func (s *Store) NextQuestion(ctx context.Context, userID int64) (domain.Question, error) {
	var question domain.Question
	err := s.pool.QueryRow(ctx, `
		SELECT id, question, answer_1, answer_2, answer_3, answer_4, correct_answer
		FROM questions
		ORDER BY id ASC
		LIMIT 1 OFFSET (SELECT questions_solved FROM users WHERE id = $1)
	`, userID).Scan(
		&question.ID,
		&question.Text,
		&question.Options[0], &question.Options[1], &question.Options[2], &question.Options[3],
		&question.CorrectChoice,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Question{}, domain.ErrQuestionsExhausted
		}
		return domain.Question{}, fmt.Errorf("next question: %w", err)
	}
	return question, nil
}

// SubmitAnswer grades the choice and records it in a single transaction:
// the answer-record insert and the counter increment commit together or
// not at all. The (user_id, question_id) primary key rejects duplicates.
func (s *Store) SubmitAnswer(ctx context.Context, userID, questionID int64, choice int) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin submit: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var correctChoice int
	err = tx.QueryRow(ctx, `SELECT correct_answer FROM questions WHERE id = $1`, questionID).
		Scan(&correctChoice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.ErrQuestionNotFound
		}
		return false, fmt.Errorf("load correct answer: %w", err)
	}
	correct := choice == correctChoice

	if _, err := tx.Exec(ctx, `
		INSERT INTO user_answers (user_id, question_id, is_correct, answer_timestamp)
		VALUES ($1, $2, $3, NOW())
	`, userID, questionID, correct); err != nil {
		if isUniqueViolation(err) {
			return false, domain.ErrAlreadyAnswered
		}
		return false, fmt.Errorf("insert answer: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE users SET questions_solved = questions_solved + 1 WHERE id = $1
	`, userID)
	if err != nil {
		return false, fmt.Errorf("advance progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, domain.ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit submit: %w", err)
	}
	return correct, nil
}

// ResetProgress deletes the user's answers and zeroes the counter and
// play timestamp in one transaction. Safe to call repeatedly.
func (s *Store) ResetProgress(ctx context.Context, userID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM user_answers WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE users SET questions_solved = 0, play_timestamp = NULL WHERE id = $1
	`, userID); err != nil {
		return fmt.Errorf("reset user: %w", err)
	}
	return tx.Commit(ctx)
}

// MarkPlayStarted stamps the session start only when it is not set yet.
func (s *Store) MarkPlayStarted(ctx context.Context, userID int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users SET play_timestamp = NOW()
		WHERE id = $1 AND play_timestamp IS NULL
	`, userID)
	if err != nil {
		return fmt.Errorf("mark play started: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
