package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Lirbo/trivia-game/internal/domain"
)

// StatsStore implements app.StatsStore with aggregate SQL over the same
// pool as the write store.
type StatsStore struct {
	pool *pgxpool.Pool
}

func NewStatsStore(pool *pgxpool.Pool) *StatsStore {
	return &StatsStore{pool: pool}
}

func (s *StatsStore) PlayedUserCount(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM users WHERE questions_solved <> 0
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("played user count: %w", err)
	}
	return count, nil
}

// EasiestQuestions returns every question tied at the maximum
// correct-answer count. Ties are a set, not a single winner.
func (s *StatsStore) EasiestQuestions(ctx context.Context) ([]domain.QuestionTally, error) {
	return s.tiedTallies(ctx, "MAX")
}

// HardestQuestions is the MIN counterpart of EasiestQuestions.
func (s *StatsStore) HardestQuestions(ctx context.Context) ([]domain.QuestionTally, error) {
	return s.tiedTallies(ctx, "MIN")
}

func (s *StatsStore) tiedTallies(ctx context.Context, extreme string) ([]domain.QuestionTally, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT q.question, COUNT(*) AS solved_correctly
		FROM user_answers ua
		JOIN questions q ON ua.question_id = q.id
		WHERE ua.is_correct = TRUE
		GROUP BY q.question
		HAVING COUNT(*) = (
			SELECT %s(cnt)
			FROM (
				SELECT COUNT(*) cnt
				FROM user_answers
				WHERE is_correct = TRUE
				GROUP BY question_id
			) counts
		)
	`, extreme))
	if err != nil {
		return nil, fmt.Errorf("question tallies: %w", err)
	}
	defer rows.Close()

	var tallies []domain.QuestionTally
	for rows.Next() {
		var tally domain.QuestionTally
		if err := rows.Scan(&tally.Question, &tally.Correct); err != nil {
			return nil, fmt.Errorf("scan tally: %w", err)
		}
		tallies = append(tallies, tally)
	}
	return tallies, rows.Err()
}

func (s *StatsStore) TopByCorrect(ctx context.Context, limit int) ([]domain.LeaderboardRow, error) {
	return s.leaderboard(ctx, `
		SELECT u.username, COUNT(*) solved_correctly
		FROM user_answers ua
		JOIN users u ON ua.user_id = u.id
		WHERE ua.is_correct = TRUE
		GROUP BY u.username
		ORDER BY solved_correctly DESC, u.username ASC
		LIMIT $1
	`, limit)
}

func (s *StatsStore) TopByAnswered(ctx context.Context, limit int) ([]domain.LeaderboardRow, error) {
	return s.leaderboard(ctx, `
		SELECT u.username, COUNT(*) solved
		FROM user_answers ua
		JOIN users u ON ua.user_id = u.id
		GROUP BY u.username
		ORDER BY solved DESC, u.username ASC
		LIMIT $1
	`, limit)
}

func (s *StatsStore) leaderboard(ctx context.Context, query string, limit int) ([]domain.LeaderboardRow, error) {
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var board []domain.LeaderboardRow
	for rows.Next() {
		var row domain.LeaderboardRow
		if err := rows.Scan(&row.Username, &row.Count); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		board = append(board, row)
	}
	return board, rows.Err()
}

func (s *StatsStore) UserAnswers(ctx context.Context, userID int64) ([]domain.AnswerHistoryRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT q.question, ua.is_correct
		FROM user_answers ua
		JOIN questions q ON ua.question_id = q.id
		WHERE ua.user_id = $1
		ORDER BY q.id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("user answers: %w", err)
	}
	defer rows.Close()

	var history []domain.AnswerHistoryRow
	for rows.Next() {
		var row domain.AnswerHistoryRow
		if err := rows.Scan(&row.Question, &row.Correct); err != nil {
			return nil, fmt.Errorf("scan answer row: %w", err)
		}
		history = append(history, row)
	}
	return history, rows.Err()
}

// QuestionBreakdown LEFT JOINs so questions without any answers still
// show up with zero tallies.
func (s *StatsStore) QuestionBreakdown(ctx context.Context) ([]domain.QuestionBreakdown, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			q.question,
			COUNT(ua.*) AS total_answers,
			COUNT(CASE WHEN ua.is_correct = TRUE THEN 1 END) AS correct_answers,
			COUNT(CASE WHEN ua.is_correct = FALSE THEN 1 END) AS incorrect_answers
		FROM questions q
		LEFT JOIN user_answers ua ON ua.question_id = q.id
		GROUP BY q.id, q.question
		ORDER BY q.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("question breakdown: %w", err)
	}
	defer rows.Close()

	var breakdown []domain.QuestionBreakdown
	for rows.Next() {
		var row domain.QuestionBreakdown
		if err := rows.Scan(&row.Question, &row.Total, &row.Correct, &row.Incorrect); err != nil {
			return nil, fmt.Errorf("scan breakdown row: %w", err)
		}
		breakdown = append(breakdown, row)
	}
	return breakdown, rows.Err()
}

// HallOfFame ranks by correct answers descending; equal scores rank the
// faster play-through first (last answer timestamp minus session start).
func (s *StatsStore) HallOfFame(ctx context.Context) ([]domain.HallOfFameRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			u.username,
			COUNT(*) correct_answers,
			COALESCE(EXTRACT(EPOCH FROM (MAX(ua.answer_timestamp) - u.play_timestamp)), 0) AS playtime
		FROM user_answers ua
		JOIN users u ON ua.user_id = u.id
		WHERE ua.is_correct = TRUE
		GROUP BY u.username, u.play_timestamp
		ORDER BY correct_answers DESC, playtime ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("hall of fame: %w", err)
	}
	defer rows.Close()

	var board []domain.HallOfFameRow
	for rows.Next() {
		var row domain.HallOfFameRow
		var seconds float64
		if err := rows.Scan(&row.Username, &row.CorrectAnswers, &seconds); err != nil {
			return nil, fmt.Errorf("scan hall of fame row: %w", err)
		}
		row.PlayDuration = time.Duration(seconds * float64(time.Second))
		board = append(board, row)
	}
	return board, rows.Err()
}

func (s *StatsStore) UserSummary(ctx context.Context, userID int64) (domain.UserSummary, error) {
	var summary domain.UserSummary
	err := s.pool.QueryRow(ctx, `
		SELECT u.id, u.username, u.password_hash, u.email, u.dob,
		       u.questions_solved, u.play_timestamp, u.is_admin,
		       COUNT(CASE WHEN ua.is_correct = TRUE THEN 1 END)
		FROM users u
		LEFT JOIN user_answers ua ON u.id = ua.user_id
		WHERE u.id = $1
		GROUP BY u.id
	`, userID).Scan(
		&summary.User.ID,
		&summary.User.Username,
		&summary.User.PasswordHash,
		&summary.User.Email,
		&summary.User.DateOfBirth,
		&summary.User.QuestionsSolved,
		&summary.User.PlayStartedAt,
		&summary.User.IsAdmin,
		&summary.CorrectAnswers,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserSummary{}, domain.ErrUserNotFound
		}
		return domain.UserSummary{}, fmt.Errorf("user summary: %w", err)
	}
	return summary, nil
}
