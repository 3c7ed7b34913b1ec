package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Lirbo/trivia-game/internal/domain"
)

func (s *Store) PlayedUserCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, user := range s.users {
		if user.QuestionsSolved > 0 {
			count++
		}
	}
	return count, nil
}

func (s *Store) EasiestQuestions(_ context.Context) ([]domain.QuestionTally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tiedTalliesLocked(true), nil
}

func (s *Store) HardestQuestions(_ context.Context) ([]domain.QuestionTally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tiedTalliesLocked(false), nil
}

// tiedTalliesLocked returns every question whose correct-answer count
// equals the extreme (max when easiest, min when hardest) among questions
// that have at least one correct answer, matching the SQL HAVING clause.
func (s *Store) tiedTalliesLocked(easiest bool) []domain.QuestionTally {
	correctByQuestion := make(map[int64]int)
	for key, record := range s.answers {
		if record.Correct {
			correctByQuestion[key.questionID]++
		}
	}
	if len(correctByQuestion) == 0 {
		return nil
	}

	extreme := -1
	for _, count := range correctByQuestion {
		if extreme == -1 || (easiest && count > extreme) || (!easiest && count < extreme) {
			extreme = count
		}
	}

	var tallies []domain.QuestionTally
	for _, question := range s.questions {
		if correctByQuestion[question.ID] == extreme {
			tallies = append(tallies, domain.QuestionTally{
				Question: question.Text,
				Correct:  extreme,
			})
		}
	}
	return tallies
}

func (s *Store) TopByCorrect(_ context.Context, limit int) ([]domain.LeaderboardRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.leaderboardLocked(limit, true), nil
}

func (s *Store) TopByAnswered(_ context.Context, limit int) ([]domain.LeaderboardRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.leaderboardLocked(limit, false), nil
}

func (s *Store) leaderboardLocked(limit int, correctOnly bool) []domain.LeaderboardRow {
	counts := make(map[int64]int)
	for key, record := range s.answers {
		if correctOnly && !record.Correct {
			continue
		}
		counts[key.userID]++
	}

	rows := make([]domain.LeaderboardRow, 0, len(counts))
	for userID, count := range counts {
		rows = append(rows, domain.LeaderboardRow{
			Username: s.users[userID].Username,
			Count:    count,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Username < rows[j].Username
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func (s *Store) UserAnswers(_ context.Context, userID int64) ([]domain.AnswerHistoryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []domain.AnswerHistoryRow
	for _, question := range s.questions {
		record, ok := s.answers[answerKey{userID: userID, questionID: question.ID}]
		if !ok {
			continue
		}
		rows = append(rows, domain.AnswerHistoryRow{
			Question: question.Text,
			Correct:  record.Correct,
		})
	}
	return rows, nil
}

func (s *Store) QuestionBreakdown(_ context.Context) ([]domain.QuestionBreakdown, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]domain.QuestionBreakdown, 0, len(s.questions))
	for _, question := range s.questions {
		row := domain.QuestionBreakdown{Question: question.Text}
		for key, record := range s.answers {
			if key.questionID != question.ID {
				continue
			}
			row.Total++
			if record.Correct {
				row.Correct++
			} else {
				row.Incorrect++
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Store) HallOfFame(_ context.Context) ([]domain.HallOfFameRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		row        domain.HallOfFameRow
		lastAnswer time.Time
	}

	byUser := make(map[int64]*entry)
	for key, record := range s.answers {
		if !record.Correct {
			continue
		}
		e, ok := byUser[key.userID]
		if !ok {
			e = &entry{row: domain.HallOfFameRow{Username: s.users[key.userID].Username}}
			byUser[key.userID] = e
		}
		e.row.CorrectAnswers++
		if record.AnsweredAt.After(e.lastAnswer) {
			e.lastAnswer = record.AnsweredAt
		}
	}

	rows := make([]domain.HallOfFameRow, 0, len(byUser))
	for userID, e := range byUser {
		if started := s.users[userID].PlayStartedAt; started != nil {
			e.row.PlayDuration = e.lastAnswer.Sub(*started)
		}
		rows = append(rows, e.row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CorrectAnswers != rows[j].CorrectAnswers {
			return rows[i].CorrectAnswers > rows[j].CorrectAnswers
		}
		if rows[i].PlayDuration != rows[j].PlayDuration {
			return rows[i].PlayDuration < rows[j].PlayDuration
		}
		return rows[i].Username < rows[j].Username
	})
	return rows, nil
}

func (s *Store) UserSummary(_ context.Context, userID int64) (domain.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return domain.UserSummary{}, domain.ErrUserNotFound
	}
	summary := domain.UserSummary{User: *user}
	for key, record := range s.answers {
		if key.userID == userID && record.Correct {
			summary.CorrectAnswers++
		}
	}
	return summary, nil
}
