package domain

import "time"

// User is a registered player. Username is immutable after creation.
// QuestionsSolved is the sole progress cursor: it always equals the number
// of answer records the user has, and the question at that offset (by
// creation order) is the user's next question.
type User struct {
	ID              int64
	Username        string
	PasswordHash    string
	Email           string
	DateOfBirth     time.Time
	QuestionsSolved int
	PlayStartedAt   *time.Time
	IsAdmin         bool
}

// NewUser carries the fields needed to register a user. The password
// arrives already hashed; the store never sees plaintext.
type NewUser struct {
	Username     string
	PasswordHash string
	Email        string
	DateOfBirth  time.Time
	IsAdmin      bool
}

// Question is immutable once created. Creation order doubles as the quiz
// sequence: the question at offset k is the next question for a user with
// k questions solved.
type Question struct {
	ID            int64
	Text          string
	Options       [4]string
	CorrectChoice int // 1..4
}

// AnswerRecord is the immutable fact that a user answered a question.
// At most one exists per (user, question) pair.
type AnswerRecord struct {
	UserID     int64
	QuestionID int64
	Correct    bool
	AnsweredAt time.Time
}

// QuestionTally pairs a question with its correct-answer count; the
// easiest/hardest-question queries return full tie sets of these.
type QuestionTally struct {
	Question string `json:"question"`
	Correct  int    `json:"correct"`
}

// LeaderboardRow ranks a user by an answer count (correct or total,
// depending on the query).
type LeaderboardRow struct {
	Username string `json:"username"`
	Count    int    `json:"count"`
}

// AnswerHistoryRow is one entry of a user's answer history.
type AnswerHistoryRow struct {
	Question string
	Correct  bool
}

// QuestionBreakdown tallies all answers given to a question. Questions
// nobody has answered yet still appear with zero counts.
type QuestionBreakdown struct {
	Question  string
	Total     int
	Correct   int
	Incorrect int
}

// HallOfFameRow ranks a player by correct answers, tie-broken by how fast
// they played (last answer timestamp minus session start).
type HallOfFameRow struct {
	Username       string        `json:"username"`
	CorrectAnswers int           `json:"correctAnswers"`
	PlayDuration   time.Duration `json:"playDuration"`
}

// UserSummary is the per-user statistics view shown in the player menu.
type UserSummary struct {
	User           User
	CorrectAnswers int
}
