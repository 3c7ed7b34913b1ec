package domain

import "errors"

var (
	// ErrUserNotFound is returned when no user matches a username or id.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when registering an already used username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials is returned when a password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrQuestionNotFound indicates a question id that does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrQuestionsExhausted means the user has answered every authored question.
	ErrQuestionsExhausted = errors.New("no questions left")
	// ErrAlreadyAnswered is returned on a duplicate (user, question) submission.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrInvalidChoice is returned for an answer choice outside 1..4.
	ErrInvalidChoice = errors.New("answer choice must be between 1 and 4")
)
