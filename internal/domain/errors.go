package domain

import "errors"

var (
	// ErrQuizNotFound indicates the referenced quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNotOwner is returned when a caller tries to modify a quiz they did not create.
	ErrNotOwner = errors.New("caller does not own this quiz")
	// ErrScoreOutOfRange is returned when an attempt's score is negative or exceeds maxScore.
	ErrScoreOutOfRange = errors.New("score must be between 0 and maxScore")
	// ErrTimeSpentOutOfRange is returned when timeSpent falls outside [1, 7200] seconds.
	ErrTimeSpentOutOfRange = errors.New("timeSpent must be between 1 and 7200 seconds")
)
