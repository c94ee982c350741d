// Package grading turns a quiz definition and a learner's raw answers into a
// score and per-question breakdown. Grading is pure: no I/O, no shared state,
// safe to run concurrently.
package grading

import (
	"math"
	"sort"
	"strings"

	"quizboard-service/internal/domain"
)

// Grade scores a submission against a quiz. Question order is the quiz's
// authoring order; the submission addresses questions by index only. Indices
// beyond the question count are ignored, missing indices count as skipped.
func Grade(quiz domain.Quiz, submission domain.Submission) domain.GradeResult {
	result := domain.GradeResult{
		MaxScore:        quiz.MaxPoints,
		TimeSpent:       submission.TimeSpent,
		DetailedResults: make([]domain.QuestionResult, len(quiz.Questions)),
	}

	for i, question := range quiz.Questions {
		raw := submission.Answers[i]
		normalizedUser := Normalize(raw)
		normalizedCorrect := Normalize(question.CorrectAnswer)

		qr := domain.QuestionResult{
			Index:                   i,
			WasAnswered:             len(raw) > 0,
			UserAnswer:              raw,
			NormalizedUserAnswer:    normalizedUser,
			NormalizedCorrectAnswer: normalizedCorrect,
		}

		points := question.Points
		if points == 0 {
			points = 1
		}
		// All-or-nothing: exact set match after normalization, no partial
		// credit within a question.
		if len(normalizedCorrect) > 0 && sequencesEqual(normalizedUser, normalizedCorrect) {
			qr.IsCorrect = true
			qr.PointsEarned = points
			result.Score += points
			result.CorrectCount++
		}
		if qr.WasAnswered {
			result.AnsweredQuestions++
		}
		result.DetailedResults[i] = qr
	}

	result.SkippedQuestions = len(quiz.Questions) - result.AnsweredQuestions
	result.Percentage = Percentage(result.Score, result.MaxScore)
	return result
}

// Percentage computes round-half-up percent, 0 when maxScore is 0.
func Percentage(score, maxScore int) int {
	if maxScore <= 0 {
		return 0
	}
	return int(math.Floor(float64(score)/float64(maxScore)*100 + 0.5))
}

// Normalize trims, lowercases, drops empty strings, and sorts. Used for
// comparison only; callers keep the raw answers for display.
func Normalize(answers []string) []string {
	normalized := make([]string, 0, len(answers))
	for _, answer := range answers {
		trimmed := strings.ToLower(strings.TrimSpace(answer))
		if trimmed == "" {
			continue
		}
		normalized = append(normalized, trimmed)
	}
	sort.Strings(normalized)
	return normalized
}

func sequencesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
