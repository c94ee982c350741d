package validation

import (
	"fmt"
	"strconv"
	"strings"

	"quizboard-service/internal/domain"
)

const (
	minTimeSpent = 1
	maxTimeSpent = 7200

	maxAnswerLength       = 1000
	maxAnswersPerQuestion = 20
)

// ValidateSubmission checks the wire-shaped answer map (stringified question
// indices to answer lists) and converts it into a domain.Submission. Keys
// that are not non-negative integers are rejected; whether an index exceeds
// the question count is the grader's concern, not validation's.
func ValidateSubmission(answers map[string][]string, timeSpent int) (domain.Submission, error) {
	var errs Errors

	parsed := make(map[int][]string, len(answers))
	for key, values := range answers {
		index, err := strconv.Atoi(key)
		if err != nil || index < 0 {
			errs.add("answers", "answer keys must be question numbers (e.g., \"0\", \"1\", \"2\")")
			continue
		}

		field := fmt.Sprintf("answers.%s", key)
		if len(values) > maxAnswersPerQuestion {
			errs.add(field, "question %s cannot have more than 20 answers", key)
		}
		seen := make(map[string]struct{}, len(values))
		for _, answer := range values {
			if strings.TrimSpace(answer) == "" {
				errs.add(field, "answer for question %s cannot be empty after trimming spaces", key)
				continue
			}
			if len(answer) > maxAnswerLength {
				errs.add(field, "answer for question %s cannot exceed 1000 characters", key)
			}
			normalized := strings.ToLower(strings.TrimSpace(answer))
			if _, dup := seen[normalized]; dup {
				errs.add(field, "question %s contains duplicate answers after normalization", key)
			}
			seen[normalized] = struct{}{}
		}
		parsed[index] = values
	}

	if timeSpent < minTimeSpent || timeSpent > maxTimeSpent {
		errs.add("timeSpent", "time spent must be between 1 second and 2 hours")
	}

	if len(errs) > 0 {
		return domain.Submission{}, errs
	}
	return domain.Submission{Answers: parsed, TimeSpent: timeSpent}, nil
}
