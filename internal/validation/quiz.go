package validation

import (
	"fmt"
	"strings"

	"quizboard-service/internal/domain"
)

const (
	minQuestions = 1
	maxQuestions = 50

	minTimeLimit = 30
	maxTimeLimit = 7200

	minPoints = 1
	maxPoints = 100
)

// ValidateQuiz checks a candidate quiz against the authoring rules and
// returns the normalized copy: question points defaulted to 1 and MaxPoints
// recomputed from the question set. On failure it returns one FieldError per
// violated rule.
func ValidateQuiz(quiz domain.Quiz) (domain.Quiz, error) {
	var errs Errors

	if n := len(strings.TrimSpace(quiz.Title)); n < 3 || n > 200 {
		errs.add("title", "quiz title must be between 3 and 200 characters")
	}
	if n := len(strings.TrimSpace(quiz.Description)); n < 10 || n > 1000 {
		errs.add("description", "quiz description must be between 10 and 1000 characters")
	}
	if n := len(strings.TrimSpace(quiz.Category)); n < 2 || n > 50 {
		errs.add("category", "category must be between 2 and 50 characters")
	}
	switch quiz.Difficulty {
	case domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard:
	default:
		errs.add("difficulty", "difficulty must be EASY, MEDIUM, or HARD")
	}
	if quiz.TimeLimit != 0 && (quiz.TimeLimit < minTimeLimit || quiz.TimeLimit > maxTimeLimit) {
		errs.add("timeLimit", "time limit must be between 30 seconds and 2 hours when provided")
	}

	if len(quiz.Questions) < minQuestions || len(quiz.Questions) > maxQuestions {
		errs.add("questions", "quiz must have between 1 and 50 questions")
	}

	normalized := quiz
	normalized.Questions = make([]domain.Question, len(quiz.Questions))
	total := 0
	for i, q := range quiz.Questions {
		nq := validateQuestion(i, q, &errs)
		normalized.Questions[i] = nq
		total += nq.Points
	}
	normalized.MaxPoints = total

	if len(errs) > 0 {
		return domain.Quiz{}, errs
	}
	return normalized, nil
}

func validateQuestion(index int, q domain.Question, errs *Errors) domain.Question {
	field := func(name string) string {
		return fmt.Sprintf("questions[%d].%s", index, name)
	}

	if n := len(strings.TrimSpace(q.Title)); n < 5 || n > 500 {
		errs.add(field("title"), "question title must be between 5 and 500 characters")
	}
	if q.Points == 0 {
		q.Points = 1
	}
	if q.Points < minPoints || q.Points > maxPoints {
		errs.add(field("points"), "question points must be between 1 and 100")
	}

	switch q.Type {
	case domain.QuestionSingle:
		if len(q.Answers) < 2 {
			errs.add(field("answers"), "SINGLE type must have at least 2 answer options")
		}
		if len(q.Answers) > 10 {
			errs.add(field("answers"), "SINGLE type can have maximum 10 answer options")
		}
		checkOptionsNonEmpty(field("answers"), q.Answers, errs)
		if len(q.CorrectAnswer) != 1 {
			errs.add(field("correctAnswer"), "SINGLE type must have exactly one correct answer")
		} else if !contains(q.Answers, q.CorrectAnswer[0]) {
			errs.add(field("correctAnswer"), "correct answer %q must be one of the provided options", q.CorrectAnswer[0])
		}

	case domain.QuestionMultiple:
		if len(q.Answers) < 3 {
			errs.add(field("answers"), "MULTIPLE type must have at least 3 answer options")
		}
		if len(q.Answers) > 15 {
			errs.add(field("answers"), "MULTIPLE type can have maximum 15 answer options")
		}
		checkOptionsNonEmpty(field("answers"), q.Answers, errs)
		if len(q.CorrectAnswer) < 1 {
			errs.add(field("correctAnswer"), "MULTIPLE type must have at least one correct answer")
		}
		if len(q.Answers) > 0 && len(q.CorrectAnswer) >= len(q.Answers) {
			errs.add(field("correctAnswer"), "MULTIPLE type cannot have all options as correct (use SINGLE instead)")
		}
		for _, correct := range q.CorrectAnswer {
			if !contains(q.Answers, correct) {
				errs.add(field("correctAnswer"), "correct answer %q must be one of the provided options", correct)
			}
		}
		if hasDuplicates(q.CorrectAnswer) {
			errs.add(field("correctAnswer"), "correct answers cannot contain duplicates")
		}

	case domain.QuestionOpen:
		if len(q.Answers) != 0 {
			errs.add(field("answers"), "OPEN type must have an empty answers array")
		}
		if len(q.CorrectAnswer) < 1 {
			errs.add(field("correctAnswer"), "OPEN type must have at least one example correct answer")
		}
		if len(q.CorrectAnswer) > 5 {
			errs.add(field("correctAnswer"), "OPEN type can have maximum 5 example correct answers")
		}
		for _, example := range q.CorrectAnswer {
			if strings.TrimSpace(example) == "" {
				errs.add(field("correctAnswer"), "all example correct answers must be non-empty strings")
			}
			if len(example) > 500 {
				errs.add(field("correctAnswer"), "example correct answers cannot exceed 500 characters")
			}
		}

	default:
		errs.add(field("type"), "question type must be SINGLE, MULTIPLE, or OPEN")
	}

	return q
}

func checkOptionsNonEmpty(field string, options []string, errs *Errors) {
	for _, opt := range options {
		if strings.TrimSpace(opt) == "" {
			errs.add(field, "all answer options must be non-empty strings")
			return
		}
	}
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func hasDuplicates(list []string) bool {
	seen := make(map[string]struct{}, len(list))
	for _, v := range list {
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
	}
	return false
}
