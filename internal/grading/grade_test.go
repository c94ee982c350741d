package grading

import (
	"reflect"
	"testing"

	"quizboard-service/internal/domain"
)

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:        "quiz-1",
		MaxPoints: 8,
		Questions: []domain.Question{
			{
				Title:         "What is JavaScript?",
				Type:          domain.QuestionSingle,
				Answers:       []string{"A programming language", "A type of coffee", "A framework"},
				CorrectAnswer: []string{"A programming language"},
				Points:        5,
			},
			{
				Title:         "Which are programming languages?",
				Type:          domain.QuestionMultiple,
				Answers:       []string{"Python", "Java", "HTML", "CSS"},
				CorrectAnswer: []string{"Python", "Java"},
				Points:        3,
			},
		},
	}
}

func TestGradeAllCorrect(t *testing.T) {
	result := Grade(sampleQuiz(), domain.Submission{
		Answers: map[int][]string{
			0: {"A programming language"},
			1: {"Python", "Java"},
		},
		TimeSpent: 120,
	})

	if result.Score != 8 || result.MaxScore != 8 || result.Percentage != 100 {
		t.Fatalf("expected 8/8 at 100%%, got %d/%d at %d%%", result.Score, result.MaxScore, result.Percentage)
	}
	if result.CorrectCount != 2 || result.AnsweredQuestions != 2 || result.SkippedQuestions != 0 {
		t.Fatalf("unexpected counters: %+v", result)
	}
	if result.TimeSpent != 120 {
		t.Fatalf("expected timeSpent echoed, got %d", result.TimeSpent)
	}
	if !result.DetailedResults[0].IsCorrect || result.DetailedResults[0].PointsEarned != 5 {
		t.Fatalf("unexpected q0 result: %+v", result.DetailedResults[0])
	}
	if !result.DetailedResults[1].IsCorrect || result.DetailedResults[1].PointsEarned != 3 {
		t.Fatalf("unexpected q1 result: %+v", result.DetailedResults[1])
	}
}

func TestGradeSubsetScoresZeroForQuestion(t *testing.T) {
	// Selecting 1 of 2 correct options earns nothing for that question.
	result := Grade(sampleQuiz(), domain.Submission{
		Answers: map[int][]string{
			0: {"A programming language"},
			1: {"Python"},
		},
		TimeSpent: 90,
	})

	if result.Score != 5 || result.Percentage != 63 {
		t.Fatalf("expected score 5 at 63%%, got %d at %d%%", result.Score, result.Percentage)
	}
	if result.CorrectCount != 1 || result.AnsweredQuestions != 2 {
		t.Fatalf("unexpected counters: %+v", result)
	}
	if result.DetailedResults[1].IsCorrect || result.DetailedResults[1].PointsEarned != 0 {
		t.Fatalf("expected no partial credit, got %+v", result.DetailedResults[1])
	}
}

func TestGradeSkippedQuestion(t *testing.T) {
	result := Grade(sampleQuiz(), domain.Submission{
		Answers:   map[int][]string{0: {"A programming language"}},
		TimeSpent: 60,
	})

	if result.Score != 5 || result.Percentage != 63 {
		t.Fatalf("expected score 5 at 63%%, got %d at %d%%", result.Score, result.Percentage)
	}
	if result.AnsweredQuestions != 1 || result.SkippedQuestions != 1 {
		t.Fatalf("expected 1 answered 1 skipped, got %+v", result)
	}
	if result.DetailedResults[1].WasAnswered {
		t.Fatalf("expected q1 unanswered")
	}
}

func TestGradeNormalizesCaseAndWhitespace(t *testing.T) {
	result := Grade(sampleQuiz(), domain.Submission{
		Answers: map[int][]string{
			0: {" A PROGRAMMING LANGUAGE "},
			1: {"  python  ", "  JAVA  "},
		},
		TimeSpent: 120,
	})

	if result.Score != 8 || result.Percentage != 100 {
		t.Fatalf("expected full score, got %d at %d%%", result.Score, result.Percentage)
	}
	if got := result.DetailedResults[0].UserAnswer; !reflect.DeepEqual(got, []string{" A PROGRAMMING LANGUAGE "}) {
		t.Fatalf("raw answer must be preserved, got %v", got)
	}
	if got := result.DetailedResults[1].NormalizedUserAnswer; !reflect.DeepEqual(got, []string{"java", "python"}) {
		t.Fatalf("expected sorted lowercase normalization, got %v", got)
	}
}

func TestGradeEmptySubmission(t *testing.T) {
	result := Grade(sampleQuiz(), domain.Submission{TimeSpent: 30})

	if result.Score != 0 || result.Percentage != 0 {
		t.Fatalf("expected zero grade, got %d at %d%%", result.Score, result.Percentage)
	}
	if result.AnsweredQuestions != 0 || result.SkippedQuestions != 2 {
		t.Fatalf("expected all skipped, got %+v", result)
	}
}

func TestGradeIgnoresUnknownIndices(t *testing.T) {
	result := Grade(sampleQuiz(), domain.Submission{
		Answers: map[int][]string{
			0: {"A programming language"},
			1: {"Python", "Java"},
			5: {"This question doesnt exist"},
		},
		TimeSpent: 120,
	})

	if result.Score != 8 || result.CorrectCount != 2 {
		t.Fatalf("unexpected grade with extra index: %+v", result)
	}
	if len(result.DetailedResults) != 2 {
		t.Fatalf("expected one result per question, got %d", len(result.DetailedResults))
	}
}

func TestGradeOrderIndependence(t *testing.T) {
	// Index is the only addressing key; map iteration order must not matter.
	a := Grade(sampleQuiz(), domain.Submission{
		Answers:   map[int][]string{1: {"Python", "Java"}, 0: {"A programming language"}},
		TimeSpent: 90,
	})
	b := Grade(sampleQuiz(), domain.Submission{
		Answers:   map[int][]string{0: {"A programming language"}, 1: {"Python", "Java"}},
		TimeSpent: 90,
	})
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("grading must be order independent: %+v vs %+v", a, b)
	}
}

func TestGradeDeterministic(t *testing.T) {
	sub := domain.Submission{
		Answers:   map[int][]string{0: {"Wrong answer"}, 1: {"Python", "Java"}},
		TimeSpent: 100,
	}
	first := Grade(sampleQuiz(), sub)
	second := Grade(sampleQuiz(), sub)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("grading must be deterministic")
	}
	if first.Score != 3 || first.Percentage != 38 {
		t.Fatalf("expected score 3 at 38%%, got %d at %d%%", first.Score, first.Percentage)
	}
}

func TestGradeWhitespaceOnlyAnswerNeverMatches(t *testing.T) {
	result := Grade(sampleQuiz(), domain.Submission{
		Answers:   map[int][]string{0: {"   "}},
		TimeSpent: 10,
	})
	if result.DetailedResults[0].IsCorrect {
		t.Fatalf("whitespace-only answer must not match")
	}
	// It still counts as answered; rejecting it was the caller's job.
	if !result.DetailedResults[0].WasAnswered {
		t.Fatalf("expected whitespace answer to count as answered")
	}
}

func TestGradeZeroMaxScore(t *testing.T) {
	quiz := domain.Quiz{ID: "empty"}
	result := Grade(quiz, domain.Submission{TimeSpent: 5})
	if result.Percentage != 0 || result.Score != 0 {
		t.Fatalf("expected zero percentage for empty quiz, got %+v", result)
	}
}

func TestPercentageRoundsHalfUp(t *testing.T) {
	cases := []struct {
		score, max, want int
	}{
		{5, 8, 63},
		{3, 8, 38},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{0, 8, 0},
		{8, 8, 100},
		{1, 200, 1},
	}
	for _, tc := range cases {
		if got := Percentage(tc.score, tc.max); got != tc.want {
			t.Fatalf("Percentage(%d,%d)=%d, want %d", tc.score, tc.max, got, tc.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	once := Normalize([]string{"  JAVA ", "python", " html"})
	twice := Normalize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("normalization must be idempotent: %v vs %v", once, twice)
	}
}

func TestScoreBounds(t *testing.T) {
	quiz := sampleQuiz()
	subs := []domain.Submission{
		{},
		{Answers: map[int][]string{0: {"A type of coffee"}}},
		{Answers: map[int][]string{0: {"A programming language"}, 1: {"Python", "Java", "HTML"}}},
		{Answers: map[int][]string{0: {"A programming language"}, 1: {"Java", "Python"}}},
	}
	for _, sub := range subs {
		result := Grade(quiz, sub)
		if result.Score < 0 || result.Score > result.MaxScore {
			t.Fatalf("score out of bounds: %+v", result)
		}
		if result.Percentage < 0 || result.Percentage > 100 {
			t.Fatalf("percentage out of bounds: %+v", result)
		}
	}
}
