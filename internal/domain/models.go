package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// QuestionType discriminates how a question is answered and graded.
type QuestionType string

const (
	QuestionSingle   QuestionType = "SINGLE"
	QuestionMultiple QuestionType = "MULTIPLE"
	QuestionOpen     QuestionType = "OPEN"
)

// Difficulty is the author-declared difficulty of a quiz.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Question is a single quiz question. Answers holds the selectable options
// (empty for OPEN questions); CorrectAnswer holds the correct option set, or
// example answers for OPEN questions.
type Question struct {
	Title         string       `json:"title"`
	Type          QuestionType `json:"type"`
	Answers       []string     `json:"answers"`
	CorrectAnswer []string     `json:"correctAnswer"`
	Points        int          `json:"points"` // defaults to 1 when omitted
}

// Quiz is an ordered set of questions plus authoring metadata.
// MaxPoints is derived from the question points and never client-supplied.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Difficulty  Difficulty `json:"difficulty"`
	TimeLimit   int        `json:"timeLimit,omitempty"` // seconds, 0 means no limit
	MaxPoints   int        `json:"maxPoints"`
	CreatedBy   string     `json:"createdBy"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Submission is a learner's answer set, keyed by question index.
// Indices missing from the map are skipped; indices beyond the question
// count are ignored by the grader.
type Submission struct {
	Answers   map[int][]string
	TimeSpent int // seconds
}

// QuestionResult is the graded outcome for one question.
type QuestionResult struct {
	Index                   int      `json:"questionIndex"`
	WasAnswered             bool     `json:"wasAnswered"`
	IsCorrect               bool     `json:"isCorrect"`
	PointsEarned            int      `json:"pointsEarned"`
	UserAnswer              []string `json:"userAnswer"`
	NormalizedUserAnswer    []string `json:"normalizedUserAnswer"`
	NormalizedCorrectAnswer []string `json:"normalizedCorrectAnswer"`
}

// GradeResult is the full outcome of grading one submission.
type GradeResult struct {
	Score             int              `json:"score"`
	MaxScore          int              `json:"maxScore"`
	Percentage        int              `json:"percentage"`
	TimeSpent         int              `json:"timeSpent"`
	CorrectCount      int              `json:"correctCount"`
	AnsweredQuestions int              `json:"answeredQuestions"`
	SkippedQuestions  int              `json:"skippedQuestions"`
	DetailedResults   []QuestionResult `json:"detailedResults"`
}

// Attempt is the durable record of one graded submission. Immutable once
// written.
type Attempt struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	QuizID     string    `json:"quizId"`
	Score      int       `json:"score"`
	MaxScore   int       `json:"maxScore"`
	Percentage int       `json:"percentage"`
	TimeSpent  int       `json:"timeSpent"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UserRankStats summarizes a user's attempts across all quizzes, as derived
// from the attempt ledger.
type UserRankStats struct {
	TotalAttempts     int     `json:"totalAttempts"`
	AverageScore      float64 `json:"averageScore"`
	AveragePercentage float64 `json:"averagePercentage"`
	MaxPercentage     int     `json:"maxPercentage"`
	TotalTimeSpent    int     `json:"totalTimeSpent"`
}

// Activity actions recorded in the engagement log.
const (
	ActionQuizStarted    = "quiz_started"
	ActionQuizCompleted  = "quiz_completed"
	ActionCommentAdded   = "comment_added"
	ActionCommentDeleted = "comment_deleted"
)

// ActivityMetadata carries optional grading context on an activity event.
// Nil fields were not supplied by the caller.
type ActivityMetadata struct {
	Score      *int `json:"score,omitempty" bson:"score,omitempty"`
	MaxScore   *int `json:"maxScore,omitempty" bson:"maxScore,omitempty"`
	Percentage *int `json:"percentage,omitempty" bson:"percentage,omitempty"`
	TimeSpent  *int `json:"timeSpent,omitempty" bson:"timeSpent,omitempty"`
}

// ActivityEvent is one append-only entry in the engagement log.
type ActivityEvent struct {
	UserID     string           `json:"userId" bson:"userId"`
	Action     string           `json:"action" bson:"action"`
	QuizID     string           `json:"quizId" bson:"quizId"`
	Metadata   ActivityMetadata `json:"metadata" bson:"metadata"`
	Timestamp  time.Time        `json:"timestamp" bson:"timestamp"`
	SourceAddr string           `json:"sourceAddr,omitempty" bson:"sourceAddr,omitempty"`
}

// PopularityAggregate is the derived per-quiz engagement row. Scores and
// Percentages keep the raw sample history so the averages are always exact
// recomputations.
type PopularityAggregate struct {
	QuizID            string    `json:"quizId" bson:"quizId"`
	TotalAttempts     int       `json:"totalAttempts" bson:"totalAttempts"`
	Scores            []float64 `json:"-" bson:"scores"`
	Percentages       []float64 `json:"-" bson:"percentages"`
	AverageScore      float64   `json:"averageScore" bson:"averageScore"`
	AveragePercentage float64   `json:"averagePercentage" bson:"averagePercentage"`
	PopularityScore   float64   `json:"popularityScore" bson:"popularityScore"`
	LastActivity      time.Time `json:"lastActivity" bson:"lastActivity"`
}

// PopularityWeights is the coefficient pair behind the popularity score:
// popularity = attempts*Attempts + averagePercentage*Percentage.
type PopularityWeights struct {
	Attempts   float64
	Percentage float64
}

// DefaultPopularityWeights favors volume over quality 70/30.
var DefaultPopularityWeights = PopularityWeights{Attempts: 0.7, Percentage: 0.3}

// Score applies the weights to an aggregate's inputs.
func (w PopularityWeights) Score(totalAttempts int, averagePercentage float64) float64 {
	return float64(totalAttempts)*w.Attempts + averagePercentage*w.Percentage
}

// ActionStats is a per-action rollup of a user's activity log.
type ActionStats struct {
	Action         string  `json:"action" bson:"_id"`
	Count          int     `json:"count" bson:"count"`
	AvgScore       float64 `json:"avgScore" bson:"avgScore"`
	AvgPercentage  float64 `json:"avgPercentage" bson:"avgPercentage"`
	MaxPercentage  float64 `json:"maxPercentage" bson:"maxPercentage"`
	TotalTimeSpent int     `json:"totalTimeSpent" bson:"totalTimeSpent"`
}

// PopularQuiz pairs a popularity aggregate with the quiz metadata it refers
// to, for display alongside the ranking.
type PopularQuiz struct {
	QuizID     string              `json:"quizId"`
	Title      string              `json:"title"`
	Category   string              `json:"category"`
	Difficulty Difficulty          `json:"difficulty"`
	Analytics  PopularityAggregate `json:"analytics"`
}

// NewID returns a random 24-hex-char identifier.
func NewID() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf)
}
