package app

import (
	"context"
	"errors"
	"log"
	"time"

	"quizboard-service/internal/domain"
	"quizboard-service/internal/grading"
	"quizboard-service/internal/validation"
)

// QuizRepository abstracts how quiz definitions are stored (Postgres JSONB
// behind a Redis cache in production, in-memory for tests).
type QuizRepository interface {
	Create(ctx context.Context, quiz domain.Quiz) error
	Update(ctx context.Context, quiz domain.Quiz) error
	Get(ctx context.Context, quizID string) (domain.Quiz, error)
	List(ctx context.Context) ([]domain.Quiz, error)
	Search(ctx context.Context, pattern string) ([]domain.Quiz, error)
	Delete(ctx context.Context, quizID string) error
}

// AttemptRepository is the canonical ledger of graded attempts.
type AttemptRepository interface {
	Insert(ctx context.Context, attempt domain.Attempt) error
	TopByQuiz(ctx context.Context, quizID string, limit int) ([]domain.Attempt, error)
	StatsByUser(ctx context.Context, userID string) (domain.UserRankStats, error)
}

// EngagementRepository is the append-only activity log plus the derived
// per-quiz popularity aggregate. Record handles both: it always appends the
// event, and folds quiz_completed events into the aggregate.
type EngagementRepository interface {
	Record(ctx context.Context, event domain.ActivityEvent) error
	PopularQuizzes(ctx context.Context, limit int) ([]domain.PopularityAggregate, error)
	StatsByUser(ctx context.Context, userID string) ([]domain.ActionStats, error)
}

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100

	// engagementTimeout bounds the detached aggregator write; the caller's
	// request has already returned by then.
	engagementTimeout = 5 * time.Second
)

// QuizService wires the grading engine, attempt ledger, and engagement
// aggregator together. The attempt write is synchronous and authoritative;
// the engagement write happens after it, off the caller's path, and its
// failure is logged and dropped.
type QuizService struct {
	quizzes     QuizRepository
	attempts    AttemptRepository
	engagement  EngagementRepository
	broadcaster *Broadcaster
	now         func() time.Time
}

func NewQuizService(quizzes QuizRepository, attempts AttemptRepository, engagement EngagementRepository) *QuizService {
	return &QuizService{
		quizzes:     quizzes,
		attempts:    attempts,
		engagement:  engagement,
		broadcaster: NewBroadcaster(),
		now:         time.Now,
	}
}

// Broadcaster exposes the live leaderboard fan-out hub for the transport layer.
func (s *QuizService) Broadcaster() *Broadcaster {
	return s.broadcaster
}

// CreateQuiz validates and persists a new quiz owned by userID. The returned
// quiz carries the derived MaxPoints and defaulted question points.
func (s *QuizService) CreateQuiz(ctx context.Context, userID string, quiz domain.Quiz) (domain.Quiz, error) {
	normalized, err := validation.ValidateQuiz(quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	normalized.ID = domain.NewID()
	normalized.CreatedBy = userID
	normalized.CreatedAt = s.now()
	if err := s.quizzes.Create(ctx, normalized); err != nil {
		return domain.Quiz{}, err
	}
	return normalized, nil
}

// UpdateQuiz replaces a quiz's content wholesale. Only the owner may update;
// MaxPoints is re-derived from the replacement question set.
func (s *QuizService) UpdateQuiz(ctx context.Context, userID, quizID string, quiz domain.Quiz) (domain.Quiz, error) {
	existing, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if existing.CreatedBy != userID {
		return domain.Quiz{}, domain.ErrNotOwner
	}
	normalized, err := validation.ValidateQuiz(quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	normalized.ID = existing.ID
	normalized.CreatedBy = existing.CreatedBy
	normalized.CreatedAt = existing.CreatedAt
	if err := s.quizzes.Update(ctx, normalized); err != nil {
		return domain.Quiz{}, err
	}
	return normalized, nil
}

// DeleteQuiz removes a quiz. Only the owner may delete. Attempts and
// popularity rows referencing the quiz are left in place.
func (s *QuizService) DeleteQuiz(ctx context.Context, userID, quizID string) error {
	existing, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return err
	}
	if existing.CreatedBy != userID {
		return domain.ErrNotOwner
	}
	return s.quizzes.Delete(ctx, quizID)
}

// GetQuiz loads one quiz by ID.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.Get(ctx, quizID)
}

// ListQuizzes returns all quizzes.
func (s *QuizService) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.quizzes.List(ctx)
}

// SearchQuizzes finds quizzes whose title, description, or category contains
// the pattern, case-insensitively.
func (s *QuizService) SearchQuizzes(ctx context.Context, pattern string) ([]domain.Quiz, error) {
	trimmed := len(pattern)
	if trimmed < 1 || trimmed > 100 {
		return nil, validation.Errors{{Field: "pattern", Message: "search pattern must be between 1 and 100 characters"}}
	}
	return s.quizzes.Search(ctx, pattern)
}

// CheckAnswers validates the submission shape, grades it against the quiz,
// and returns the result. Pure read path: nothing is persisted.
func (s *QuizService) CheckAnswers(ctx context.Context, quizID string, answers map[string][]string, timeSpent int) (domain.GradeResult, error) {
	quiz, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return domain.GradeResult{}, err
	}
	submission, err := validation.ValidateSubmission(answers, timeSpent)
	if err != nil {
		return domain.GradeResult{}, err
	}
	return grading.Grade(quiz, submission), nil
}

// RecordAttempt durably writes one attempt. Percentage is recomputed here;
// a client-supplied percentage is never trusted. Once the insert commits the
// engagement aggregator is notified in the background and live leaderboard
// subscribers receive a fresh snapshot; neither can fail the call or undo
// the attempt.
func (s *QuizService) RecordAttempt(ctx context.Context, userID, quizID string, score, maxScore, timeSpent int, sourceAddr string) (domain.Attempt, error) {
	if score < 0 || score > maxScore {
		return domain.Attempt{}, domain.ErrScoreOutOfRange
	}
	if timeSpent < 1 || timeSpent > 7200 {
		return domain.Attempt{}, domain.ErrTimeSpentOutOfRange
	}
	if _, err := s.quizzes.Get(ctx, quizID); err != nil {
		return domain.Attempt{}, err
	}

	attempt := domain.Attempt{
		ID:         domain.NewID(),
		UserID:     userID,
		QuizID:     quizID,
		Score:      score,
		MaxScore:   maxScore,
		Percentage: grading.Percentage(score, maxScore),
		TimeSpent:  timeSpent,
		CreatedAt:  s.now(),
	}
	if err := s.attempts.Insert(ctx, attempt); err != nil {
		return domain.Attempt{}, err
	}

	go s.recordEngagement(attempt, sourceAddr)
	go s.publishLeaderboard(quizID)

	return attempt, nil
}

// recordEngagement runs off the caller's path. A failure here is logged and
// dropped; the attempt above is already committed and stays committed.
func (s *QuizService) recordEngagement(attempt domain.Attempt, sourceAddr string) {
	ctx, cancel := context.WithTimeout(context.Background(), engagementTimeout)
	defer cancel()

	score, maxScore := attempt.Score, attempt.MaxScore
	percentage, timeSpent := attempt.Percentage, attempt.TimeSpent
	event := domain.ActivityEvent{
		UserID: attempt.UserID,
		Action: domain.ActionQuizCompleted,
		QuizID: attempt.QuizID,
		Metadata: domain.ActivityMetadata{
			Score:      &score,
			MaxScore:   &maxScore,
			Percentage: &percentage,
			TimeSpent:  &timeSpent,
		},
		Timestamp:  attempt.CreatedAt,
		SourceAddr: sourceAddr,
	}
	if err := s.engagement.Record(ctx, event); err != nil {
		log.Printf("engagement record failed for quiz %s: %v", attempt.QuizID, err)
	}
}

func (s *QuizService) publishLeaderboard(quizID string) {
	ctx, cancel := context.WithTimeout(context.Background(), engagementTimeout)
	defer cancel()

	top, err := s.attempts.TopByQuiz(ctx, quizID, defaultLeaderboardLimit)
	if err != nil {
		log.Printf("leaderboard snapshot failed for quiz %s: %v", quizID, err)
		return
	}
	s.broadcaster.Publish(quizID, top)
}

// RecordActivity appends an arbitrary activity event (quiz_started, comment
// actions, ...). Same failure policy as the post-attempt path: best effort.
func (s *QuizService) RecordActivity(ctx context.Context, event domain.ActivityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.engagement.Record(ctx, event); err != nil {
		log.Printf("activity record failed for quiz %s: %v", event.QuizID, err)
	}
}

// TopAttempts returns the quiz leaderboard: percentage descending, ties
// broken by timeSpent ascending. Limit defaults to 10 and caps at 100.
func (s *QuizService) TopAttempts(ctx context.Context, quizID string, limit int) ([]domain.Attempt, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	return s.attempts.TopByQuiz(ctx, quizID, limit)
}

// RankStatsForUser aggregates a user's attempts from the canonical ledger.
// A user with no attempts gets all-zero stats, not an error.
func (s *QuizService) RankStatsForUser(ctx context.Context, userID string) (domain.UserRankStats, error) {
	return s.attempts.StatsByUser(ctx, userID)
}

// ActivityStatsForUser is the activity-log-derived view of a user's history,
// grouped by action. Independent of RankStatsForUser and may lag it.
func (s *QuizService) ActivityStatsForUser(ctx context.Context, userID string) ([]domain.ActionStats, error) {
	return s.engagement.StatsByUser(ctx, userID)
}

// PopularQuizzes ranks quizzes by popularity score (desc), recency as the
// tiebreak, and joins in quiz metadata. Aggregates whose quiz no longer
// exists are skipped rather than failing the whole listing.
func (s *QuizService) PopularQuizzes(ctx context.Context, limit int) ([]domain.PopularQuiz, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	aggregates, err := s.engagement.PopularQuizzes(ctx, limit)
	if err != nil {
		return nil, err
	}

	popular := make([]domain.PopularQuiz, 0, len(aggregates))
	for _, agg := range aggregates {
		quiz, err := s.quizzes.Get(ctx, agg.QuizID)
		if err != nil {
			if errors.Is(err, domain.ErrQuizNotFound) {
				continue
			}
			return nil, err
		}
		popular = append(popular, domain.PopularQuiz{
			QuizID:     quiz.ID,
			Title:      quiz.Title,
			Category:   quiz.Category,
			Difficulty: quiz.Difficulty,
			Analytics:  agg,
		})
	}
	return popular, nil
}
