package postgres

import (
	"context"
	"fmt"
	"time"

	"quizboard-service/internal/domain"
	"github.com/uptrace/bun"
)

type attemptRow struct {
	bun.BaseModel `bun:"table:attempts"`

	ID         string    `bun:"id,pk"`
	UserID     string    `bun:"user_id"`
	QuizID     string    `bun:"quiz_id"`
	Score      int       `bun:"score"`
	MaxScore   int       `bun:"max_score"`
	Percentage int       `bun:"percentage"`
	TimeSpent  int       `bun:"time_spent"`
	CreatedAt  time.Time `bun:"created_at"`
}

// AttemptStore is the canonical attempt ledger backed by Postgres via bun.
type AttemptStore struct {
	db *bun.DB
}

func NewAttemptStore(db *bun.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

func (s *AttemptStore) Insert(ctx context.Context, attempt domain.Attempt) error {
	row := attemptRow{
		ID:         attempt.ID,
		UserID:     attempt.UserID,
		QuizID:     attempt.QuizID,
		Score:      attempt.Score,
		MaxScore:   attempt.MaxScore,
		Percentage: attempt.Percentage,
		TimeSpent:  attempt.TimeSpent,
		CreatedAt:  attempt.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) TopByQuiz(ctx context.Context, quizID string, limit int) ([]domain.Attempt, error) {
	var rows []attemptRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("quiz_id = ?", quizID).
		OrderExpr("percentage DESC, time_spent ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("top attempts: %w", err)
	}

	attempts := make([]domain.Attempt, len(rows))
	for i, row := range rows {
		attempts[i] = row.toDomain()
	}
	return attempts, nil
}

func (s *AttemptStore) StatsByUser(ctx context.Context, userID string) (domain.UserRankStats, error) {
	var out struct {
		TotalAttempts     int     `bun:"total_attempts"`
		AverageScore      float64 `bun:"average_score"`
		AveragePercentage float64 `bun:"average_percentage"`
		MaxPercentage     int     `bun:"max_percentage"`
		TotalTimeSpent    int     `bun:"total_time_spent"`
	}
	err := s.db.NewSelect().
		Model((*attemptRow)(nil)).
		ColumnExpr("COUNT(*) AS total_attempts").
		ColumnExpr("COALESCE(AVG(score), 0) AS average_score").
		ColumnExpr("COALESCE(AVG(percentage), 0) AS average_percentage").
		ColumnExpr("COALESCE(MAX(percentage), 0) AS max_percentage").
		ColumnExpr("COALESCE(SUM(time_spent), 0) AS total_time_spent").
		Where("user_id = ?", userID).
		Scan(ctx, &out)
	if err != nil {
		return domain.UserRankStats{}, fmt.Errorf("user stats: %w", err)
	}
	return domain.UserRankStats{
		TotalAttempts:     out.TotalAttempts,
		AverageScore:      out.AverageScore,
		AveragePercentage: out.AveragePercentage,
		MaxPercentage:     out.MaxPercentage,
		TotalTimeSpent:    out.TotalTimeSpent,
	}, nil
}

func (r attemptRow) toDomain() domain.Attempt {
	return domain.Attempt{
		ID:         r.ID,
		UserID:     r.UserID,
		QuizID:     r.QuizID,
		Score:      r.Score,
		MaxScore:   r.MaxScore,
		Percentage: r.Percentage,
		TimeSpent:  r.TimeSpent,
		CreatedAt:  r.CreatedAt,
	}
}
