package memory

import (
	"context"
	"testing"

	"quizboard-service/internal/domain"
)

func TestTopByQuizOrdering(t *testing.T) {
	store := NewAttemptStore()
	ctx := context.Background()

	attempts := []domain.Attempt{
		{ID: "a", UserID: "u1", QuizID: "q1", Percentage: 75, TimeSpent: 300},
		{ID: "b", UserID: "u2", QuizID: "q1", Percentage: 100, TimeSpent: 200},
		{ID: "c", UserID: "u3", QuizID: "q1", Percentage: 100, TimeSpent: 120},
		{ID: "d", UserID: "u4", QuizID: "other", Percentage: 100, TimeSpent: 1},
	}
	for _, a := range attempts {
		if err := store.Insert(ctx, a); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	top, err := store.TopByQuiz(ctx, "q1", 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 attempts for q1, got %d", len(top))
	}
	// 100% tie broken by the faster attempt.
	if top[0].ID != "c" || top[1].ID != "b" || top[2].ID != "a" {
		t.Fatalf("unexpected order: %s %s %s", top[0].ID, top[1].ID, top[2].ID)
	}
}

func TestTopByQuizLimit(t *testing.T) {
	store := NewAttemptStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = store.Insert(ctx, domain.Attempt{ID: domain.NewID(), QuizID: "q1", Percentage: i * 10, TimeSpent: 60})
	}

	top, _ := store.TopByQuiz(ctx, "q1", 2)
	if len(top) != 2 {
		t.Fatalf("expected limit applied, got %d", len(top))
	}
	if top[0].Percentage != 40 || top[1].Percentage != 30 {
		t.Fatalf("expected two best attempts, got %d%% and %d%%", top[0].Percentage, top[1].Percentage)
	}
}

func TestStatsByUser(t *testing.T) {
	store := NewAttemptStore()
	ctx := context.Background()

	_ = store.Insert(ctx, domain.Attempt{ID: "a", UserID: "u1", QuizID: "q1", Score: 8, Percentage: 100, TimeSpent: 100})
	_ = store.Insert(ctx, domain.Attempt{ID: "b", UserID: "u1", QuizID: "q2", Score: 4, Percentage: 50, TimeSpent: 200})
	_ = store.Insert(ctx, domain.Attempt{ID: "c", UserID: "u2", QuizID: "q1", Score: 1, Percentage: 13, TimeSpent: 10})

	stats, err := store.StatsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalAttempts != 2 || stats.AverageScore != 6 || stats.AveragePercentage != 75 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.MaxPercentage != 100 || stats.TotalTimeSpent != 300 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestStatsByUserUnknownUserIsZero(t *testing.T) {
	store := NewAttemptStore()
	stats, err := store.StatsByUser(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats != (domain.UserRankStats{}) {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}
