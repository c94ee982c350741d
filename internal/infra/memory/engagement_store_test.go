package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"quizboard-service/internal/domain"
)

func completedEvent(quizID string, score, percentage int) domain.ActivityEvent {
	return domain.ActivityEvent{
		UserID: "u1",
		Action: domain.ActionQuizCompleted,
		QuizID: quizID,
		Metadata: domain.ActivityMetadata{
			Score:      &score,
			Percentage: &percentage,
		},
	}
}

func TestPopularityMonotonicity(t *testing.T) {
	store := NewEngagementStore(domain.DefaultPopularityWeights)
	ctx := context.Background()

	// N identical quiz_completed events with score 8 of 8.
	const n = 5
	for i := 0; i < n; i++ {
		if err := store.Record(ctx, completedEvent("quiz-1", 8, 100)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	popular, err := store.PopularQuizzes(ctx, 10)
	if err != nil {
		t.Fatalf("popular: %v", err)
	}
	if len(popular) != 1 {
		t.Fatalf("expected one aggregate, got %d", len(popular))
	}
	agg := popular[0]
	if agg.TotalAttempts != n {
		t.Fatalf("expected %d attempts, got %d", n, agg.TotalAttempts)
	}
	if agg.AverageScore != 8 || agg.AveragePercentage != 100 {
		t.Fatalf("averages must be exact means, got %+v", agg)
	}
	want := float64(n)*0.7 + 100*0.3
	if agg.PopularityScore != want {
		t.Fatalf("expected popularity %v, got %v", want, agg.PopularityScore)
	}
}

func TestPopularityConcurrentSameQuiz(t *testing.T) {
	store := NewEngagementStore(domain.DefaultPopularityWeights)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Record(ctx, completedEvent("quiz-1", 4, 50))
		}()
	}
	wg.Wait()

	popular, _ := store.PopularQuizzes(ctx, 1)
	if popular[0].TotalAttempts != n {
		t.Fatalf("lost updates under concurrency: got %d, want %d", popular[0].TotalAttempts, n)
	}
	if len(popular[0].Scores) != n {
		t.Fatalf("expected %d samples, got %d", n, len(popular[0].Scores))
	}
}

func TestPopularQuizzesOrdering(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	store := NewEngagementStoreWithClock(domain.DefaultPopularityWeights, clock)
	ctx := context.Background()

	// quiz-busy: 3 attempts at 50%. quiz-good: 1 attempt at 100%.
	for i := 0; i < 3; i++ {
		_ = store.Record(ctx, completedEvent("quiz-busy", 4, 50))
	}
	_ = store.Record(ctx, completedEvent("quiz-good", 8, 100))

	popular, err := store.PopularQuizzes(ctx, 10)
	if err != nil {
		t.Fatalf("popular: %v", err)
	}
	// quiz-good: 1*0.7+100*0.3 = 30.7; quiz-busy: 3*0.7+50*0.3 = 17.1.
	if popular[0].QuizID != "quiz-good" || popular[1].QuizID != "quiz-busy" {
		t.Fatalf("unexpected order: %s, %s", popular[0].QuizID, popular[1].QuizID)
	}
}

func TestPopularQuizzesRecencyTiebreak(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
	store := NewEngagementStoreWithClock(domain.DefaultPopularityWeights, clock)
	ctx := context.Background()

	// Identical popularity inputs; the later write wins the tiebreak.
	_ = store.Record(ctx, completedEvent("quiz-older", 8, 100))
	_ = store.Record(ctx, completedEvent("quiz-newer", 8, 100))

	popular, _ := store.PopularQuizzes(ctx, 10)
	if popular[0].QuizID != "quiz-newer" {
		t.Fatalf("expected recency tiebreak, got %s first", popular[0].QuizID)
	}
}

func TestStatsByUserGroupsByAction(t *testing.T) {
	store := NewEngagementStore(domain.DefaultPopularityWeights)
	ctx := context.Background()

	score1, pct1, spent1 := 8, 100, 120
	score2, pct2, spent2 := 4, 50, 60
	_ = store.Record(ctx, domain.ActivityEvent{
		UserID: "u1", Action: domain.ActionQuizCompleted, QuizID: "q1",
		Metadata: domain.ActivityMetadata{Score: &score1, Percentage: &pct1, TimeSpent: &spent1},
	})
	_ = store.Record(ctx, domain.ActivityEvent{
		UserID: "u1", Action: domain.ActionQuizCompleted, QuizID: "q2",
		Metadata: domain.ActivityMetadata{Score: &score2, Percentage: &pct2, TimeSpent: &spent2},
	})
	_ = store.Record(ctx, domain.ActivityEvent{UserID: "u1", Action: domain.ActionQuizStarted, QuizID: "q1"})
	_ = store.Record(ctx, domain.ActivityEvent{UserID: "someone-else", Action: domain.ActionQuizCompleted, QuizID: "q1"})

	stats, err := store.StatsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 action groups, got %d", len(stats))
	}
	completed := stats[0]
	if completed.Action != domain.ActionQuizCompleted {
		t.Fatalf("expected sorted actions, got %q first", completed.Action)
	}
	if completed.Count != 2 || completed.AvgScore != 6 || completed.AvgPercentage != 75 {
		t.Fatalf("unexpected rollup: %+v", completed)
	}
	if completed.MaxPercentage != 100 || completed.TotalTimeSpent != 180 {
		t.Fatalf("unexpected rollup: %+v", completed)
	}
}

func TestNonCompletionEventsDoNotTouchPopularity(t *testing.T) {
	store := NewEngagementStore(domain.DefaultPopularityWeights)
	ctx := context.Background()

	_ = store.Record(ctx, domain.ActivityEvent{UserID: "u1", Action: domain.ActionQuizStarted, QuizID: "q1"})
	_ = store.Record(ctx, domain.ActivityEvent{UserID: "u1", Action: domain.ActionCommentAdded, QuizID: "q1"})
	// quiz_completed without score metadata is logged but not aggregated.
	_ = store.Record(ctx, domain.ActivityEvent{UserID: "u1", Action: domain.ActionQuizCompleted, QuizID: "q1"})

	popular, _ := store.PopularQuizzes(ctx, 10)
	if len(popular) != 0 {
		t.Fatalf("expected no aggregates, got %+v", popular)
	}
	if len(store.Events()) != 3 {
		t.Fatalf("all events must still be appended, got %d", len(store.Events()))
	}
}
