package memory

import (
	"context"
	"sort"
	"sync"

	"quizboard-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts []domain.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{}
}

func (s *AttemptStore) Insert(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, attempt)
	return nil
}

// TopByQuiz sorts by percentage descending, ties broken by timeSpent
// ascending. Faster correct answers rank higher.
func (s *AttemptStore) TopByQuiz(_ context.Context, quizID string, limit int) ([]domain.Attempt, error) {
	s.mu.RLock()
	var matching []domain.Attempt
	for _, attempt := range s.attempts {
		if attempt.QuizID == quizID {
			matching = append(matching, attempt)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matching, func(i, j int) bool {
		if matching[i].Percentage != matching[j].Percentage {
			return matching[i].Percentage > matching[j].Percentage
		}
		return matching[i].TimeSpent < matching[j].TimeSpent
	})
	if len(matching) > limit {
		matching = matching[:limit]
	}
	return matching, nil
}

func (s *AttemptStore) StatsByUser(_ context.Context, userID string) (domain.UserRankStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.UserRankStats
	var scoreSum, pctSum int
	for _, attempt := range s.attempts {
		if attempt.UserID != userID {
			continue
		}
		stats.TotalAttempts++
		scoreSum += attempt.Score
		pctSum += attempt.Percentage
		stats.TotalTimeSpent += attempt.TimeSpent
		if attempt.Percentage > stats.MaxPercentage {
			stats.MaxPercentage = attempt.Percentage
		}
	}
	if stats.TotalAttempts > 0 {
		stats.AverageScore = float64(scoreSum) / float64(stats.TotalAttempts)
		stats.AveragePercentage = float64(pctSum) / float64(stats.TotalAttempts)
	}
	return stats, nil
}
