package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"quizboard-service/internal/domain"
)

// QuizStore is an in-memory implementation of app.QuizRepository, used in
// tests and when no Postgres URL is configured.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewQuizStore() *QuizStore {
	return &QuizStore{quizzes: make(map[string]domain.Quiz)}
}

// NewQuizStoreWith seeds the store, for tests and demo mode.
func NewQuizStoreWith(quizzes map[string]domain.Quiz) *QuizStore {
	store := NewQuizStore()
	for id, quiz := range quizzes {
		quiz.ID = id
		store.quizzes[id] = quiz
	}
	return store
}

func (s *QuizStore) Create(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *QuizStore) Update(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; !ok {
		return domain.ErrQuizNotFound
	}
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *QuizStore) Get(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *QuizStore) List(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		list = append(list, quiz)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (s *QuizStore) Search(_ context.Context, pattern string) ([]domain.Quiz, error) {
	needle := strings.ToLower(pattern)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []domain.Quiz
	for _, quiz := range s.quizzes {
		haystacks := []string{quiz.Title, quiz.Description, quiz.Category}
		for _, h := range haystacks {
			if strings.Contains(strings.ToLower(h), needle) {
				matches = append(matches, quiz)
				break
			}
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.Before(matches[j].CreatedAt) })
	return matches, nil
}

func (s *QuizStore) Delete(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, quizID)
	return nil
}
