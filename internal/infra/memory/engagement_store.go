package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quizboard-service/internal/domain"
)

// EngagementStore is an in-memory implementation of app.EngagementRepository.
// Each quiz's aggregate has its own lock so concurrent quiz_completed events
// for the same quiz serialize their read-modify-write cycles while events for
// different quizzes proceed in parallel.
type EngagementStore struct {
	weights domain.PopularityWeights
	clock   func() time.Time

	logMu sync.Mutex
	log   []domain.ActivityEvent

	aggMu      sync.RWMutex
	aggregates map[string]*lockedAggregate
}

type lockedAggregate struct {
	mu  sync.Mutex
	agg domain.PopularityAggregate
}

func NewEngagementStore(weights domain.PopularityWeights) *EngagementStore {
	return &EngagementStore{
		weights:    weights,
		clock:      time.Now,
		aggregates: make(map[string]*lockedAggregate),
	}
}

// NewEngagementStoreWithClock allows deterministic timestamps in tests.
func NewEngagementStoreWithClock(weights domain.PopularityWeights, now func() time.Time) *EngagementStore {
	store := NewEngagementStore(weights)
	store.clock = now
	return store
}

func (s *EngagementStore) Record(_ context.Context, event domain.ActivityEvent) error {
	s.logMu.Lock()
	s.log = append(s.log, event)
	s.logMu.Unlock()

	if event.Action != domain.ActionQuizCompleted {
		return nil
	}
	if event.Metadata.Score == nil || event.Metadata.Percentage == nil {
		return nil
	}

	entry := s.aggregateFor(event.QuizID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	agg := &entry.agg
	agg.TotalAttempts++
	agg.Scores = append(agg.Scores, float64(*event.Metadata.Score))
	agg.Percentages = append(agg.Percentages, float64(*event.Metadata.Percentage))
	agg.AverageScore = mean(agg.Scores)
	agg.AveragePercentage = mean(agg.Percentages)
	agg.PopularityScore = s.weights.Score(agg.TotalAttempts, agg.AveragePercentage)
	agg.LastActivity = s.clock()
	return nil
}

func (s *EngagementStore) aggregateFor(quizID string) *lockedAggregate {
	s.aggMu.RLock()
	entry, ok := s.aggregates[quizID]
	s.aggMu.RUnlock()
	if ok {
		return entry
	}

	s.aggMu.Lock()
	defer s.aggMu.Unlock()
	if entry, ok = s.aggregates[quizID]; ok {
		return entry
	}
	entry = &lockedAggregate{agg: domain.PopularityAggregate{QuizID: quizID}}
	s.aggregates[quizID] = entry
	return entry
}

func (s *EngagementStore) PopularQuizzes(_ context.Context, limit int) ([]domain.PopularityAggregate, error) {
	s.aggMu.RLock()
	list := make([]domain.PopularityAggregate, 0, len(s.aggregates))
	for _, entry := range s.aggregates {
		entry.mu.Lock()
		list = append(list, entry.agg)
		entry.mu.Unlock()
	}
	s.aggMu.RUnlock()

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].PopularityScore != list[j].PopularityScore {
			return list[i].PopularityScore > list[j].PopularityScore
		}
		return list[i].LastActivity.After(list[j].LastActivity)
	})
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *EngagementStore) StatsByUser(_ context.Context, userID string) ([]domain.ActionStats, error) {
	s.logMu.Lock()
	events := make([]domain.ActivityEvent, 0, len(s.log))
	for _, event := range s.log {
		if event.UserID == userID {
			events = append(events, event)
		}
	}
	s.logMu.Unlock()

	type acc struct {
		count    int
		scoreSum float64
		scoreN   int
		pctSum   float64
		pctN     int
		maxPct   float64
		timeSum  int
	}
	byAction := make(map[string]*acc)
	for _, event := range events {
		a, ok := byAction[event.Action]
		if !ok {
			a = &acc{}
			byAction[event.Action] = a
		}
		a.count++
		if event.Metadata.Score != nil {
			a.scoreSum += float64(*event.Metadata.Score)
			a.scoreN++
		}
		if event.Metadata.Percentage != nil {
			pct := float64(*event.Metadata.Percentage)
			a.pctSum += pct
			a.pctN++
			if pct > a.maxPct {
				a.maxPct = pct
			}
		}
		if event.Metadata.TimeSpent != nil {
			a.timeSum += *event.Metadata.TimeSpent
		}
	}

	stats := make([]domain.ActionStats, 0, len(byAction))
	for action, a := range byAction {
		st := domain.ActionStats{
			Action:         action,
			Count:          a.count,
			MaxPercentage:  a.maxPct,
			TotalTimeSpent: a.timeSum,
		}
		if a.scoreN > 0 {
			st.AvgScore = a.scoreSum / float64(a.scoreN)
		}
		if a.pctN > 0 {
			st.AvgPercentage = a.pctSum / float64(a.pctN)
		}
		stats = append(stats, st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Action < stats[j].Action })
	return stats, nil
}

// Events returns a copy of the activity log, for tests.
func (s *EngagementStore) Events() []domain.ActivityEvent {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	return append([]domain.ActivityEvent(nil), s.log...)
}

func mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += v
	}
	return sum / float64(len(samples))
}
