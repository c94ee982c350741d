// Package mongo holds the document-store side of the platform: the
// append-only activity log and the derived per-quiz popularity aggregate.
package mongo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quizboard-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	activityCollection   = "activity_log"
	popularityCollection = "quiz_popularity"
)

// EngagementStore implements app.EngagementRepository on MongoDB.
//
// The popularity update is a read-modify-write (inc counters, push samples,
// recompute means); a per-quiz mutex serializes concurrent quiz_completed
// events for the same quiz. That assumes a single writer instance per
// deployment, the same discipline the rest of the service runs under.
type EngagementStore struct {
	activity   *mongo.Collection
	popularity *mongo.Collection
	weights    domain.PopularityWeights
	clock      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEngagementStore(db *mongo.Database, weights domain.PopularityWeights) *EngagementStore {
	return &EngagementStore{
		activity:   db.Collection(activityCollection),
		popularity: db.Collection(popularityCollection),
		weights:    weights,
		clock:      time.Now,
		locks:      make(map[string]*sync.Mutex),
	}
}

// EnsureIndexes creates the indexes the query paths rely on. Safe to call on
// every startup.
func (s *EngagementStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.activity.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "quizId", Value: 1}, {Key: "action", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("activity indexes: %w", err)
	}
	_, err = s.popularity.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "popularityScore", Value: -1}, {Key: "lastActivity", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("popularity index: %w", err)
	}
	return nil
}

// Record appends the event unconditionally, then folds quiz_completed events
// carrying a score and percentage into the popularity aggregate.
func (s *EngagementStore) Record(ctx context.Context, event domain.ActivityEvent) error {
	if _, err := s.activity.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}

	if event.Action != domain.ActionQuizCompleted {
		return nil
	}
	if event.Metadata.Score == nil || event.Metadata.Percentage == nil {
		return nil
	}
	return s.bumpPopularity(ctx, event.QuizID, float64(*event.Metadata.Score), float64(*event.Metadata.Percentage))
}

func (s *EngagementStore) bumpPopularity(ctx context.Context, quizID string, score, percentage float64) error {
	lock := s.lockFor(quizID)
	lock.Lock()
	defer lock.Unlock()

	update := bson.M{
		"$inc":  bson.M{"totalAttempts": 1},
		"$push": bson.M{"scores": score, "percentages": percentage},
		"$set":  bson.M{"lastActivity": s.clock()},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.popularity.UpdateOne(ctx, bson.M{"quizId": quizID}, update, opts); err != nil {
		return fmt.Errorf("bump popularity: %w", err)
	}

	var agg domain.PopularityAggregate
	if err := s.popularity.FindOne(ctx, bson.M{"quizId": quizID}).Decode(&agg); err != nil {
		return fmt.Errorf("reload popularity: %w", err)
	}

	avgScore := mean(agg.Scores)
	avgPercentage := mean(agg.Percentages)
	_, err := s.popularity.UpdateOne(ctx, bson.M{"quizId": quizID}, bson.M{
		"$set": bson.M{
			"averageScore":      avgScore,
			"averagePercentage": avgPercentage,
			"popularityScore":   s.weights.Score(agg.TotalAttempts, avgPercentage),
		},
	})
	if err != nil {
		return fmt.Errorf("recompute popularity: %w", err)
	}
	return nil
}

func (s *EngagementStore) lockFor(quizID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[quizID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[quizID] = lock
	}
	return lock
}

func (s *EngagementStore) PopularQuizzes(ctx context.Context, limit int) ([]domain.PopularityAggregate, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "popularityScore", Value: -1}, {Key: "lastActivity", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := s.popularity.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("popular quizzes: %w", err)
	}
	defer cursor.Close(ctx)

	var aggregates []domain.PopularityAggregate
	if err := cursor.All(ctx, &aggregates); err != nil {
		return nil, fmt.Errorf("decode popularity: %w", err)
	}
	return aggregates, nil
}

func (s *EngagementStore) StatsByUser(ctx context.Context, userID string) ([]domain.ActionStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":            "$action",
			"count":          bson.M{"$sum": 1},
			"avgScore":       bson.M{"$avg": "$metadata.score"},
			"avgPercentage":  bson.M{"$avg": "$metadata.percentage"},
			"maxPercentage":  bson.M{"$max": "$metadata.percentage"},
			"totalTimeSpent": bson.M{"$sum": "$metadata.timeSpent"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cursor, err := s.activity.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("user activity stats: %w", err)
	}
	defer cursor.Close(ctx)

	var stats []domain.ActionStats
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("decode activity stats: %w", err)
	}
	return stats, nil
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
