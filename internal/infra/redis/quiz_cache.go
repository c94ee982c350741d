package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"quizboard-service/internal/app"
	"quizboard-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizCache caches quiz definitions in Redis (one JSON value per quiz) in
// front of a backing store. Reads go through the cache with singleflight on
// miss; writes pass through and invalidate the cached entry.
type QuizCache struct {
	client  *redis.Client
	backing app.QuizRepository
	ttl     time.Duration
	sf      singleflight.Group
	rnd     *rand.Rand
}

func NewQuizCache(client *redis.Client, backing app.QuizRepository, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client:  client,
		backing: backing,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) Get(ctx context.Context, quizID string) (domain.Quiz, error) {
	key := c.key(quizID)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err == nil {
			return quiz, nil
		}
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var quiz domain.Quiz
			if err := json.Unmarshal(raw, &quiz); err == nil {
				return quiz, nil
			}
		}

		quiz, err := c.backing.Get(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		if raw, err := json.Marshal(quiz); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *QuizCache) Create(ctx context.Context, quiz domain.Quiz) error {
	return c.backing.Create(ctx, quiz)
}

func (c *QuizCache) Update(ctx context.Context, quiz domain.Quiz) error {
	if err := c.backing.Update(ctx, quiz); err != nil {
		return err
	}
	_ = c.client.Del(ctx, c.key(quiz.ID)).Err()
	return nil
}

func (c *QuizCache) Delete(ctx context.Context, quizID string) error {
	if err := c.backing.Delete(ctx, quizID); err != nil {
		return err
	}
	_ = c.client.Del(ctx, c.key(quizID)).Err()
	return nil
}

// List and Search always hit the backing store; only point lookups are hot
// enough to cache.
func (c *QuizCache) List(ctx context.Context) ([]domain.Quiz, error) {
	return c.backing.List(ctx)
}

func (c *QuizCache) Search(ctx context.Context, pattern string) ([]domain.Quiz, error) {
	return c.backing.Search(ctx, pattern)
}

func (c *QuizCache) key(quizID string) string {
	return "quiz:" + quizID + ":def"
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
