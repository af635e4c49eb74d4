package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"points-exchange-service/internal/app"
	"points-exchange-service/internal/domain"
)

// QuizCache caches quiz documents in Redis and falls back to the store on a miss.
// Each quiz is stored as JSON under quiz:{quizID}.
type QuizCache struct {
	client *redis.Client
	store  app.QuizRepository
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

var _ app.QuizRepository = (*QuizCache)(nil)

func NewQuizCache(client *redis.Client, store app.QuizRepository, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client: client,
		store:  store,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.cached(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// another caller may have filled it while we waited
		if quiz, ok := r.cached(ctx, quizID); ok {
			return quiz, nil
		}
		quiz, err := r.store.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		r.put(ctx, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (r *QuizCache) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return r.store.ListQuizzes(ctx)
}

func (r *QuizCache) InsertQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	created, err := r.store.InsertQuiz(ctx, quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	r.put(ctx, created)
	return created, nil
}

// cached treats any Redis failure as a miss.
func (r *QuizCache) cached(ctx context.Context, quizID string) (domain.Quiz, bool) {
	raw, err := r.client.Get(ctx, quizKey(quizID)).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (r *QuizCache) put(ctx context.Context, quiz domain.Quiz) {
	raw, err := json.Marshal(quiz)
	if err != nil {
		return
	}
	_ = r.client.Set(ctx, quizKey(quiz.ID), raw, r.ttlWithJitter()).Err()
}

func quizKey(quizID string) string {
	return "quiz:" + quizID
}

func (r *QuizCache) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
