package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"points-exchange-service/internal/app"
	"points-exchange-service/internal/domain"
)

// QuizCache caches quizzes with TTL to avoid repeated store hits.
// Quizzes are immutable once inserted, so entries never go stale.
type QuizCache struct {
	store app.QuizRepository
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

var _ app.QuizRepository = (*QuizCache)(nil)

func NewQuizCache(store app.QuizRepository, ttl time.Duration) *QuizCache {
	return &QuizCache{
		store: store,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedQuiz),
	}
}

func (r *QuizCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[quizID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.quiz, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[quizID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.quiz, nil
		}
		r.mu.RUnlock()

		quiz, err := r.store.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		r.put(quiz, now)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// ListQuizzes always reads the store so newly created quizzes show up immediately.
func (r *QuizCache) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return r.store.ListQuizzes(ctx)
}

func (r *QuizCache) InsertQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	created, err := r.store.InsertQuiz(ctx, quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	r.put(created, r.clock())
	return created, nil
}

func (r *QuizCache) put(quiz domain.Quiz, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[quiz.ID] = cachedQuiz{
		quiz:      quiz,
		expiresAt: now.Add(r.ttlWithJitterLocked()),
	}
}

func (r *QuizCache) ttlWithJitterLocked() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
