package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"points-exchange-service/internal/app"
	"points-exchange-service/internal/domain"
	"points-exchange-service/internal/infra/memory"
)

func TestQuizCacheCachesInRedis(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	store := &countingStore{QuizRepository: memory.NewDB().Repositories().Quizzes}
	quiz, err := store.InsertQuiz(ctx, sampleQuiz())
	if err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
	repo := NewQuizCache(client, store, time.Minute)

	got, err := repo.GetQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected store called once, got %d", store.calls)
	}
	if !mr.Exists("quiz:" + quiz.ID) {
		t.Fatalf("expected quiz cached in redis")
	}
	if ttl := mr.TTL("quiz:" + quiz.ID); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	again, _ := repo.GetQuiz(ctx, quiz.ID)
	if store.calls != 1 {
		t.Fatalf("expected cache hit, store calls=%d", store.calls)
	}
	if again.Title != got.Title || len(again.Questions) != 2 || again.Questions[1].CorrectAnswer != "9" {
		t.Fatalf("cached quiz differs: %+v", again)
	}
}

func TestQuizCacheReloadsAfterExpiry(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	store := &countingStore{QuizRepository: memory.NewDB().Repositories().Quizzes}
	repo := NewQuizCache(client, store, time.Minute)
	quiz, err := repo.InsertQuiz(ctx, sampleQuiz())
	if err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
	if _, err := repo.GetQuiz(ctx, quiz.ID); err != nil || store.calls != 0 {
		t.Fatalf("expected insert to warm the cache, calls=%d err=%v", store.calls, err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := repo.GetQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected reload after expiry, calls=%d", store.calls)
	}
}

func TestQuizCacheMissPropagatesNotFound(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewQuizCache(client, memory.NewDB().Repositories().Quizzes, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

type countingStore struct {
	app.QuizRepository
	calls int
}

func (s *countingStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	s.calls++
	return s.QuizRepository.GetQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		Title:  "Arithmetic",
		Author: "mr_x",
		Questions: []domain.Question{
			{Prompt: "What is 2 + 2?", Options: []string{"3", "4"}, CorrectAnswer: "4", Points: 10},
			{Prompt: "What is 3 * 3?", Options: []string{"6", "9"}, CorrectAnswer: "9", Points: 5},
		},
	}
}
