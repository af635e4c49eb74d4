package cli

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"points-exchange-service/internal/app"
	"points-exchange-service/internal/config"
	"points-exchange-service/internal/infra/memory"
	"points-exchange-service/internal/infra/postgres"
	redisinfra "points-exchange-service/internal/infra/redis"
	"points-exchange-service/internal/logger"
)

// stores is the storage wiring chosen from config: Postgres or memory for
// durable data, Redis or memory for sessions, quiz cache and signals.
type stores struct {
	tx       app.Transactor
	repos    app.Repositories
	sessions app.SessionRepository
	// memSessions is set when sessions live in process and need sweeping.
	memSessions *memory.SessionStore
	redis       *redis.Client
	pool        *pgxpool.Pool
}

func loadConfig(path string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	log, err := logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (*stores, error) {
	s := &stores{}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		s.pool = pool
		pg := postgres.NewStore(pool)
		s.tx, s.repos = pg, pg.Repositories()
		log.Info("using postgres storage")
	} else {
		db := memory.NewDB()
		s.tx, s.repos = db, db.Repositories()
		log.Warn("postgres not configured, data is kept in memory only")
	}

	sessionTTL := config.TTLDuration(cfg.Session.TTL, 24*time.Hour)
	if cfg.Redis.Addr != "" {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.close()
			return nil, err
		}
		s.sessions = redisinfra.NewSessionStore(s.redis, sessionTTL)
		log.Info("using redis for sessions and caching", zap.String("addr", cfg.Redis.Addr))
	} else {
		s.memSessions = memory.NewSessionStore(sessionTTL)
		s.sessions = s.memSessions
	}
	return s, nil
}

// quizRepository wraps the durable quiz store in the configured cache.
func (s *stores) quizRepository(cfg config.Config) app.QuizRepository {
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if s.redis != nil {
		quizTTL = config.TTLDuration(cfg.Quiz.TTL, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
		return redisinfra.NewQuizCache(s.redis, s.repos.Quizzes, quizTTL)
	}
	return memory.NewQuizCache(s.repos.Quizzes, quizTTL)
}

func (s *stores) close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}
