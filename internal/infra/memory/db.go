package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"points-exchange-service/internal/app"
	"points-exchange-service/internal/domain"
)

// DB is an in-process document store holding accounts, quizzes and
// notifications. Transactions run on a private copy that replaces the
// committed state only when the callback succeeds.
type DB struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
	newID func() string
}

type state struct {
	seq           int64
	accounts      map[string]domain.Account
	quizzes       map[string]quizRow
	notifications map[string]notificationRow
}

type quizRow struct {
	quiz domain.Quiz
	seq  int64
}

type notificationRow struct {
	n   domain.Notification
	seq int64
}

var _ app.Transactor = (*DB)(nil)

func NewDB() *DB {
	return NewDBWithClock(time.Now)
}

// NewDBWithClock allows deterministic timestamps in tests.
func NewDBWithClock(now func() time.Time) *DB {
	return &DB{
		state: &state{
			accounts:      make(map[string]domain.Account),
			quizzes:       make(map[string]quizRow),
			notifications: make(map[string]notificationRow),
		},
		now:   now,
		newID: uuid.NewString,
	}
}

// Repositories returns stores that lock the DB per call.
func (db *DB) Repositories() app.Repositories {
	return db.reposFor(nil)
}

// WithinTx serializes fn against all other access and commits its writes atomically.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.Repositories) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	working := db.state.clone()
	if err := fn(ctx, db.reposFor(working)); err != nil {
		return err
	}
	db.state = working
	return nil
}

func (db *DB) reposFor(tx *state) app.Repositories {
	return app.Repositories{
		Accounts:      &AccountStore{db: db, tx: tx},
		Quizzes:       &QuizStore{db: db, tx: tx},
		Notifications: &NotificationStore{db: db, tx: tx},
	}
}

// view runs fn on the transaction state when bound, otherwise on the committed state under lock.
func (db *DB) view(tx *state, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(db.state)
}

func (s *state) nextSeq() int64 {
	s.seq++
	return s.seq
}

func (s *state) clone() *state {
	out := &state{
		seq:           s.seq,
		accounts:      make(map[string]domain.Account, len(s.accounts)),
		quizzes:       make(map[string]quizRow, len(s.quizzes)),
		notifications: make(map[string]notificationRow, len(s.notifications)),
	}
	for k, acc := range s.accounts {
		out.accounts[k] = copyAccount(acc)
	}
	// quizzes are never mutated after insert
	for k, q := range s.quizzes {
		out.quizzes[k] = q
	}
	for k, n := range s.notifications {
		out.notifications[k] = n
	}
	return out
}

func copyAccount(acc domain.Account) domain.Account {
	acc.PasswordHash = append([]byte(nil), acc.PasswordHash...)
	acc.CompletedQuizzes = append([]string{}, acc.CompletedQuizzes...)
	acc.Grades = append([]domain.Grade{}, acc.Grades...)
	return acc
}
