package app

import (
	"context"

	"points-exchange-service/internal/domain"
)

// AccountRepository abstracts how accounts and balances are stored (in-memory, Postgres).
type AccountRepository interface {
	CreateAccount(ctx context.Context, acc domain.Account) error
	GetAccount(ctx context.Context, username string) (domain.Account, error)
	// FindTeacherBySubject returns domain.ErrNoTeacherForSubject when nobody teaches subject.
	FindTeacherBySubject(ctx context.Context, subject string) (domain.Account, error)
	// DebitPoints decrements the balance only if it covers amount, in one atomic step.
	DebitPoints(ctx context.Context, username string, amount int) (domain.DebitResult, error)
	// CreditPoints adds amount and returns the new balance.
	CreditPoints(ctx context.Context, username string, amount int) (int, error)
	// SetSubject assigns a teacher's subject once; repeating the same subject is a no-op.
	SetSubject(ctx context.Context, username, subject string) error
	AddGrade(ctx context.Context, username string, grade domain.Grade) error
	MarkQuizCompleted(ctx context.Context, username, quizID string) error
}

// QuizRepository loads and stores quiz content.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	// InsertQuiz assigns the id and creation time.
	InsertQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
}

// NotificationRepository is the notification queue keyed by recipient.
type NotificationRepository interface {
	// ListForRecipient returns newest first; an empty slice is not an error.
	ListForRecipient(ctx context.Context, recipient string) ([]domain.Notification, error)
	Get(ctx context.Context, id string) (domain.Notification, error)
	// Append assigns the id and creation time.
	Append(ctx context.Context, n domain.Notification) (domain.Notification, error)
	// Remove is a no-op for unknown ids.
	Remove(ctx context.Context, id string) error
	// Claim deletes a pending points_exchange and returns it. Only one caller
	// can claim a given id; the rest get domain.ErrNotificationNotFound.
	Claim(ctx context.Context, id string) (domain.Notification, error)
}

// Repositories groups the stores bound to one connection or transaction.
type Repositories struct {
	Accounts      AccountRepository
	Quizzes       QuizRepository
	Notifications NotificationRepository
}

// Transactor runs fn against repositories that commit or roll back together.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}

// SessionRepository maps opaque session tokens to identities (in-memory, Redis).
type SessionRepository interface {
	Create(ctx context.Context, identity domain.Identity) (string, error)
	// Get returns domain.ErrSessionNotFound for unknown or expired tokens.
	Get(ctx context.Context, token string) (domain.Identity, error)
	Update(ctx context.Context, token string, identity domain.Identity) error
	Delete(ctx context.Context, token string) error
}

// NotificationPublisher signals that a recipient's notification list changed.
type NotificationPublisher interface {
	Publish(ctx context.Context, recipient string)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string) {}
