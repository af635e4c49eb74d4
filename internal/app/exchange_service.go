package app

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"points-exchange-service/internal/domain"
)

const (
	minGrade = 1
	maxGrade = 5
	// maxPoints keeps balances well inside a 32-bit column.
	maxPoints = 1000000
)

// ExchangeService turns student points into teacher-confirmed grades.
type ExchangeService struct {
	tx            Transactor
	notifications NotificationRepository
	publisher     NotificationPublisher
	log           *zap.Logger
}

func NewExchangeService(tx Transactor, notifications NotificationRepository, publisher NotificationPublisher, log *zap.Logger) *ExchangeService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ExchangeService{tx: tx, notifications: notifications, publisher: publisher, log: log}
}

// InitiateExchange debits the student and queues a points_exchange notification
// for the teacher of the subject. Both writes share one transaction.
func (s *ExchangeService) InitiateExchange(ctx context.Context, req domain.ExchangeRequest) (domain.Notification, error) {
	req.Subject = strings.TrimSpace(req.Subject)
	if err := validateExchange(req); err != nil {
		return domain.Notification{}, err
	}

	var created domain.Notification
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx Repositories) error {
		student, err := tx.Accounts.GetAccount(ctx, req.Student)
		if err != nil {
			return err
		}
		if student.Role != domain.RoleStudent {
			return domain.ErrForbidden
		}

		// Teacher lookup precedes the debit so a missing teacher never costs points.
		teacher, err := tx.Accounts.FindTeacherBySubject(ctx, req.Subject)
		if err != nil {
			return err
		}

		res, err := tx.Accounts.DebitPoints(ctx, req.Student, req.Points)
		if err != nil {
			return err
		}
		if res.Status != domain.Debited {
			return domain.ErrInsufficientPoints
		}

		created, err = tx.Notifications.Append(ctx, domain.Notification{
			Recipient: teacher.Username,
			Sender:    req.Student,
			Kind:      domain.KindPointsExchange,
			Teacher:   teacher.Username,
			Student:   req.Student,
			Points:    req.Points,
			Grade:     req.Grade,
			Subject:   req.Subject,
		})
		return err
	})
	if err != nil {
		return domain.Notification{}, err
	}

	s.log.Info("exchange initiated",
		zap.String("notification_id", created.ID),
		zap.String("student", created.Student),
		zap.String("teacher", created.Teacher),
		zap.Int("points", created.Points),
		zap.Int("grade", created.Grade),
	)
	s.publisher.Publish(ctx, created.Recipient)
	return created, nil
}

// ResolveExchange confirms a pending exchange: the student receives a
// grade_assigned notification and the pending one is removed, atomically.
func (s *ExchangeService) ResolveExchange(ctx context.Context, notificationID string, actor domain.Identity) (domain.Notification, error) {
	var (
		pending  domain.Notification
		assigned domain.Notification
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx Repositories) error {
		var err error
		// claiming first serializes concurrent resolves of the same exchange
		pending, err = tx.Notifications.Claim(ctx, notificationID)
		if err != nil {
			return err
		}
		if pending.Teacher != actor.Username {
			return domain.ErrForbidden
		}

		assigned, err = tx.Notifications.Append(ctx, domain.Notification{
			Recipient: pending.Student,
			Sender:    pending.Teacher,
			Kind:      domain.KindGradeAssigned,
			Teacher:   pending.Teacher,
			Student:   pending.Student,
			Grade:     pending.Grade,
			Subject:   pending.Subject,
		})
		if err != nil {
			return err
		}
		return tx.Accounts.AddGrade(ctx, pending.Student, domain.Grade{
			Grade:      pending.Grade,
			Subject:    pending.Subject,
			AssignedAt: assigned.CreatedAt,
		})
	})
	if err != nil {
		return domain.Notification{}, err
	}

	s.log.Info("exchange resolved",
		zap.String("notification_id", pending.ID),
		zap.String("student", assigned.Student),
		zap.String("teacher", assigned.Teacher),
		zap.Int("grade", assigned.Grade),
	)
	s.publisher.Publish(ctx, pending.Recipient)
	s.publisher.Publish(ctx, assigned.Recipient)
	return assigned, nil
}

// DismissNotification deletes a resolved notification on behalf of its recipient.
// Unknown ids succeed so the client can retry freely.
func (s *ExchangeService) DismissNotification(ctx context.Context, notificationID string, actor domain.Identity) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx Repositories) error {
		n, err := tx.Notifications.Get(ctx, notificationID)
		if errors.Is(err, domain.ErrNotificationNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if n.Recipient != actor.Username {
			return domain.ErrForbidden
		}
		if n.Status() == domain.StatusPendingTeacherReview {
			return domain.ErrNotificationPending
		}
		return tx.Notifications.Remove(ctx, n.ID)
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(ctx, actor.Username)
	return nil
}

// ListNotifications returns the recipient's notifications, newest first.
func (s *ExchangeService) ListNotifications(ctx context.Context, recipient string) ([]domain.Notification, error) {
	return s.notifications.ListForRecipient(ctx, recipient)
}

func validateExchange(req domain.ExchangeRequest) error {
	var v domain.Validator
	v.Check(req.Subject != "", "subject", "this field is required")
	v.Check(req.Points >= 1, "points", "must be at least 1")
	v.Check(req.Points <= maxPoints, "points", "must be at most 1000000")
	v.Check(req.Grade >= minGrade && req.Grade <= maxGrade, "grade", "must be between 1 and 5")
	return v.Err()
}
