package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"

	"points-exchange-service/internal/app"
	"points-exchange-service/internal/domain"
)

// NotificationStore is the Postgres notification queue.
type NotificationStore struct {
	q querier
}

var _ app.NotificationRepository = (*NotificationStore)(nil)

const notificationColumns = `id, recipient, sender, kind, teacher, student, COALESCE(points, 0), grade, subject, created_at`

func (s *NotificationStore) ListForRecipient(ctx context.Context, recipient string) ([]domain.Notification, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE recipient = $1
		ORDER BY created_at DESC, seq DESC`, recipient)
	if err != nil {
		return nil, errors.Wrap(err, "query notifications")
	}
	defer rows.Close()

	out := make([]domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, errors.Wrap(rows.Err(), "iterate notifications")
}

func (s *NotificationStore) Get(ctx context.Context, id string) (domain.Notification, error) {
	n, err := scanNotification(s.q.QueryRow(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Notification{}, domain.ErrNotificationNotFound
	}
	return n, err
}

func (s *NotificationStore) Append(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	n.ID = uuid.NewString()
	var points *int
	if n.Kind == domain.KindPointsExchange {
		points = &n.Points
	}
	err := s.q.QueryRow(ctx, `
		INSERT INTO notifications (id, recipient, sender, kind, teacher, student, points, grade, subject)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		n.ID, n.Recipient, n.Sender, string(n.Kind), n.Teacher, n.Student, points, n.Grade, n.Subject,
	).Scan(&n.CreatedAt)
	if err != nil {
		return domain.Notification{}, errors.Wrap(err, "insert notification")
	}
	return n, nil
}

func (s *NotificationStore) Remove(ctx context.Context, id string) error {
	_, err := s.q.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	return errors.Wrap(err, "delete notification")
}

// Claim deletes the row before the caller writes anything else, so a second
// concurrent transaction blocks on the row lock and then finds nothing.
func (s *NotificationStore) Claim(ctx context.Context, id string) (domain.Notification, error) {
	n, err := scanNotification(s.q.QueryRow(ctx, `
		DELETE FROM notifications
		WHERE id = $1 AND kind = 'points_exchange'
		RETURNING `+notificationColumns, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Notification{}, domain.ErrNotificationNotFound
	}
	return n, err
}

func scanNotification(row pgx.Row) (domain.Notification, error) {
	var (
		n    domain.Notification
		kind string
	)
	err := row.Scan(&n.ID, &n.Recipient, &n.Sender, &kind, &n.Teacher, &n.Student, &n.Points, &n.Grade, &n.Subject, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Notification{}, err
		}
		return domain.Notification{}, errors.Wrap(err, "scan notification")
	}
	n.Kind = domain.NotificationKind(kind)
	return n, nil
}
