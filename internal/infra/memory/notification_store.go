package memory

import (
	"context"
	"sort"

	"points-exchange-service/internal/app"
	"points-exchange-service/internal/domain"
)

// NotificationStore is an in-memory implementation of app.NotificationRepository.
type NotificationStore struct {
	db *DB
	tx *state
}

var _ app.NotificationRepository = (*NotificationStore)(nil)

func (s *NotificationStore) ListForRecipient(_ context.Context, recipient string) ([]domain.Notification, error) {
	rows := make([]notificationRow, 0)
	err := s.db.view(s.tx, func(st *state) error {
		for _, row := range st.notifications {
			if row.n.Recipient == recipient {
				rows = append(rows, row)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// newest first; insertion order breaks timestamp ties
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].n.CreatedAt.Equal(rows[j].n.CreatedAt) {
			return rows[i].n.CreatedAt.After(rows[j].n.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})

	out := make([]domain.Notification, len(rows))
	for i, row := range rows {
		out[i] = row.n
	}
	return out, nil
}

func (s *NotificationStore) Get(_ context.Context, id string) (domain.Notification, error) {
	var out domain.Notification
	err := s.db.view(s.tx, func(st *state) error {
		row, ok := st.notifications[id]
		if !ok {
			return domain.ErrNotificationNotFound
		}
		out = row.n
		return nil
	})
	return out, err
}

func (s *NotificationStore) Append(_ context.Context, n domain.Notification) (domain.Notification, error) {
	err := s.db.view(s.tx, func(st *state) error {
		n.ID = s.db.newID()
		n.CreatedAt = s.db.now()
		st.notifications[n.ID] = notificationRow{n: n, seq: st.nextSeq()}
		return nil
	})
	if err != nil {
		return domain.Notification{}, err
	}
	return n, nil
}

func (s *NotificationStore) Claim(_ context.Context, id string) (domain.Notification, error) {
	var out domain.Notification
	err := s.db.view(s.tx, func(st *state) error {
		row, ok := st.notifications[id]
		if !ok || row.n.Kind != domain.KindPointsExchange {
			return domain.ErrNotificationNotFound
		}
		delete(st.notifications, id)
		out = row.n
		return nil
	})
	return out, err
}

func (s *NotificationStore) Remove(_ context.Context, id string) error {
	return s.db.view(s.tx, func(st *state) error {
		delete(st.notifications, id)
		return nil
	})
}
