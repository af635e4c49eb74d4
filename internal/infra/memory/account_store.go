package memory

import (
	"context"
	"sort"

	"points-exchange-service/internal/app"
	"points-exchange-service/internal/domain"
)

// AccountStore is an in-memory implementation of app.AccountRepository.
type AccountStore struct {
	db *DB
	tx *state
}

var _ app.AccountRepository = (*AccountStore)(nil)

func (s *AccountStore) CreateAccount(_ context.Context, acc domain.Account) error {
	return s.db.view(s.tx, func(st *state) error {
		if _, ok := st.accounts[acc.Username]; ok {
			return domain.ErrUsernameTaken
		}
		acc = copyAccount(acc)
		acc.Points = 0
		if acc.CreatedAt.IsZero() {
			acc.CreatedAt = s.db.now()
		}
		st.accounts[acc.Username] = acc
		return nil
	})
}

func (s *AccountStore) GetAccount(_ context.Context, username string) (domain.Account, error) {
	var out domain.Account
	err := s.db.view(s.tx, func(st *state) error {
		acc, ok := st.accounts[username]
		if !ok {
			return domain.ErrAccountNotFound
		}
		out = copyAccount(acc)
		return nil
	})
	return out, err
}

func (s *AccountStore) FindTeacherBySubject(_ context.Context, subject string) (domain.Account, error) {
	var out domain.Account
	err := s.db.view(s.tx, func(st *state) error {
		var teachers []domain.Account
		for _, acc := range st.accounts {
			if acc.Role == domain.RoleTeacher && acc.Subject == subject {
				teachers = append(teachers, acc)
			}
		}
		if len(teachers) == 0 {
			return domain.ErrNoTeacherForSubject
		}
		sort.Slice(teachers, func(i, j int) bool {
			if !teachers[i].CreatedAt.Equal(teachers[j].CreatedAt) {
				return teachers[i].CreatedAt.Before(teachers[j].CreatedAt)
			}
			return teachers[i].Username < teachers[j].Username
		})
		out = copyAccount(teachers[0])
		return nil
	})
	return out, err
}

func (s *AccountStore) DebitPoints(_ context.Context, username string, amount int) (domain.DebitResult, error) {
	var res domain.DebitResult
	err := s.db.view(s.tx, func(st *state) error {
		acc, ok := st.accounts[username]
		if !ok {
			return domain.ErrAccountNotFound
		}
		if amount < 0 || acc.Points < amount {
			res = domain.DebitResult{Status: domain.InsufficientPoints, Balance: acc.Points}
			return nil
		}
		acc.Points -= amount
		st.accounts[username] = acc
		res = domain.DebitResult{Status: domain.Debited, Balance: acc.Points}
		return nil
	})
	return res, err
}

func (s *AccountStore) CreditPoints(_ context.Context, username string, amount int) (int, error) {
	var balance int
	err := s.db.view(s.tx, func(st *state) error {
		acc, ok := st.accounts[username]
		if !ok {
			return domain.ErrAccountNotFound
		}
		if amount > 0 {
			acc.Points += amount
		}
		st.accounts[username] = acc
		balance = acc.Points
		return nil
	})
	return balance, err
}

func (s *AccountStore) SetSubject(_ context.Context, username, subject string) error {
	return s.db.view(s.tx, func(st *state) error {
		acc, ok := st.accounts[username]
		if !ok {
			return domain.ErrAccountNotFound
		}
		if acc.Role != domain.RoleTeacher {
			return domain.ErrForbidden
		}
		if acc.Subject != "" && acc.Subject != subject {
			return domain.ErrSubjectAlreadySet
		}
		acc.Subject = subject
		st.accounts[username] = acc
		return nil
	})
}

func (s *AccountStore) AddGrade(_ context.Context, username string, grade domain.Grade) error {
	return s.db.view(s.tx, func(st *state) error {
		acc, ok := st.accounts[username]
		if !ok {
			return domain.ErrAccountNotFound
		}
		acc.Grades = append(acc.Grades, grade)
		st.accounts[username] = acc
		return nil
	})
}

func (s *AccountStore) MarkQuizCompleted(_ context.Context, username, quizID string) error {
	return s.db.view(s.tx, func(st *state) error {
		acc, ok := st.accounts[username]
		if !ok {
			return domain.ErrAccountNotFound
		}
		if !acc.HasCompleted(quizID) {
			acc.CompletedQuizzes = append(acc.CompletedQuizzes, quizID)
			st.accounts[username] = acc
		}
		return nil
	})
}
