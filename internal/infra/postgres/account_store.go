package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"

	"points-exchange-service/internal/app"
	"points-exchange-service/internal/domain"
)

// AccountStore persists accounts, grade history and quiz completions.
type AccountStore struct {
	q querier
}

var _ app.AccountRepository = (*AccountStore)(nil)

func (s *AccountStore) CreateAccount(ctx context.Context, acc domain.Account) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO accounts (username, password_hash, role, points, subject)
		VALUES ($1, $2, $3, 0, NULLIF($4, ''))`,
		acc.Username, acc.PasswordHash, string(acc.Role), acc.Subject)
	if isUniqueViolation(err) {
		return domain.ErrUsernameTaken
	}
	return errors.Wrap(err, "insert account")
}

func (s *AccountStore) GetAccount(ctx context.Context, username string) (domain.Account, error) {
	acc, err := s.scanAccount(s.q.QueryRow(ctx, `
		SELECT username, password_hash, role, points, COALESCE(subject, ''), created_at
		FROM accounts WHERE username = $1`, username))
	if err != nil {
		return domain.Account{}, err
	}
	if err := s.loadHistory(ctx, &acc); err != nil {
		return domain.Account{}, err
	}
	return acc, nil
}

func (s *AccountStore) FindTeacherBySubject(ctx context.Context, subject string) (domain.Account, error) {
	acc, err := s.scanAccount(s.q.QueryRow(ctx, `
		SELECT username, password_hash, role, points, COALESCE(subject, ''), created_at
		FROM accounts
		WHERE role = 'teacher' AND subject = $1
		ORDER BY created_at, username
		LIMIT 1`, subject))
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.Account{}, domain.ErrNoTeacherForSubject
	}
	return acc, err
}

func (s *AccountStore) DebitPoints(ctx context.Context, username string, amount int) (domain.DebitResult, error) {
	var balance int
	err := s.q.QueryRow(ctx, `
		UPDATE accounts SET points = points - $2
		WHERE username = $1 AND points >= $2 AND $2 >= 0
		RETURNING points`, username, amount).Scan(&balance)
	if err == nil {
		return domain.DebitResult{Status: domain.Debited, Balance: balance}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.DebitResult{}, errors.Wrap(err, "debit points")
	}

	// nothing updated: either the account is missing or the balance is short
	err = s.q.QueryRow(ctx, `SELECT points FROM accounts WHERE username = $1`, username).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DebitResult{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.DebitResult{}, errors.Wrap(err, "read balance")
	}
	return domain.DebitResult{Status: domain.InsufficientPoints, Balance: balance}, nil
}

func (s *AccountStore) CreditPoints(ctx context.Context, username string, amount int) (int, error) {
	if amount < 0 {
		amount = 0
	}
	var balance int
	err := s.q.QueryRow(ctx, `
		UPDATE accounts SET points = points + $2
		WHERE username = $1
		RETURNING points`, username, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrAccountNotFound
	}
	return balance, errors.Wrap(err, "credit points")
}

func (s *AccountStore) SetSubject(ctx context.Context, username, subject string) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE accounts SET subject = $2
		WHERE username = $1 AND role = 'teacher' AND (subject IS NULL OR subject = $2)`,
		username, subject)
	if err != nil {
		return errors.Wrap(err, "set subject")
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	acc, err := s.scanAccount(s.q.QueryRow(ctx, `
		SELECT username, password_hash, role, points, COALESCE(subject, ''), created_at
		FROM accounts WHERE username = $1`, username))
	if err != nil {
		return err
	}
	if acc.Role != domain.RoleTeacher {
		return domain.ErrForbidden
	}
	return domain.ErrSubjectAlreadySet
}

func (s *AccountStore) AddGrade(ctx context.Context, username string, grade domain.Grade) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO account_grades (username, grade, subject, assigned_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))`,
		username, grade.Grade, grade.Subject, nullTime(grade.AssignedAt))
	if isForeignKeyViolation(err) {
		return domain.ErrAccountNotFound
	}
	return errors.Wrap(err, "insert grade")
}

func (s *AccountStore) MarkQuizCompleted(ctx context.Context, username, quizID string) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO completed_quizzes (username, quiz_id)
		VALUES ($1, $2)
		ON CONFLICT (username, quiz_id) DO NOTHING`, username, quizID)
	if isForeignKeyViolation(err) {
		return domain.ErrAccountNotFound
	}
	return errors.Wrap(err, "mark quiz completed")
}

func (s *AccountStore) scanAccount(row pgx.Row) (domain.Account, error) {
	var (
		acc  domain.Account
		role string
	)
	err := row.Scan(&acc.Username, &acc.PasswordHash, &role, &acc.Points, &acc.Subject, &acc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, errors.Wrap(err, "scan account")
	}
	acc.Role = domain.Role(role)
	return acc, nil
}

func (s *AccountStore) loadHistory(ctx context.Context, acc *domain.Account) error {
	rows, err := s.q.Query(ctx, `
		SELECT grade, subject, assigned_at FROM account_grades
		WHERE username = $1 ORDER BY assigned_at, id`, acc.Username)
	if err != nil {
		return errors.Wrap(err, "query grades")
	}
	acc.Grades = []domain.Grade{}
	for rows.Next() {
		var g domain.Grade
		if err := rows.Scan(&g.Grade, &g.Subject, &g.AssignedAt); err != nil {
			rows.Close()
			return errors.Wrap(err, "scan grade")
		}
		acc.Grades = append(acc.Grades, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "iterate grades")
	}

	rows, err = s.q.Query(ctx, `
		SELECT quiz_id FROM completed_quizzes
		WHERE username = $1 ORDER BY completed_at, quiz_id`, acc.Username)
	if err != nil {
		return errors.Wrap(err, "query completed quizzes")
	}
	defer rows.Close()
	acc.CompletedQuizzes = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return errors.Wrap(err, "scan completed quiz")
		}
		acc.CompletedQuizzes = append(acc.CompletedQuizzes, id)
	}
	return errors.Wrap(rows.Err(), "iterate completed quizzes")
}
