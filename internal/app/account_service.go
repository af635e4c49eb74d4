package app

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"points-exchange-service/internal/domain"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
	// bcrypt rejects longer input
	maxPasswordBytes = 72
)

// LoginResult is returned on a successful session start.
type LoginResult struct {
	Token   string         `json:"token"`
	Account domain.Account `json:"account"`
	// NeedsSubject is set for teachers that still have to pick a subject.
	NeedsSubject bool `json:"needsSubject"`
}

// AccountService covers registration, sessions and account self-service.
type AccountService struct {
	accounts AccountRepository
	sessions SessionRepository
	log      *zap.Logger
}

func NewAccountService(accounts AccountRepository, sessions SessionRepository, log *zap.Logger) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{accounts: accounts, sessions: sessions, log: log}
}

// Register creates an account with a zero balance.
func (s *AccountService) Register(ctx context.Context, username, password string, role domain.Role) (domain.Account, error) {
	username = strings.TrimSpace(username)

	var v domain.Validator
	v.Check(utf8.RuneCountInString(username) >= minUsernameLen, "username", "must be at least 3 characters")
	v.Check(utf8.RuneCountInString(password) >= minPasswordLen, "password", "must be at least 6 characters")
	v.Check(len(password) <= maxPasswordBytes, "password", "must be at most 72 bytes")
	v.Check(role.Valid(), "role", "must be 'teacher' or 'student'")
	if err := v.Err(); err != nil {
		return domain.Account{}, err
	}

	acc := domain.Account{Username: username, Role: role}
	if err := acc.SetPassword(password); err != nil {
		return domain.Account{}, err
	}
	if err := s.accounts.CreateAccount(ctx, acc); err != nil {
		return domain.Account{}, err
	}
	s.log.Info("account registered", zap.String("username", username), zap.String("role", string(role)))
	return s.accounts.GetAccount(ctx, username)
}

// Login checks credentials and opens a session.
func (s *AccountService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	acc, err := s.accounts.GetAccount(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrAccountNotFound) {
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if !acc.CheckPassword(password) {
		return LoginResult{}, domain.ErrInvalidCredentials
	}

	token, err := s.sessions.Create(ctx, domain.IdentityOf(acc))
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{
		Token:        token,
		Account:      acc,
		NeedsSubject: acc.Role == domain.RoleTeacher && acc.Subject == "",
	}, nil
}

// Logout destroys the session; unknown tokens are ignored.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// Authenticate resolves a session token to the caller's identity.
func (s *AccountService) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	identity, err := s.sessions.Get(ctx, token)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return identity, err
}

// SetSubject assigns the teacher's subject once and refreshes the session identity.
func (s *AccountService) SetSubject(ctx context.Context, token string, who domain.Identity, subject string) (domain.Identity, error) {
	if who.Role != domain.RoleTeacher {
		return domain.Identity{}, domain.ErrForbidden
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return domain.Identity{}, domain.NewValidationError(nil, domain.FieldError{Field: "subject", Error: "this field is required"})
	}

	if err := s.accounts.SetSubject(ctx, who.Username, subject); err != nil {
		return domain.Identity{}, err
	}
	who.Subject = subject
	if token != "" {
		if err := s.sessions.Update(ctx, token, who); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return domain.Identity{}, err
		}
	}
	s.log.Info("subject assigned", zap.String("teacher", who.Username), zap.String("subject", subject))
	return who, nil
}

// Balance returns the live point balance.
func (s *AccountService) Balance(ctx context.Context, username string) (int, error) {
	acc, err := s.accounts.GetAccount(ctx, username)
	if err != nil {
		return 0, err
	}
	return acc.Points, nil
}

// Profile returns the stored account.
func (s *AccountService) Profile(ctx context.Context, username string) (domain.Account, error) {
	return s.accounts.GetAccount(ctx, username)
}
