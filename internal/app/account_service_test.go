package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"points-exchange-service/internal/domain"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	acc, err := env.accounts.Register(ctx, "  ann ", "secret123", domain.RoleStudent)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if acc.Username != "ann" || acc.Points != 0 || acc.Role != domain.RoleStudent {
		t.Fatalf("unexpected account %+v", acc)
	}
	if _, err := env.accounts.Register(ctx, "ann", "another1", domain.RoleTeacher); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected username taken, got %v", err)
	}

	var verr *domain.ValidationError
	if _, err := env.accounts.Register(ctx, "al", "123", "admin"); !errors.As(err, &verr) || len(verr.Fields) != 3 {
		t.Fatalf("expected three field errors, got %v", err)
	}

	long := strings.Repeat("p", 80)
	if _, err := env.accounts.Register(ctx, "bob", long, domain.RoleStudent); !errors.As(err, &verr) || verr.FieldMap()["password"] == "" {
		t.Fatalf("expected password length error, got %v", err)
	}

	if _, err := env.accounts.Login(ctx, "ann", "wrong-pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := env.accounts.Login(ctx, "nobody", "secret123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown users must look like bad passwords, got %v", err)
	}

	res, err := env.accounts.Login(ctx, "ann", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token == "" || res.NeedsSubject {
		t.Fatalf("unexpected login result %+v", res)
	}
	identity, err := env.accounts.Authenticate(ctx, res.Token)
	if err != nil || identity.Username != "ann" || identity.Role != domain.RoleStudent {
		t.Fatalf("authenticate: %+v, %v", identity, err)
	}

	if err := env.accounts.Logout(ctx, res.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := env.accounts.Authenticate(ctx, res.Token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated after logout, got %v", err)
	}
	if _, err := env.accounts.Authenticate(ctx, ""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated for empty token, got %v", err)
	}
}

func TestSetSubjectRefreshesSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "mr_x", domain.RoleTeacher)

	res, err := env.accounts.Login(ctx, "mr_x", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !res.NeedsSubject {
		t.Fatalf("expected teacher without subject to be flagged")
	}

	identity, err := env.accounts.SetSubject(ctx, res.Token, teacherX, " math ")
	if err != nil {
		t.Fatalf("set subject: %v", err)
	}
	if identity.Subject != "math" {
		t.Fatalf("expected subject math, got %q", identity.Subject)
	}
	if session, _ := env.accounts.Authenticate(ctx, res.Token); session.Subject != "math" {
		t.Fatalf("expected session to carry the subject, got %+v", session)
	}

	if _, err := env.accounts.SetSubject(ctx, res.Token, teacherX, "math"); err != nil {
		t.Fatalf("same subject again should succeed: %v", err)
	}
	if _, err := env.accounts.SetSubject(ctx, res.Token, teacherX, "history"); !errors.Is(err, domain.ErrSubjectAlreadySet) {
		t.Fatalf("expected subject already set, got %v", err)
	}
	if _, err := env.accounts.SetSubject(ctx, "", studentA, "math"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for students, got %v", err)
	}

	again, err := env.accounts.Login(ctx, "mr_x", "secret123")
	if err != nil || again.NeedsSubject {
		t.Fatalf("expected subject to persist, got %+v, %v", again, err)
	}
}
