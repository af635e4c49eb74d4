package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"points-exchange-service/internal/app"
	"points-exchange-service/internal/domain"
)

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	repos := db.Repositories()
	seedStudent(t, db, "ann", 50)

	boom := errors.New("boom")
	err := db.WithinTx(ctx, func(ctx context.Context, tx app.Repositories) error {
		if _, err := tx.Accounts.DebitPoints(ctx, "ann", 40); err != nil {
			return err
		}
		if _, err := tx.Notifications.Append(ctx, domain.Notification{Recipient: "mr_x", Kind: domain.KindPointsExchange}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	acc, _ := repos.Accounts.GetAccount(ctx, "ann")
	if acc.Points != 50 {
		t.Fatalf("expected balance untouched, got %d", acc.Points)
	}
	list, _ := repos.Notifications.ListForRecipient(ctx, "mr_x")
	if len(list) != 0 {
		t.Fatalf("expected no notifications, got %d", len(list))
	}
}

func TestDebitPointsIsConditional(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	accounts := db.Repositories().Accounts
	seedStudent(t, db, "ann", 30)

	res, err := accounts.DebitPoints(ctx, "ann", 31)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if res.Status != domain.InsufficientPoints || res.Balance != 30 {
		t.Fatalf("expected insufficient with balance 30, got %+v", res)
	}

	res, err = accounts.DebitPoints(ctx, "ann", 30)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if res.Status != domain.Debited || res.Balance != 0 {
		t.Fatalf("expected debited to 0, got %+v", res)
	}

	if _, err := accounts.DebitPoints(ctx, "nobody", 1); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected account not found, got %v", err)
	}
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	accounts := db.Repositories().Accounts
	seedStudent(t, db, "ann", 100)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		debited int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := accounts.DebitPoints(ctx, "ann", 7)
			if err != nil {
				t.Errorf("debit: %v", err)
				return
			}
			if res.Status == domain.Debited {
				mu.Lock()
				debited += 7
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	acc, _ := accounts.GetAccount(ctx, "ann")
	if debited > 100 || acc.Points != 100-debited || acc.Points < 0 {
		t.Fatalf("overdraw: debited=%d balance=%d", debited, acc.Points)
	}
	if debited != 98 {
		t.Fatalf("expected 14 successful debits, got %d points", debited)
	}
}

func TestNotificationsNewestFirst(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	db := NewDBWithClock(func() time.Time { return now })
	store := db.Repositories().Notifications

	first, _ := store.Append(ctx, domain.Notification{Recipient: "ann", Grade: 3})
	second, _ := store.Append(ctx, domain.Notification{Recipient: "ann", Grade: 4})
	now = now.Add(time.Second)
	third, _ := store.Append(ctx, domain.Notification{Recipient: "ann", Grade: 5})
	_, _ = store.Append(ctx, domain.Notification{Recipient: "bob", Grade: 2})

	list, err := store.ListForRecipient(ctx, "ann")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(list))
	}
	if list[0].ID != third.ID || list[1].ID != second.ID || list[2].ID != first.ID {
		t.Fatalf("unexpected order: %v %v %v", list[0].Grade, list[1].Grade, list[2].Grade)
	}

	if err := store.Remove(ctx, first.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := store.Remove(ctx, first.ID); err != nil {
		t.Fatalf("removing twice should be a no-op: %v", err)
	}
	if _, err := store.Get(ctx, first.ID); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	empty, err := store.ListForRecipient(ctx, "nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %v, %v", empty, err)
	}
}

func TestClaimTakesPendingExchangeOnce(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	store := db.Repositories().Notifications

	pending, _ := store.Append(ctx, domain.Notification{Recipient: "mr_x", Kind: domain.KindPointsExchange, Teacher: "mr_x", Student: "ann", Points: 10})
	graded, _ := store.Append(ctx, domain.Notification{Recipient: "ann", Kind: domain.KindGradeAssigned})

	claimed, err := store.Claim(ctx, pending.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.ID != pending.ID || claimed.Points != 10 {
		t.Fatalf("unexpected claimed notification %+v", claimed)
	}
	if _, err := store.Claim(ctx, pending.ID); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Fatalf("expected second claim to fail, got %v", err)
	}
	if _, err := store.Claim(ctx, graded.ID); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Fatalf("grade notifications cannot be claimed, got %v", err)
	}
	if _, err := store.Get(ctx, graded.ID); err != nil {
		t.Fatalf("failed claim must keep the notification: %v", err)
	}
}

func TestSetSubjectIsOneTime(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	accounts := db.Repositories().Accounts
	if err := accounts.CreateAccount(ctx, domain.Account{Username: "mr_x", Role: domain.RoleTeacher}); err != nil {
		t.Fatalf("create: %v", err)
	}
	seedStudent(t, db, "ann", 0)

	if err := accounts.SetSubject(ctx, "mr_x", "math"); err != nil {
		t.Fatalf("set subject: %v", err)
	}
	if err := accounts.SetSubject(ctx, "mr_x", "math"); err != nil {
		t.Fatalf("repeating the same subject should succeed: %v", err)
	}
	if err := accounts.SetSubject(ctx, "mr_x", "physics"); !errors.Is(err, domain.ErrSubjectAlreadySet) {
		t.Fatalf("expected subject already set, got %v", err)
	}
	if err := accounts.SetSubject(ctx, "ann", "math"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for student, got %v", err)
	}

	teacher, err := accounts.FindTeacherBySubject(ctx, "math")
	if err != nil || teacher.Username != "mr_x" {
		t.Fatalf("expected mr_x, got %+v, %v", teacher, err)
	}
	if _, err := accounts.FindTeacherBySubject(ctx, "history"); !errors.Is(err, domain.ErrNoTeacherForSubject) {
		t.Fatalf("expected no teacher, got %v", err)
	}
}

func TestCreateAccountRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	seedStudent(t, db, "ann", 0)
	err := db.Repositories().Accounts.CreateAccount(ctx, domain.Account{Username: "ann", Role: domain.RoleTeacher})
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected username taken, got %v", err)
	}
}

func seedStudent(t *testing.T, db *DB, username string, points int) {
	t.Helper()
	ctx := context.Background()
	accounts := db.Repositories().Accounts
	if err := accounts.CreateAccount(ctx, domain.Account{Username: username, Role: domain.RoleStudent}); err != nil {
		t.Fatalf("create %s: %v", username, err)
	}
	if _, err := accounts.CreditPoints(ctx, username, points); err != nil {
		t.Fatalf("credit %s: %v", username, err)
	}
}
