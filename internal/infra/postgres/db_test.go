package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/pkg/errors"
)

func TestConstraintViolationsAreRecognisedThroughWrapping(t *testing.T) {
	dup := errors.Wrap(&pgconn.PgError{Code: uniqueViolation}, "insert account")
	if !isUniqueViolation(dup) || isForeignKeyViolation(dup) {
		t.Fatalf("expected unique violation only")
	}
	fk := &pgconn.PgError{Code: foreignKeyViolation}
	if !isForeignKeyViolation(fk) || isUniqueViolation(fk) {
		t.Fatalf("expected foreign key violation only")
	}
	if isUniqueViolation(nil) || isUniqueViolation(errors.New("boom")) {
		t.Fatalf("plain errors are not constraint violations")
	}
}

func TestNullTime(t *testing.T) {
	if nullTime(time.Time{}) != nil {
		t.Fatalf("zero time should map to NULL")
	}
	now := time.Now()
	if got := nullTime(now); got == nil || !got.Equal(now) {
		t.Fatalf("expected %v, got %v", now, got)
	}
}
