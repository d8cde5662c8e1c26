package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestConstraintErrors(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	fk := &pgconn.PgError{Code: "23503"}

	if !IsUniqueViolation(unique) {
		t.Fatal("expected wrapped unique violation to match")
	}
	if IsUniqueViolation(fk) {
		t.Fatal("foreign key error is not a unique violation")
	}
	if !IsForeignKeyViolation(fk) {
		t.Fatal("expected foreign key violation to match")
	}
	if IsUniqueViolation(errors.New("boom")) {
		t.Fatal("plain error must not match")
	}
}
