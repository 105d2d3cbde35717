package shared

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestValidatorCollectsSortedIssues(t *testing.T) {
	v := NewValidator()
	v.Required("name", " ", "is required")
	v.Enum("priority", "extreme", []string{"low", "normal"}, "is not a valid priority")
	v.UUID("customerId", "not-a-uuid")
	if amount := v.Decimal("amount", "-5"); amount != nil {
		t.Fatal("expected negative amount to be rejected")
	}

	issues := v.Issues()
	if len(issues) != 4 {
		t.Fatalf("expected 4 issues, got %+v", issues)
	}
	if issues[0].Field != "amount" || issues[3].Field != "priority" {
		t.Fatalf("expected issues sorted by field, got %+v", issues)
	}

	rec := httptest.NewRecorder()
	if !v.Reject(rec, "req-1") || rec.Code != 400 {
		t.Fatalf("expected 400 rejection, got %d", rec.Code)
	}
}

func TestValidatorDecimal(t *testing.T) {
	v := NewValidator()
	if got := v.Decimal("price", ""); got != nil {
		t.Fatal("expected blank to be nil")
	}
	got := v.Decimal("price", "2.95")
	if got == nil || got.String() != "2.95" || v.HasIssues() {
		t.Fatalf("expected 2.95, got %v", got)
	}
}

func TestParseDateIn(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	got, err := ParseDateIn("2025-01-10", loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Location() != loc || got.Hour() != 0 {
		t.Fatalf("expected midnight in loc, got %v", got)
	}
	if _, err := ParseDateIn("10/01/2025", loc); err == nil {
		t.Fatal("expected invalid format to fail")
	}
	zero, err := ParseDateIn("", loc)
	if err != nil || !zero.IsZero() {
		t.Fatal("expected blank to be zero without error")
	}
}

func TestPageCapsLimit(t *testing.T) {
	req := httptest.NewRequest("GET", "/?limit=1000&offset=20", nil)
	page := Page(req)
	if page.Limit != MaxPageSize || page.Offset != 20 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if !IsUniqueViolation(err) {
		t.Fatal("expected wrapped unique violation to match")
	}
	if IsUniqueViolation(errors.New("boom")) || IsForeignKeyViolation(err) {
		t.Fatal("unexpected match")
	}
}
