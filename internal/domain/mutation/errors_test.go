package mutation

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormattingAndCodes(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(CodeValidation, " kernel.bind ", " name is required ", cause)
	if got := err.Error(); got != "kernel.bind: name is required (VALIDATION_FAILED)" {
		t.Fatalf("Error(): %q", got)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause should unwrap")
	}
	wrapped := fmt.Errorf("outer: %w", err)
	if !IsCode(wrapped, CodeValidation) || CodeOf(wrapped) != CodeValidation {
		t.Fatalf("code not found through wrapping")
	}
	if IsCode(cause, CodeValidation) || CodeOf(cause) != "" {
		t.Fatalf("plain errors carry no code")
	}
	if Wrap(CodeInternal, "op", nil) != nil {
		t.Fatalf("Wrap(nil) should be nil")
	}
	if got := (&Error{Code: CodeNotFound}).Error(); got != "NOT_FOUND" {
		t.Fatalf("bare code: %q", got)
	}
}

func TestPaginationNormalized(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, DefaultListLimit},
		{-3, DefaultListLimit},
		{10, 10},
		{MaxListLimit + 1, MaxListLimit},
	}
	for _, tc := range cases {
		if got := (Pagination{Limit: tc.in}).Normalized().Limit; got != tc.want {
			t.Fatalf("Normalized(%d): want=%d got=%d", tc.in, tc.want, got)
		}
	}
}

func TestSnapshotAccessors(t *testing.T) {
	s := Snapshot{"id": "c-1", "version": float64(3)}
	if s.ID() != "c-1" || s.Version() != 3 {
		t.Fatalf("accessors: id=%q version=%d", s.ID(), s.Version())
	}
	if (Snapshot{}).Version() != 0 {
		t.Fatalf("missing version should be 0")
	}
}

func TestActionTypeAndVerbs(t *testing.T) {
	if got := ActionType(NamespaceInvoices, VerbRestore); got != "invoices.restore" {
		t.Fatalf("ActionType: %q", got)
	}
	for _, v := range Verbs() {
		if !v.Valid() {
			t.Fatalf("verb %q should be valid", v)
		}
	}
	if Verb("upsert").Valid() {
		t.Fatalf("upsert is not a verb")
	}
}
