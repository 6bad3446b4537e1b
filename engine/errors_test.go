package engine

import (
	"errors"
	"testing"
)

func TestErrorIsMatchesByKind(t *testing.T) {
	err := newError(KindRowNotFound, "Select", "/tmp/db", nil)

	if !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("errors.Is(err, ErrRowNotFound) = false, want true")
	}
	if errors.Is(err, ErrDuplicatedKeyViolation) {
		t.Fatalf("errors.Is(err, ErrDuplicatedKeyViolation) = true, want false")
	}
}

func TestErrorUnwrapsUnderlyingCause(t *testing.T) {
	cause := errors.New("disk is on fire")
	err := newError(KindGeneric, "Insert", "/tmp/db", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is(err, cause) = false, want true")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindOk:                     "Ok",
		KindCannotOpenFile:         "CannotOpenFile",
		KindAllocationFailure:      "AllocationFailure",
		KindRowNotFound:            "RowNotFound",
		KindDuplicatedKeyViolation: "DuplicatedKeyViolation",
		KindGeneric:                "Generic",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Fatalf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}
