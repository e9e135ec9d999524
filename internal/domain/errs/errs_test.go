package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{Validation("bad shift %q", "Evening"), KindValidation},
		{NotFound("worker"), KindNotFound},
		{Conflict("taka %s is already %s", "T001", "Completed"), KindConflict},
		{Consistency("ledger adjustment failed", errors.New("boom")), KindConsistency},
		{errors.New("plain"), 0},
		{nil, 0},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("recording entry: %w", NotFound("taka"))
	if !IsNotFound(err) {
		t.Fatalf("wrapped not-found lost its kind: %v", err)
	}
}

func TestMessages(t *testing.T) {
	if got := NotFound("machine").Error(); got != "machine not found" {
		t.Errorf("NotFound message = %q", got)
	}
	if got := Validation("metersProduced must be positive").Error(); got != "metersProduced must be positive" {
		t.Errorf("Validation message = %q", got)
	}

	cause := errors.New("connection reset")
	got := Consistency("meter delta not applied", cause).Error()
	if got != "meter delta not applied: connection reset" {
		t.Errorf("Consistency message = %q", got)
	}
	if !errors.Is(Consistency("x", cause), cause) {
		t.Error("Consistency does not unwrap to its cause")
	}
}
